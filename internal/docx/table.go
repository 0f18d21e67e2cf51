package docx

import (
	"fmt"
	"strconv"
	"strings"
)

// TableWidth is the default width of generated tables and cells in twips.
const TableWidth = 8800

// Table wraps a w:tbl element.
type Table struct {
	el  *Element
	doc *Document
}

// Element returns the underlying w:tbl.
func (t *Table) Element() *Element {
	return t.el
}

func newTableElement(cols int) *Element {
	tbl := NewElement("w:tbl")
	tblPr := tbl.Ensure("w:tblPr")
	tblPr.Ensure("w:tblW").SetAttr("w:w", strconv.Itoa(TableWidth))
	tblPr.Ensure("w:tblW").SetAttr("w:type", "dxa")
	borders := tblPr.Ensure("w:tblBorders")
	for _, side := range []string{"w:top", "w:left", "w:bottom", "w:right", "w:insideH", "w:insideV"} {
		borders.Append(NewElement(side, "w:val", "single", "w:sz", "4", "w:space", "0", "w:color", "auto"))
	}
	grid := tbl.Ensure("w:tblGrid")
	colWidth := strconv.Itoa(TableWidth / cols)
	for i := 0; i < cols; i++ {
		grid.Append(NewElement("w:gridCol", "w:w", colWidth))
	}
	tbl.Append(newRowElement(cols))
	return tbl
}

func newRowElement(cols int) *Element {
	tr := NewElement("w:tr")
	for i := 0; i < cols; i++ {
		tr.Append(newCellElement())
	}
	return tr
}

func newCellElement() *Element {
	tc := NewElement("w:tc")
	tc.Append(NewElement("w:p"))
	return tc
}

// Columns returns the number of grid columns, falling back to the cell count
// of the first row.
func (t *Table) Columns() int {
	if grid := t.el.Child("w:tblGrid"); grid != nil {
		if n := len(grid.FindAll("w:gridCol")); n > 0 {
			return n
		}
	}
	if rows := t.Rows(); len(rows) > 0 {
		return len(rows[0].Cells())
	}
	return 0
}

// Rows returns the table rows.
func (t *Table) Rows() []*Row {
	var out []*Row
	for _, el := range t.el.Elements() {
		if el.Is("w:tr") {
			out = append(out, &Row{el: el, doc: t.doc})
		}
	}
	return out
}

// Row returns the row at index i.
func (t *Table) Row(i int) (*Row, error) {
	rows := t.Rows()
	if i < 0 || i >= len(rows) {
		return nil, fmt.Errorf("docx: row %d of %d: %w", i, len(rows), ErrInvalidPosition)
	}
	return rows[i], nil
}

// AppendRow adds a row with one empty cell per column.
func (t *Table) AppendRow() *Row {
	row := newRowElement(max(t.Columns(), 1))
	t.el.Append(row)
	return &Row{el: row, doc: t.doc}
}

// InsertRow adds an empty row so that it becomes row index. An index equal
// to the row count appends. Like the cursor inserts it leaves existing
// cursors valid.
func (t *Table) InsertRow(index int) (*Row, error) {
	rows := t.Rows()
	if index < 0 || index > len(rows) {
		return nil, fmt.Errorf("docx: insert row %d of %d: %w", index, len(rows), ErrInvalidPosition)
	}
	if index == len(rows) {
		return t.AppendRow(), nil
	}
	row := newRowElement(max(t.Columns(), 1))
	t.el.Insert(t.el.IndexOf(rows[index].el), row)
	return &Row{el: row, doc: t.doc}, nil
}

// AddRow appends a row and fills its cells with values. Missing cells are
// created, surplus cells stay empty.
func (t *Table) AddRow(values ...string) *Row {
	row := t.AppendRow()
	row.Fill(values...)
	return row
}

// Text returns the table text, rows separated by newlines and cells by tabs.
func (t *Table) Text() string {
	var lines []string
	for _, r := range t.Rows() {
		lines = append(lines, strings.Join(r.Texts(), "\t"))
	}
	return strings.Join(lines, "\n")
}

// Row wraps a w:tr element.
type Row struct {
	el  *Element
	doc *Document
}

// Element returns the underlying w:tr.
func (r *Row) Element() *Element {
	return r.el
}

// Cells returns the row's cells.
func (r *Row) Cells() []*Cell {
	var out []*Cell
	for _, el := range r.el.Elements() {
		if el.Is("w:tc") {
			out = append(out, &Cell{el: el, doc: r.doc})
		}
	}
	return out
}

// Cell returns the cell at index i.
func (r *Row) Cell(i int) (*Cell, error) {
	cells := r.Cells()
	if i < 0 || i >= len(cells) {
		return nil, fmt.Errorf("docx: cell %d of %d: %w", i, len(cells), ErrInvalidPosition)
	}
	return cells[i], nil
}

// AddCell appends an empty cell.
func (r *Row) AddCell() *Cell {
	tc := newCellElement()
	r.el.Append(tc)
	return &Cell{el: tc, doc: r.doc}
}

// Fill sets cell texts left to right, adding cells as needed.
func (r *Row) Fill(values ...string) {
	cells := r.Cells()
	for i, v := range values {
		var c *Cell
		if i < len(cells) {
			c = cells[i]
		} else {
			c = r.AddCell()
		}
		c.SetText(v)
	}
}

// Texts returns the text of every cell.
func (r *Row) Texts() []string {
	var out []string
	for _, c := range r.Cells() {
		out = append(out, c.Text())
	}
	return out
}

// Text returns the row text with cells separated by tabs.
func (r *Row) Text() string {
	return strings.Join(r.Texts(), "\t")
}

// MergeCells collapses all cells into the first one, which then spans the
// full table grid. Dropping the other cells invalidates existing cursors.
func (r *Row) MergeCells(span int) *Cell {
	cells := r.Cells()
	if len(cells) == 0 {
		return r.AddCell().Span(span)
	}
	for _, c := range cells[1:] {
		r.el.RemoveChild(c.el)
	}
	if len(cells) > 1 {
		r.doc.invalidateCursors()
	}
	return cells[0].Span(span)
}

// Cell wraps a w:tc element.
type Cell struct {
	el  *Element
	doc *Document
}

// Element returns the underlying w:tc.
func (c *Cell) Element() *Element {
	return c.el
}

// Text returns the cell text, one line per paragraph.
func (c *Cell) Text() string {
	var lines []string
	for _, p := range c.el.Elements() {
		if p.Is("w:p") {
			lines = append(lines, paragraphText(p))
		}
	}
	return strings.Join(lines, "\n")
}

// Paragraph returns the first paragraph of the cell, creating it if needed.
func (c *Cell) Paragraph() *Paragraph {
	if p := c.el.Child("w:p"); p != nil {
		return &Paragraph{el: p, doc: c.doc}
	}
	p := NewElement("w:p")
	c.el.Append(p)
	return &Paragraph{el: p, doc: c.doc}
}

// SetText replaces the cell content with a single paragraph holding text.
// It rewrites content in place and leaves cursors valid.
func (c *Cell) SetText(text string) *Run {
	var kept []Node
	if tcPr := c.el.Child("w:tcPr"); tcPr != nil {
		kept = append(kept, tcPr)
	}
	var pPr *Element
	if p := c.el.Child("w:p"); p != nil {
		pPr = p.Child("w:pPr")
	}
	c.el.Children = kept
	p := NewElement("w:p")
	if pPr != nil {
		p.Append(pPr)
	}
	c.el.Append(p)
	para := &Paragraph{el: p, doc: c.doc}
	return para.AddRun(text)
}

// Width sets the preferred cell width in twips.
func (c *Cell) Width(twips int) *Cell {
	tcW := c.el.Ensure("w:tcPr").Ensure("w:tcW")
	tcW.SetAttr("w:w", strconv.Itoa(twips))
	tcW.SetAttr("w:type", "dxa")
	return c
}

// Span makes the cell cover n grid columns.
func (c *Cell) Span(n int) *Cell {
	if n > 1 {
		c.el.Ensure("w:tcPr").Ensure("w:gridSpan").SetAttr("w:val", strconv.Itoa(n))
	}
	return c
}

// SpanValue returns the number of grid columns the cell covers.
func (c *Cell) SpanValue() int {
	if tcPr := c.el.Child("w:tcPr"); tcPr != nil {
		if gs := tcPr.Child("w:gridSpan"); gs != nil {
			if v, ok := gs.AttrValue("w:val"); ok {
				if n, err := strconv.Atoi(v); err == nil {
					return n
				}
			}
		}
	}
	return 1
}
