package report

import (
	"context"
	"strings"

	"github.com/kingrea/licensedoc/internal/anchor"
	"github.com/kingrea/licensedoc/internal/docx"
)

const (
	fontSize     = 12
	alertColor   = "FF0000"
	styleHeading = "Heading2"
	styleSection = "Heading3"
	styleList    = "ListParagraph"
	bulletNumID  = 1
	headingNumID = 2

	noReleasesText = "Either there is no releases based on your selection or the selected project does not contain any release"
)

// writer inserts content at a cursor that moves forward with every insert.
// The first failure sticks; later calls are no-ops returning it.
type writer struct {
	doc *docx.Document
	cur docx.Cursor
	err error
}

func newWriter(doc *docx.Document, cur docx.Cursor) *writer {
	return &writer{doc: doc, cur: cur}
}

// done returns the cursor after the last insert.
func (w *writer) done() (docx.Cursor, error) {
	return w.cur, w.err
}

func (w *writer) position() bool {
	if w.err != nil {
		return false
	}
	if !w.cur.IsInsertionPoint() {
		cur, err := anchor.AdvanceToInsertionPoint(w.cur)
		if err != nil {
			w.err = err
			return false
		}
		w.cur = cur
	}
	return true
}

// paragraph inserts an empty paragraph. It returns nil after a failure.
func (w *writer) paragraph() *docx.Paragraph {
	if !w.position() {
		return nil
	}
	p, next, err := w.doc.InsertParagraph(w.cur)
	if err != nil {
		w.err = err
		return nil
	}
	w.cur = next
	return p
}

func (w *writer) text(text string) *docx.Paragraph {
	p := w.paragraph()
	if p != nil {
		p.AddRun(text).Size(fontSize)
	}
	return p
}

func (w *writer) bold(text string, size int) *docx.Paragraph {
	p := w.paragraph()
	if p != nil {
		p.AddRun(text).Size(size).Bold()
	}
	return p
}

func (w *writer) alert(text string) {
	if p := w.paragraph(); p != nil {
		p.AddRun(text).Size(fontSize).Color(alertColor)
	}
}

func (w *writer) heading(style, text, bookmark string) *docx.Paragraph {
	p := w.paragraph()
	if p == nil {
		return nil
	}
	p.Style(style)
	p.AddRun(text)
	if bookmark != "" {
		p.Bookmark(bookmark)
	}
	return p
}

func (w *writer) blank(n int) {
	for i := 0; i < n; i++ {
		w.paragraph()
	}
}

func (w *writer) pageBreak() {
	if p := w.paragraph(); p != nil {
		p.PageBreak()
	}
}

// table inserts a table with one empty row of cols cells.
func (w *writer) table(cols int) *docx.Table {
	if !w.position() {
		return nil
	}
	tbl, next, err := w.doc.InsertTable(w.cur, cols)
	if err != nil {
		w.err = err
		return nil
	}
	w.cur = next
	return tbl
}

// token is a placeholder and its replacement.
type token struct {
	name  string
	value string
}

func (r *run) replaceTokens(ctx context.Context, tokens []token) error {
	for _, t := range tokens {
		n := anchor.ReplaceToken(r.doc, t.name, t.value)
		if n == 0 {
			r.gen.log.Info("token %s not present in template", t.name)
		}
	}
	return ctx.Err()
}

// insertRows fills rows into tbl starting at row index start.
func insertRows(tbl *docx.Table, start int, rows [][]string) error {
	for i, values := range rows {
		row, err := tbl.InsertRow(start + i)
		if err != nil {
			return err
		}
		row.Fill(values...)
	}
	return nil
}

// headerRow sets the first row of a fresh table to bold header texts.
func headerRow(tbl *docx.Table, headers ...string) {
	row, err := tbl.Row(0)
	if err != nil {
		row = tbl.AppendRow()
	}
	for i, h := range headers {
		var cell *docx.Cell
		if cells := row.Cells(); i < len(cells) {
			cell = cells[i]
		} else {
			cell = row.AddCell()
		}
		cell.SetText(h).Bold()
	}
}

// joinOr joins values with sep, or returns fallback when there are none.
func joinOr(values []string, sep, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	return strings.Join(values, sep)
}

// orDefault returns value, or fallback when value is blank.
func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
