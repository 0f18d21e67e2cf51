package docx

import (
	"fmt"
)

// Cursor is a position between children of an element: it sits before the
// child at Index. Cursors are values; every insert returns a fresh cursor and
// any removal of elements in the document invalidates the cursors taken
// before it. Run.SetText and Cell.SetText rewrite content in place and keep
// cursors valid; a cursor into the replaced content must not be reused.
type Cursor struct {
	doc    *Document
	parent *Element
	index  int
	epoch  int
}

// Before returns the cursor positioned directly before el.
func (d *Document) Before(el *Element) (Cursor, error) {
	parent := el.Parent()
	if parent == nil {
		return Cursor{}, fmt.Errorf("docx: cursor before <%s>: %w", el.Tag(), ErrInvalidPosition)
	}
	return Cursor{doc: d, parent: parent, index: parent.IndexOf(el), epoch: d.epoch}, nil
}

// After returns the cursor positioned directly after el.
func (d *Document) After(el *Element) (Cursor, error) {
	cur, err := d.Before(el)
	if err != nil {
		return Cursor{}, err
	}
	cur.index++
	return cur, nil
}

// EndCursor returns the last body position, before a trailing w:sectPr.
func (d *Document) EndCursor() Cursor {
	index := len(d.body.Children)
	for i := len(d.body.Children) - 1; i >= 0; i-- {
		if el, ok := d.body.Children[i].(*Element); ok {
			if el.Is("w:sectPr") {
				index = i
			}
			break
		}
	}
	return Cursor{doc: d, parent: d.body, index: index, epoch: d.epoch}
}

// Valid reports whether the cursor still addresses the tree it was taken from.
func (c Cursor) Valid() bool {
	return c.doc != nil && c.parent != nil && c.epoch == c.doc.epoch &&
		c.index >= 0 && c.index <= len(c.parent.Children)
}

// Parent returns the element the cursor points into.
func (c Cursor) Parent() *Element {
	return c.parent
}

// Index returns the child position the cursor sits before.
func (c Cursor) Index() int {
	return c.index
}

// IsInsertionPoint reports whether the cursor sits at the start of an element.
func (c Cursor) IsInsertionPoint() bool {
	if !c.Valid() || c.index >= len(c.parent.Children) {
		return false
	}
	_, ok := c.parent.Children[c.index].(*Element)
	return ok
}

// Next moves one token forward: past the node at the cursor, or out through
// the closing tag of the parent when the cursor is at its end. ok is false
// once the document is exhausted.
func (c Cursor) Next() (Cursor, bool) {
	if !c.Valid() {
		return c, false
	}
	if c.index < len(c.parent.Children) {
		c.index++
		return c, true
	}
	grand := c.parent.Parent()
	if grand == nil || grand.Parent() == nil {
		return c, false
	}
	c.index = grand.IndexOf(c.parent) + 1
	c.parent = grand
	return c, true
}

// Element returns the element at the cursor, if any.
func (c Cursor) Element() *Element {
	if !c.Valid() || c.index >= len(c.parent.Children) {
		return nil
	}
	el, _ := c.parent.Children[c.index].(*Element)
	return el
}

func (c Cursor) check(op string) error {
	if !c.Valid() {
		return fmt.Errorf("docx: %s: %w", op, ErrInvalidPosition)
	}
	return nil
}

// insert places el at the cursor and returns the cursor after it.
func (c Cursor) insert(el *Element) Cursor {
	c.parent.Insert(c.index, el)
	c.index++
	return c
}

// InsertParagraph inserts an empty paragraph at the cursor.
func (d *Document) InsertParagraph(cur Cursor) (*Paragraph, Cursor, error) {
	if err := cur.check("insert paragraph"); err != nil {
		return nil, cur, err
	}
	el := NewElement("w:p")
	next := cur.insert(el)
	return &Paragraph{el: el, doc: d}, next, nil
}

// InsertTable inserts a bordered table with one empty row of cols cells.
func (d *Document) InsertTable(cur Cursor, cols int) (*Table, Cursor, error) {
	if err := cur.check("insert table"); err != nil {
		return nil, cur, err
	}
	if cols < 1 {
		return nil, cur, fmt.Errorf("docx: insert table with %d columns: %w", cols, ErrInvalidPosition)
	}
	el := newTableElement(cols)
	next := cur.insert(el)
	return &Table{el: el, doc: d}, next, nil
}

// AppendParagraph adds an empty paragraph at the end of the body.
func (d *Document) AppendParagraph() *Paragraph {
	p, _, _ := d.InsertParagraph(d.EndCursor())
	return p
}
