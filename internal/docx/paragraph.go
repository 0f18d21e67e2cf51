package docx

import (
	"strconv"
	"strings"
)

// Paragraph wraps a w:p element.
type Paragraph struct {
	el  *Element
	doc *Document
}

// Element returns the underlying w:p.
func (p *Paragraph) Element() *Element {
	return p.el
}

// Text returns the concatenated run text of the paragraph.
func (p *Paragraph) Text() string {
	return paragraphText(p.el)
}

func paragraphText(el *Element) string {
	var sb strings.Builder
	el.Walk(func(child *Element) bool {
		switch {
		case child.Is("w:t"):
			sb.WriteString(textOf(child))
		case child.Is("w:tab"):
			sb.WriteByte('\t')
		case child.Is("w:br") && child != el:
			if kind, _ := child.AttrValue("w:type"); kind == "" || kind == "textWrapping" {
				sb.WriteByte('\n')
			}
		}
		return true
	})
	return sb.String()
}

func textOf(t *Element) string {
	var sb strings.Builder
	for _, child := range t.Children {
		if cd, ok := child.(CharData); ok {
			sb.WriteString(string(cd))
		}
	}
	return sb.String()
}

func setText(t *Element, text string) {
	t.Children = []Node{CharData(text)}
	if text != strings.TrimSpace(text) {
		t.SetAttr("xml:space", "preserve")
	}
}

// Style sets the paragraph style id, for example "Heading2".
func (p *Paragraph) Style(styleID string) *Paragraph {
	p.el.Ensure("w:pPr").Ensure("w:pStyle").SetAttr("w:val", styleID)
	return p
}

// Numbering attaches the paragraph to a numbering definition (bullets,
// numbered headings) at the given level.
func (p *Paragraph) Numbering(numID, level int) *Paragraph {
	numPr := p.el.Ensure("w:pPr").Ensure("w:numPr")
	numPr.Ensure("w:ilvl").SetAttr("w:val", strconv.Itoa(level))
	numPr.Ensure("w:numId").SetAttr("w:val", strconv.Itoa(numID))
	return p
}

// AddRun appends a run holding text. Newlines become line breaks.
func (p *Paragraph) AddRun(text string) *Run {
	r := &Run{el: NewElement("w:r")}
	r.SetText(text)
	p.el.Append(r.el)
	return r
}

// Runs returns the direct runs of the paragraph.
func (p *Paragraph) Runs() []*Run {
	var out []*Run
	for _, el := range p.el.Elements() {
		if el.Is("w:r") {
			out = append(out, &Run{el: el})
		}
	}
	return out
}

// PageBreak appends a run holding a page break.
func (p *Paragraph) PageBreak() {
	r := NewElement("w:r")
	r.Append(NewElement("w:br", "w:type", "page"))
	p.el.Append(r)
}

// Bookmark wraps the current paragraph content in a named bookmark so
// hyperlinks elsewhere in the document can jump to it.
func (p *Paragraph) Bookmark(name string) {
	id := strconv.Itoa(p.doc.nextBookmarkID())
	start := NewElement("w:bookmarkStart", "w:id", id, "w:name", name)
	end := NewElement("w:bookmarkEnd", "w:id", id)
	index := 0
	if pPr := p.el.Child("w:pPr"); pPr != nil {
		index = p.el.IndexOf(pPr) + 1
	}
	p.el.Insert(index, start)
	p.el.Append(end)
}

// AddLink appends a hyperlink run pointing at a bookmark in the document.
func (p *Paragraph) AddLink(bookmark, text string) *Run {
	link := NewElement("w:hyperlink", "w:anchor", bookmark, "w:history", "1")
	r := &Run{el: NewElement("w:r")}
	r.SetText(text)
	r.Color("0563C1")
	r.el.Ensure("w:rPr").Ensure("w:u").SetAttr("w:val", "single")
	link.Append(r.el)
	p.el.Append(link)
	return r
}

// Links returns the bookmark names the paragraph's hyperlinks point at.
func (p *Paragraph) Links() []string {
	var out []string
	for _, el := range p.el.FindAll("w:hyperlink") {
		if anchor, ok := el.AttrValue("w:anchor"); ok {
			out = append(out, anchor)
		}
	}
	return out
}

// Bookmarks returns the bookmark names declared in the paragraph.
func (p *Paragraph) Bookmarks() []string {
	var out []string
	for _, el := range p.el.FindAll("w:bookmarkStart") {
		if name, ok := el.AttrValue("w:name"); ok {
			out = append(out, name)
		}
	}
	return out
}

// Run wraps a w:r element.
type Run struct {
	el *Element
}

// Element returns the underlying w:r.
func (r *Run) Element() *Element {
	return r.el
}

// SetText replaces the run content. Newlines become line breaks.
func (r *Run) SetText(text string) *Run {
	var kept []Node
	if rPr := r.el.Child("w:rPr"); rPr != nil {
		kept = append(kept, rPr)
	}
	r.el.Children = kept
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			r.el.Append(NewElement("w:br"))
		}
		t := NewElement("w:t")
		setText(t, line)
		r.el.Append(t)
	}
	return r
}

// Text returns the run's text.
func (r *Run) Text() string {
	return paragraphText(r.el)
}

// Bold turns on bold formatting.
func (r *Run) Bold() *Run {
	r.el.Ensure("w:rPr").Ensure("w:b")
	return r
}

// IsBold reports whether the run is bold.
func (r *Run) IsBold() bool {
	rPr := r.el.Child("w:rPr")
	return rPr != nil && rPr.Child("w:b") != nil
}

// Size sets the font size in points.
func (r *Run) Size(points int) *Run {
	r.el.Ensure("w:rPr").Ensure("w:sz").SetAttr("w:val", strconv.Itoa(points*2))
	return r
}

// Color sets the font color as an RRGGBB hex value.
func (r *Run) Color(hex string) *Run {
	r.el.Ensure("w:rPr").Ensure("w:color").SetAttr("w:val", hex)
	return r
}

// ColorValue returns the run's font color, if any.
func (r *Run) ColorValue() string {
	if rPr := r.el.Child("w:rPr"); rPr != nil {
		if c := rPr.Child("w:color"); c != nil {
			v, _ := c.AttrValue("w:val")
			return v
		}
	}
	return ""
}
