package docx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Node is one child of an element: another element or raw character data.
type Node interface {
	node()
}

// Element is a parsed XML element. Names keep their document prefix in
// Name.Space (for example "w") so parts serialize back unchanged.
type Element struct {
	Name     xml.Name
	Attr     []xml.Attr
	Children []Node
	parent   *Element
}

// CharData is text between tags.
type CharData string

// rawNode keeps comments, processing instructions and directives verbatim.
type rawNode struct {
	tok xml.Token
}

func (*Element) node() {}
func (CharData) node() {}
func (rawNode) node()  {}

// NewElement builds an element from a "prefix:local" name.
func NewElement(name string, attrs ...string) *Element {
	el := &Element{Name: splitName(name)}
	for i := 0; i+1 < len(attrs); i += 2 {
		el.SetAttr(attrs[i], attrs[i+1])
	}
	return el
}

func splitName(name string) xml.Name {
	if prefix, local, ok := strings.Cut(name, ":"); ok {
		return xml.Name{Space: prefix, Local: local}
	}
	return xml.Name{Local: name}
}

func joinName(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}

// Tag returns the prefixed element name.
func (e *Element) Tag() string {
	return joinName(e.Name)
}

// Is reports whether the element has the given prefixed name.
func (e *Element) Is(name string) bool {
	return e != nil && joinName(e.Name) == name
}

// Parent returns the enclosing element, or nil for a root.
func (e *Element) Parent() *Element {
	return e.parent
}

// AttrValue returns the value of a prefixed attribute.
func (e *Element) AttrValue(name string) (string, bool) {
	for _, a := range e.Attr {
		if joinName(a.Name) == name {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr sets or replaces a prefixed attribute.
func (e *Element) SetAttr(name, value string) {
	for i, a := range e.Attr {
		if joinName(a.Name) == name {
			e.Attr[i].Value = value
			return
		}
	}
	e.Attr = append(e.Attr, xml.Attr{Name: splitName(name), Value: value})
}

// Elements returns the element children in order.
func (e *Element) Elements() []*Element {
	var out []*Element
	for _, child := range e.Children {
		if el, ok := child.(*Element); ok {
			out = append(out, el)
		}
	}
	return out
}

// Child returns the first direct child with the given name.
func (e *Element) Child(name string) *Element {
	for _, child := range e.Children {
		if el, ok := child.(*Element); ok && el.Is(name) {
			return el
		}
	}
	return nil
}

// childOrder lists the schema sequence of the children Ensure may create.
var childOrder = map[string][]string{
	"w:p":     {"w:pPr"},
	"w:r":     {"w:rPr"},
	"w:tbl":   {"w:tblPr", "w:tblGrid"},
	"w:tr":    {"w:trPr"},
	"w:tc":    {"w:tcPr"},
	"w:pPr":   {"w:pStyle", "w:keepNext", "w:numPr", "w:spacing", "w:jc"},
	"w:rPr":   {"w:rStyle", "w:b", "w:i", "w:color", "w:sz", "w:u"},
	"w:tblPr": {"w:tblStyle", "w:tblW", "w:jc", "w:tblBorders", "w:tblLayout", "w:tblLook"},
	"w:tcPr":  {"w:tcW", "w:gridSpan", "w:hMerge", "w:vMerge", "w:tcBorders", "w:shd", "w:vAlign"},
}

func rankOf(order []string, name string) int {
	for i, n := range order {
		if n == name {
			return i
		}
	}
	return -1
}

// Ensure returns the named child, creating it at its schema position when
// absent.
func (e *Element) Ensure(name string) *Element {
	if el := e.Child(name); el != nil {
		return el
	}
	el := NewElement(name)
	order := childOrder[e.Tag()]
	rank := rankOf(order, name)
	if rank < 0 {
		e.Append(el)
		return el
	}
	container := strings.HasSuffix(e.Tag(), "Pr")
	for i, child := range e.Children {
		c, ok := child.(*Element)
		if !ok {
			continue
		}
		r := rankOf(order, c.Tag())
		if r > rank || (r < 0 && !container) {
			e.Insert(i, el)
			return el
		}
	}
	e.Append(el)
	return el
}

// Append adds children at the end.
func (e *Element) Append(children ...Node) {
	for _, child := range children {
		if el, ok := child.(*Element); ok {
			el.parent = e
		}
	}
	e.Children = append(e.Children, children...)
}

// Insert places a child before position index.
func (e *Element) Insert(index int, child Node) {
	if el, ok := child.(*Element); ok {
		el.parent = e
	}
	e.Children = append(e.Children, nil)
	copy(e.Children[index+1:], e.Children[index:])
	e.Children[index] = child
}

// IndexOf returns the position of child among the node's children or -1.
func (e *Element) IndexOf(child Node) int {
	for i, c := range e.Children {
		if c == child {
			return i
		}
	}
	return -1
}

// RemoveChild detaches child and reports whether it was present.
func (e *Element) RemoveChild(child Node) bool {
	idx := e.IndexOf(child)
	if idx < 0 {
		return false
	}
	e.Children = append(e.Children[:idx], e.Children[idx+1:]...)
	if el, ok := child.(*Element); ok {
		el.parent = nil
	}
	return true
}

// Walk visits the element and its descendants depth first. Returning false
// from fn skips the element's children.
func (e *Element) Walk(fn func(*Element) bool) {
	if !fn(e) {
		return
	}
	for _, child := range e.Children {
		if el, ok := child.(*Element); ok {
			el.Walk(fn)
		}
	}
}

// FindAll returns all descendants with the given name.
func (e *Element) FindAll(name string) []*Element {
	var out []*Element
	e.Walk(func(el *Element) bool {
		if el != e && el.Is(name) {
			out = append(out, el)
		}
		return true
	})
	return out
}

// Clone returns a deep copy without a parent.
func (e *Element) Clone() *Element {
	out := &Element{Name: e.Name, Attr: append([]xml.Attr(nil), e.Attr...)}
	for _, child := range e.Children {
		switch c := child.(type) {
		case *Element:
			out.Append(c.Clone())
		default:
			out.Children = append(out.Children, c)
		}
	}
	return out
}

// parsePart reads an XML part into a synthetic root that holds the prolog and
// the document element.
func parsePart(data []byte) (*Element, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	root := &Element{}
	current := root
	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("docx: parse xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{Name: t.Name, Attr: append([]xml.Attr(nil), t.Attr...)}
			current.Append(el)
			current = el
		case xml.EndElement:
			if current == root || joinName(current.Name) != joinName(t.Name) {
				return nil, fmt.Errorf("docx: parse xml: unexpected </%s>", joinName(t.Name))
			}
			current = current.parent
		case xml.CharData:
			current.Children = append(current.Children, CharData(string(t)))
		default:
			current.Children = append(current.Children, rawNode{tok: xml.CopyToken(tok)})
		}
	}
	if current != root {
		return nil, fmt.Errorf("docx: parse xml: unclosed <%s>", joinName(current.Name))
	}
	return root, nil
}

// documentElement returns the first element child of a synthetic root.
func documentElement(root *Element) *Element {
	for _, child := range root.Children {
		if el, ok := child.(*Element); ok {
			return el
		}
	}
	return nil
}

func serializePart(root *Element) ([]byte, error) {
	var buf bytes.Buffer
	for _, child := range root.Children {
		if err := writeNode(&buf, child); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func writeNode(buf *bytes.Buffer, n Node) error {
	switch v := n.(type) {
	case *Element:
		return writeElement(buf, v)
	case CharData:
		return xml.EscapeText(buf, []byte(v))
	case rawNode:
		return writeRaw(buf, v.tok)
	}
	return nil
}

func writeElement(buf *bytes.Buffer, e *Element) error {
	buf.WriteByte('<')
	buf.WriteString(joinName(e.Name))
	for _, a := range e.Attr {
		buf.WriteByte(' ')
		buf.WriteString(joinName(a.Name))
		buf.WriteString(`="`)
		if err := xml.EscapeText(buf, []byte(a.Value)); err != nil {
			return err
		}
		buf.WriteByte('"')
	}
	if len(e.Children) == 0 {
		buf.WriteString("/>")
		return nil
	}
	buf.WriteByte('>')
	for _, child := range e.Children {
		if err := writeNode(buf, child); err != nil {
			return err
		}
	}
	buf.WriteString("</")
	buf.WriteString(joinName(e.Name))
	buf.WriteByte('>')
	return nil
}

func writeRaw(buf *bytes.Buffer, tok xml.Token) error {
	switch t := tok.(type) {
	case xml.ProcInst:
		buf.WriteString("<?")
		buf.WriteString(t.Target)
		if len(t.Inst) > 0 {
			buf.WriteByte(' ')
			buf.Write(t.Inst)
		}
		buf.WriteString("?>")
	case xml.Comment:
		buf.WriteString("<!--")
		buf.Write(t)
		buf.WriteString("-->")
	case xml.Directive:
		buf.WriteString("<!")
		buf.Write(t)
		buf.WriteByte('>')
	default:
		return fmt.Errorf("docx: serialize: unexpected token %T", tok)
	}
	return nil
}
