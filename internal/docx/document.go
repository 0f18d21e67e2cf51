// Package docx is a small WordprocessingML document model: it loads a .docx
// package into an element tree, exposes paragraph, run and table wrappers,
// insertion cursors and bookmark links, and serializes the package back to
// bytes.
package docx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	mainPart = "word/document.xml"

	namespaceW = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	namespaceR = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
)

var (
	// ErrCorruptTemplate reports a document that lacks expected structure.
	ErrCorruptTemplate = errors.New("corrupt template")
	// ErrInvalidPosition reports a cursor that no longer points into the tree.
	ErrInvalidPosition = errors.New("invalid cursor position")
	// ErrTableIndex reports a table lookup past the last body table.
	ErrTableIndex = errors.New("table index out of range")
)

type packageFile struct {
	name   string
	method uint16
	data   []byte
}

// Document is an in-memory, mutable copy of a .docx package.
type Document struct {
	files      []packageFile
	parts      map[string]*Element
	body       *Element
	epoch      int
	bookmarkID int
}

// Open loads a document from package bytes. The input slice is not retained.
func Open(data []byte) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("docx: open package: %w", err)
	}
	doc := &Document{parts: map[string]*Element{}}
	for _, f := range zr.File {
		content, err := readZipFile(f)
		if err != nil {
			return nil, fmt.Errorf("docx: read %s: %w", f.Name, err)
		}
		doc.files = append(doc.files, packageFile{name: f.Name, method: f.Method, data: content})
		if !isTextPart(f.Name) {
			continue
		}
		root, err := parsePart(content)
		if err != nil {
			return nil, fmt.Errorf("docx: %s: %w", f.Name, err)
		}
		doc.parts[f.Name] = root
	}
	main, ok := doc.parts[mainPart]
	if !ok {
		return nil, fmt.Errorf("docx: %s missing: %w", mainPart, ErrCorruptTemplate)
	}
	body := documentElement(main).Child("w:body")
	if body == nil {
		return nil, fmt.Errorf("docx: w:body missing: %w", ErrCorruptTemplate)
	}
	doc.body = body
	doc.bookmarkID = maxBookmarkID(body)
	return doc, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// isTextPart reports whether a package part holds searchable document text.
func isTextPart(name string) bool {
	if name == mainPart {
		return true
	}
	if !strings.HasPrefix(name, "word/") || !strings.HasSuffix(name, ".xml") {
		return false
	}
	base := strings.TrimPrefix(name, "word/")
	return strings.HasPrefix(base, "header") || strings.HasPrefix(base, "footer")
}

func maxBookmarkID(body *Element) int {
	highest := 0
	body.Walk(func(el *Element) bool {
		if el.Is("w:bookmarkStart") {
			if raw, ok := el.AttrValue("w:id"); ok {
				if id, err := strconv.Atoi(raw); err == nil && id > highest {
					highest = id
				}
			}
		}
		return true
	})
	return highest
}

// Bytes serializes the package. Parsed parts are written from the tree, all
// other parts are copied unchanged.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range d.files {
		content := f.data
		if root, ok := d.parts[f.name]; ok {
			out, err := serializePart(root)
			if err != nil {
				return nil, fmt.Errorf("docx: serialize %s: %w", f.name, err)
			}
			content = out
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: f.name, Method: f.method})
		if err != nil {
			return nil, fmt.Errorf("docx: write %s: %w", f.name, err)
		}
		if _, err := w.Write(content); err != nil {
			return nil, fmt.Errorf("docx: write %s: %w", f.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("docx: close package: %w", err)
	}
	return buf.Bytes(), nil
}

// NewFromBody builds a minimal package around the given w:body inner XML.
func NewFromBody(bodyXML string) (*Document, error) {
	files := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
			`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
			`<Default Extension="xml" ContentType="application/xml"/>` +
			`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
			`</Types>`,
		"_rels/.rels": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
			`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
			`</Relationships>`,
		mainPart: `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<w:document xmlns:w="` + namespaceW + `" xmlns:r="` + namespaceR + `"><w:body>` +
			bodyXML + `</w:body></w:document>`,
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range []string{"[Content_Types].xml", "_rels/.rels", mainPart} {
		w, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("docx: build package: %w", err)
		}
		if _, err := io.WriteString(w, files[name]); err != nil {
			return nil, fmt.Errorf("docx: build package: %w", err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("docx: build package: %w", err)
	}
	return Open(buf.Bytes())
}

// Body returns the w:body element.
func (d *Document) Body() *Element {
	return d.body
}

// Paragraphs returns the body-level paragraphs in document order.
func (d *Document) Paragraphs() []*Paragraph {
	var out []*Paragraph
	for _, el := range d.body.Elements() {
		if el.Is("w:p") {
			out = append(out, &Paragraph{el: el, doc: d})
		}
	}
	return out
}

// AllParagraphs returns every paragraph of the main part and of header and
// footer parts, including paragraphs nested in tables.
func (d *Document) AllParagraphs() []*Paragraph {
	var out []*Paragraph
	for _, name := range d.textPartNames() {
		root := d.parts[name]
		for _, el := range root.FindAll("w:p") {
			out = append(out, &Paragraph{el: el, doc: d})
		}
	}
	return out
}

func (d *Document) textPartNames() []string {
	names := []string{mainPart}
	for _, f := range d.files {
		if f.name != mainPart {
			if _, ok := d.parts[f.name]; ok {
				names = append(names, f.name)
			}
		}
	}
	return names
}

// Tables returns the body-level tables in document order.
func (d *Document) Tables() []*Table {
	var out []*Table
	for _, el := range d.body.Elements() {
		if el.Is("w:tbl") {
			out = append(out, &Table{el: el, doc: d})
		}
	}
	return out
}

// Table returns the body-level table at physical position i.
func (d *Document) Table(i int) (*Table, error) {
	tables := d.Tables()
	if i < 0 || i >= len(tables) {
		return nil, fmt.Errorf("docx: table %d of %d: %w", i, len(tables), ErrTableIndex)
	}
	return tables[i], nil
}

// Text returns the text of the main part, one line per paragraph.
func (d *Document) Text() string {
	var lines []string
	for _, el := range d.parts[mainPart].FindAll("w:p") {
		lines = append(lines, paragraphText(el))
	}
	return strings.Join(lines, "\n")
}

// Remove detaches an element from the tree. Cursors taken before the removal
// are invalidated.
func (d *Document) Remove(el *Element) error {
	parent := el.Parent()
	if parent == nil || !parent.RemoveChild(el) {
		return fmt.Errorf("docx: remove <%s>: %w", el.Tag(), ErrInvalidPosition)
	}
	d.invalidateCursors()
	return nil
}

// invalidateCursors marks every cursor taken so far as stale.
func (d *Document) invalidateCursors() {
	if d != nil {
		d.epoch++
	}
}

func (d *Document) nextBookmarkID() int {
	d.bookmarkID++
	return d.bookmarkID
}
