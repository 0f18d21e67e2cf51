// Package anchor locates marker tokens in a document and turns them into
// insertion cursors, replaces placeholder tokens and removes marker
// paragraphs whose data is absent.
package anchor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kingrea/licensedoc/internal/docx"
)

// ErrNotFound reports a marker token missing from the document.
var ErrNotFound = fmt.Errorf("anchor not found: %w", docx.ErrCorruptTemplate)

// FindToken returns a cursor before the first body paragraph whose whole text
// is the token, compared case-insensitively after trimming.
func FindToken(doc *docx.Document, token string) (docx.Cursor, error) {
	for _, p := range doc.Paragraphs() {
		if isMarker(p.Text(), token) {
			return doc.Before(p.Element())
		}
	}
	return docx.Cursor{}, fmt.Errorf("anchor: find %q: %w", token, ErrNotFound)
}

// AdvanceToInsertionPoint moves the cursor forward until it sits at the start
// of an element.
func AdvanceToInsertionPoint(cur docx.Cursor) (docx.Cursor, error) {
	if !cur.Valid() {
		return cur, fmt.Errorf("anchor: advance: %w", docx.ErrInvalidPosition)
	}
	for !cur.IsInsertionPoint() {
		next, ok := cur.Next()
		if !ok {
			return cur, fmt.Errorf("anchor: advance: document exhausted: %w", docx.ErrCorruptTemplate)
		}
		cur = next
	}
	return cur, nil
}

// After returns the cursor directly after el.
func After(doc *docx.Document, el *docx.Element) (docx.Cursor, error) {
	cur, err := doc.After(el)
	if err != nil {
		return cur, fmt.Errorf("anchor: after <%s>: %w", el.Tag(), err)
	}
	return cur, nil
}

// ReplaceToken substitutes every occurrence of token with value and returns
// the count. Absent tokens are not an error.
func ReplaceToken(doc *docx.Document, token, value string) int {
	return doc.ReplaceText(token, value)
}

// RemoveAnchor deletes every body paragraph and table row that holds nothing
// but the token. Cursors taken before the call must not be reused.
func RemoveAnchor(doc *docx.Document, token string) (int, error) {
	var targets []*docx.Element
	for _, p := range doc.Paragraphs() {
		if isMarker(p.Text(), token) {
			targets = append(targets, p.Element())
		}
	}
	for _, tbl := range doc.Tables() {
		for _, row := range tbl.Rows() {
			if isMarker(strings.Join(row.Texts(), ""), token) {
				targets = append(targets, row.Element())
			}
		}
	}
	for _, el := range targets {
		if err := doc.Remove(el); err != nil {
			return 0, fmt.Errorf("anchor: remove %q: %w", token, err)
		}
	}
	return len(targets), nil
}

// Check returns the tokens that appear nowhere in the document text.
func Check(doc *docx.Document, tokens ...string) []string {
	var missing []string
	for _, token := range tokens {
		if !doc.ContainsText(token) {
			missing = append(missing, token)
		}
	}
	return missing
}

// IsNotFound reports whether err came from a missing marker.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func isMarker(text, token string) bool {
	return strings.EqualFold(strings.TrimSpace(text), strings.TrimSpace(token))
}
