package docx

import (
	"strings"
)

// ReplaceText substitutes every occurrence of token with value in all
// paragraphs of the main part and of header and footer parts. Tokens split
// across runs are found; the replacement takes the formatting of the run the
// token starts in. It returns the number of replacements.
func (d *Document) ReplaceText(token, value string) int {
	if token == "" {
		return 0
	}
	count := 0
	for _, p := range d.AllParagraphs() {
		count += replaceInParagraph(p.el, token, value)
	}
	return count
}

// ContainsText reports whether any paragraph of the document contains text.
func (d *Document) ContainsText(text string) bool {
	for _, p := range d.AllParagraphs() {
		if strings.Contains(p.Text(), text) {
			return true
		}
	}
	return false
}

func replaceInParagraph(p *Element, token, value string) int {
	count := 0
	from := 0
	for {
		texts := p.FindAll("w:t")
		var full strings.Builder
		offsets := make([]int, len(texts))
		for i, t := range texts {
			offsets[i] = full.Len()
			full.WriteString(textOf(t))
		}
		joined := full.String()
		if from > len(joined) {
			return count
		}
		idx := strings.Index(joined[from:], token)
		if idx < 0 {
			return count
		}
		start := from + idx
		end := start + len(token)
		for i, t := range texts {
			text := textOf(t)
			s, e := offsets[i], offsets[i]+len(text)
			if e <= start || s >= end {
				continue
			}
			lo, hi := max(start, s)-s, min(end, e)-s
			if s <= start {
				setText(t, text[:lo]+value+text[hi:])
			} else {
				setText(t, text[hi:])
			}
		}
		from = start + len(value)
		count++
	}
}
