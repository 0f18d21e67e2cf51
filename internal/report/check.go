package report

import (
	"fmt"

	"github.com/kingrea/licensedoc/internal/anchor"
	"github.com/kingrea/licensedoc/internal/docx"
	"github.com/kingrea/licensedoc/internal/layout"
)

// CheckTemplate lists what a variant's template lacks: placeholder tokens
// and, for the report, the fixed tables the pipeline fills.
func CheckTemplate(data []byte, v Variant) ([]string, error) {
	doc, err := docx.Open(data)
	if err != nil {
		return nil, newError(KindCorruptTemplate, "open template", err)
	}
	var problems []string
	for _, token := range anchor.Check(doc, Tokens(v)...) {
		problems = append(problems, "missing token "+token)
	}
	if _, ok := v.(Report); !ok {
		return problems, nil
	}

	final := layout.NewDraft().Finalize(0)
	for _, slot := range layout.Slots {
		tbl, err := layout.Table(doc, final, slot)
		if err != nil {
			problems = append(problems, fmt.Sprintf("missing %s table", slot))
			continue
		}
		if slot == layout.Overview && len(tbl.Rows()) < attendeeRow {
			problems = append(problems, fmt.Sprintf("overview table has %d rows, want at least %d", len(tbl.Rows()), attendeeRow))
		}
		if slot == layout.ObligationStatus && tbl.Columns() == 0 {
			problems = append(problems, "obligation status table has no columns")
		}
	}
	return problems, nil
}
