// Package layout maps the report template's authored table positions to the
// physical positions in a document that has per-license tables spliced in
// after the additional-requirements table.
//
// A Draft is valid before those tables exist and can only resolve slots up
// to the injection point. Finalize records how many tables were spliced in
// and yields the Final layout, the only value that resolves later slots.
package layout

import (
	"fmt"

	"github.com/kingrea/licensedoc/internal/docx"
)

// Slot is a table's nominal position in the report template.
type Slot int

const (
	Overview Slot = iota
	SpecialRisks
	DevelopmentDetails
	ThirdPartyOverview
	CommonRules
	ProjectObligations
	AdditionalRequirements
	ObligationStatus
)

// InjectionPoint is the last slot unaffected by spliced tables.
const InjectionPoint = AdditionalRequirements

// Slots lists every slot in template order.
var Slots = []Slot{
	Overview, SpecialRisks, DevelopmentDetails, ThirdPartyOverview,
	CommonRules, ProjectObligations, AdditionalRequirements, ObligationStatus,
}

var slotNames = map[Slot]string{
	Overview:               "overview",
	SpecialRisks:           "special-risks",
	DevelopmentDetails:     "development-details",
	ThirdPartyOverview:     "third-party-overview",
	CommonRules:            "common-rules",
	ProjectObligations:     "project-obligations",
	AdditionalRequirements: "additional-requirements",
	ObligationStatus:       "obligation-status",
}

func (s Slot) String() string {
	if name, ok := slotNames[s]; ok {
		return name
	}
	return fmt.Sprintf("slot(%d)", int(s))
}

// Resolver turns a slot into a physical table index.
type Resolver interface {
	Resolve(Slot) int
}

// Draft is the layout before per-license tables are inserted.
type Draft struct{}

// NewDraft returns the layout of a freshly loaded template.
func NewDraft() Draft {
	return Draft{}
}

// Resolve returns the physical index of a slot at or before the injection
// point. Asking for a later slot is a programming error and panics.
func (Draft) Resolve(s Slot) int {
	if s > InjectionPoint {
		panic(fmt.Sprintf("layout: %s resolved before the layout was finalized", s))
	}
	if s < 0 {
		panic(fmt.Sprintf("layout: invalid %s", s))
	}
	return int(s)
}

// Finalize records the number of tables spliced in after the injection point.
func (Draft) Finalize(extra int) Final {
	if extra < 0 {
		panic(fmt.Sprintf("layout: negative table drift %d", extra))
	}
	return Final{extra: extra, finalized: true}
}

// Final is the layout once every per-license table has been inserted. Only
// Draft.Finalize produces a usable Final; the zero value behaves like a Draft.
type Final struct {
	extra     int
	finalized bool
}

// Resolve returns the physical index of any slot.
func (f Final) Resolve(s Slot) int {
	if s < 0 || s > ObligationStatus {
		panic(fmt.Sprintf("layout: invalid %s", s))
	}
	if s <= InjectionPoint {
		return int(s)
	}
	if !f.finalized {
		panic(fmt.Sprintf("layout: %s resolved before the layout was finalized", s))
	}
	return int(s) + f.extra
}

// Extra returns the number of spliced tables.
func (f Final) Extra() int {
	return f.extra
}

// Table returns the document table for a slot.
func Table(doc *docx.Document, r Resolver, s Slot) (*docx.Table, error) {
	tbl, err := doc.Table(r.Resolve(s))
	if err != nil {
		return nil, fmt.Errorf("layout: %s table: %w: %w", s, docx.ErrCorruptTemplate, err)
	}
	return tbl, nil
}
