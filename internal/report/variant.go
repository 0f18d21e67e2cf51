package report

import (
	"fmt"
	"strings"

	"github.com/kingrea/licensedoc/internal/obligations"
	"github.com/kingrea/licensedoc/internal/templates"
)

// Variant selects which document is generated. It is implemented only by
// Disclosure and Report.
type Variant interface {
	Name() string
	variant()
}

// Disclosure is the short license disclosure document.
type Disclosure struct {
	IncludeObligations bool
}

// Report is the full license clearing report.
type Report struct {
	Threshold int
	Policy    obligations.Policy
}

func (Disclosure) Name() string { return templates.Disclosure }
func (Report) Name() string     { return templates.Report }

func (Disclosure) variant() {}
func (Report) variant()     {}

// threshold returns the configured threshold or the default.
func (r Report) threshold() int {
	if r.Threshold <= 0 {
		return obligations.DefaultThreshold
	}
	return r.Threshold
}

// ParseVariant returns the default-configured variant for a name.
func ParseVariant(name string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case templates.Disclosure:
		return Disclosure{}, nil
	case templates.Report:
		return Report{Threshold: obligations.DefaultThreshold, Policy: obligations.LastWriteWins}, nil
	}
	return nil, fmt.Errorf("report: unknown variant %q", name)
}
