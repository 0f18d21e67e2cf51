package report

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kingrea/licensedoc/internal/docx"
	"github.com/kingrea/licensedoc/internal/licenseinfo"
	"github.com/kingrea/licensedoc/internal/obligations"
	"github.com/kingrea/licensedoc/internal/templates"
)

func record(topic, text string, ids ...string) licenseinfo.ObligationAtProject {
	return licenseinfo.ObligationAtProject{Topic: topic, Text: text, LicenseIDs: ids}
}

func reportRequest() Request {
	alpha := &licenseinfo.Release{ID: "r-alpha", Name: "alpha", Version: "1", OperatingSystems: []string{"linux"}}
	beta := &licenseinfo.Release{ID: "r-beta", Name: "beta", Version: "2"}
	return Request{
		Project: licenseinfo.Project{
			Name:         "Lattice",
			Version:      "1.0",
			BusinessUnit: "CT",
			ProjectOwner: "owner@example.com",
			Roles: map[string][]string{
				"Reviewer":    {"rev@example.com", " "},
				"Contributor": {"missing@example.com"},
			},
			Obligations: []licenseinfo.ProjectObligation{
				{Title: "Org rule", Text: "Follow the org policy", Level: licenseinfo.LevelOrganisation, Fulfilled: true},
				{Title: "Project rule", Text: "Ship a notice file", Level: licenseinfo.LevelProject},
				{Title: "Component rule", Text: "Review headers", Level: licenseinfo.LevelComponent, Comment: "weekly"},
			},
		},
		LicenseResults: []licenseinfo.ParsingResult{
			release("beta", "2", beta, apache),
			release("alpha", "1", alpha, apache),
		},
		ObligationResults: []licenseinfo.ObligationParsingResult{
			{Status: licenseinfo.StatusSuccess, Release: alpha, ObligationsAtProject: []licenseinfo.ObligationAtProject{
				record("Attribution", "Keep notices", "MIT"),
				record("Source", "Offer source", "MIT", "BSD"),
			}},
			{Status: licenseinfo.StatusSuccess, Release: beta, ObligationsAtProject: []licenseinfo.ObligationAtProject{
				record("Attribution", "Keep notices", "MIT"),
			}},
		},
	}
}

func reportGenerator() *Generator {
	return New(templates.Embedded(), WithUserDirectory(stubDirectory{
		"owner@example.com": {Email: "owner@example.com", FullName: "Olivia Owner", Department: "CT"},
		"rev@example.com":   {Email: "rev@example.com", FullName: "Rita Reviewer", Department: "QA"},
	}))
}

func table(t *testing.T, doc *docx.Document, i int) *docx.Table {
	t.Helper()
	tbl, err := doc.Table(i)
	if err != nil {
		t.Fatalf("table %d: %v", i, err)
	}
	return tbl
}

func rowTexts(t *testing.T, tbl *docx.Table, i int) []string {
	t.Helper()
	row, err := tbl.Row(i)
	if err != nil {
		t.Fatalf("row %d: %v", i, err)
	}
	return row.Texts()
}

func TestReportFillsFixedTables(t *testing.T) {
	doc := generate(t, reportGenerator(), Report{}, reportRequest())

	overview := table(t, doc, 0)
	if n := len(overview.Rows()); n != 10 {
		t.Fatalf("overview rows = %d, want 10", n)
	}
	wantAttendees := [][]string{
		{"owner@example.com", "CT", "Owner"},
		{"missing@example.com", notAvailable, "Contributor"},
		{"Rita Reviewer", "QA", "Reviewer"},
	}
	for i, want := range wantAttendees {
		got := rowTexts(t, overview, attendeeRow+i)
		if strings.Join(got, "|") != strings.Join(want, "|") {
			t.Fatalf("attendee row %d = %v, want %v", i, got, want)
		}
	}

	if n := len(table(t, doc, 1).Rows()); n != 3 {
		t.Fatalf("special risk rows = %d, want header plus 2 distinct records", n)
	}
	dev := table(t, doc, 2)
	if got := rowTexts(t, dev, 1); strings.Join(got, "|") != "alpha|linux|N/A|N/A" {
		t.Fatalf("development row = %v", got)
	}
	third := table(t, doc, 3)
	if got := rowTexts(t, third, 1); got[0] != "alpha" || got[2] != "sha-alpha" || got[5] != "Apache-2.0" {
		t.Fatalf("third party row = %v", got)
	}
	if got := rowTexts(t, table(t, doc, 4), 1); strings.Join(got, "|") != "Follow the org policy|yes|" {
		t.Fatalf("common rules row = %v", got)
	}
	if got := rowTexts(t, table(t, doc, 5), 1); strings.Join(got, "|") != "Ship a notice file|no|" {
		t.Fatalf("project obligations row = %v", got)
	}

	text := doc.Text()
	if strings.Contains(text, tokenLicensesAboveThresh) || strings.Contains(text, tokenProjectName) {
		t.Fatalf("unreplaced tokens in report")
	}
	if !strings.Contains(text, no3rdPartySoftware) {
		t.Fatalf("3rd party fallback text missing")
	}
}

func TestReportSplicesLicenseTablesAndShiftsStatusTable(t *testing.T) {
	doc := generate(t, reportGenerator(), Report{}, reportRequest())

	// Two license groups (BSD, MIT) plus one subsection table per release.
	if n := len(doc.Tables()); n != 12 {
		t.Fatalf("tables = %d, want 12", n)
	}
	summary := table(t, doc, 6)
	if n := len(summary.Rows()); n != 3 {
		t.Fatalf("summary rows = %d, want header plus one per group", n)
	}
	if got := rowTexts(t, summary, 1); got[0] != "Source" || got[1] != "BSD" {
		t.Fatalf("first summary row = %v", got)
	}
	for i, id := range []string{"BSD", "MIT"} {
		tbl := table(t, doc, 7+i)
		rows := tbl.Rows()
		if len(rows) != 3 {
			t.Fatalf("%s table rows = %d, want header, entry and project row", id, len(rows))
		}
		if got := rowTexts(t, tbl, 0); got[0] != "Obligation" {
			t.Fatalf("%s header = %v", id, got)
		}
		if got := rowTexts(t, tbl, 1); strings.Join(got, "|") != "Source|"+id+"|Offer source||" {
			t.Fatalf("%s entry row = %v", id, got)
		}
		if got := rowTexts(t, tbl, 2); strings.Join(got, "|") != "Component rule|"+id+"|Review headers|no|weekly" {
			t.Fatalf("%s project row = %v", id, got)
		}
	}

	status := table(t, doc, 9)
	if got := rowTexts(t, status, 0); got[0] != "Obligation" || len(got) != 6 {
		t.Fatalf("status header = %v", got)
	}
	placeholder, err := status.Row(1)
	if err != nil {
		t.Fatal(err)
	}
	cells := placeholder.Cells()
	if len(cells) != 1 || cells[0].Text() != noLinkedObligation || cells[0].SpanValue() != 6 {
		t.Fatalf("placeholder row = %v", placeholder.Texts())
	}

	text := doc.Text()
	if !strings.Contains(text, "The component is licensed under Apache-2.0.") {
		t.Fatalf("release subsection missing")
	}
	if strings.Index(text, "acme alpha") > strings.Index(text, "acme beta") {
		t.Fatalf("subsections not sorted by short name")
	}
	if got := rowTexts(t, table(t, doc, 10), 1); got[0] != "Source" {
		t.Fatalf("alpha subsection row = %v", got)
	}
}

func TestReportCommonLicensesFollowThreshold(t *testing.T) {
	doc := generate(t, reportGenerator(), Report{}, reportRequest())
	if !strings.Contains(doc.Text(), "Licenses above threshold: MIT") {
		t.Fatalf("common license list missing MIT")
	}

	doc = generate(t, reportGenerator(), Report{Threshold: 4}, reportRequest())
	if strings.Contains(doc.Text(), "Licenses above threshold: MIT") {
		t.Fatalf("MIT listed below threshold")
	}
}

func TestReportCollectAllKeepsEveryEntry(t *testing.T) {
	doc := generate(t, reportGenerator(), Report{Policy: obligations.CollectAll}, reportRequest())
	mit := table(t, doc, 8)
	// header, Attribution, Source, project row
	if n := len(mit.Rows()); n != 4 {
		t.Fatalf("MIT rows = %d, want 4", n)
	}
}

func TestReportLinkedObligations(t *testing.T) {
	req := reportRequest()
	req.ObligationStatus = map[string]licenseinfo.ObligationStatusInfo{
		"Provide source": {
			Text:       "Source must be offered for three years.",
			LicenseIDs: []string{"GPL-2.0", "LGPL-2.1"},
			Releases:   []licenseinfo.Release{{Name: "alpha", Version: "1"}},
			Status:     licenseinfo.ObligationOpen,
			Type:       "Obligation",
		},
		"Unlinked": {Text: "never rendered"},
	}
	doc := generate(t, reportGenerator(), Report{}, req)
	status := table(t, doc, 9)
	rows := status.Rows()
	if len(rows) != 3 {
		t.Fatalf("status rows = %d, want header plus detail and text row", len(rows))
	}
	got := rowTexts(t, status, 1)
	if got[0] != "Provide source" || got[1] != "GPL-2.0, \nLGPL-2.1" || got[2] != "alpha 1" || got[3] != licenseinfo.ObligationOpen.String() {
		t.Fatalf("detail row = %q", got)
	}
	text := rows[2].Cells()
	if len(text) != 1 || text[0].Text() != "Source must be offered for three years." {
		t.Fatalf("text row = %v", rows[2].Texts())
	}
	if strings.Contains(doc.Text(), "never rendered") {
		t.Fatalf("obligation without releases rendered")
	}
}

func TestReportWithoutDirectoryFallsBack(t *testing.T) {
	doc := generate(t, New(templates.Embedded()), Report{}, reportRequest())
	got := rowTexts(t, table(t, doc, 0), attendeeRow)
	if strings.Join(got, "|") != "owner@example.com|"+notAvailable+"|Owner" {
		t.Fatalf("owner row = %v", got)
	}
}

func TestErrorKinds(t *testing.T) {
	err := newError(KindUpstreamLookup, "licenses", errors.New("timeout"))
	if !errors.Is(err, ErrUpstreamLookup) || errors.Is(err, ErrSerialization) {
		t.Fatalf("kind matching broken: %v", err)
	}
	if KindOf(err) != KindUpstreamLookup {
		t.Fatalf("KindOf = %v", KindOf(err))
	}
	if again := newError(KindCorruptTemplate, "outer", err); KindOf(again) != KindUpstreamLookup {
		t.Fatalf("newError rewrapped an existing error")
	}
	if KindOf(context.Canceled) != 0 {
		t.Fatalf("context errors carry no kind")
	}
}

func TestCheckTemplate(t *testing.T) {
	for _, v := range []Variant{Disclosure{}, Report{}} {
		data, err := templates.Embedded().Template(v.Name())
		if err != nil {
			t.Fatalf("template %s: %v", v.Name(), err)
		}
		problems, err := CheckTemplate(data, v)
		if err != nil || len(problems) != 0 {
			t.Fatalf("%s: problems = %v, err = %v", v.Name(), problems, err)
		}
	}

	doc, err := docx.NewFromBody(`<w:p><w:r><w:t>$project-name</w:t></w:r></w:p><w:sectPr/>`)
	if err != nil {
		t.Fatal(err)
	}
	data, err := doc.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	problems, err := CheckTemplate(data, Report{})
	if err != nil {
		t.Fatalf("CheckTemplate: %v", err)
	}
	// 13 tokens besides $project-name plus 8 tables
	if len(problems) != 21 {
		t.Fatalf("problems = %d: %v", len(problems), problems)
	}

	if _, err := CheckTemplate([]byte("not a zip"), Report{}); !errors.Is(err, ErrCorruptTemplate) {
		t.Fatalf("err = %v, want ErrCorruptTemplate", err)
	}
}
