package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kingrea/licensedoc/internal/docx"
	"github.com/kingrea/licensedoc/internal/licenseinfo"
	"github.com/kingrea/licensedoc/internal/obligations"
	"github.com/kingrea/licensedoc/internal/templates"
)

type stubSource struct {
	data []byte
	err  error
}

func (s stubSource) Template(string) ([]byte, error) {
	return s.data, s.err
}

type stubDirectory map[string]licenseinfo.User

func (d stubDirectory) UserByEmail(_ context.Context, email string) (licenseinfo.User, error) {
	user, ok := d[email]
	if !ok {
		return licenseinfo.User{}, fmt.Errorf("user %s not found", email)
	}
	return user, nil
}

type stubCatalog struct {
	licenses []licenseinfo.License
	err      error
	calls    int
}

func (c *stubCatalog) Licenses(context.Context) ([]licenseinfo.License, error) {
	c.calls++
	return c.licenses, c.err
}

var apache = licenseinfo.LicenseNameWithText{
	LicenseName: "Apache-2.0",
	LicenseText: "Apache license text",
	Type:        licenseinfo.GlobalLicenseType,
}

func release(name, version string, rel *licenseinfo.Release, licenses ...licenseinfo.LicenseNameWithText) licenseinfo.ParsingResult {
	return licenseinfo.ParsingResult{
		Vendor:  "acme",
		Name:    name,
		Version: version,
		Status:  licenseinfo.StatusSuccess,
		LicenseInfo: &licenseinfo.LicenseInfo{
			LicenseNamesWithTexts: licenses,
			Copyrights:            []string{"(c) acme " + name},
			Sha1Hash:              "sha-" + name,
		},
		Release: rel,
	}
}

func sampleRequest() Request {
	return Request{
		Project: licenseinfo.Project{Name: "Lattice", Version: "1.0", LicenseInfoHeaderText: "License Information"},
		LicenseResults: []licenseinfo.ParsingResult{
			release("beta", "2", nil, apache),
			release("alpha", "1", nil, apache),
		},
		ExternalIDs: map[string]string{"purl": "pkg:generic/lattice@1.0"},
	}
}

func generate(t *testing.T, gen *Generator, v Variant, req Request) *docx.Document {
	t.Helper()
	data, err := gen.Generate(context.Background(), v, req)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	doc, err := docx.Open(data)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return doc
}

func bookmarksWithPrefix(doc *docx.Document, prefix string) []string {
	var out []string
	for _, p := range doc.Paragraphs() {
		for _, name := range p.Bookmarks() {
			if strings.HasPrefix(name, prefix) {
				out = append(out, name)
			}
		}
	}
	return out
}

func linksTo(doc *docx.Document, prefix string) []string {
	var out []string
	for _, p := range doc.Paragraphs() {
		for _, name := range p.Links() {
			if strings.HasPrefix(name, prefix) {
				out = append(out, name)
			}
		}
	}
	return out
}

func TestDisclosureRoundTrip(t *testing.T) {
	doc := generate(t, New(templates.Embedded()), Disclosure{}, sampleRequest())

	tables := doc.Tables()
	if len(tables) != 1 {
		t.Fatalf("tables = %d, want 1", len(tables))
	}
	rows := tables[0].Rows()
	if len(rows) != 2 {
		t.Fatalf("external id rows = %d, want header plus 1", len(rows))
	}
	if got := rows[1].Text(); got != "purl\tpkg:generic/lattice@1.0" {
		t.Fatalf("external id row = %q", got)
	}
	if got := bookmarksWithPrefix(doc, "release_"); len(got) != 2 {
		t.Fatalf("release sections = %v, want 2", got)
	}
	if got := bookmarksWithPrefix(doc, "license_"); len(got) != 1 || got[0] != "license_1" {
		t.Fatalf("appendix entries = %v, want [license_1]", got)
	}
	citations := linksTo(doc, "license_")
	if len(citations) != 2 || citations[0] != "license_1" || citations[1] != "license_1" {
		t.Fatalf("citations = %v, want two links to license_1", citations)
	}
	if got := linksTo(doc, "release_"); len(got) != 2 {
		t.Fatalf("release list links = %v", got)
	}

	text := doc.Text()
	for _, want := range []string{"License Information", "Product: Lattice 1.0", externalIDCaption, "Apache-2.0(1)", "1: Apache-2.0", "(c) acme alpha"} {
		if !strings.Contains(text, want) {
			t.Fatalf("document missing %q", want)
		}
	}
	if strings.Contains(text, "$") {
		t.Fatalf("unreplaced token left in document:\n%s", text)
	}
	if strings.Index(text, "acme alpha 1") > strings.Index(text, "acme beta 2") {
		t.Fatalf("releases not sorted by long name")
	}
}

func TestDisclosureAcknowledgementOnlyFindingIsNotCited(t *testing.T) {
	req := sampleRequest()
	req.LicenseResults = []licenseinfo.ParsingResult{
		release("alpha", "1", nil, apache, licenseinfo.LicenseNameWithText{Acknowledgements: "thanks to bob"}),
	}
	doc := generate(t, New(templates.Embedded()), Disclosure{}, req)

	if got := bookmarksWithPrefix(doc, "license_"); len(got) != 1 {
		t.Fatalf("appendix entries = %v, want one", got)
	}
	if got := linksTo(doc, "license_"); len(got) != 1 {
		t.Fatalf("citations = %v, want one", got)
	}
	text := doc.Text()
	if !strings.Contains(text, "thanks to bob") {
		t.Fatalf("acknowledgement missing from document")
	}
	if strings.Contains(text, licenseinfo.UnknownLicenseName) {
		t.Fatalf("acknowledgement-only finding cited as a license")
	}
}

func TestDisclosureWithoutExternalIDsRemovesAnchors(t *testing.T) {
	req := sampleRequest()
	req.ExternalIDs = nil
	doc := generate(t, New(templates.Embedded()), Disclosure{}, req)
	if len(doc.Tables()) != 0 {
		t.Fatalf("unexpected external id table")
	}
	text := doc.Text()
	if strings.Contains(text, anchorExternalIDTable) || strings.Contains(text, anchorExternalIDCaption) {
		t.Fatalf("anchors left in document")
	}
}

func TestDisclosureFailedReleaseRendersInlineError(t *testing.T) {
	req := sampleRequest()
	req.LicenseResults = append(req.LicenseResults, licenseinfo.ParsingResult{
		Name: "gamma", Status: licenseinfo.StatusFailure, Message: "bad spdx",
	})
	doc := generate(t, New(templates.Embedded()), Disclosure{}, req)
	text := doc.Text()
	if !strings.Contains(text, "Error reading license information: bad spdx") ||
		!strings.Contains(text, "Source file: "+licenseinfo.UnknownFileName) {
		t.Fatalf("missing inline error:\n%s", text)
	}
	if got := bookmarksWithPrefix(doc, "release_"); len(got) != 3 {
		t.Fatalf("release sections = %v, want 3", got)
	}
}

func TestZeroSuccessfulResultsWritesSingleErrorParagraph(t *testing.T) {
	failed := []licenseinfo.ParsingResult{{Name: "gamma", Status: licenseinfo.StatusFailure}}
	for _, v := range []Variant{Disclosure{}, Report{}} {
		req := sampleRequest()
		req.LicenseResults = failed
		doc := generate(t, New(templates.Embedded()), v, req)

		var hits int
		paras := doc.Paragraphs()
		for _, p := range paras {
			if strings.Contains(p.Text(), noReleasesText) {
				hits++
			}
		}
		if hits != 1 {
			t.Fatalf("%s: error paragraphs = %d, want 1", v.Name(), hits)
		}
		if last := paras[len(paras)-1].Text(); last != noReleasesText {
			t.Fatalf("%s: content after error paragraph: %q", v.Name(), last)
		}
		if got := bookmarksWithPrefix(doc, ""); len(got) != 0 {
			t.Fatalf("%s: unexpected sections %v", v.Name(), got)
		}
		if _, ok := v.(Report); ok {
			for i, tbl := range doc.Tables()[1:] {
				if n := len(tbl.Rows()); n != 1 {
					t.Fatalf("report table %d rows = %d, want header only", i+1, n)
				}
			}
		}
	}
}

func TestDisclosureObligationsFetchCatalogOnce(t *testing.T) {
	catalog := &stubCatalog{licenses: []licenseinfo.License{
		{ID: "apache-2.0", Obligations: []string{"Provide a copy of the license", "Keep notices"}},
	}}
	gen := New(templates.Embedded(), WithLicenseCatalog(catalog))
	doc := generate(t, gen, Disclosure{IncludeObligations: true}, sampleRequest())
	if catalog.calls != 1 {
		t.Fatalf("catalog calls = %d, want 1", catalog.calls)
	}
	text := doc.Text()
	if !strings.Contains(text, "Obligations for license Apache-2.0:\nKeep notices\nProvide a copy of the license") {
		t.Fatalf("obligations not rendered:\n%s", text)
	}
}

func TestDisclosureObligationsDefaultText(t *testing.T) {
	gen := New(templates.Embedded(), WithLicenseCatalog(&stubCatalog{}))
	doc := generate(t, gen, Disclosure{IncludeObligations: true}, sampleRequest())
	if !strings.Contains(doc.Text(), obligationsUndetermined) {
		t.Fatalf("default obligation text missing")
	}
}

func TestCatalogFailureIsUpstreamLookup(t *testing.T) {
	gen := New(templates.Embedded(), WithLicenseCatalog(&stubCatalog{err: errors.New("catalog down")}))
	data, err := gen.Generate(context.Background(), Disclosure{IncludeObligations: true}, sampleRequest())
	if !errors.Is(err, ErrUpstreamLookup) {
		t.Fatalf("err = %v, want ErrUpstreamLookup", err)
	}
	if data != nil {
		t.Fatalf("bytes returned with error")
	}
}

func TestTemplateLoadFailure(t *testing.T) {
	gen := New(stubSource{err: errors.New("missing asset")})
	_, err := gen.Generate(context.Background(), Disclosure{}, sampleRequest())
	if !errors.Is(err, ErrTemplateLoad) || KindOf(err) != KindTemplateLoad {
		t.Fatalf("err = %v, want ErrTemplateLoad", err)
	}
	if errors.Is(err, ErrCorruptTemplate) {
		t.Fatalf("template load error matched corrupt template")
	}
}

func TestMissingAnchorIsCorruptTemplate(t *testing.T) {
	doc, err := docx.NewFromBody(`<w:p><w:r><w:t>$caption-extid-table</w:t></w:r></w:p><w:sectPr/>`)
	if err != nil {
		t.Fatalf("NewFromBody: %v", err)
	}
	data, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	_, err = New(stubSource{data: data}).Generate(context.Background(), Disclosure{}, sampleRequest())
	if !errors.Is(err, ErrCorruptTemplate) {
		t.Fatalf("err = %v, want ErrCorruptTemplate", err)
	}
	var typed *Error
	if !errors.As(err, &typed) || typed.Op != "external ids" {
		t.Fatalf("err = %#v, want op external ids", err)
	}
}

func TestReportMissingTableIsCorruptTemplate(t *testing.T) {
	doc, err := docx.NewFromBody(`<w:p><w:r><w:t>$project-name</w:t></w:r></w:p><w:sectPr/>`)
	if err != nil {
		t.Fatalf("NewFromBody: %v", err)
	}
	data, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	_, err = New(stubSource{data: data}).Generate(context.Background(), Report{}, reportRequest())
	if !errors.Is(err, ErrCorruptTemplate) {
		t.Fatalf("err = %v, want ErrCorruptTemplate", err)
	}
}

func TestGenerateHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(templates.Embedded()).Generate(ctx, Disclosure{}, sampleRequest())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestProgressReportsEachStep(t *testing.T) {
	var steps []string
	gen := New(templates.Embedded(), WithProgress(func(step string) { steps = append(steps, step) }))
	generate(t, gen, Disclosure{}, sampleRequest())
	want := []string{"replace tokens", "external ids", "release list", "release details", "license texts"}
	if strings.Join(steps, ",") != strings.Join(want, ",") {
		t.Fatalf("steps = %v, want %v", steps, want)
	}
}

func recordingGenerator(t *testing.T, opts ...Option) (*Generator, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return New(templates.Embedded(), append(opts, WithTracer(tp.Tracer(TracerName)))...), recorder
}

func TestGenerateRecordsSpanPerStep(t *testing.T) {
	gen, recorder := recordingGenerator(t)
	generate(t, gen, Disclosure{}, sampleRequest())

	spans := recorder.Ended()
	var names []string
	for _, s := range spans {
		names = append(names, s.Name())
	}
	want := []string{
		"report.replace_tokens", "report.external_ids", "report.release_list",
		"report.release_details", "report.license_texts", "report.Generate",
	}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("spans = %v, want %v", names, want)
	}
	root := spans[len(spans)-1]
	for _, s := range spans[:len(spans)-1] {
		if s.Parent().SpanID() != root.SpanContext().SpanID() {
			t.Fatalf("span %s is not a child of report.Generate", s.Name())
		}
		if s.Status().Code == codes.Error {
			t.Fatalf("span %s has error status", s.Name())
		}
	}
}

func TestGenerateMarksFailedSpans(t *testing.T) {
	gen, recorder := recordingGenerator(t, WithLicenseCatalog(&stubCatalog{err: errors.New("catalog down")}))
	if _, err := gen.Generate(context.Background(), Disclosure{IncludeObligations: true}, sampleRequest()); err == nil {
		t.Fatalf("expected error")
	}

	spans := recorder.Ended()
	root := spans[len(spans)-1]
	if root.Name() != "report.Generate" || root.Status().Code != codes.Error {
		t.Fatalf("root = %s %v", root.Name(), root.Status())
	}
	failed := spans[len(spans)-2]
	if failed.Status().Code != codes.Error || !strings.Contains(failed.Status().Description, "catalog down") {
		t.Fatalf("failed step = %s %v", failed.Name(), failed.Status())
	}
	if len(failed.Events()) == 0 || failed.Events()[0].Name != "exception" {
		t.Fatalf("failed step recorded no error event")
	}
	for _, s := range spans[:len(spans)-2] {
		if s.Status().Code == codes.Error {
			t.Fatalf("span %s before the failure has error status", s.Name())
		}
	}
}

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant(" Report ")
	if err != nil {
		t.Fatalf("ParseVariant: %v", err)
	}
	rep, ok := v.(Report)
	if !ok || rep.Threshold != obligations.DefaultThreshold || rep.Policy != obligations.LastWriteWins {
		t.Fatalf("variant = %#v", v)
	}
	if _, err := ParseVariant("letter"); err == nil {
		t.Fatalf("expected error for unknown variant")
	}
}
