package report

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kingrea/licensedoc/internal/anchor"
	"github.com/kingrea/licensedoc/internal/docx"
	"github.com/kingrea/licensedoc/internal/licenseinfo"
	"github.com/kingrea/licensedoc/internal/refs"
)

const (
	obligationsUndetermined = "Obligations not determined so far."
	detailsIntro            = "Please note the following license conditions and copyright notices applicable " +
		"to Open Source Software and/or other components (or parts thereof):"
)

// cursorStep is a pipeline step that inserts content at a cursor and hands
// the cursor after its content to the next step.
type cursorStep struct {
	name string
	fill func(ctx context.Context, cur docx.Cursor) (docx.Cursor, error)
}

// thread runs steps in order, passing each step's cursor to the next.
func (r *run) thread(cur docx.Cursor, steps ...cursorStep) (docx.Cursor, error) {
	for _, s := range steps {
		err := r.do(s.name, func(ctx context.Context) error {
			next, err := s.fill(ctx, cur)
			if err != nil {
				return err
			}
			cur = next
			return nil
		})
		if err != nil {
			return cur, err
		}
	}
	return cur, nil
}

func (r *run) disclosure(v Disclosure) error {
	results := licenseinfo.SortResultsBy(r.req.LicenseResults, licenseinfo.ParsingResult.LongName)
	registry := refs.Build(results)

	if err := r.do("replace tokens", func(ctx context.Context) error {
		return r.replaceTokens(ctx, disclosureTokens(r.req.Project))
	}); err != nil {
		return err
	}
	if err := r.do("external ids", func(context.Context) error {
		return r.externalIDs()
	}); err != nil {
		return err
	}

	// The external id step may delete anchor paragraphs, so the cursor is
	// taken only afterwards.
	start := r.doc.EndCursor()
	if len(successful(results)) == 0 {
		_, err := r.thread(start, cursorStep{"no releases", r.noReleases})
		return err
	}
	_, err := r.thread(start,
		cursorStep{"release list", func(_ context.Context, cur docx.Cursor) (docx.Cursor, error) {
			return r.releaseList(cur, results)
		}},
		cursorStep{"release details", func(ctx context.Context, cur docx.Cursor) (docx.Cursor, error) {
			return r.releaseDetails(ctx, cur, results, registry, v.IncludeObligations)
		}},
		cursorStep{"license texts", func(_ context.Context, cur docx.Cursor) (docx.Cursor, error) {
			return r.licenseTexts(cur, registry)
		}},
	)
	return err
}

// noReleases writes the single paragraph shown when no release parsed.
func (r *run) noReleases(_ context.Context, cur docx.Cursor) (docx.Cursor, error) {
	w := newWriter(r.doc, cur)
	w.alert(noReleasesText)
	return w.done()
}

// externalIDs fills the external identifier table at its anchor, or removes
// the anchors when the project has no external ids.
func (r *run) externalIDs() error {
	ids := r.req.ExternalIDs
	if len(ids) == 0 {
		for _, marker := range []string{anchorExternalIDTable, anchorExternalIDCaption} {
			if _, err := anchor.RemoveAnchor(r.doc, marker); err != nil {
				return err
			}
		}
		return nil
	}

	anchor.ReplaceToken(r.doc, anchorExternalIDCaption, externalIDCaption)
	cur, err := anchor.FindToken(r.doc, anchorExternalIDTable)
	if err != nil {
		return err
	}
	tbl, _, err := r.doc.InsertTable(cur, 2)
	if err != nil {
		return err
	}
	headerRow(tbl, "Identifier Name", "Identifier Value")
	names := make([]string, 0, len(ids))
	for name := range ids {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		tbl.AddRow(name, ids[name])
	}
	for _, row := range tbl.Rows() {
		for _, cell := range row.Cells() {
			cell.Width(docx.TableWidth)
		}
	}
	_, err = anchor.RemoveAnchor(r.doc, anchorExternalIDTable)
	return err
}

// releaseList writes a bullet per release linking to its detail section.
func (r *run) releaseList(cur docx.Cursor, results []licenseinfo.ParsingResult) (docx.Cursor, error) {
	w := newWriter(r.doc, cur)
	for i, result := range results {
		p := w.paragraph()
		if p == nil {
			break
		}
		p.Style(styleList).Numbering(bulletNumID, 0)
		p.AddLink(refs.ReleaseAnchor(i+1), result.LongName()).Size(fontSize)
	}
	w.pageBreak()
	return w.done()
}

func (r *run) releaseDetails(ctx context.Context, cur docx.Cursor, results []licenseinfo.ParsingResult, registry *refs.Registry, withObligations bool) (docx.Cursor, error) {
	w := newWriter(r.doc, cur)
	w.bold("Detailed Releases Information", fontSize+2)
	w.text(detailsIntro)
	for i, result := range results {
		w.heading(styleHeading, result.LongName(), refs.ReleaseAnchor(i+1))
		if !result.Succeeded() {
			w.alert(fmt.Sprintf("Error reading license information: %s\nSource file: %s",
				result.Message, result.Filename()))
			w.blank(1)
			continue
		}
		if acks := result.Acknowledgements(); len(acks) > 0 {
			w.bold("Acknowledgement", fontSize)
			for _, ack := range acks {
				w.text(ack)
			}
			w.blank(1)
		}
		if err := r.citations(ctx, w, result, registry, withObligations); err != nil {
			return w.cur, err
		}
		w.blank(1)
		w.bold("Copyrights", fontSize)
		for _, c := range result.Copyrights() {
			w.text(c)
		}
		w.blank(1)
	}
	w.pageBreak()
	return w.done()
}

// citations lists a release's licenses as links to their appendix entries.
func (r *run) citations(ctx context.Context, w *writer, result licenseinfo.ParsingResult, registry *refs.Registry, withObligations bool) error {
	w.bold("Licenses", fontSize)
	licenses := result.Licenses()
	sort.SliceStable(licenses, func(i, j int) bool {
		return licenseinfo.CompareFold(licenses[i].LicenseName, licenses[j].LicenseName) < 0
	})
	for _, l := range licenses {
		id, ok := registry.ID(l)
		if !ok {
			return fmt.Errorf("report: license %q of %s missing from registry", l.LicenseName, result.LongName())
		}
		if p := w.paragraph(); p != nil {
			p.AddLink(refs.Anchor(id), fmt.Sprintf("%s(%d)", l.DisplayName(), id)).Size(fontSize)
		}
		if !withObligations {
			continue
		}
		texts, err := r.licenseObligations(ctx, l.DisplayName())
		if err != nil {
			return err
		}
		w.bold(fmt.Sprintf("Obligations for license %s:", l.DisplayName()), fontSize)
		for _, text := range texts {
			w.text(text)
		}
	}
	return w.err
}

// licenseObligations returns the catalog obligation texts of a license.
func (r *run) licenseObligations(ctx context.Context, name string) ([]string, error) {
	catalog, err := r.catalogLicenses(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	var texts []string
	for _, l := range catalog {
		if !strings.EqualFold(l.ID, name) {
			continue
		}
		for _, text := range l.Obligations {
			if _, ok := seen[text]; ok {
				continue
			}
			seen[text] = struct{}{}
			texts = append(texts, text)
		}
	}
	if len(texts) == 0 {
		return []string{obligationsUndetermined}, nil
	}
	licenseinfo.SortFold(texts)
	return texts, nil
}

// licenseTexts writes the appendix: one bookmarked entry per registry id.
func (r *run) licenseTexts(cur docx.Cursor, registry *refs.Registry) (docx.Cursor, error) {
	w := newWriter(r.doc, cur)
	w.bold("License texts", fontSize+2)
	for _, entry := range registry.Entries() {
		w.heading(styleHeading, fmt.Sprintf("%d: %s", entry.ID, entry.License.DisplayName()), refs.Anchor(entry.ID))
		w.text(entry.License.LicenseText)
		w.blank(1)
	}
	return w.done()
}
