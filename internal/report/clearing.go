package report

import (
	"context"
	"sort"
	"strings"

	"github.com/kingrea/licensedoc/internal/docx"
	"github.com/kingrea/licensedoc/internal/layout"
	"github.com/kingrea/licensedoc/internal/licenseinfo"
	"github.com/kingrea/licensedoc/internal/obligations"
)

const (
	// attendeeRow is the first overview row after the authored attendee header.
	attendeeRow        = 7
	notAvailable       = "N.A."
	noValue            = "N/A"
	ownerRole          = "Owner"
	noLinkedObligation = "No Linked Obligations."
)

var componentObligationHeaders = []string{
	"Obligation", "License", "License section reference and short description", "Fulfilled", "Comments",
}

func (r *run) report(v Report) error {
	project := r.req.Project
	agg := obligations.Aggregate(r.req.ObligationResults, v.threshold(), v.Policy,
		project.ObligationsAt(licenseinfo.LevelComponent))
	draft := layout.NewDraft()

	if err := r.do("replace tokens", func(ctx context.Context) error {
		return r.replaceTokens(ctx, reportTokens(project, agg.Common.Sorted()))
	}); err != nil {
		return err
	}
	if err := r.do("attendees", func(ctx context.Context) error {
		return r.attendees(ctx, draft)
	}); err != nil {
		return err
	}

	results := licenseinfo.SortResultsBy(r.req.LicenseResults, licenseinfo.ParsingResult.ShortName)
	if len(successful(results)) == 0 {
		_, err := r.thread(r.doc.EndCursor(), cursorStep{"no releases", r.noReleases})
		return err
	}

	fixed := []struct {
		name string
		fill func() error
	}{
		{"special risks", func() error { return r.specialRisks(draft) }},
		{"development details", func() error { return r.developmentDetails(draft, results) }},
		{"third party overview", func() error { return r.thirdPartyOverview(draft, results) }},
		{"organisation obligations", func() error {
			return r.projectObligations(draft, layout.CommonRules, licenseinfo.LevelOrganisation)
		}},
		{"project obligations", func() error {
			return r.projectObligations(draft, layout.ProjectObligations, licenseinfo.LevelProject)
		}},
	}
	for _, step := range fixed {
		if err := r.do(step.name, func(context.Context) error { return step.fill() }); err != nil {
			return err
		}
	}

	var final layout.Final
	if err := r.do("component obligations", func(context.Context) error {
		var err error
		final, err = r.componentObligations(draft, agg)
		return err
	}); err != nil {
		return err
	}
	if err := r.do("linked obligations", func(context.Context) error {
		return r.linkedObligations(final)
	}); err != nil {
		return err
	}

	// Release subsections come last: they are free-form inserts after the
	// final fixed table and would shift any table looked up afterwards.
	var start docx.Cursor
	if err := r.do("locate subsections", func(context.Context) error {
		tbl, err := layout.Table(r.doc, final, layout.ObligationStatus)
		if err != nil {
			return err
		}
		start, err = r.doc.After(tbl.Element())
		return err
	}); err != nil {
		return err
	}
	_, err := r.thread(start, cursorStep{"release subsections", func(_ context.Context, cur docx.Cursor) (docx.Cursor, error) {
		return r.releaseSubsections(cur, results)
	}})
	return err
}

// attendees adds the project owner and every role member to the overview
// table. Lookup failures fall back to the email and an unknown department.
func (r *run) attendees(ctx context.Context, d layout.Draft) error {
	tbl, err := layout.Table(r.doc, d, layout.Overview)
	if err != nil {
		return err
	}
	var rows [][]string
	project := r.req.Project
	if owner := strings.TrimSpace(project.ProjectOwner); owner != "" {
		user, _ := r.lookupUser(ctx, owner)
		rows = append(rows, []string{orDefault(user.Email, owner), orDefault(user.Department, notAvailable), ownerRole})
	}
	for _, role := range project.RoleNames() {
		for _, email := range project.Roles[role] {
			email = strings.TrimSpace(email)
			if email == "" {
				continue
			}
			user, _ := r.lookupUser(ctx, email)
			rows = append(rows, []string{orDefault(user.FullName, email), orDefault(user.Department, notAvailable), role})
		}
	}
	return insertRows(tbl, attendeeRow, rows)
}

func (r *run) specialRisks(d layout.Draft) error {
	tbl, err := layout.Table(r.doc, d, layout.SpecialRisks)
	if err != nil {
		return err
	}
	var rows [][]string
	for _, o := range obligations.Distinct(r.req.ObligationResults) {
		rows = append(rows, []string{o.Topic, strings.Join(o.LicenseIDs, " "), o.Text})
	}
	return insertRows(tbl, 1, rows)
}

func (r *run) developmentDetails(d layout.Draft, results []licenseinfo.ParsingResult) error {
	tbl, err := layout.Table(r.doc, d, layout.DevelopmentDetails)
	if err != nil {
		return err
	}
	var rows [][]string
	for _, result := range successful(results) {
		rel := result.Release
		if rel == nil {
			continue
		}
		rows = append(rows, []string{
			rel.Name,
			joinOr(rel.OperatingSystems, " ", noValue),
			joinOr(rel.Languages, " ", noValue),
			joinOr(rel.SoftwarePlatforms, " ", noValue),
		})
	}
	return insertRows(tbl, 1, rows)
}

func (r *run) thirdPartyOverview(d layout.Draft, results []licenseinfo.ParsingResult) error {
	tbl, err := layout.Table(r.doc, d, layout.ThirdPartyOverview)
	if err != nil {
		return err
	}
	var rows [][]string
	for _, result := range successful(results) {
		info := result.LicenseInfo
		if info == nil {
			info = &licenseinfo.LicenseInfo{}
		}
		global, _ := info.GlobalLicense()
		rows = append(rows, []string{result.Name, result.Version, info.Sha1Hash, info.ComponentName, result.ComponentType, global})
	}
	return insertRows(tbl, 1, rows)
}

func (r *run) projectObligations(d layout.Draft, slot layout.Slot, level licenseinfo.ObligationLevel) error {
	tbl, err := layout.Table(r.doc, d, slot)
	if err != nil {
		return err
	}
	var rows [][]string
	for _, o := range r.req.Project.ObligationsAt(level) {
		rows = append(rows, []string{o.Text, o.FulfilledLabel(), o.Comment})
	}
	return insertRows(tbl, 1, rows)
}

// componentObligations adds one summary row per license group to the
// additional-requirements table and splices a headed table per group right
// after it. The returned layout accounts for the spliced tables.
func (r *run) componentObligations(d layout.Draft, agg obligations.Result) (layout.Final, error) {
	summary, err := layout.Table(r.doc, d, layout.AdditionalRequirements)
	if err != nil {
		return layout.Final{}, err
	}
	var rows [][]string
	for _, g := range agg.Groups {
		first := obligations.Entry{}
		if len(g.Entries) > 0 {
			first = g.Entries[0]
		}
		rows = append(rows, []string{first.Topic, g.LicenseID, first.Text, "", ""})
	}
	if err := insertRows(summary, 1, rows); err != nil {
		return layout.Final{}, err
	}

	cur, err := r.doc.After(summary.Element())
	if err != nil {
		return layout.Final{}, err
	}
	w := newWriter(r.doc, cur)
	for _, g := range agg.Groups {
		w.blank(2)
		w.bold(g.LicenseID, fontSize+2)
		w.blank(1)
		tbl := w.table(len(componentObligationHeaders))
		if tbl == nil {
			break
		}
		headerRow(tbl, componentObligationHeaders...)
		for _, e := range g.Entries {
			tbl.AddRow(e.Topic, g.LicenseID, e.Text, "", "")
		}
		for _, o := range g.Project {
			tbl.AddRow(o.Title, g.LicenseID, o.Text, o.FulfilledLabel(), o.Comment)
		}
	}
	if _, err := w.done(); err != nil {
		return layout.Final{}, err
	}
	return d.Finalize(agg.ExtraTables()), nil
}

// linkedObligations fills the obligation status table: a detail row and a
// merged text row per obligation, or one merged placeholder row.
func (r *run) linkedObligations(f layout.Final) error {
	tbl, err := layout.Table(r.doc, f, layout.ObligationStatus)
	if err != nil {
		return err
	}
	span := tbl.Columns()
	status := r.req.ObligationStatus
	if len(status) == 0 {
		row := tbl.AppendRow()
		row.MergeCells(span).SetText(noLinkedObligation)
		return nil
	}
	keys := make([]string, 0, len(status))
	for key := range status {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		info := status[key]
		if info.Releases == nil {
			continue
		}
		tbl.AddRow(key,
			strings.Join(info.LicenseIDs, ", \n"),
			strings.Join(info.ReleaseNames(), ", \n"),
			info.Status.String(),
			info.Type,
			info.Comment,
		)
		text := tbl.AppendRow()
		text.MergeCells(span).SetText(info.Text)
	}
	return nil
}

// releaseSubsections writes a numbered heading per release with its global
// license and, when known, the release's obligation records.
func (r *run) releaseSubsections(cur docx.Cursor, results []licenseinfo.ParsingResult) (docx.Cursor, error) {
	w := newWriter(r.doc, cur)
	for _, result := range results {
		if p := w.heading(styleSection, strings.TrimSpace(result.Vendor+" "+result.Name), ""); p != nil {
			p.Numbering(headingNumID, 0)
		}
		global, ok := result.LicenseInfo.GlobalLicense()
		if !ok {
			global = licenseinfo.UnknownLicense
		}
		w.text("The component is licensed under " + global + ".")

		records := r.releaseObligations(result.Release)
		if len(records) == 0 {
			continue
		}
		tbl := w.table(3)
		if tbl == nil {
			break
		}
		for i, o := range records {
			values := []string{o.Topic, strings.Join(o.LicenseIDs, " "), o.Text}
			if i == 0 {
				row, _ := tbl.Row(0)
				row.Fill(values...)
				continue
			}
			tbl.AddRow(values...)
		}
	}
	return w.done()
}

// releaseObligations returns the obligation records parsed for a release.
func (r *run) releaseObligations(rel *licenseinfo.Release) []licenseinfo.ObligationAtProject {
	if rel == nil {
		return nil
	}
	for _, result := range r.req.ObligationResults {
		if rel.SameAs(result.Release) {
			return result.ObligationsAtProject
		}
	}
	return nil
}
