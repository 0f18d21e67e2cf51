// Package obligations counts license ids across release obligation records,
// picks the common ones and groups obligation text by license for the
// report's component obligation tables.
package obligations

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kingrea/licensedoc/internal/licenseinfo"
)

// DefaultThreshold is the minimum occurrence count of a common license.
const DefaultThreshold = 3

// NormalizeLicenseID strips line breaks from a license id.
func NormalizeLicenseID(id string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(id)
}

// Set is an unordered set of normalized license ids.
type Set map[string]struct{}

// Has reports whether id is in the set. The id is normalized first.
func (s Set) Has(id string) bool {
	_, ok := s[NormalizeLicenseID(id)]
	return ok
}

// Sorted returns the ids in case-insensitive order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	licenseinfo.SortFold(out)
	return out
}

// Policy decides what survives when several records target one license.
type Policy int

const (
	// LastWriteWins keeps a single (topic, text) entry per license: the one
	// from the last matching record.
	LastWriteWins Policy = iota
	// CollectAll keeps every distinct entry in encounter order.
	CollectAll
)

func (p Policy) String() string {
	switch p {
	case LastWriteWins:
		return "last-write-wins"
	case CollectAll:
		return "collect-all"
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// ParsePolicy reads a policy name as used in configuration.
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "last-write-wins":
		return LastWriteWins, nil
	case "collect-all":
		return CollectAll, nil
	}
	return LastWriteWins, fmt.Errorf("obligations: unknown grouping policy %q", name)
}

// Entry is one obligation rendered under a license.
type Entry struct {
	Topic string
	Text  string
}

// Group holds the obligations rendered in one per-license table.
type Group struct {
	LicenseID string
	Entries   []Entry
	Project   []licenseinfo.ProjectObligation
}

// Distinct returns the obligation records of successful results with value
// duplicates removed, in encounter order.
func Distinct(results []licenseinfo.ObligationParsingResult) []licenseinfo.ObligationAtProject {
	var out []licenseinfo.ObligationAtProject
	for _, result := range results {
		if !result.Succeeded() {
			continue
		}
	next:
		for _, record := range result.ObligationsAtProject {
			for _, existing := range out {
				if existing.Equal(record) {
					continue next
				}
			}
			out = append(out, record)
		}
	}
	return out
}

// MostCommonLicenses counts every license id occurrence across successful
// records, without deduplication, and keeps the ids seen at least threshold
// times.
func MostCommonLicenses(results []licenseinfo.ObligationParsingResult, threshold int) Set {
	counts := map[string]int{}
	for _, result := range results {
		if !result.Succeeded() {
			continue
		}
		for _, record := range result.ObligationsAtProject {
			for _, id := range record.LicenseIDs {
				counts[NormalizeLicenseID(id)]++
			}
		}
	}
	common := Set{}
	for id, n := range counts {
		if n >= threshold {
			common[id] = struct{}{}
		}
	}
	return common
}

// GroupByLicense files each distinct record that cites a common license under
// every license id it names. Groups are ordered by license id.
func GroupByLicense(results []licenseinfo.ObligationParsingResult, common Set, policy Policy) []Group {
	index := map[string]*Group{}
	var order []string
	for _, record := range Distinct(results) {
		if !intersects(record.LicenseIDs, common) {
			continue
		}
		entry := Entry{Topic: record.Topic, Text: record.Text}
		for _, raw := range record.LicenseIDs {
			id := NormalizeLicenseID(raw)
			g, ok := index[id]
			if !ok {
				g = &Group{LicenseID: id}
				index[id] = g
				order = append(order, id)
			}
			g.add(entry, policy)
		}
	}
	licenseinfo.SortFold(order)
	groups := make([]Group, 0, len(order))
	for _, id := range order {
		groups = append(groups, *index[id])
	}
	return groups
}

func (g *Group) add(entry Entry, policy Policy) {
	if policy == LastWriteWins {
		g.Entries = []Entry{entry}
		return
	}
	for _, existing := range g.Entries {
		if existing == entry {
			return
		}
	}
	g.Entries = append(g.Entries, entry)
}

func intersects(ids []string, common Set) bool {
	for _, id := range ids {
		if common.Has(id) {
			return true
		}
	}
	return false
}

// MergeProjectObligations attaches the project's component-level obligations
// to every group.
func MergeProjectObligations(groups []Group, project []licenseinfo.ProjectObligation) []Group {
	out := make([]Group, len(groups))
	for i, g := range groups {
		g.Project = append([]licenseinfo.ProjectObligation(nil), project...)
		out[i] = g
	}
	return out
}

// Result is the aggregated obligation data of one report run.
type Result struct {
	Threshold int
	Policy    Policy
	Common    Set
	Groups    []Group
}

// Aggregate runs counting, grouping and project merging in one pass.
func Aggregate(results []licenseinfo.ObligationParsingResult, threshold int, policy Policy, project []licenseinfo.ProjectObligation) Result {
	common := MostCommonLicenses(results, threshold)
	groups := GroupByLicense(results, common, policy)
	return Result{
		Threshold: threshold,
		Policy:    policy,
		Common:    common,
		Groups:    MergeProjectObligations(groups, project),
	}
}

// ExtraTables is the number of per-license tables the groups produce.
func (r Result) ExtraTables() int {
	return len(r.Groups)
}
