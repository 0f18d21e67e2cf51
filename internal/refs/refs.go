// Package refs assigns the reference numbers that tie inline license
// citations to the license-text appendix.
package refs

import (
	"sort"
	"strconv"

	"github.com/kingrea/licensedoc/internal/licenseinfo"
)

// Entry is one numbered license in appendix order.
type Entry struct {
	ID      int
	License licenseinfo.LicenseNameWithText
}

// Registry maps each distinct (name, text) license to a dense 1-based id.
type Registry struct {
	ids     map[licenseinfo.LicenseKey]int
	entries []Entry
}

// Build collects the non-empty licenses of all successful results, drops
// duplicates, orders them by name case-insensitively (ties keep encounter
// order) and numbers them from 1.
func Build(results []licenseinfo.ParsingResult) *Registry {
	seen := map[licenseinfo.LicenseKey]struct{}{}
	var licenses []licenseinfo.LicenseNameWithText
	for _, result := range results {
		if !result.Succeeded() {
			continue
		}
		for _, l := range result.Licenses() {
			key := l.Key()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			licenses = append(licenses, l)
		}
	}
	sort.SliceStable(licenses, func(i, j int) bool {
		return licenseinfo.CompareFold(licenses[i].LicenseName, licenses[j].LicenseName) < 0
	})

	reg := &Registry{ids: make(map[licenseinfo.LicenseKey]int, len(licenses))}
	for i, l := range licenses {
		id := i + 1
		reg.ids[l.Key()] = id
		reg.entries = append(reg.entries, Entry{ID: id, License: l})
	}
	return reg
}

// ID returns the reference number of a license.
func (r *Registry) ID(l licenseinfo.LicenseNameWithText) (int, bool) {
	if r == nil {
		return 0, false
	}
	id, ok := r.ids[l.Key()]
	return id, ok
}

// Entries returns the numbered licenses in id order.
func (r *Registry) Entries() []Entry {
	if r == nil {
		return nil
	}
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of registered licenses.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}

// Anchor returns the bookmark name shared by a citation and its appendix entry.
func Anchor(id int) string {
	return "license_" + strconv.Itoa(id)
}

// ReleaseAnchor returns the bookmark name of the n-th release section.
func ReleaseAnchor(n int) string {
	return "release_" + strconv.Itoa(n)
}
