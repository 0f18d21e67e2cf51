package licenseinfo

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// CompareFold orders two strings case-insensitively. Strings that fold to the
// same value compare equal so stable sorts keep their encounter order.
func CompareFold(a, b string) int {
	folder := cases.Fold()
	return strings.Compare(folder.String(a), folder.String(b))
}

// SortFold sorts values in place case-insensitively, keeping ties stable.
func SortFold(values []string) {
	keys := foldKeys(values)
	sort.Stable(foldSorter{values: values, keys: keys})
}

// SortResultsBy stably sorts parsing results by a case-insensitive name.
func SortResultsBy(results []ParsingResult, name func(ParsingResult) string) []ParsingResult {
	out := make([]ParsingResult, len(results))
	copy(out, results)
	folder := cases.Fold()
	keys := make([]string, len(out))
	for i, r := range out {
		keys[i] = folder.String(name(r))
	}
	sort.Stable(resultSorter{results: out, keys: keys})
	return out
}

func foldKeys(values []string) []string {
	folder := cases.Fold()
	keys := make([]string, len(values))
	for i, v := range values {
		keys[i] = folder.String(v)
	}
	return keys
}

type foldSorter struct {
	values []string
	keys   []string
}

func (s foldSorter) Len() int           { return len(s.values) }
func (s foldSorter) Less(i, j int) bool { return s.keys[i] < s.keys[j] }
func (s foldSorter) Swap(i, j int) {
	s.values[i], s.values[j] = s.values[j], s.values[i]
	s.keys[i], s.keys[j] = s.keys[j], s.keys[i]
}

type resultSorter struct {
	results []ParsingResult
	keys    []string
}

func (s resultSorter) Len() int           { return len(s.results) }
func (s resultSorter) Less(i, j int) bool { return s.keys[i] < s.keys[j] }
func (s resultSorter) Swap(i, j int) {
	s.results[i], s.results[j] = s.results[j], s.results[i]
	s.keys[i], s.keys[j] = s.keys[j], s.keys[i]
}
