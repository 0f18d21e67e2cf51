// Package licenseinfo holds the read-only domain records a report is built
// from: per-release license parsing results, obligation parsing results, the
// project being cleared and the people and licenses it references.
package licenseinfo

import (
	"strings"
)

// RequestStatus reports whether an upstream parsing request succeeded.
type RequestStatus string

const (
	StatusSuccess RequestStatus = "SUCCESS"
	StatusFailure RequestStatus = "FAILURE"
)

// GlobalLicenseType marks a license that applies to a whole release.
const GlobalLicenseType = "global"

// LicenseNameWithText is one license finding inside a release.
type LicenseNameWithText struct {
	LicenseName      string `yaml:"license_name" json:"license_name"`
	LicenseText      string `yaml:"license_text" json:"license_text"`
	Acknowledgements string `yaml:"acknowledgements,omitempty" json:"acknowledgements,omitempty"`
	Type             string `yaml:"type,omitempty" json:"type,omitempty"`
}

// LicenseKey is the (name, text) identity used to deduplicate licenses.
type LicenseKey struct {
	Name string
	Text string
}

// Key returns the identity of the license finding.
func (l LicenseNameWithText) Key() LicenseKey {
	return LicenseKey{Name: l.LicenseName, Text: l.LicenseText}
}

// IsEmpty reports whether the finding names no license: both name and text
// are blank. Acknowledgements alone do not make a license.
func (l LicenseNameWithText) IsEmpty() bool {
	return strings.TrimSpace(l.LicenseName) == "" &&
		strings.TrimSpace(l.LicenseText) == ""
}

// IsGlobal reports whether the finding covers the whole release.
func (l LicenseNameWithText) IsGlobal() bool {
	return l.Type == GlobalLicenseType
}

// LicenseInfo captures the license facts of a single release.
type LicenseInfo struct {
	LicenseNamesWithTexts []LicenseNameWithText `yaml:"licenses" json:"licenses" validate:"dive"`
	Copyrights            []string              `yaml:"copyrights,omitempty" json:"copyrights,omitempty"`
	Filenames             []string              `yaml:"filenames,omitempty" json:"filenames,omitempty"`
	Sha1Hash              string                `yaml:"sha1,omitempty" json:"sha1,omitempty"`
	ComponentName         string                `yaml:"component_name,omitempty" json:"component_name,omitempty"`
}

// GlobalLicense returns the first license marked global, if any.
func (li *LicenseInfo) GlobalLicense() (string, bool) {
	if li == nil {
		return "", false
	}
	for _, l := range li.LicenseNamesWithTexts {
		if l.IsGlobal() {
			return l.LicenseName, true
		}
	}
	return "", false
}

// Release identifies a component release inside the project.
type Release struct {
	ID                string   `yaml:"id" json:"id"`
	Name              string   `yaml:"name" json:"name" validate:"required"`
	Version           string   `yaml:"version" json:"version"`
	Vendor            string   `yaml:"vendor,omitempty" json:"vendor,omitempty"`
	ComponentType     string   `yaml:"component_type,omitempty" json:"component_type,omitempty"`
	OperatingSystems  []string `yaml:"operating_systems,omitempty" json:"operating_systems,omitempty"`
	Languages         []string `yaml:"languages,omitempty" json:"languages,omitempty"`
	SoftwarePlatforms []string `yaml:"software_platforms,omitempty" json:"software_platforms,omitempty"`
}

// PrintName renders "name version" for tables that list releases.
func (r Release) PrintName() string {
	return joinNonEmpty(r.Name, r.Version)
}

// SameAs reports whether two release records describe the same release.
func (r *Release) SameAs(other *Release) bool {
	if r == nil || other == nil {
		return false
	}
	if r.ID != "" || other.ID != "" {
		return r.ID == other.ID
	}
	return r.Name == other.Name && r.Version == other.Version && r.Vendor == other.Vendor
}

// ParsingResult is the license parsing outcome for one release.
type ParsingResult struct {
	Vendor        string        `yaml:"vendor,omitempty" json:"vendor,omitempty"`
	Name          string        `yaml:"name" json:"name" validate:"required"`
	Version       string        `yaml:"version,omitempty" json:"version,omitempty"`
	ComponentType string        `yaml:"component_type,omitempty" json:"component_type,omitempty"`
	Status        RequestStatus `yaml:"status" json:"status" validate:"required,oneof=SUCCESS FAILURE"`
	Message       string        `yaml:"message,omitempty" json:"message,omitempty"`
	LicenseInfo   *LicenseInfo  `yaml:"license_info,omitempty" json:"license_info,omitempty"`
	Release       *Release      `yaml:"release,omitempty" json:"release,omitempty"`
}

// Succeeded reports whether the release parsed successfully.
func (r ParsingResult) Succeeded() bool {
	return r.Status == StatusSuccess
}

// LongName renders "vendor name version".
func (r ParsingResult) LongName() string {
	return joinNonEmpty(r.Vendor, r.Name, r.Version)
}

// ShortName renders "name version".
func (r ParsingResult) ShortName() string {
	return joinNonEmpty(r.Name, r.Version)
}

// Filename returns the first source file the license info was read from.
func (r ParsingResult) Filename() string {
	if r.LicenseInfo == nil || len(r.LicenseInfo.Filenames) == 0 {
		return UnknownFileName
	}
	return r.LicenseInfo.Filenames[0]
}

// Licenses returns the non-empty license findings of the release.
func (r ParsingResult) Licenses() []LicenseNameWithText {
	if r.LicenseInfo == nil {
		return nil
	}
	out := make([]LicenseNameWithText, 0, len(r.LicenseInfo.LicenseNamesWithTexts))
	for _, l := range r.LicenseInfo.LicenseNamesWithTexts {
		if l.IsEmpty() {
			continue
		}
		out = append(out, l)
	}
	return out
}

// Copyrights returns the release's copyright statements.
func (r ParsingResult) Copyrights() []string {
	if r.LicenseInfo == nil {
		return nil
	}
	return r.LicenseInfo.Copyrights
}

// Acknowledgements returns the distinct, sorted acknowledgement texts of a
// release, including those on findings that name no license.
func (r ParsingResult) Acknowledgements() []string {
	if r.LicenseInfo == nil {
		return nil
	}
	seen := map[string]struct{}{}
	var out []string
	for _, l := range r.LicenseInfo.LicenseNamesWithTexts {
		ack := strings.TrimSpace(l.Acknowledgements)
		if ack == "" {
			continue
		}
		if _, ok := seen[ack]; ok {
			continue
		}
		seen[ack] = struct{}{}
		out = append(out, ack)
	}
	SortFold(out)
	return out
}

const (
	// UnknownLicenseName is rendered when a finding has text but no name.
	UnknownLicenseName = "Unknown license name"
	// UnknownFileName is rendered when a failed result names no source file.
	UnknownFileName = "Unknown file name"
	// UnknownLicense is rendered when a release has no global license.
	UnknownLicense = "Unknown"
)

// DisplayName returns the license name or a placeholder.
func (l LicenseNameWithText) DisplayName() string {
	if strings.TrimSpace(l.LicenseName) == "" {
		return UnknownLicenseName
	}
	return l.LicenseName
}

// ObligationAtProject is a single obligation record derived for a release.
type ObligationAtProject struct {
	Topic      string   `yaml:"topic" json:"topic"`
	Text       string   `yaml:"text" json:"text"`
	LicenseIDs []string `yaml:"license_ids" json:"license_ids" validate:"min=1"`
}

// Equal compares obligation records by value.
func (o ObligationAtProject) Equal(other ObligationAtProject) bool {
	if o.Topic != other.Topic || o.Text != other.Text || len(o.LicenseIDs) != len(other.LicenseIDs) {
		return false
	}
	for i := range o.LicenseIDs {
		if o.LicenseIDs[i] != other.LicenseIDs[i] {
			return false
		}
	}
	return true
}

// ObligationParsingResult is the obligation parsing outcome for one release.
type ObligationParsingResult struct {
	Status               RequestStatus         `yaml:"status" json:"status" validate:"required,oneof=SUCCESS FAILURE"`
	Release              *Release              `yaml:"release,omitempty" json:"release,omitempty"`
	ObligationsAtProject []ObligationAtProject `yaml:"obligations,omitempty" json:"obligations,omitempty" validate:"dive"`
}

// Succeeded reports whether the obligations were parsed.
func (r ObligationParsingResult) Succeeded() bool {
	return r.Status == StatusSuccess
}

func joinNonEmpty(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return strings.Join(kept, " ")
}
