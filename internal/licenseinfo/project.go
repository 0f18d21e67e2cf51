package licenseinfo

import (
	"sort"
	"strings"
)

// ObligationLevel classifies project-declared obligations.
type ObligationLevel string

const (
	LevelOrganisation ObligationLevel = "organisation"
	LevelProject      ObligationLevel = "project"
	LevelComponent    ObligationLevel = "component"
)

// ProjectObligation is an obligation tracked on the project with its fulfillment state.
type ProjectObligation struct {
	Title     string          `yaml:"title" json:"title"`
	Text      string          `yaml:"text" json:"text"`
	Level     ObligationLevel `yaml:"level" json:"level" validate:"required,oneof=organisation project component"`
	Fulfilled bool            `yaml:"fulfilled" json:"fulfilled"`
	Comment   string          `yaml:"comment,omitempty" json:"comment,omitempty"`
}

// FulfilledLabel renders the fulfilled flag as it appears in tables.
func (o ProjectObligation) FulfilledLabel() string {
	if o.Fulfilled {
		return "yes"
	}
	return "no"
}

// Project is the project a report is generated for.
type Project struct {
	Name                          string              `yaml:"name" json:"name" validate:"required"`
	Version                       string              `yaml:"version,omitempty" json:"version,omitempty"`
	BusinessUnit                  string              `yaml:"business_unit,omitempty" json:"business_unit,omitempty"`
	Description                   string              `yaml:"description,omitempty" json:"description,omitempty"`
	LicenseInfoHeaderText         string              `yaml:"license_info_header_text,omitempty" json:"license_info_header_text,omitempty"`
	ClearingSummary               string              `yaml:"clearing_summary,omitempty" json:"clearing_summary,omitempty"`
	SpecialRisksOSS               string              `yaml:"special_risks_oss,omitempty" json:"special_risks_oss,omitempty"`
	GeneralRisks3rdParty          string              `yaml:"general_risks_3rd_party,omitempty" json:"general_risks_3rd_party,omitempty"`
	SpecialRisks3rdParty          string              `yaml:"special_risks_3rd_party,omitempty" json:"special_risks_3rd_party,omitempty"`
	DeliveryChannels              string              `yaml:"delivery_channels,omitempty" json:"delivery_channels,omitempty"`
	RemarksAdditionalRequirements string              `yaml:"remarks_additional_requirements,omitempty" json:"remarks_additional_requirements,omitempty"`
	ProjectOwner                  string              `yaml:"project_owner,omitempty" json:"project_owner,omitempty"`
	Roles                         map[string][]string `yaml:"roles,omitempty" json:"roles,omitempty"`
	Obligations                   []ProjectObligation `yaml:"obligations,omitempty" json:"obligations,omitempty" validate:"dive"`
}

// ObligationsAt returns the project obligations of one level in declaration order.
func (p Project) ObligationsAt(level ObligationLevel) []ProjectObligation {
	var out []ProjectObligation
	for _, o := range p.Obligations {
		if o.Level == level {
			out = append(out, o)
		}
	}
	return out
}

// RoleNames returns the configured role names in a stable order.
func (p Project) RoleNames() []string {
	names := make([]string, 0, len(p.Roles))
	for name := range p.Roles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// User is a directory entry for a person attached to the project.
type User struct {
	Email      string `yaml:"email" json:"email" validate:"required"`
	FullName   string `yaml:"full_name,omitempty" json:"full_name,omitempty"`
	Department string `yaml:"department,omitempty" json:"department,omitempty"`
}

// License is a license catalog entry with its obligation texts.
type License struct {
	ID          string   `yaml:"id" json:"id" validate:"required"`
	FullName    string   `yaml:"full_name,omitempty" json:"full_name,omitempty"`
	Obligations []string `yaml:"obligations,omitempty" json:"obligations,omitempty"`
}

// ObligationStatus is the clearing state of a linked obligation.
type ObligationStatus string

const (
	ObligationOpen                   ObligationStatus = "OPEN"
	ObligationAcknowledgedOrFulfiled ObligationStatus = "ACKNOWLEDGED_OR_FULFILLED"
	ObligationWaivedOrNotApplicable  ObligationStatus = "WAIVED_OR_NOT_APPLICABLE"
	ObligationDeferredToParent       ObligationStatus = "DEFERRED_TO_PARENT_PROJECT"
	ObligationEscalated              ObligationStatus = "ESCALATED"
)

var obligationStatusNames = map[ObligationStatus]string{
	ObligationOpen:                   "Open",
	ObligationAcknowledgedOrFulfiled: "Acknowledged or Fulfilled",
	ObligationWaivedOrNotApplicable:  "Waived or Not Applicable",
	ObligationDeferredToParent:       "Deferred to parent project",
	ObligationEscalated:              "Escalated",
}

// String renders the human readable status.
func (s ObligationStatus) String() string {
	if name, ok := obligationStatusNames[s]; ok {
		return name
	}
	return string(s)
}

// ObligationStatusInfo describes an obligation linked to releases of the project.
type ObligationStatusInfo struct {
	Text       string           `yaml:"text" json:"text"`
	LicenseIDs []string         `yaml:"license_ids,omitempty" json:"license_ids,omitempty"`
	Releases   []Release        `yaml:"releases,omitempty" json:"releases,omitempty"`
	Status     ObligationStatus `yaml:"status,omitempty" json:"status,omitempty"`
	Type       string           `yaml:"type,omitempty" json:"type,omitempty"`
	Comment    string           `yaml:"comment,omitempty" json:"comment,omitempty"`
}

// ReleaseNames returns the distinct release print names in a stable order.
func (o ObligationStatusInfo) ReleaseNames() []string {
	seen := map[string]struct{}{}
	var names []string
	for _, r := range o.Releases {
		name := strings.TrimSpace(r.PrintName())
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	SortFold(names)
	return names
}
