package report

import (
	"strings"

	"github.com/kingrea/licensedoc/internal/licenseinfo"
)

const (
	tokenLicenseInfoHeader = "$license-info-header"
	tokenProjectName       = "$project-name"
	tokenProjectVersion    = "$project-version"

	tokenOwnerGroup          = "$owner-group"
	tokenBusinessUnit        = "$bunit"
	tokenClearingSummary     = "$clearing-summary-text"
	tokenSpecialRisksOSS     = "$special-risks-oss-addition-text"
	tokenGeneralRisks3rd     = "$general-risks-3rd-party-text"
	tokenSpecialRisks3rd     = "$special-risks-3rd-party-text"
	tokenDeliveryChannels    = "$delivery-channels-text"
	tokenRemarksAdditional   = "$remarks-additional-requirements-text"
	tokenProductDescription  = "$product-description"
	tokenReadmeOSS           = "$readme-OSS-text"
	tokenLicensesAboveThresh = "$list_comma_sep_licenses_above_threshold"

	anchorExternalIDCaption = "$caption-extid-table"
	anchorExternalIDTable   = "$external-id-table"

	externalIDCaption    = "External Identifiers for this Product:"
	no3rdPartySoftware   = "No commercial 3rd party software is used"
	readmeOSSDescription = "Is generated by the Clearing office and provided in sw360 as attachment of the Project. It is stored here:"
)

// Tokens lists the placeholder tokens a variant's template is expected to
// contain.
func Tokens(v Variant) []string {
	switch v.(type) {
	case Disclosure:
		return []string{tokenLicenseInfoHeader, tokenProjectName, tokenProjectVersion,
			anchorExternalIDCaption, anchorExternalIDTable}
	case Report:
		return []string{tokenOwnerGroup, tokenBusinessUnit, tokenLicenseInfoHeader, tokenProjectName,
			tokenProjectVersion, tokenClearingSummary, tokenSpecialRisksOSS, tokenGeneralRisks3rd,
			tokenSpecialRisks3rd, tokenDeliveryChannels, tokenRemarksAdditional, tokenProductDescription,
			tokenReadmeOSS, tokenLicensesAboveThresh}
	}
	return nil
}

func disclosureTokens(p licenseinfo.Project) []token {
	return []token{
		{tokenLicenseInfoHeader, p.LicenseInfoHeaderText},
		{tokenProjectName, p.Name},
		{tokenProjectVersion, p.Version},
	}
}

func reportTokens(p licenseinfo.Project, common []string) []token {
	return []token{
		{tokenOwnerGroup, p.BusinessUnit},
		{tokenBusinessUnit, p.BusinessUnit},
		{tokenLicenseInfoHeader, p.LicenseInfoHeaderText},
		{tokenProjectName, p.Name},
		{tokenProjectVersion, p.Version},
		{tokenClearingSummary, p.ClearingSummary},
		{tokenSpecialRisksOSS, p.SpecialRisksOSS},
		{tokenGeneralRisks3rd, orDefault(p.GeneralRisks3rdParty, no3rdPartySoftware)},
		{tokenSpecialRisks3rd, orDefault(p.SpecialRisks3rdParty, no3rdPartySoftware)},
		{tokenDeliveryChannels, p.DeliveryChannels},
		{tokenRemarksAdditional, p.RemarksAdditionalRequirements},
		{tokenProductDescription, p.Description},
		{tokenReadmeOSS, readmeOSSDescription},
		{tokenLicensesAboveThresh, strings.Join(common, ", ")},
	}
}
