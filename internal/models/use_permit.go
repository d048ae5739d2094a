package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/stwalsh4118/permithub/internal/normalize"
)

// Bounded text column limits specific to use_permits.
const (
	MaxUsePermitYear    = 16
	MaxUseDateText      = 32
	MaxUseOriginalNo    = 256
	MaxUseBuildType     = 128
	MaxUseStructure     = 128
	MaxUseZoning        = 256
	MaxUseCostText      = 64
	MaxChangeApprovText = 128
)

// UsePermit is one occupancy (use) permit record. Its natural key is the
// (permit_year, permit_no) pair; the source issues the same number across
// different years. Date-bearing fields arrive in too many shapes to trust,
// so they are kept verbatim as text.
type UsePermit struct {
	ID         int64
	PermitYear string
	PermitNo   string

	IssueDateText    string
	OriginalPermitNo string
	Designer         string
	Supervisor       string
	Contractor       string
	BuildType        string
	StructureType    string
	Zoning           string

	BuildingCount *int
	BlockCount    *int
	FloorsAbove   *int
	FloorsBelow   *int
	UnitCount     *int

	ArcadeSiteAreaSqm  *decimal.Decimal
	OtherSiteAreaSqm   *decimal.Decimal
	FootprintAreaSqm   *decimal.Decimal
	LegalOpenSpaceSqm  *decimal.Decimal
	RefugeAreaAboveSqm *decimal.Decimal
	RefugeAreaBelowSqm *decimal.Decimal
	BuildingHeightM    *decimal.Decimal

	ProjectCostText    string
	CompletionDateText string
	StartDateText      string
	LawSummary         string
	ChangeSummaryText  string

	Raw *RawNode

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ChangeApproval is one approval-document pair extracted from the change
// summary's attribute-bearing child elements.
type ChangeApproval struct {
	ApprovalText   string
	CompletionText string
}

// UsePermitChildren carries the ordered child collections of one use
// permit plus the at-most-one misc-work description.
type UsePermitChildren struct {
	Addresses       []string
	Parcels         []string
	Floors          []string
	Parkings        []string
	Notes           []string
	ChangeApprovals []ChangeApproval
	MiscWorkDesc    string
}

// Clip truncates every bounded text field to its column limit.
func (p *UsePermit) Clip() {
	p.PermitYear = normalize.Clip(p.PermitYear, MaxUsePermitYear)
	p.PermitNo = normalize.Clip(p.PermitNo, MaxPermitNo)
	p.IssueDateText = normalize.Clip(p.IssueDateText, MaxUseDateText)
	p.OriginalPermitNo = normalize.Clip(p.OriginalPermitNo, MaxUseOriginalNo)
	p.Designer = normalize.Clip(p.Designer, MaxPersonName)
	p.Supervisor = normalize.Clip(p.Supervisor, MaxPersonName)
	p.Contractor = normalize.Clip(p.Contractor, MaxPersonName)
	p.BuildType = normalize.Clip(p.BuildType, MaxUseBuildType)
	p.StructureType = normalize.Clip(p.StructureType, MaxUseStructure)
	p.Zoning = normalize.Clip(p.Zoning, MaxUseZoning)
	p.ProjectCostText = normalize.Clip(p.ProjectCostText, MaxUseCostText)
	p.CompletionDateText = normalize.Clip(p.CompletionDateText, MaxUseDateText)
	p.StartDateText = normalize.Clip(p.StartDateText, MaxUseDateText)
}

// Clip truncates the bounded child payloads.
func (c *UsePermitChildren) Clip() {
	for i, s := range c.Addresses {
		c.Addresses[i] = normalize.Clip(s, MaxAddressText)
	}
	for i, s := range c.Parcels {
		c.Parcels[i] = normalize.Clip(s, MaxParcelText)
	}
	for i, ca := range c.ChangeApprovals {
		c.ChangeApprovals[i].ApprovalText = normalize.Clip(ca.ApprovalText, MaxChangeApprovText)
		c.ChangeApprovals[i].CompletionText = normalize.Clip(ca.CompletionText, MaxChangeApprovText)
	}
}
