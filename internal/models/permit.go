package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/stwalsh4118/permithub/internal/normalize"
)

// Maximum lengths of the bounded text columns on building_permits and its
// child tables. Values longer than these are clipped before any write; the
// untruncated original stays in the raw payload.
const (
	MaxPermitNo      = 64
	MaxPermitYear    = 10
	MaxDistrict      = 32
	MaxSection       = 64
	MaxSubsection    = 64
	MaxParcelNo      = 32
	MaxBuildType     = 32
	MaxStructure     = 128
	MaxZoning        = 128
	MaxLocation      = 256
	MaxBuildDeadline = 64
	MaxPersonName    = 256
	MaxAddressText   = 512
	MaxParcelText    = 256
)

// BuildingPermit is one building-permit record keyed by its permit number.
// Nullable numeric and date attributes use pointers so that "no value" is
// distinguishable from zero; text attributes default to the empty string.
type BuildingPermit struct {
	ID         int64
	PermitNo   string
	PermitYear string
	IssueDate  *time.Time

	District   string
	Section    string
	Subsection string
	ParcelNo   string

	BuildType string
	Structure string
	Zoning    string

	Location     string
	LandText     string
	BuildingInfo string
	Summary      string

	BuildingAreaSqm   *decimal.Decimal
	ArcadeSiteAreaSqm *decimal.Decimal
	OtherSiteAreaSqm  *decimal.Decimal

	BuildingCount *int
	BlockCount    *int
	FloorsAbove   *int
	FloorsBelow   *int
	UnitCount     *int

	BuildDeadline string
	ProjectCost   *int64

	Owner      string
	Designer   string
	Supervisor string

	MiscWorks     string
	ApplicableLaw string
	Notes         string

	Raw *RawNode

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PermitChildren carries the ordered child collections of one permit.
// Sequence numbers are assigned 1-based in slice order at write time.
type PermitChildren struct {
	Addresses []string
	Parcels   []string
	Floors    []string
	MiscItems []string
	NoteItems []string
}

// Clip truncates every bounded text field to its column limit.
func (p *BuildingPermit) Clip() {
	p.PermitNo = normalize.Clip(p.PermitNo, MaxPermitNo)
	p.PermitYear = normalize.Clip(p.PermitYear, MaxPermitYear)
	p.District = normalize.Clip(p.District, MaxDistrict)
	p.Section = normalize.Clip(p.Section, MaxSection)
	p.Subsection = normalize.Clip(p.Subsection, MaxSubsection)
	p.ParcelNo = normalize.Clip(p.ParcelNo, MaxParcelNo)
	p.BuildType = normalize.Clip(p.BuildType, MaxBuildType)
	p.Structure = normalize.Clip(p.Structure, MaxStructure)
	p.Zoning = normalize.Clip(p.Zoning, MaxZoning)
	p.Location = normalize.Clip(p.Location, MaxLocation)
	p.BuildDeadline = normalize.Clip(p.BuildDeadline, MaxBuildDeadline)
	p.Owner = normalize.Clip(p.Owner, MaxPersonName)
	p.Designer = normalize.Clip(p.Designer, MaxPersonName)
	p.Supervisor = normalize.Clip(p.Supervisor, MaxPersonName)
}

// Clip truncates the bounded child payloads. Floor, misc and note lines are
// unbounded text columns and pass through unchanged.
func (c *PermitChildren) Clip() {
	for i, s := range c.Addresses {
		c.Addresses[i] = normalize.Clip(s, MaxAddressText)
	}
	for i, s := range c.Parcels {
		c.Parcels[i] = normalize.Clip(s, MaxParcelText)
	}
}
