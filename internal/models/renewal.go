package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/stwalsh4118/permithub/internal/normalize"
)

// SourceTaipeiUR tags urban-renewal cases imported from the Taipei export.
const SourceTaipeiUR = "taipei_ur"

const MaxSource = 32

// Bonus codes for renewal_bonuses rows.
const (
	BonusStructure   = "structure"
	BonusSeismic     = "seismic"
	BonusGreen       = "green"
	BonusSmart       = "smart"
	BonusBarrierFree = "barrierfree"
	BonusDonation    = "donation"
	BonusSchedule    = "schedule"
	BonusScale       = "scale"
	BonusOther       = "other"
)

// RenewalCase is one urban-renewal approval case, keyed by
// (source, case_no). Both the ragged-CSV path and the named-column XLSX
// path feed this shape.
type RenewalCase struct {
	ID            int64
	Source        string
	CaseNo        int
	TotalBonusPct *decimal.Decimal

	District   string
	Section    string
	Subsection string
	ParcelNo   string
	Address    string

	ApprovedDate *time.Time

	SiteAreaSqm  *decimal.Decimal
	SiteAreaPing *decimal.Decimal

	Raw CaseRaw

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CaseRaw is the archival payload for tabular records: the raw cell slice
// (ragged-CSV path) or the named field map (XLSX path), plus any extracted
// annotation or land text that has no normalized column of its own.
type CaseRaw struct {
	Cols     []string          `json:"cols,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
	Note     string            `json:"note,omitempty"`
	LandText string            `json:"land_text,omitempty"`
}

// RenewalBonus is one bonus line of a renewal case. The set is
// delete-and-rebuilt whenever the parent case is re-imported.
type RenewalBonus struct {
	ID       int64
	CaseID   int64
	Code     string
	BonusPct decimal.Decimal
}

// Clip truncates every bounded text field to its column limit.
func (c *RenewalCase) Clip() {
	c.Source = normalize.Clip(c.Source, MaxSource)
	c.District = normalize.Clip(c.District, MaxDistrict)
	c.Section = normalize.Clip(c.Section, MaxSection)
	c.Subsection = normalize.Clip(c.Subsection, MaxSubsection)
	c.ParcelNo = normalize.Clip(c.ParcelNo, MaxParcelNo)
	c.Address = normalize.Clip(c.Address, MaxLocation)
}
