package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/stwalsh4118/permithub/internal/normalize"
)

// WreApproval is one dangerous-and-old-building (WRE) reconstruction
// approval. The source carries no single natural key, so uniqueness is
// approximated by the (approve_date, district, section, subsection,
// parcel_no, address) combination.
type WreApproval struct {
	ID          int64
	ApproveDate *time.Time

	District   string
	Section    string
	Subsection string
	ParcelNo   string
	Address    string

	SiteAreaSqm  *decimal.Decimal
	SiteAreaPing *decimal.Decimal

	Raw map[string]string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clip truncates every bounded text field to its column limit.
func (a *WreApproval) Clip() {
	a.District = normalize.Clip(a.District, MaxDistrict)
	a.Section = normalize.Clip(a.Section, MaxSection)
	a.Subsection = normalize.Clip(a.Subsection, MaxSubsection)
	a.ParcelNo = normalize.Clip(a.ParcelNo, MaxParcelNo)
	a.Address = normalize.Clip(a.Address, MaxLocation)
}
