// Package realign reconstructs structured case records from table rows
// whose column boundaries drift between rows, a standing artifact of
// table-region extraction from paginated PDF sources. Fields are located by
// content classification (is-digit, matches-date-grammar, is-numeric), not
// by fixed offsets; the single position-based rule is called out below.
package realign

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stwalsh4118/permithub/internal/normalize"
)

// Scan bounds. The date anchor is looked for in cells 2..11; when no date
// is found the free-text field falls back to cells 2..5.
const (
	dateScanCeiling   = 12
	noDateTextCeiling = 6
	noteScanWidth     = 3
	maxNoteRunes      = 12
)

// totalBonusOffset locates the total-bonus percentage at a fixed distance
// from the end of the row. This is the one position-based rule in the
// parser: header names are unreliable across re-extracted pages, and the
// trailing bonus columns have held still in every source layout seen so
// far. It WILL break if the trailing column count changes; see the
// assumption test before "fixing" it.
const totalBonusOffset = 4

// CaseRow is one realigned urban-renewal case row.
type CaseRow struct {
	CaseNo        int
	District      string
	Address       string
	LandText      string
	Note          string
	ApprovedDate  *time.Time
	SiteAreaSqm   *decimal.Decimal
	SiteAreaPing  *decimal.Decimal
	TotalBonusPct *decimal.Decimal
	Cols          []string
}

// ParseCaseRow classifies the cells of one raw row into a CaseRow.
// It returns (nil, false) when the row is not a case row at all (header,
// separator, page furniture): the contract is that only rows whose first
// cell is a pure digit run are records. Every other extraction step
// degrades to "no value" instead of failing.
func ParseCaseRow(cols []string) (*CaseRow, bool) {
	cells := make([]string, len(cols))
	for i, c := range cols {
		cells[i] = normalize.CleanWS(c)
	}

	if len(cells) == 0 || !isDigits(cells[0]) {
		return nil, false
	}
	caseNo, err := strconv.Atoi(cells[0])
	if err != nil {
		return nil, false
	}

	row := &CaseRow{CaseNo: caseNo, Cols: cells}

	// date anchor: first cell matching the ROC date grammar
	dateIdx := -1
	for i := 2; i < len(cells) && i < dateScanCeiling; i++ {
		if d := normalize.ParseROCDate(cells[i]); d != nil {
			row.ApprovedDate = d
			dateIdx = i
			break
		}
	}

	// district cell: "<area> <district>" or just "<district>"
	if len(cells) >= 2 {
		parts := strings.Fields(cells[1])
		if len(parts) > 0 && isNumeric(parts[0]) {
			row.SiteAreaSqm = normalize.ParseDecimal(parts[0])
			row.District = strings.Join(parts[1:], "")
		} else {
			row.District = cells[1]
		}
	}

	// everything between the district cell and the date anchor is the
	// address/location run; land-lot decomposition is deferred, the text
	// is stored unparsed for later processing
	if dateIdx >= 0 {
		row.Address = joinNonEmpty(cells[2:dateIdx])
	} else if len(cells) > 2 {
		end := noDateTextCeiling
		if end > len(cells) {
			end = len(cells)
		}
		row.Address = joinNonEmpty(cells[2:end])
	}

	if len(cells) >= totalBonusOffset {
		row.TotalBonusPct = normalize.ParseDecimal(cells[len(cells)-totalBonusOffset])
	}

	// short annotation right after the date, e.g. a voided marker
	if dateIdx >= 0 {
		for i := dateIdx + 1; i < len(cells) && i <= dateIdx+noteScanWidth; i++ {
			x := cells[i]
			if x == "" || isNumeric(x) || normalize.ParseROCDate(x) != nil {
				continue
			}
			if len([]rune(x)) <= maxNoteRunes {
				row.Note = x
				break
			}
		}
	}

	if row.SiteAreaSqm != nil {
		p := normalize.SqmToPing(*row.SiteAreaSqm)
		row.SiteAreaPing = &p
	}

	return row, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// isNumeric accepts digit runs with at most one decimal point.
func isNumeric(s string) bool {
	return isDigits(strings.Replace(s, ".", "", 1))
}

func joinNonEmpty(cells []string) string {
	var parts []string
	for _, c := range cells {
		if c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, " ")
}
