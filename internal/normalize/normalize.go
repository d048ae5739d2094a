// Package normalize holds the pure field-level normalizers used by every
// import path: whitespace cleanup, ROC (Minguo) calendar dates, numeric
// coercion, parcel-number canonicalization and bounded-text clipping.
//
// Every parser in this package accepts a raw string and returns either a
// typed value or nil. Malformed input never produces an error and never
// falls back to a zero value; callers must treat nil as "no value".
package normalize

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/width"
)

// rocEpochOffset converts a Republic-of-China calendar year to a common-era
// year (ROC year 108 = 2019).
const rocEpochOffset = 1911

// PingSqm is one ping expressed in square meters.
var PingSqm = decimal.RequireFromString("3.305785")

var (
	reROCSlash  = regexp.MustCompile(`^(\d{2,3})/(\d{1,2})/(\d{1,2})$`)
	reROCDigits = regexp.MustCompile(`^(\d{2,3})(\d{2})(\d{2})$`)
	reParcelNo  = regexp.MustCompile(`^(\d+)(?:-(\d+))?$`)
)

// CleanWS collapses runs of whitespace to single spaces and trims both ends.
// It is idempotent: CleanWS(CleanWS(s)) == CleanWS(s).
func CleanWS(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// FoldWidth maps full-width digits and punctuation to their half-width
// forms. Government exports routinely mix the two, so every numeric and
// date parser folds its input first.
func FoldWidth(s string) string {
	return width.Fold.String(s)
}

// ParseROCDate parses a three-part ROC-calendar date into a common-era
// date. Accepted forms: "108/3/19" (also dash-delimited) and digit runs
// like "1080319", with a 2- or 3-digit year component. Returns nil for
// empty, non-matching, or calendar-invalid input.
func ParseROCDate(s string) *time.Time {
	s = CleanWS(FoldWidth(s))
	s = strings.ReplaceAll(s, "-", "/")
	if s == "" {
		return nil
	}

	var y, m, d int
	if g := reROCSlash.FindStringSubmatch(s); g != nil {
		y, m, d = atoi(g[1])+rocEpochOffset, atoi(g[2]), atoi(g[3])
	} else if g := reROCDigits.FindStringSubmatch(s); g != nil {
		y, m, d = atoi(g[1])+rocEpochOffset, atoi(g[2]), atoi(g[3])
	} else {
		return nil
	}

	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes out-of-range components (month 13 rolls over),
	// so a round-trip mismatch means the calendar date was invalid.
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return nil
	}
	return &t
}

// ParseISODate parses a YYYY-MM-DD date. Returns nil on any failure.
func ParseISODate(s string) *time.Time {
	s = CleanWS(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

// ParseDecimal coerces a raw string to a decimal after stripping thousands
// separators and unit/percent glyphs. Returns nil (never zero) on failure.
func ParseDecimal(s string) *decimal.Decimal {
	s = CleanWS(FoldWidth(s))
	if s == "" {
		return nil
	}
	s = strings.NewReplacer(",", "", "㎡", "", "％", "", "%", "").Replace(s)
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

// ParseInt64 coerces a raw string to an int64, accepting decimal notation
// and truncating any fractional part. Returns nil on failure.
func ParseInt64(s string) *int64 {
	d := ParseDecimal(s)
	if d == nil {
		return nil
	}
	n := d.IntPart()
	return &n
}

// ParseCount coerces a raw string to a small count. Returns nil on failure.
func ParseCount(s string) *int {
	n := ParseInt64(s)
	if n == nil {
		return nil
	}
	c := int(*n)
	return &c
}

// NormParcelNo canonicalizes a parcel number to the NNNN-MMMM shape with a
// zero-padded four-digit sub-parcel ("292" -> "292-0000", "292-1" ->
// "292-0001"). Full-width dashes are folded first. Input that does not look
// like a parcel number is returned cleaned but otherwise unchanged.
func NormParcelNo(s string) string {
	s = CleanWS(s)
	s = strings.NewReplacer("－", "-", "—", "-", "–", "-").Replace(s)
	if s == "" {
		return ""
	}
	g := reParcelNo.FindStringSubmatch(s)
	if g == nil {
		return s
	}
	sub := 0
	if g[2] != "" {
		sub = atoi(g[2])
	}
	return fmt.Sprintf("%d-%04d", atoi(g[1]), sub)
}

// SqmToPing converts a square-meter area to ping, rounded to two decimal
// places with banker's rounding.
func SqmToPing(sqm decimal.Decimal) decimal.Decimal {
	return sqm.Div(PingSqm).RoundBank(2)
}

// Clip truncates s to at most max runes. The untruncated original is always
// kept in the record's archival payload by the callers.
func Clip(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

// atoi is only ever called on regexp-validated digit runs.
func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}
