package normalize

import (
	"regexp"
	"strings"
)

// LandDescriptor is the decomposition of a free-text land description into
// its cadastral parts. Empty fields mean the part could not be extracted.
type LandDescriptor struct {
	Section    string
	Subsection string
	ParcelNo   string
}

var (
	reBracketNote = regexp.MustCompile(`[（(].*?[）)]`)
	reSection     = regexp.MustCompile(`([^\s,]+?段)`)
	reSubsection  = regexp.MustCompile(`([一二三四五六七八九十0-9]+小段)`)
	reSectionLbl  = regexp.MustCompile(`地段[:：]\s*([^\s,]+)`)
	reSubsectLbl  = regexp.MustCompile(`小段[:：]\s*([^\s,]+)`)
	reParcelRun   = regexp.MustCompile(`\d+(?:-\d+)?`)
)

// ParseLandText extracts section, subsection and the first parcel number
// from a free-text land description such as "大安段一小段292".
//
// Bracketed annotations are stripped before matching. When the text carries
// several parcel numbers only the first one becomes the canonical value;
// the rest stay recoverable from the record's archival payload only.
func ParseLandText(landText string) LandDescriptor {
	t := CleanWS(landText)
	if t == "" {
		return LandDescriptor{}
	}

	// normalize punctuation, drop bracketed notes
	t = strings.NewReplacer("，", ",", "、", ",", "．", ".").Replace(t)
	t = reBracketNote.ReplaceAllString(t, " ")
	t = CleanWS(t)

	var d LandDescriptor

	if g := reSection.FindStringSubmatch(t); g != nil {
		d.Section = g[1]
	}
	if g := reSubsection.FindStringSubmatch(t); g != nil {
		d.Subsection = g[1]
	}

	// labelled form: "地段：XXX 小段：YYY"
	if d.Section == "" {
		if g := reSectionLbl.FindStringSubmatch(t); g != nil {
			d.Section = g[1]
		}
	}
	if d.Subsection == "" {
		if g := reSubsectLbl.FindStringSubmatch(t); g != nil {
			d.Subsection = g[1]
		}
	}

	if n := reParcelRun.FindString(t); n != "" {
		d.ParcelNo = NormParcelNo(n)
	}

	return d
}
