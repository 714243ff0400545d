package sequence

import (
	"regexp"
	"strconv"
	"strings"
)

// Identifiers in the wild were produced by many template versions, so decoding
// is a layered, first-match-wins affair: an exact structural reconstruction of
// the old template first, then progressively looser numeric heuristics. Each
// strategy is a pure function tried in fixed priority order; a miss falls
// through, and only when every strategy misses is the identifier reported as
// undecodable. Known limitation: when a template's literal separators are
// themselves valid slug characters the structural regex can be ambiguous; the
// first match wins and no attempt is made to disambiguate.

// Strategy names reported back to callers (migration reports, logs, tests).
const (
	StrategyStructural = "structural"
	StrategyPadded     = "padded_number"
	StrategyZeroPadded = "zero_padded_number"
	StrategyBareDigits = "bare_digits"
)

var (
	paddedNumberRe     = regexp.MustCompile(`\b0+([1-9]\d{2,})\b`)
	zeroPaddedNumberRe = regexp.MustCompile(`\b0+(\d+)\b`)
	digitRunRe         = regexp.MustCompile(`\d+`)
)

type decodeInput struct {
	identifier      string
	rawTemplate     string
	categorySlug    string
	subcategorySlug string
}

type decodeStrategy struct {
	name string
	fn   func(in decodeInput) (int64, bool)
}

// decodeStrategies is the fixed priority order. Order matters: the structural
// match is exact, the rest are heuristics of decreasing confidence.
var decodeStrategies = []decodeStrategy{
	{name: StrategyStructural, fn: structuralDecode},
	{name: StrategyPadded, fn: paddedNumberDecode},
	{name: StrategyZeroPadded, fn: zeroPaddedNumberDecode},
	{name: StrategyBareDigits, fn: bareDigitsDecode},
}

// DecodeSequence recovers the sequence number embedded in identifier, using
// rawTemplate as the template the identifier is believed to have been rendered
// with. It returns the number, the name of the strategy that matched, and
// whether any strategy matched at all. A failed decode is a per-item condition
// for callers to record, never an error.
func DecodeSequence(identifier, rawTemplate, categorySlug, subcategorySlug string) (int64, string, bool) {
	in := decodeInput{
		identifier:      identifier,
		rawTemplate:     rawTemplate,
		categorySlug:    categorySlug,
		subcategorySlug: subcategorySlug,
	}
	for _, s := range decodeStrategies {
		if n, ok := s.fn(in); ok {
			return n, s.name, true
		}
	}
	return 0, "", false
}

// structuralDecode rebuilds a regular expression from the old template:
// literals are escaped, the category/subcategory tokens become their known
// slug values (or an open character class when the subcategory is unknown),
// and {sequence} becomes a digit capture group. Each token is its own capture
// group so the sequence group index is found by counting preceding tokens.
// Any construction or matching failure falls through to the next strategy;
// malformed historical templates must never abort a migration.
func structuralDecode(in decodeInput) (int64, bool) {
	segs := tokenize(in.rawTemplate)

	var b strings.Builder
	b.WriteString(`(?i)^`)
	group := 0
	seqGroup := -1
	for _, s := range segs {
		switch s.kind {
		case segLiteral:
			b.WriteString(regexp.QuoteMeta(s.text))
		case segCategory:
			group++
			b.WriteString("(" + regexp.QuoteMeta(strings.ToUpper(in.categorySlug)) + ")")
		case segSubcategory:
			group++
			if in.subcategorySlug == "" {
				b.WriteString(`([A-Z0-9-]*)`)
			} else {
				b.WriteString("(" + regexp.QuoteMeta(strings.ToUpper(in.subcategorySlug)) + ")")
			}
		case segSequence:
			group++
			if seqGroup < 0 {
				seqGroup = group
			}
			b.WriteString(`(\d+)`)
		}
	}
	b.WriteString(`$`)

	if seqGroup < 0 {
		return 0, false
	}
	re, err := regexp.Compile(b.String())
	if err != nil {
		return 0, false
	}
	m := re.FindStringSubmatch(in.identifier)
	if m == nil || seqGroup >= len(m) {
		return 0, false
	}
	n, err := strconv.ParseInt(m[seqGroup], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// paddedNumberDecode finds a zero-padded number whose unpadded remainder has
// at least three digits, the shape the canonical %03d rendering produces for
// numbers >= 100 that still carry padding.
func paddedNumberDecode(in decodeInput) (int64, bool) {
	m := paddedNumberRe.FindStringSubmatch(in.identifier)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// zeroPaddedNumberDecode is the same search without the three-digit floor.
func zeroPaddedNumberDecode(in decodeInput) (int64, bool) {
	m := zeroPaddedNumberRe.FindStringSubmatch(in.identifier)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// bareDigitsDecode collects every digit run and prefers the last run of
// length >= 2 (short runs are more likely category codes than sequence
// numbers); failing that, the last run of any length.
func bareDigitsDecode(in decodeInput) (int64, bool) {
	runs := digitRunRe.FindAllString(in.identifier, -1)
	if len(runs) == 0 {
		return 0, false
	}
	pick := ""
	for _, r := range runs {
		if len(r) >= 2 {
			pick = r
		}
	}
	if pick == "" {
		pick = runs[len(runs)-1]
	}
	n, err := strconv.ParseInt(pick, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
