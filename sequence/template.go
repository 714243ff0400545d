// Package sequence implements the template codec for machine identifiers:
// rendering a (scope, number) pair into a formatted identifier and recovering
// the number back out of identifiers produced by current or historical
// templates.
package sequence

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Placeholder tokens recognized inside identifier templates.
const (
	TokenCategory    = "{category}"
	TokenSubcategory = "{subcategory}"
	TokenSequence    = "{sequence}"
)

// Template validation errors
var (
	ErrMissingCategoryToken = errors.New("template must contain the {category} token")
	ErrMissingSequenceToken = errors.New("template must contain the {sequence} token")
	ErrEmptyTemplate        = errors.New("template must not be empty")
)

// PrefixPattern is the accepted shape for sequence config prefixes.
var PrefixPattern = regexp.MustCompile(`^[A-Z0-9-]{1,10}$`)

var multiHyphen = regexp.MustCompile(`-{2,}`)

type segmentKind int

const (
	segLiteral segmentKind = iota
	segCategory
	segSubcategory
	segSequence
)

type segment struct {
	kind segmentKind
	text string // literal text, empty for token segments
}

// Template is a parsed identifier template. Templates are parsed once at
// config creation time so that render and decode never re-tokenize.
type Template struct {
	raw      string
	segments []segment
}

// tokenize splits a raw template into literal and token segments. It never
// fails: unknown brace constructs are kept as literals, so historical
// templates of any shape can still drive the structural decoder.
func tokenize(raw string) []segment {
	var segs []segment
	rest := raw
	for len(rest) > 0 {
		idx := strings.IndexByte(rest, '{')
		if idx < 0 {
			segs = append(segs, segment{kind: segLiteral, text: rest})
			break
		}
		if idx > 0 {
			segs = append(segs, segment{kind: segLiteral, text: rest[:idx]})
			rest = rest[idx:]
		}
		switch {
		case strings.HasPrefix(rest, TokenCategory):
			segs = append(segs, segment{kind: segCategory})
			rest = rest[len(TokenCategory):]
		case strings.HasPrefix(rest, TokenSubcategory):
			segs = append(segs, segment{kind: segSubcategory})
			rest = rest[len(TokenSubcategory):]
		case strings.HasPrefix(rest, TokenSequence):
			segs = append(segs, segment{kind: segSequence})
			rest = rest[len(TokenSequence):]
		default:
			// Not a recognized token; the brace itself is literal text.
			segs = append(segs, segment{kind: segLiteral, text: rest[:1]})
			rest = rest[1:]
		}
	}
	return segs
}

// ParseTemplate parses and validates a template. A valid template contains at
// least one {category} and one {sequence} token; {subcategory} is optional.
func ParseTemplate(raw string) (*Template, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyTemplate
	}

	segs := tokenize(raw)

	hasCategory := false
	hasSequence := false
	for _, s := range segs {
		switch s.kind {
		case segCategory:
			hasCategory = true
		case segSequence:
			hasSequence = true
		}
	}
	if !hasCategory {
		return nil, ErrMissingCategoryToken
	}
	if !hasSequence {
		return nil, ErrMissingSequenceToken
	}

	return &Template{raw: raw, segments: segs}, nil
}

// Raw returns the original template string.
func (t *Template) Raw() string {
	return t.raw
}

// Render produces the identifier for the given slugs and number. It is total:
// any number >= 0 and any slug values (including an empty subcategory) yield
// a deterministic string. Numbers are zero-padded to width 3; wider numbers
// render at full width.
func (t *Template) Render(categorySlug, subcategorySlug string, number int64) string {
	var b strings.Builder
	for _, s := range t.segments {
		switch s.kind {
		case segLiteral:
			b.WriteString(s.text)
		case segCategory:
			b.WriteString(strings.ToUpper(categorySlug))
		case segSubcategory:
			b.WriteString(strings.ToUpper(subcategorySlug))
		case segSequence:
			b.WriteString(fmt.Sprintf("%03d", number))
		}
	}
	return cleanupIdentifier(b.String())
}

// cleanupIdentifier collapses hyphen runs left behind by empty segments
// (an absent subcategory produces "X--007" otherwise) and strips a single
// leading or trailing hyphen.
func cleanupIdentifier(s string) string {
	s = multiHyphen.ReplaceAllString(s, "-")
	s = strings.TrimPrefix(s, "-")
	s = strings.TrimSuffix(s, "-")
	return s
}
