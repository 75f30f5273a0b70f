// ABOUTME: Structured identifier parsing (type:ruleset/category[/subcategory])
// ABOUTME: Pure string handling, cheap enough to call on every lookup

// Package identifier parses content identifiers of the form
//
//	[datasworn:]content_type:ruleset/category[/subcategory[/...]][.suffix]
//
// or a bare ruleset name. The parser never touches the index.
package identifier

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Prefix is stripped before parsing when present
const Prefix = "datasworn:"

// SourceType is the content type reported for bare ruleset names
const SourceType = "source"

var (
	// ErrParse matches every identifier parse failure
	ErrParse = errors.New("identifier: parse error")
)

// ParseError reports an identifier that matches neither form of the grammar
type ParseError struct {
	Identifier string
	Reason     string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("identifier %q: %s", e.Identifier, e.Reason)
}

// Is makes every ParseError match ErrParse
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// Parsed holds the semantic parts of an identifier
type Parsed struct {
	Raw         string   // Input with the namespace prefix removed
	ContentType string   // Full dotted content type, e.g. "asset.ability"
	Ruleset     string   // Ruleset or expansion name
	Category    string   // First path segment after the ruleset, suffix stripped
	Subcategory string   // Second path segment, suffix stripped ("" when absent)
	Path        []string // All path segments after the ruleset, unmodified
	Suffix      string   // Trailing ".suffix" of the last segment, if any
}

// IsRuleset reports whether the identifier names a ruleset root
func (p Parsed) IsRuleset() bool {
	return p.ContentType == SourceType
}

// RootType returns the first dotted segment of the content type
func (p Parsed) RootType() string {
	root, _, _ := strings.Cut(p.ContentType, ".")
	return root
}

// IsRow reports whether the content type has a "row" segment, as oracle
// table rows do. Other suffixed identifiers such as asset abilities are not
// rows.
func (p Parsed) IsRow() bool {
	return slices.Contains(strings.Split(p.ContentType, "."), "row")
}

// Leaf returns the last path segment with its suffix (the ruleset for roots)
func (p Parsed) Leaf() string {
	if len(p.Path) == 0 {
		return p.Ruleset
	}
	return p.Path[len(p.Path)-1]
}

// Parser parses identifiers against a set of configured ruleset names
type Parser struct {
	rulesets []string
}

// NewParser creates a parser that accepts the given bare ruleset names
func NewParser(rulesets ...string) *Parser {
	return &Parser{rulesets: slices.Clone(rulesets)}
}

// Rulesets returns the configured ruleset names
func (p *Parser) Rulesets() []string {
	return slices.Clone(p.rulesets)
}

// IsRuleset reports whether name is one of the configured rulesets
func (p *Parser) IsRuleset(name string) bool {
	return slices.Contains(p.rulesets, name)
}

// Parse splits an identifier into its parts
func (p *Parser) Parse(id string) (Parsed, error) {
	return Parse(id, p.rulesets...)
}

// Parse splits an identifier into its parts. Bare names are accepted only
// when they appear in rulesets.
func Parse(id string, rulesets ...string) (Parsed, error) {
	raw := strings.TrimPrefix(id, Prefix)
	if raw == "" {
		return Parsed{}, &ParseError{Identifier: id, Reason: "empty"}
	}
	if strings.ContainsAny(raw, " \t\n;") {
		return Parsed{}, &ParseError{Identifier: id, Reason: "contains whitespace or ';'"}
	}

	contentType, path, typed := strings.Cut(raw, ":")
	if !typed {
		if slices.Contains(rulesets, raw) {
			return Parsed{Raw: raw, ContentType: SourceType, Ruleset: raw}, nil
		}
		return Parsed{}, &ParseError{Identifier: id, Reason: "not a typed path or a known ruleset"}
	}

	if contentType == "" || !validType(contentType) {
		return Parsed{}, &ParseError{Identifier: id, Reason: "invalid content type"}
	}

	segments := strings.Split(path, "/")
	if len(segments) < 2 {
		return Parsed{}, &ParseError{Identifier: id, Reason: "path needs ruleset/category"}
	}
	if slices.Contains(segments, "") {
		return Parsed{}, &ParseError{Identifier: id, Reason: "empty path segment"}
	}

	parsed := Parsed{
		Raw:         raw,
		ContentType: contentType,
		Ruleset:     segments[0],
		Path:        segments[1:],
	}
	parsed.Category = stripSuffix(segments[1])
	if len(segments) > 2 {
		parsed.Subcategory = stripSuffix(segments[2])
	}
	if _, suffix, ok := strings.Cut(segments[len(segments)-1], "."); ok {
		parsed.Suffix = suffix
	}

	return parsed, nil
}

func stripSuffix(segment string) string {
	base, _, _ := strings.Cut(segment, ".")
	return base
}

func validType(t string) bool {
	for _, part := range strings.Split(t, ".") {
		if part == "" {
			return false
		}
		for _, r := range part {
			if !(r == '_' || r == '-' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
				return false
			}
		}
	}
	return true
}

// Humanize turns an identifier segment like "sundered_isles" into "Sundered Isles"
func Humanize(segment string) string {
	// Casers keep state, so each call gets its own
	return cases.Title(language.English).String(strings.ReplaceAll(segment, "_", " "))
}

// Label derives a short display label from the trailing identifier segment
func Label(id string, rulesets ...string) string {
	parsed, err := Parse(id, rulesets...)
	if err != nil {
		raw := strings.TrimPrefix(id, Prefix)
		if i := strings.LastIndexAny(raw, "/:"); i >= 0 {
			raw = raw[i+1:]
		}
		return Humanize(raw)
	}
	leaf := parsed.Leaf()
	base, suffix, ok := strings.Cut(leaf, ".")
	if !ok {
		return Humanize(leaf)
	}
	return Humanize(base) + " " + suffix
}
