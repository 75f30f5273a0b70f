// ABOUTME: Human-readable ancestor chains for identifiers
// ABOUTME: Ruleset title -> content type title -> ancestor names -> own name

package breadcrumb

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/nainya/swornref/pkg/document"
	"github.com/nainya/swornref/pkg/identifier"
	"github.com/nainya/swornref/pkg/index"
)

// ErrUnknownContentType means the title table has no entry for a content
// type found in the data. The table has fallen behind the schema.
var ErrUnknownContentType = errors.New("breadcrumb: no display title for content type")

// DefaultTypeTitles maps root content types to section titles
var DefaultTypeTitles = map[string]string{
	"asset":             "Assets",
	"asset_collection":  "Assets",
	"atlas_collection":  "Atlas",
	"atlas_entry":       "Atlas",
	"delve_site":        "Delve Sites",
	"delve_site_domain": "Site Domains",
	"delve_site_theme":  "Site Themes",
	"move":              "Moves",
	"move_category":     "Moves",
	"npc":               "NPCs",
	"npc_collection":    "NPCs",
	"oracle_collection": "Oracles",
	"oracle_rollable":   "Oracles",
	"rarity":            "Rarities",
	"rules":             "Rules",
	"truth":             "Truths",
}

// TypeTitles resolves content types to titles, with per-ruleset overrides
type TypeTitles struct {
	Default   map[string]string
	Overrides map[string]map[string]string // ruleset -> type -> title
}

// NewTypeTitles starts from DefaultTypeTitles and applies extra on top
func NewTypeTitles(extra map[string]string) TypeTitles {
	titles := maps.Clone(DefaultTypeTitles)
	maps.Copy(titles, extra)
	return TypeTitles{Default: titles}
}

// Title returns the display title for the root of contentType in ruleset
func (t TypeTitles) Title(contentType, ruleset string) (string, error) {
	parsed := identifier.Parsed{ContentType: contentType}
	root := parsed.RootType()
	if byType, ok := t.Overrides[ruleset]; ok {
		if title, ok := byType[root]; ok {
			return title, nil
		}
	}
	if title, ok := t.Default[root]; ok {
		return title, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownContentType, contentType)
}

// Source is what the resolver reads
type Source interface {
	Lookup(id string) (*document.Node, bool)
	Parent(id string) (string, bool)
}

// IndexSource adapts a FlatIndex and ContainmentTree to Source
type IndexSource struct {
	Flat *index.FlatIndex
	Tree *index.ContainmentTree
}

// Lookup returns the node for id
func (s IndexSource) Lookup(id string) (*document.Node, bool) {
	return s.Flat.Get(id)
}

// Parent returns the nearest identified ancestor of id
func (s IndexSource) Parent(id string) (string, bool) {
	return index.ParentOf(id, s.Tree)
}

// Resolver builds breadcrumbs
type Resolver struct {
	source   Source
	parser   *identifier.Parser
	rulesets map[string]string // name -> display title
	types    TypeTitles
}

// NewResolver creates a resolver. rulesetTitles maps each configured ruleset
// name to its display title; order gives the bare names the parser accepts.
func NewResolver(source Source, rulesetNames []string, rulesetTitles map[string]string, types TypeTitles) *Resolver {
	titles := make(map[string]string, len(rulesetNames))
	for _, name := range rulesetNames {
		title := rulesetTitles[name]
		if title == "" {
			title = identifier.Humanize(name)
		}
		titles[name] = title
	}
	return &Resolver{
		source:   source,
		parser:   identifier.NewParser(rulesetNames...),
		rulesets: titles,
		types:    types,
	}
}

// RulesetTitle returns the display title for a ruleset name
func (r *Resolver) RulesetTitle(name string) string {
	if title, ok := r.rulesets[name]; ok {
		return title
	}
	if node, ok := r.source.Lookup(name); ok {
		if title := node.StringField(document.TitleField); title != "" {
			return title
		}
	}
	return identifier.Humanize(name)
}

// Name returns the display name of an identifier: the node's canonical_name,
// name or label, or a label derived from the identifier itself
func (r *Resolver) Name(id string) string {
	if node, ok := r.source.Lookup(id); ok {
		if name := node.DisplayName(); name != "" {
			return name
		}
	}
	return identifier.Label(id, r.parser.Rulesets()...)
}

// Breadcrumbs returns the ancestor chain of id, outermost first. Unindexed
// identifiers degrade to a chain derived from the identifier string alone.
func (r *Resolver) Breadcrumbs(id string) ([]string, error) {
	parsed, err := r.parser.Parse(id)
	if err != nil {
		return nil, err
	}

	rulesetTitle := r.RulesetTitle(parsed.Ruleset)
	if parsed.IsRuleset() {
		return []string{rulesetTitle}, nil
	}

	typeTitle, err := r.types.Title(parsed.ContentType, parsed.Ruleset)
	if err != nil {
		return nil, err
	}

	lookupID := id
	if _, ok := r.source.Lookup(lookupID); !ok {
		lookupID = parsed.Raw
	}

	// Built innermost first, reversed at the end
	crumbs := []string{r.Name(lookupID)}
	if _, ok := r.source.Lookup(lookupID); ok {
		seen := map[string]bool{lookupID: true}
		current := lookupID
		for {
			parent, ok := r.source.Parent(current)
			if !ok || seen[parent] || r.parser.IsRuleset(parent) {
				break
			}
			seen[parent] = true
			crumbs = append(crumbs, r.Name(parent))
			current = parent
		}
	}
	crumbs = append(crumbs, typeTitle, rulesetTitle)

	slices.Reverse(crumbs)
	return crumbs, nil
}
