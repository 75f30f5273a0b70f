// ABOUTME: Query engine over the loaded corpus
// ABOUTME: Content types, per-ruleset counts, human-readable keys and term search

package query

import (
	"cmp"
	"slices"
	"strings"

	"github.com/nainya/swornref/pkg/document"
	"github.com/nainya/swornref/pkg/identifier"
)

// Search weights per matched term
const (
	nameWeight    = 3.0
	summaryWeight = 2.0
	textWeight    = 1.0
)

const snippetLength = 120

// Engine answers read-only queries against a Source
type Engine struct {
	src Source
}

// NewEngine creates a new query engine
func NewEngine(src Source) *Engine {
	return &Engine{src: src}
}

// entries yields identifiers that parse, with their parsed form
func (e *Engine) entries(yield func(string, identifier.Parsed, *document.Node) bool) {
	rulesets := e.src.RulesetNames()
	for id, n := range e.src.All() {
		parsed, err := identifier.Parse(id, rulesets...)
		if err != nil {
			continue
		}
		if !yield(id, parsed, n) {
			return
		}
	}
}

// Types returns the sorted distinct content types in the index
func (e *Engine) Types() []string {
	seen := make(map[string]bool)
	for _, parsed := range e.parsedAll() {
		seen[parsed.ContentType] = true
	}
	types := make([]string, 0, len(seen))
	for t := range seen {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// CountByType counts identifiers per content type, sorted by type
func (e *Engine) CountByType() []TypeCount {
	byType := make(map[string]*TypeCount)
	for _, parsed := range e.parsedAll() {
		tc, ok := byType[parsed.ContentType]
		if !ok {
			tc = &TypeCount{Type: parsed.ContentType, ByRuleset: make(map[string]int)}
			byType[parsed.ContentType] = tc
		}
		tc.Total++
		tc.ByRuleset[parsed.Ruleset]++
	}

	counts := make([]TypeCount, 0, len(byType))
	for _, tc := range byType {
		counts = append(counts, *tc)
	}
	slices.SortFunc(counts, func(a, b TypeCount) int {
		return cmp.Compare(a.Type, b.Type)
	})
	return counts
}

func (e *Engine) parsedAll() []identifier.Parsed {
	var all []identifier.Parsed
	e.entries(func(_ string, p identifier.Parsed, _ *document.Node) bool {
		all = append(all, p)
		return true
	})
	return all
}

// HumanKey builds the readable key for id: the ruleset, the content type
// up to its first "_", then the path segments, with "_" turned into "-".
// Bare rulesets and suffixed identifiers have no key.
func HumanKey(id string) (string, bool) {
	raw := strings.TrimPrefix(id, identifier.Prefix)
	tag, path, ok := strings.Cut(raw, ":")
	if !ok || strings.Contains(path, ".") {
		return "", false
	}
	tag, _, _ = strings.Cut(tag, ".")
	tag, _, _ = strings.Cut(tag, "_")

	segments := strings.Split(path, "/")
	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, segments[0], tag)
	parts = append(parts, segments[1:]...)
	return strings.ReplaceAll(strings.Join(parts, " "), "_", "-"), true
}

// HumanIndex maps readable keys to identifiers
type HumanIndex struct {
	keys []string
	ids  map[string]string
}

// Lookup returns the identifier for a readable key
func (h *HumanIndex) Lookup(key string) (string, bool) {
	id, ok := h.ids[strings.ToLower(strings.TrimSpace(key))]
	return id, ok
}

// Keys returns the readable keys in index order
func (h *HumanIndex) Keys() []string {
	return slices.Clone(h.keys)
}

// Len returns the number of keys
func (h *HumanIndex) Len() int {
	return len(h.keys)
}

// HumanIndex builds the readable-key index. A later identifier with the same
// key replaces the earlier one.
func (e *Engine) HumanIndex() *HumanIndex {
	h := &HumanIndex{ids: make(map[string]string)}
	for id := range e.src.All() {
		key, ok := HumanKey(id)
		if !ok {
			continue
		}
		key = strings.ToLower(key)
		if _, exists := h.ids[key]; !exists {
			h.keys = append(h.keys, key)
		}
		h.ids[key] = id
	}
	return h
}

// LookupHuman resolves a readable key such as "classic move adventure
// face-danger" to its identifier
func (e *Engine) LookupHuman(key string) (string, bool) {
	return e.HumanIndex().Lookup(key)
}

// Search scores every node against the query terms and returns hits best
// first. Ties keep index order.
func (e *Engine) Search(q Query) []*SearchResult {
	if len(q.Terms) == 0 {
		return nil
	}

	var results []*SearchResult
	e.entries(func(id string, p identifier.Parsed, n *document.Node) bool {
		if !q.keep(p) {
			return true
		}
		score := scoreNode(n, q.Terms)
		if score <= 0 || score < q.MinScore {
			return true
		}
		name := n.DisplayName()
		if name == "" {
			name = identifier.Label(id, e.src.RulesetNames()...)
		}
		results = append(results, &SearchResult{
			Identifier: id,
			Name:       name,
			Snippet:    snippet(n),
			Score:      score,
		})
		return true
	})

	slices.SortStableFunc(results, func(a, b *SearchResult) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results
}

func (q Query) keep(p identifier.Parsed) bool {
	if p.IsRuleset() {
		return false
	}
	if q.SkipRows && p.IsRow() {
		return false
	}
	if len(q.Types) > 0 && !slices.Contains(q.Types, p.RootType()) && !slices.Contains(q.Types, p.ContentType) {
		return false
	}
	if len(q.Rulesets) > 0 && !slices.Contains(q.Rulesets, p.Ruleset) {
		return false
	}
	return true
}

func scoreNode(n *document.Node, terms []string) float64 {
	score := 0.0
	nameLower := strings.ToLower(n.DisplayName())
	summaryLower := strings.ToLower(n.StringField("summary"))
	textLower := strings.ToLower(n.StringField("text"))

	for _, term := range terms {
		if strings.Contains(nameLower, term) {
			score += nameWeight
		}
		if strings.Contains(summaryLower, term) {
			score += summaryWeight
		}
		if strings.Contains(textLower, term) {
			score += textWeight
		}
	}

	return score
}

func snippet(n *document.Node) string {
	s := n.StringField("summary")
	if s == "" {
		s = n.StringField("text")
	}
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > snippetLength {
		return string(r[:snippetLength]) + "..."
	}
	return s
}

func splitTerms(s string) []string {
	return strings.Fields(strings.ToLower(s))
}
