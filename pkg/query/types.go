// ABOUTME: Query types for listing, counting and searching indexed content
// ABOUTME: Fluent builder for search queries

package query

import (
	"iter"

	"github.com/nainya/swornref/pkg/document"
)

// Source is the read side of the registry the engine queries
type Source interface {
	All() iter.Seq2[string, *document.Node]
	RulesetNames() []string
}

// Query is a term search over indexed content
type Query struct {
	Terms    []string // Lowercased search terms
	Types    []string // Root content types to keep; empty keeps all
	Rulesets []string // Rulesets to keep; empty keeps all
	SkipRows bool     // Drop oracle table rows
	Limit    int      // Maximum results; 0 means unlimited
	MinScore float64  // Results scoring lower are dropped
}

// TypeCount is the number of identifiers of one content type
type TypeCount struct {
	Type      string
	Total     int
	ByRuleset map[string]int
}

// SearchResult is one scored hit
type SearchResult struct {
	Identifier string
	Name       string
	Snippet    string
	Score      float64
}

// QueryBuilder provides fluent interface for building queries
type QueryBuilder struct {
	query Query
}

// NewQueryBuilder creates a builder for a search over terms
func NewQueryBuilder(terms ...string) *QueryBuilder {
	qb := &QueryBuilder{query: Query{Limit: 100}}
	for _, t := range terms {
		qb.query.Terms = append(qb.query.Terms, splitTerms(t)...)
	}
	return qb
}

// Type keeps only identifiers whose root content type is contentType
func (qb *QueryBuilder) Type(contentType string) *QueryBuilder {
	qb.query.Types = append(qb.query.Types, contentType)
	return qb
}

// Ruleset keeps only identifiers from ruleset
func (qb *QueryBuilder) Ruleset(ruleset string) *QueryBuilder {
	qb.query.Rulesets = append(qb.query.Rulesets, ruleset)
	return qb
}

// SkipRows drops oracle table rows
func (qb *QueryBuilder) SkipRows() *QueryBuilder {
	qb.query.SkipRows = true
	return qb
}

// Limit sets the result limit; 0 means unlimited
func (qb *QueryBuilder) Limit(limit int) *QueryBuilder {
	qb.query.Limit = limit
	return qb
}

// MinScore drops results scoring below score
func (qb *QueryBuilder) MinScore(score float64) *QueryBuilder {
	qb.query.MinScore = score
	return qb
}

// Build returns the constructed query
func (qb *QueryBuilder) Build() Query {
	return qb.query
}
