// ABOUTME: Ruleset registry: loads configured documents in parallel, merges serially
// ABOUTME: Owns the flat index and containment tree and answers every lookup

package registry

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/nainya/swornref/pkg/breadcrumb"
	"github.com/nainya/swornref/pkg/document"
	"github.com/nainya/swornref/pkg/identifier"
	"github.com/nainya/swornref/pkg/index"
)

// DocumentConfig names one document to load. The order of the configured
// documents is the order of RulesetNames and of merging.
type DocumentConfig struct {
	Name  string
	Title string
}

// Observer receives load events. internal/metrics implements it.
type Observer interface {
	DocumentLoaded(name string, duration time.Duration, identifiers int, err error)
	IndexSize(identifiers, documents int)
}

type nopObserver struct{}

func (nopObserver) DocumentLoaded(string, time.Duration, int, error) {}
func (nopObserver) IndexSize(int, int)                               {}

// Options configures a Registry
type Options struct {
	Documents []DocumentConfig
	Loader    document.Loader

	// Workers bounds concurrent loads; 0 means one per document
	Workers int

	// StrictContainment runs index.VerifyContainment after every load
	StrictContainment bool

	// TypeTitles defaults to breadcrumb.NewTypeTitles(nil)
	TypeTitles *breadcrumb.TypeTitles

	Logger   zerolog.Logger
	Observer Observer
}

// Registry is the loaded corpus. Construct one with New, call Load, then
// share it; all query methods are safe for concurrent use.
type Registry struct {
	opts     Options
	names    []string
	log      zerolog.Logger
	observer Observer
	parser   *identifier.Parser

	mu        sync.RWMutex
	flat      *index.FlatIndex
	tree      *index.ContainmentTree
	documents map[string]*document.Document
	stats     map[string]index.Stats
	resolver  *breadcrumb.Resolver

	loaded atomic.Bool
}

// New creates an empty registry
func New(opts Options) *Registry {
	names := make([]string, len(opts.Documents))
	titles := make(map[string]string, len(opts.Documents))
	for i, d := range opts.Documents {
		names[i] = d.Name
		titles[d.Name] = d.Title
	}

	types := breadcrumb.NewTypeTitles(nil)
	if opts.TypeTitles != nil {
		types = *opts.TypeTitles
	}

	observer := opts.Observer
	if observer == nil {
		observer = nopObserver{}
	}

	r := &Registry{
		opts:      opts,
		names:     names,
		log:       opts.Logger.With().Str("component", "registry").Logger(),
		observer:  observer,
		parser:    identifier.NewParser(names...),
		flat:      index.NewFlatIndex(),
		tree:      index.NewContainmentTree(),
		documents: make(map[string]*document.Document),
		stats:     make(map[string]index.Stats),
	}
	r.resolver = breadcrumb.NewResolver(breadcrumb.IndexSource{Flat: r.flat, Tree: r.tree}, names, titles, types)
	return r
}

type loadResult struct {
	name     string
	doc      *document.Document
	err      error
	duration time.Duration
}

// Load loads every configured document concurrently and merges each into
// the index on the calling goroutine, in configured order. A document that
// fails to load or index is reported and skipped. The returned error is
// non-nil only when the context ends or nothing could be loaded.
func (r *Registry) Load(ctx context.Context) (LoadReport, error) {
	var report LoadReport
	if len(r.names) == 0 {
		return report, nil
	}

	workers := r.opts.Workers
	if workers <= 0 || workers > len(r.names) {
		workers = len(r.names)
	}

	results := make(chan loadResult, len(r.names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	go func() {
		for _, name := range r.names {
			g.Go(func() error {
				start := time.Now()
				doc, err := r.opts.Loader.Load(gctx, name)
				results <- loadResult{name: name, doc: doc, err: err, duration: time.Since(start)}
				// Failures are per document; siblings keep loading
				return nil
			})
		}
		g.Wait()
		close(results)
	}()

	// Merge as results arrive, holding back any that finish ahead of an
	// earlier configured document
	pending := make(map[string]loadResult, len(r.names))
	next := 0
	for res := range results {
		pending[res.name] = res
		for next < len(r.names) {
			res, ok := pending[r.names[next]]
			if !ok {
				break
			}
			delete(pending, res.name)
			next++
			r.merge(res, &report)
		}
	}

	r.mu.RLock()
	report.Identifiers = r.flat.Len()
	documents := len(r.documents)
	r.mu.RUnlock()
	r.observer.IndexSize(report.Identifiers, documents)

	if err := ctx.Err(); err != nil {
		return report, err
	}

	if r.opts.StrictContainment {
		if err := r.Verify(); err != nil {
			return report, err
		}
	}

	if len(report.Loaded) == 0 {
		return report, fmt.Errorf("%w: %w", ErrNothingLoaded, report.Err())
	}

	r.loaded.Store(true)
	r.log.Info().
		Int("loaded", len(report.Loaded)).
		Int("failed", len(report.Failed)).
		Int("identifiers", report.Identifiers).
		Msg("Corpus loaded")
	return report, nil
}

func (r *Registry) merge(res loadResult, report *LoadReport) {
	log := r.log.With().Str("document", res.name).Logger()

	if res.err != nil {
		report.Failed = append(report.Failed, Failure{Document: res.name, Err: res.err})
		r.observer.DocumentLoaded(res.name, res.duration, 0, res.err)
		log.Error().Err(res.err).Msg("Document failed to load")
		return
	}

	r.mu.Lock()
	stats, err := r.replaceLocked(res.doc)
	r.mu.Unlock()

	r.observer.DocumentLoaded(res.name, res.duration, stats.Identified, err)
	if err != nil {
		report.Failed = append(report.Failed, Failure{Document: res.name, Err: err})
		log.Error().Err(err).Msg("Document failed to index")
		return
	}

	report.Loaded = append(report.Loaded, res.name)
	log.Debug().
		Int("identifiers", stats.Identified).
		Int("skipped", stats.Unknown).
		Dur("duration", res.duration).
		Msg("Document indexed")
}

// replaceLocked indexes doc, replacing any earlier version of the same
// document. When the new version fails to index the earlier one is restored.
func (r *Registry) replaceLocked(doc *document.Document) (index.Stats, error) {
	prevDoc, hadPrev := r.documents[doc.Name]
	prevStats := r.stats[doc.Name]
	if hadPrev {
		index.Remove(r.flat, r.tree, prevStats)
	}

	ix := index.NewIndexer(r.opts.Logger, doc.Name)
	stats, err := ix.Index(r.flat, r.tree, doc.Root)
	if err != nil {
		if hadPrev {
			// It indexed cleanly before and its identifiers were just removed
			restored, rerr := ix.Index(r.flat, r.tree, prevDoc.Root)
			if rerr == nil {
				r.stats[doc.Name] = restored
			} else {
				delete(r.documents, doc.Name)
				delete(r.stats, doc.Name)
			}
		}
		return stats, err
	}

	r.documents[doc.Name] = doc
	r.stats[doc.Name] = stats
	return stats, nil
}

// Reload re-reads one configured document and re-indexes it. On failure the
// previously loaded version, if any, stays in place.
func (r *Registry) Reload(ctx context.Context, name string) error {
	if !slices.Contains(r.names, name) {
		return fmt.Errorf("%w: %q", ErrUnknownDocument, name)
	}

	start := time.Now()
	doc, err := r.opts.Loader.Load(ctx, name)
	duration := time.Since(start)
	if err != nil {
		r.observer.DocumentLoaded(name, duration, 0, err)
		return err
	}

	r.mu.Lock()
	stats, err := r.replaceLocked(doc)
	identifiers, documents := r.flat.Len(), len(r.documents)
	r.mu.Unlock()

	r.observer.DocumentLoaded(name, duration, stats.Identified, err)
	r.observer.IndexSize(identifiers, documents)
	if err != nil {
		return err
	}

	if r.opts.StrictContainment {
		if err := r.Verify(); err != nil {
			return err
		}
	}

	r.log.Info().Str("document", name).Int("identifiers", stats.Identified).Msg("Document reloaded")
	return nil
}

// Verify checks the containment tree against the flat index
func (r *Registry) Verify() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return index.VerifyContainment(r.flat, r.tree)
}

// Loaded reports whether a Load call has completed with at least one document
func (r *Registry) Loaded() bool {
	return r.loaded.Load()
}

func canonical(id string) string {
	return strings.TrimPrefix(id, identifier.Prefix)
}

// Get returns the node for id
func (r *Registry) Get(id string) (*document.Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if n, ok := r.flat.Get(canonical(id)); ok {
		return n, nil
	}
	return nil, &NotFoundError{Identifier: id}
}

// Has reports whether id is indexed
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.flat.Has(canonical(id))
}

// ParentOf returns the nearest identified ancestor of id. Roots and unknown
// identifiers both report false.
func (r *Registry) ParentOf(id string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return index.ParentOf(canonical(id), r.tree)
}

// Ancestors returns every identified ancestor of id, nearest first
func (r *Registry) Ancestors(id string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return index.Ancestors(canonical(id), r.tree)
}

// ChildrenOf returns the identifiers nested directly under id, in order
func (r *Registry) ChildrenOf(id string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sub, ok := r.tree.Find(canonical(id))
	if !ok {
		return nil
	}
	return sub.Keys()
}

// Breadcrumbs returns the display chain for id, outermost first
func (r *Registry) Breadcrumbs(id string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolver.Breadcrumbs(id)
}

// DisplayName returns the name shown for id
func (r *Registry) DisplayName(id string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolver.Name(canonical(id))
}

// ParseIdentifier parses id against the configured ruleset names
func (r *Registry) ParseIdentifier(id string) (identifier.Parsed, error) {
	return r.parser.Parse(id)
}

// AllIdentifiers yields every identifier in index order. Each iteration
// starts from a fresh snapshot.
func (r *Registry) AllIdentifiers() iter.Seq[string] {
	return func(yield func(string) bool) {
		r.mu.RLock()
		keys := r.flat.KeyList()
		r.mu.RUnlock()

		for _, k := range keys {
			if !yield(k) {
				return
			}
		}
	}
}

// All yields every identifier with its node in index order
func (r *Registry) All() iter.Seq2[string, *document.Node] {
	return func(yield func(string, *document.Node) bool) {
		r.mu.RLock()
		keys := r.flat.KeyList()
		nodes := make([]*document.Node, len(keys))
		for i, k := range keys {
			nodes[i], _ = r.flat.Get(k)
		}
		r.mu.RUnlock()

		for i, k := range keys {
			if !yield(k, nodes[i]) {
				return
			}
		}
	}
}

// Len returns the number of indexed identifiers
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.flat.Len()
}

// RulesetNames returns the configured document names in order
func (r *Registry) RulesetNames() []string {
	return slices.Clone(r.names)
}

// RulesetTitle returns the display title of a configured document
func (r *Registry) RulesetTitle(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolver.RulesetTitle(name)
}

// Document returns a loaded document by name
func (r *Registry) Document(name string) (*document.Document, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.documents[name]
	return doc, ok
}

// Documents returns the loaded documents in configured order
func (r *Registry) Documents() []*document.Document {
	r.mu.RLock()
	defer r.mu.RUnlock()

	docs := make([]*document.Document, 0, len(r.documents))
	for _, name := range r.names {
		if doc, ok := r.documents[name]; ok {
			docs = append(docs, doc)
		}
	}
	return docs
}

// Tree returns the containment tree as nested maps
func (r *Registry) Tree() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tree.Map()
}

// WalkTree visits the containment tree depth-first in order
func (r *Registry) WalkTree(fn func(parent, id string, depth int) bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	r.tree.Walk(fn)
}
