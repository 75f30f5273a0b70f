// ABOUTME: File watcher that reloads a document when its source file changes
// ABOUTME: Events are debounced so an editor's burst of writes reloads once

package registry

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce is how long the watcher waits after the last event
const DefaultDebounce = 250 * time.Millisecond

// Watcher reloads registry documents from a data directory
type Watcher struct {
	Registry *Registry
	Dir      string
	Debounce time.Duration
	Logger   zerolog.Logger

	// OnReload, when set, is called after every reload attempt
	OnReload func(name string, err error)
}

// NewWatcher creates a watcher for dir
func NewWatcher(reg *Registry, dir string, log zerolog.Logger) *Watcher {
	return &Watcher{
		Registry: reg,
		Dir:      dir,
		Debounce: DefaultDebounce,
		Logger:   log.With().Str("component", "watcher").Logger(),
	}
}

// Run watches until ctx ends
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.Dir, err)
	}
	w.Logger.Info().Str("dir", w.Dir).Msg("Watching for document changes")

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	timer := time.NewTimer(debounce)
	timer.Stop()
	pending := make(map[string]bool)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			name, ok := w.documentFor(event)
			if !ok {
				continue
			}
			pending[name] = true
			timer.Reset(debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.Logger.Warn().Err(err).Msg("File watcher error")

		case <-timer.C:
			for _, name := range w.Registry.RulesetNames() {
				if !pending[name] {
					continue
				}
				delete(pending, name)
				err := w.Registry.Reload(ctx, name)
				if err != nil {
					w.Logger.Error().Err(err).Str("document", name).Msg("Reload failed; keeping previous version")
				}
				if w.OnReload != nil {
					w.OnReload(name, err)
				}
			}
		}
	}
}

// documentFor maps a file event to a configured document name
func (w *Watcher) documentFor(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return "", false
	}

	base := filepath.Base(event.Name)
	ext := filepath.Ext(base)
	switch ext {
	case ".json", ".jsonc", ".yaml", ".yml":
	default:
		return "", false
	}

	name := strings.TrimSuffix(base, ext)
	for _, configured := range w.Registry.RulesetNames() {
		if configured == name {
			return name, true
		}
	}
	return "", false
}
