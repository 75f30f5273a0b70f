// ABOUTME: Document loader reading ruleset files from a data directory
// ABOUTME: Resolves name -> file, decodes by extension and validates the header

package document

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// Document types accepted in the header
const (
	TypeRuleset   = "ruleset"
	TypeExpansion = "expansion"
)

// Loader loads one named document. Implementations must be safe to call
// concurrently for distinct names and must not touch shared index state.
type Loader interface {
	Load(ctx context.Context, name string) (*Document, error)
}

// LoaderFunc adapts a function to the Loader interface
type LoaderFunc func(ctx context.Context, name string) (*Document, error)

// Load calls f(ctx, name)
func (f LoaderFunc) Load(ctx context.Context, name string) (*Document, error) {
	return f(ctx, name)
}

// decoders in lookup order
var decoders = []struct {
	ext    string
	decode func([]byte) (*Node, error)
}{
	{".json", DecodeJSON},
	{".jsonc", DecodeJSONC},
	{".yaml", DecodeYAML},
	{".yml", DecodeYAML},
}

// FileLoader reads <Dir>/<name>.{json,jsonc,yaml,yml}
type FileLoader struct {
	Dir string
	Now func() time.Time
}

// NewFileLoader creates a loader rooted at dir
func NewFileLoader(dir string) *FileLoader {
	return &FileLoader{Dir: dir, Now: time.Now}
}

// Path returns the file that Load would read for name
func (l *FileLoader) Path(name string) (string, error) {
	for _, d := range decoders {
		p := filepath.Join(l.Dir, name+d.ext)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("no %s.{json,jsonc,yaml,yml} in %s: %w", name, l.Dir, fs.ErrNotExist)
}

// Load reads, decodes and validates one document
func (l *FileLoader) Load(ctx context.Context, name string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, &LoadError{Document: name, Err: err}
	}
	if err := validate().Var(name, "required,excludesall=/\\.,max=128"); err != nil {
		return nil, &LoadError{Document: name, Err: fmt.Errorf("invalid document name: %w", err)}
	}

	path, err := l.Path(name)
	if err != nil {
		return nil, &LoadError{Document: name, Err: err}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Document: name, Path: path, Err: err}
	}

	root, err := decodeFile(path, data)
	if err != nil {
		return nil, &LoadError{Document: name, Path: path, Err: fmt.Errorf("parse: %w", err)}
	}

	now := time.Now
	if l.Now != nil {
		now = l.Now
	}

	doc, err := NewDocument(name, root)
	if err != nil {
		return nil, &LoadError{Document: name, Path: path, Err: err}
	}
	doc.Path = path
	doc.LoadedAt = now()

	return doc, nil
}

func decodeFile(path string, data []byte) (*Node, error) {
	ext := filepath.Ext(path)
	for _, d := range decoders {
		if d.ext == ext {
			return d.decode(data)
		}
	}
	return nil, fmt.Errorf("unsupported extension %q", ext)
}

// header is the part of a root record every document must carry
type header struct {
	Name    string `validate:"required"`
	ID      string `validate:"required,eqfield=Name"`
	Type    string `validate:"oneof=ruleset expansion"`
	Ruleset string `validate:"required_if=Type expansion"`
	Title   string
}

var (
	validatorOnce     sync.Once
	validatorInstance *validator.Validate
)

func validate() *validator.Validate {
	validatorOnce.Do(func() {
		validatorInstance = validator.New(validator.WithRequiredStructEnabled())
	})
	return validatorInstance
}

// NewDocument validates root as the top of a ruleset or expansion named name
func NewDocument(name string, root *Node) (*Document, error) {
	if root == nil || root.Kind != KindRecord {
		return nil, fmt.Errorf("%w: root is not a record", ErrInvalidHeader)
	}

	h := header{
		Name:    name,
		ID:      root.Identifier(),
		Type:    root.StringField(TypeField),
		Ruleset: root.StringField("ruleset"),
		Title:   root.StringField(TitleField),
	}
	if err := validate().Struct(h); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return nil, fmt.Errorf("%w: field %s failed %q (value %q)", ErrInvalidHeader, fe.Field(), fe.Tag(), fe.Value())
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}

	ruleset := h.Ruleset
	if h.Type == TypeRuleset {
		ruleset = name
	}

	return &Document{
		Name:    name,
		Type:    h.Type,
		Ruleset: ruleset,
		Title:   h.Title,
		Root:    root,
	}, nil
}
