// Package config loads the swornref YAML configuration
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/nainya/swornref/pkg/breadcrumb"
	"github.com/nainya/swornref/pkg/registry"
)

// ErrInvalid matches every validation failure
var ErrInvalid = errors.New("config: invalid")

// Config holds all swornref settings
type Config struct {
	// DataDir holds one <name>.{json,jsonc,yaml,yml} file per document
	DataDir string `yaml:"data_dir" validate:"required"`

	// Documents are the configured rulesets and expansions, in load order
	Documents []Document `yaml:"documents" validate:"required,min=1,unique=Name,dive"`

	// Workers bounds concurrent document loads; 0 means one per document
	Workers int `yaml:"workers" validate:"gte=0,lte=64"`

	// StrictContainment verifies the containment tree after every load
	StrictContainment bool `yaml:"strict_containment"`

	Log    LogConfig    `yaml:"log"`
	Server ServerConfig `yaml:"server"`

	// TypeTitles adds to or overrides the built-in content type titles
	TypeTitles map[string]string `yaml:"type_titles" validate:"dive,keys,required,endkeys,required"`
}

// Document names one document and its display title
type Document struct {
	Name  string `yaml:"name" validate:"required,max=128,excludesall=/\\.:;"`
	Title string `yaml:"title"`
}

// LogConfig configures internal/logger
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn warning error"`
	Pretty bool   `yaml:"pretty"`
}

// ServerConfig configures the gRPC and observability listeners
type ServerConfig struct {
	GRPCPort    int `yaml:"grpc_port" validate:"gte=0,lte=65535"`
	MetricsPort int `yaml:"metrics_port" validate:"gte=0,lte=65535"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		DataDir: "./data",
		Documents: []Document{
			{Name: "classic", Title: "Ironsworn"},
			{Name: "delve", Title: "Delve"},
			{Name: "starforged", Title: "Starforged"},
			{Name: "starsmith", Title: "Starsmith"},
			{Name: "sundered_isles", Title: "Sundered Isles"},
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: true,
		},
		Server: ServerConfig{
			GRPCPort:    50051,
			MetricsPort: 9090,
		},
	}
}

// Load reads path over the defaults and validates the result. Unknown keys
// are rejected.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every field constraint
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

// RegistryDocuments converts the document list for registry.Options
func (c Config) RegistryDocuments() []registry.DocumentConfig {
	docs := make([]registry.DocumentConfig, len(c.Documents))
	for i, d := range c.Documents {
		docs[i] = registry.DocumentConfig{Name: d.Name, Title: d.Title}
	}
	return docs
}

// BreadcrumbTitles builds the content type title table
func (c Config) BreadcrumbTitles() breadcrumb.TypeTitles {
	return breadcrumb.NewTypeTitles(c.TypeTitles)
}
