// swornref command line
// Loads the configured Datasworn documents and answers identifier queries
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/nainya/swornref/internal/config"
	"github.com/nainya/swornref/internal/logger"
	"github.com/nainya/swornref/internal/metrics"
	"github.com/nainya/swornref/pkg/document"
	"github.com/nainya/swornref/pkg/registry"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#20B9B4"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5C7A84"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F4D03F"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E74C3C"))
)

// app holds the state shared by every command
type app struct {
	configPath string
	dataDir    string
	logLevel   string
	pretty     bool

	cfg config.Config
	log *logger.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "swornref",
		Short:        "Index and query Datasworn rules content",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "YAML configuration file")
	flags.StringVar(&a.dataDir, "data-dir", "", "Directory holding the documents (overrides config)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.BoolVar(&a.pretty, "pretty", true, "Human-readable log output")

	root.AddCommand(
		a.idsCmd(),
		a.countCmd(),
		a.typesCmd(),
		a.namesCmd(),
		a.getCmd(),
		a.searchCmd(),
		a.serveCmd(),
	)
	return root
}

// setup resolves the configuration: defaults, then the file, then flags
func (a *app) setup(cmd *cobra.Command) error {
	cfg := config.Default()
	if a.configPath != "" {
		loaded, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir = a.dataDir
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("pretty") {
		cfg.Log.Pretty = a.pretty
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	logger.InitGlobalLogger(logger.Config{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
		Output: cmd.ErrOrStderr(),
	})
	a.log = logger.GetGlobalLogger()
	return nil
}

// loadObserver feeds load events to the logger and, when serving, to metrics
type loadObserver struct {
	log     *logger.Logger
	metrics *metrics.Metrics
}

func (o loadObserver) DocumentLoaded(name string, duration time.Duration, identifiers int, err error) {
	o.log.LoaderLogger(name).LogDocumentLoad(name, duration, identifiers, err)
	if o.metrics != nil {
		o.metrics.DocumentLoaded(name, duration, identifiers, err)
	}
}

func (o loadObserver) IndexSize(identifiers, documents int) {
	if o.metrics != nil {
		o.metrics.IndexSize(identifiers, documents)
	}
}

func (a *app) newRegistry(m *metrics.Metrics) *registry.Registry {
	titles := a.cfg.BreadcrumbTitles()
	return registry.New(registry.Options{
		Documents:         a.cfg.RegistryDocuments(),
		Loader:            document.NewFileLoader(a.cfg.DataDir),
		Workers:           a.cfg.Workers,
		StrictContainment: a.cfg.StrictContainment,
		TypeTitles:        &titles,
		Logger:            a.log.Zerolog(),
		Observer:          loadObserver{log: a.log, metrics: m},
	})
}

// loadRegistry loads the corpus and prints one line per skipped document
func (a *app) loadRegistry(cmd *cobra.Command) (*registry.Registry, error) {
	reg := a.newRegistry(nil)
	if err := a.load(cmd.Context(), cmd, reg); err != nil {
		return nil, err
	}
	return reg, nil
}

func (a *app) load(ctx context.Context, cmd *cobra.Command, reg *registry.Registry) error {
	if ctx == nil {
		ctx = context.Background()
	}
	report, err := reg.Load(ctx)
	for _, f := range report.Failed {
		fmt.Fprintln(cmd.ErrOrStderr(), warnStyle.Render("skipped "+f.Document+": ")+f.Err.Error())
	}
	a.log.WithFields(map[string]any{
		"data_dir":    a.cfg.DataDir,
		"loaded":      report.Loaded,
		"failed":      len(report.Failed),
		"identifiers": report.Identifiers,
	}).Debug("Load report").Send()
	if err != nil {
		return fmt.Errorf("loading corpus from %s: %w", a.cfg.DataDir, err)
	}
	return nil
}
