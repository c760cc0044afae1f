// Package bootstrap wires the engine: configuration, logging, the
// stores over the configured directories and the use-case services.
package bootstrap

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/parsedesk/parsedesk/adapters/clock"
	"github.com/parsedesk/parsedesk/adapters/idgen"
	"github.com/parsedesk/parsedesk/adapters/jsonfile"
	"github.com/parsedesk/parsedesk/adapters/metrics"
	"github.com/parsedesk/parsedesk/app"
	"github.com/parsedesk/parsedesk/config"
)

// App is the wired engine. Every service shares one set of stores, so
// edits made through the Editor are visible to the Projector and the
// Renderer immediately.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Metrics *metrics.Collector

	// Docs is kept concrete for watcher control.
	Docs *jsonfile.DocumentStore

	Editor    *app.Editor
	Clipboard *app.Clipboard
	Projector *app.Projector
	Renderer  *app.Renderer
	Tracer    *app.Tracer
	Registry  *app.Registry
	Templates *app.Templates
	Transfer  *app.Transfer
}

// New loads configuration, falling back to environment variables and
// defaults when the file is absent, and wires the engine.
func New(configPath string) (*App, error) {
	cfg, err := config.LoadWithFallback(configPath)
	if err != nil {
		return nil, err
	}
	return NewWithConfig(cfg)
}

// NewWithConfig wires the engine over loaded configuration. The data
// directories are created when missing.
func NewWithConfig(cfg *config.Config) (*App, error) {
	logger := setupLogger(cfg.Logging)

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.New()
		logger.Debug().Msg("prometheus metrics enabled")
	}

	clk := clock.Real{}

	docs, err := jsonfile.NewDocumentStore(cfg.Paths.SchemaDir, clk, collector, logger)
	if err != nil {
		return nil, fmt.Errorf("schema store: %w", err)
	}
	registryStore, err := jsonfile.NewRegistryStore(cfg.Paths.ConfigDir, clk, logger)
	if err != nil {
		return nil, fmt.Errorf("registry store: %w", err)
	}
	templateStore, err := jsonfile.NewTemplateStore(cfg.Paths.TemplateDir, logger)
	if err != nil {
		return nil, fmt.Errorf("template store: %w", err)
	}

	if cfg.Watch.Enabled {
		if err := docs.Watch(); err != nil {
			logger.Warn().Err(err).Msg("schema directory watch unavailable")
		}
	}

	editor := app.NewEditor(docs, collector, logger)
	templates := app.NewTemplates(templateStore, idgen.UUID{}, clk, logger)

	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: collector,
		Docs:    docs,

		Editor:    editor,
		Clipboard: app.NewClipboard(editor, logger),
		Projector: app.NewProjector(docs, logger),
		Renderer:  app.NewRenderer(docs, collector, logger),
		Tracer:    app.NewTracer(docs, collector, logger),
		Registry:  app.NewRegistry(registryStore, docs, templates, clk, logger),
		Templates: templates,
		Transfer:  app.NewTransfer(docs, editor, collector, logger),
	}

	logger.Debug().
		Str("schemas", cfg.Paths.SchemaDir).
		Str("registry", cfg.Paths.ConfigDir).
		Str("templates", cfg.Paths.TemplateDir).
		Msg("engine wired")
	return a, nil
}

// Close releases background resources such as the directory watcher.
func (a *App) Close() {
	if a.Docs != nil {
		a.Docs.Close()
	}
}

// setupLogger builds the root logger from the logging configuration.
// Logs go to stderr so command output on stdout stays clean.
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
