package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/specialistvlad/refgraph/internal/config"
	"github.com/specialistvlad/refgraph/internal/ctxlog"
	"github.com/specialistvlad/refgraph/internal/version"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer // reports and query results
	logger  *slog.Logger
	config  *config.Model
	catalog *version.Catalog
	workers int
	now     func() time.Time

	httpServer *http.Server
}

// NewApp is the constructor for the main application. Reports go to outW and
// logs to logW. Configuration problems are returned wrapped in ErrFatalInput.
func NewApp(outW, logW io.Writer, appConfig *Config, loader config.Loader) (*App, error) {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	// Load all configuration into the format-agnostic model first.
	cfgModel, err := loader.Load(ctx, appConfig.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load configuration: %w", ErrFatalInput, err)
	}
	logger.Debug("Configuration loaded and translated into unified model.")

	catalog, err := cfgModel.Catalog()
	if err != nil {
		return nil, fmt.Errorf("%w: invalid language families: %w", ErrFatalInput, err)
	}
	logger.Debug("Version catalog built.", "families", len(catalog.Families()))

	return &App{
		outW:    outW,
		logger:  logger,
		config:  cfgModel,
		catalog: catalog,
		workers: appConfig.Workers,
		now:     time.Now,
	}, nil
}

// Catalog returns the version catalog built from the configuration.
func (a *App) Catalog() *version.Catalog {
	return a.catalog
}

func (a *App) withLogger(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}
