package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/refgraph/internal/graph"
	"github.com/specialistvlad/refgraph/internal/metrics"
	"github.com/specialistvlad/refgraph/internal/watcher"
)

// WatchOptions configures Watch.
type WatchOptions struct {
	In              string
	Out             string
	Format          string
	Debounce        time.Duration
	HealthcheckPort int // 0 disables the health and metrics endpoints
}

// Watch builds a graph generation from the corpus, then rebuilds a whole
// new generation after every debounced batch of document changes until ctx
// is canceled. A batch that leaves the corpus unusable (for example every
// document deleted) is logged and the previous graph file is kept.
func (a *App) Watch(ctx context.Context, opts WatchOptions) error {
	ctx = a.withLogger(ctx)
	if err := checkFormat(opts.Format); err != nil {
		return err
	}

	// Watch before the first build so no change between the two is lost.
	w, err := watcher.New(opts.In, watcher.Options{
		Extension: a.config.Extract.Extension,
		Debounce:  opts.Debounce,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFatalInput, err)
	}
	defer w.Close()

	m := metrics.New()
	state := &generationState{}
	if opts.HealthcheckPort > 0 {
		a.startHealthCheckServer(ctx, opts.HealthcheckPort, state, m)
		defer a.closeHealthCheckServer(ctx)
	}

	if err := a.rebuild(ctx, opts, m, state); err != nil {
		return err
	}
	a.logger.Info("Watch: Watching for changes.", "in", opts.In)

	err = w.Run(ctx, func(ctx context.Context, changed []string) error {
		a.logger.Info("Watch: Changes detected, rebuilding.", "changes", len(changed))
		err := a.rebuild(ctx, opts, m, state)
		if errors.Is(err, ErrFatalInput) {
			a.logger.Warn("Watch: Rebuild failed, keeping the previous generation.", "error", err)
			return nil
		}
		return err
	})
	a.logger.Info("Watch: Stopped.")
	return err
}

// rebuild builds and persists one generation. Findings are reported but do
// not stop watching.
func (a *App) rebuild(ctx context.Context, opts WatchOptions, m *metrics.Metrics, state *generationState) error {
	res, err := a.buildGraph(ctx, opts.In)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	if err := graph.WriteFile(opts.Out, res.Graph); err != nil {
		return fmt.Errorf("failed to write graph: %w", err)
	}
	recordGraph(m, res.Graph, res.Report)
	state.set(res.Graph.Generation())

	a.logger.Info("Watch: Generation built.",
		"generation", res.Graph.Generation(),
		"features", res.Graph.Len(),
		"edges", len(res.Graph.Edges()),
		"errors", len(res.Report.Errors()),
	)
	return writeReport(a.outW, opts.Format, res.Graph.Generation(), res.Report, nil)
}
