package app

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/specialistvlad/refgraph/internal/builder"
	"github.com/specialistvlad/refgraph/internal/ctxlog"
	"github.com/specialistvlad/refgraph/internal/diag"
	"github.com/specialistvlad/refgraph/internal/extractor"
	"github.com/specialistvlad/refgraph/internal/fsutil"
	"github.com/specialistvlad/refgraph/internal/graph"
)

// buildGraph runs extraction and graph building over the corpus at root.
func (a *App) buildGraph(ctx context.Context, root string) (*builder.Result, error) {
	logger := ctxlog.FromContext(ctx)
	docs, err := fsutil.LoadDocuments(root, a.config.Extract.Extension)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFatalInput, err)
	}
	logger.Debug("Documents discovered.", "root", root, "count", len(docs))

	workers := a.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	ex, err := extractor.New(extractor.Options{
		Catalog:           a.catalog,
		RequiresPhrases:   a.config.Extract.RequiresPhrases,
		SupersedesPhrases: a.config.Extract.SupersedesPhrases,
		IgnoreLanguages:   a.config.Extract.IgnoreLanguages,
		Extension:         a.config.Extract.Extension,
		MaxFileSize:       a.config.Extract.MaxFileSize,
		Workers:           workers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create extractor: %w", err)
	}

	acc := extractor.NewAccumulator()
	if err := ex.ExtractAll(ctx, docs, acc); err != nil {
		return nil, err
	}

	res, err := builder.New(a.catalog, builder.Options{Now: a.now}).Build(ctx, acc)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: failed to build graph: %w", ErrFatalInput, err)
	}
	return res, nil
}

// readGraph loads a persisted graph. Every failure is fatal input.
func (a *App) readGraph(ctx context.Context, path string) (*graph.Graph, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: a graph file is required", ErrFatalInput)
	}
	g, err := graph.ReadFile(path, a.catalog)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFatalInput, err)
	}
	ctxlog.FromContext(ctx).Debug("Graph loaded.",
		"path", path,
		"generation", g.Generation(),
		"features", g.Len(),
		"edges", len(g.Edges()),
	)
	return g, nil
}

// findings maps a report to the run's error: ErrFindings when it holds
// errors, nil otherwise.
func findings(r *diag.Report) error {
	if r.HasErrors() {
		return fmt.Errorf("%w: %d error diagnostic(s)", ErrFindings, len(r.Errors()))
	}
	return nil
}

// IsFatalInput reports whether err should end the process with the fatal
// input exit code.
func IsFatalInput(err error) bool {
	return errors.Is(err, ErrFatalInput)
}
