package app

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/specialistvlad/refgraph/internal/cache"
	"github.com/specialistvlad/refgraph/internal/diag"
	"github.com/specialistvlad/refgraph/internal/examplecheck"
	"github.com/specialistvlad/refgraph/internal/graph"
	"github.com/specialistvlad/refgraph/internal/metrics"
	"github.com/specialistvlad/refgraph/internal/refcheck"
	"github.com/specialistvlad/refgraph/internal/resolver"
	"github.com/specialistvlad/refgraph/internal/syntax"
	"github.com/specialistvlad/refgraph/internal/version"
)

// ExtractOptions configures Extract.
type ExtractOptions struct {
	In     string
	Out    string
	Format string
}

// Extract builds a graph from the corpus at opts.In, persists it to opts.Out
// and prints the build diagnostics. The graph is written even when the
// report holds errors; it never contains dangling edges.
func (a *App) Extract(ctx context.Context, opts ExtractOptions) error {
	ctx = a.withLogger(ctx)
	if err := checkFormat(opts.Format); err != nil {
		return err
	}
	a.logger.Info("Extract: Starting.", "in", opts.In, "out", opts.Out)

	res, err := a.buildGraph(ctx, opts.In)
	if err != nil {
		return err
	}
	if err := graph.WriteFile(opts.Out, res.Graph); err != nil {
		return fmt.Errorf("failed to write graph: %w", err)
	}
	a.logger.Info("Extract: Graph written.",
		"path", opts.Out,
		"generation", res.Graph.Generation(),
		"features", res.Graph.Len(),
		"edges", len(res.Graph.Edges()),
		"diagnostics", res.Report.Len(),
	)

	if err := writeReport(a.outW, opts.Format, res.Graph.Generation(), res.Report, nil); err != nil {
		return err
	}
	return findings(res.Report)
}

// ValidateOptions configures Validate.
type ValidateOptions struct {
	Graph  string
	Format string
}

// Validate runs the reference checks over a persisted graph.
func (a *App) Validate(ctx context.Context, opts ValidateOptions) error {
	ctx = a.withLogger(ctx)
	if err := checkFormat(opts.Format); err != nil {
		return err
	}
	g, err := a.readGraph(ctx, opts.Graph)
	if err != nil {
		return err
	}
	report, err := refcheck.Check(ctx, g)
	if err != nil {
		return err
	}
	if err := writeReport(a.outW, opts.Format, g.Generation(), report, nil); err != nil {
		return err
	}
	return findings(report)
}

// ResolveOptions configures Resolve.
type ResolveOptions struct {
	Graph   string
	Family  string
	Version string
	Format  string
	// Detailed prints the family, version and warnings alongside the
	// feature ids in the json and yaml formats.
	Detailed bool
}

// Resolve prints the features of a family available at a version. The json
// and yaml formats print a bare list of feature ids unless Detailed is set;
// warnings are then logged instead. A
// requirement cycle in the way of the query is printed as a report and
// returned as ErrFindings.
func (a *App) Resolve(ctx context.Context, opts ResolveOptions) error {
	ctx = a.withLogger(ctx)
	if err := checkFormat(opts.Format); err != nil {
		return err
	}
	g, err := a.readGraph(ctx, opts.Graph)
	if err != nil {
		return err
	}

	res, err := resolver.New(g).Resolve(ctx, opts.Family, opts.Version)
	var cycle *diag.CyclicRequirementError
	switch {
	case errors.As(err, &cycle):
		if werr := writeReport(a.outW, opts.Format, g.Generation(), diag.NewReport(cycle.Diagnostic()), nil); werr != nil {
			return werr
		}
		return fmt.Errorf("%w: %w", ErrFindings, err)
	case errors.Is(err, version.ErrUnknownFamily), errors.Is(err, version.ErrUnknownVersion):
		return fmt.Errorf("%w: %w", ErrFatalInput, err)
	case err != nil:
		return err
	}

	if opts.Format != FormatText && !opts.Detailed {
		for _, w := range res.Warnings {
			a.logger.Warn("Resolve: warning.", "kind", w.Kind, "feature", w.FeatureID, "message", w.Message)
		}
	}
	var out any = res
	if !opts.Detailed {
		out = res.Features
	}
	switch opts.Format {
	case FormatJSON:
		return encodeJSON(a.outW, out)
	case FormatYAML:
		return encodeYAML(a.outW, out)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d feature(s)\n", res.Version, len(res.Features))
	for _, id := range res.Features {
		fmt.Fprintf(&b, "  %s\n", id)
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(&b, "warning: %s\n", w)
	}
	_, err = a.outW.Write([]byte(b.String()))
	return err
}

// CheckOptions configures CheckExamples. Zero values fall back to the
// configuration file.
type CheckOptions struct {
	Graph       string
	Dialect     string
	Backend     string
	Timeout     time.Duration
	Workers     int
	CacheDir    string
	MetricsFile string
	Format      string
}

// CheckExamples syntax-checks every code example of a persisted graph.
func (a *App) CheckExamples(ctx context.Context, opts CheckOptions) error {
	ctx = a.withLogger(ctx)
	if err := checkFormat(opts.Format); err != nil {
		return err
	}
	g, err := a.readGraph(ctx, opts.Graph)
	if err != nil {
		return err
	}

	selector, err := syntax.NewSelector(a.config, g.Catalog(), opts.Backend)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFatalInput, err)
	}
	timeout := cmp.Or(opts.Timeout, a.config.Check.Timeout)
	workers := cmp.Or(opts.Workers, a.config.Check.WorkersPerDialect)

	var store *cache.Cache
	if opts.CacheDir != "" {
		store, err = cache.Open(ctx, opts.CacheDir)
		if err != nil {
			return err
		}
		defer store.Close()
	}
	var m *metrics.Metrics
	if opts.MetricsFile != "" {
		m = metrics.New()
	}

	checker, err := examplecheck.New(examplecheck.Options{
		Backends:          selector,
		Timeout:           timeout,
		WorkersPerDialect: workers,
		Dialect:           opts.Dialect,
		Cache:             store,
		Metrics:           m,
		Now:               a.now,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFatalInput, err)
	}
	a.logger.Info("Check: Starting example validation.",
		"backend", selector.Mode(),
		"timeout", timeout,
		"workers_per_dialect", workers,
		"dialect", opts.Dialect,
	)

	res, err := checker.Check(ctx, g)
	if errors.Is(err, version.ErrUnknownDialect) {
		return fmt.Errorf("%w: %w", ErrFatalInput, err)
	}
	if err != nil {
		return err
	}

	if m != nil {
		recordGraph(m, g, res.Report)
		if err := m.WriteFile(opts.MetricsFile, a.now()); err != nil {
			return err
		}
	}
	if err := writeReport(a.outW, opts.Format, g.Generation(), res.Report, &res.Summary); err != nil {
		return err
	}
	return findings(res.Report)
}

// recordGraph publishes the size of g and the diagnostic counts of r.
func recordGraph(m *metrics.Metrics, g *graph.Graph, r *diag.Report) {
	nodes := make(map[string]int)
	for _, fam := range g.Catalog().Families() {
		nodes[fam.Name] = len(g.FamilyNodes(fam.Key))
	}
	edges := make(map[string]int)
	for _, e := range g.Edges() {
		edges[string(e.Type)]++
	}
	bySeverity := make(map[string]int)
	for sev, n := range r.Counts() {
		bySeverity[sev.String()] = n
	}
	m.SetGraphSize(nodes, edges)
	m.SetDiagnostics(bySeverity)
}
