package builder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/specialistvlad/refgraph/internal/ctxlog"
	"github.com/specialistvlad/refgraph/internal/diag"
	"github.com/specialistvlad/refgraph/internal/extractor"
	"github.com/specialistvlad/refgraph/internal/graph"
	"github.com/specialistvlad/refgraph/internal/version"
)

// Options tunes the metadata of built generations. Zero values use a random
// UUID and the wall clock.
type Options struct {
	NewGeneration func() string
	Now           func() time.Time
}

// Builder builds graph generations against one version catalog.
type Builder struct {
	catalog       *version.Catalog
	newGeneration func() string
	now           func() time.Time
}

// Result is a built generation plus every diagnostic of the pass, including
// the extraction diagnostics carried in the accumulator.
type Result struct {
	Graph  *graph.Graph
	Report *diag.Report
}

// New creates a Builder.
func New(catalog *version.Catalog, opts Options) *Builder {
	b := &Builder{
		catalog:       catalog,
		newGeneration: opts.NewGeneration,
		now:           opts.Now,
	}
	if b.newGeneration == nil {
		b.newGeneration = uuid.NewString
	}
	if b.now == nil {
		b.now = time.Now
	}
	return b
}

// Build resolves the drafts and links of acc into a frozen graph. Reference
// problems are reported in the result; the error is reserved for drafts the
// catalog cannot describe and for cancellation.
func (b *Builder) Build(ctx context.Context, acc *extractor.Accumulator) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: Starting graph construction.", "drafts", len(acc.Records), "links", len(acc.Links))

	report := diag.NewReport()
	report.Extend(acc.Report)

	// First pass: group drafts and exclude duplicates.
	nodes, err := b.collectNodes(ctx, acc.Records, report)
	if err != nil {
		return nil, err
	}
	logger.Debug("Build: Node pass complete.", "nodes", len(nodes.records), "excluded", len(nodes.excluded))

	// Second pass: anchors.
	anchors := newAnchorTable(acc)
	logger.Debug("Build: Anchor table complete.", "anchors", len(anchors.byAnchor), "documents", len(anchors.first))

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("build canceled: %w", err)
	}

	// Third pass: resolve links into edges.
	edges := resolveLinks(ctx, acc.Links, anchors, nodes, report)
	logger.Debug("Build: Link pass complete.", "edges", len(edges))

	g, err := graph.Freeze(nodes.records, edges, graph.Options{
		Generation:  b.newGeneration(),
		CreatedAt:   b.now(),
		Catalog:     b.catalog,
		Diagnostics: report.Items(),
		Strict:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("error freezing graph: %w", err)
	}

	logger.Info("Build: Graph construction successful.",
		"generation", g.Generation(),
		"nodes", g.Len(),
		"edges", len(g.Edges()),
		"errors", len(report.Errors()),
		"warnings", len(report.Warnings()),
	)
	return &Result{Graph: g, Report: report}, nil
}
