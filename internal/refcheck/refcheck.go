// Package refcheck validates the references of a frozen graph and collects
// every finding into one report. Nothing it finds stops the pass.
package refcheck

import (
	"context"
	"fmt"

	"github.com/specialistvlad/refgraph/internal/ctxlog"
	"github.com/specialistvlad/refgraph/internal/diag"
	"github.com/specialistvlad/refgraph/internal/graph"
	"github.com/specialistvlad/refgraph/internal/model"
)

// check is one validation pass over the graph.
type check struct {
	name string
	run  func(g *graph.Graph, r *diag.Report)
}

var checks = []check{
	{name: "build diagnostics", run: checkBuildDiagnostics},
	{name: "dangling edges", run: checkDanglingEdges},
	{name: "version ranges", run: checkVersionRanges},
	{name: "example dialects", run: checkDialects},
	{name: "orphans", run: checkOrphans},
	{name: "requirement cycles", run: checkCycles},
	{name: "supersedes order", run: checkSupersedesOrder},
}

// Check runs every validation against g. It only reads g, so it may run
// alongside resolution and example checks on the same generation. The
// error is non-nil only when ctx is canceled.
func Check(ctx context.Context, g *graph.Graph) (*diag.Report, error) {
	logger := ctxlog.FromContext(ctx).With("generation", g.Generation())
	report := diag.NewReport()
	for _, c := range checks {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("reference check canceled: %w", err)
		}
		before := report.Len()
		c.run(g, report)
		logger.Debug("Reference check finished.", "check", c.name, "findings", report.Len()-before)
	}
	counts := report.Counts()
	logger.Info("Reference validation complete.",
		"nodes", g.Len(),
		"errors", counts[diag.SeverityError],
		"warnings", counts[diag.SeverityWarning],
	)
	return report, nil
}

// checkBuildDiagnostics re-reports what the builder recorded.
func checkBuildDiagnostics(g *graph.Graph, r *diag.Report) {
	for _, d := range g.Diagnostics() {
		r.Add(d)
	}
}

func checkDanglingEdges(g *graph.Graph, r *diag.Report) {
	for _, e := range g.Dangling() {
		missing := e.Target
		if !g.Has(e.Source) {
			missing = e.Source
		}
		r.Add(diag.DanglingEdge(e, missing))
	}
}

func checkVersionRanges(g *graph.Graph, r *diag.Report) {
	for _, n := range g.Nodes() {
		if n.Deprecated != nil && n.Deprecated.AtMost(n.Introduced) {
			detail := fmt.Sprintf("deprecated in %s, which does not follow %s", n.Deprecated.Name, n.Introduced.Name)
			r.Add(diag.InvalidVersionRange(diag.SeverityError, n.ID, detail, n.Location))
		}
	}
}

func checkDialects(g *graph.Graph, r *diag.Report) {
	catalog := g.Catalog()
	for _, n := range g.Nodes() {
		for _, ex := range n.Examples {
			d, err := catalog.ParseDialect(ex.Dialect)
			if err != nil || d.Family != n.Family {
				r.Add(diag.UnknownDialect(n.ID, ex.Dialect, ex.Location))
			}
		}
	}
}

func checkOrphans(g *graph.Graph, r *diag.Report) {
	for _, n := range g.Nodes() {
		if len(g.Outgoing(n.ID)) == 0 && len(g.Incoming(n.ID)) == 0 {
			r.Add(diag.OrphanFeature(n.ID, n.Location))
		}
	}
}

func checkCycles(g *graph.Graph, r *diag.Report) {
	for _, cycle := range g.RequiresCycles() {
		family := ""
		if n, ok := g.Node(cycle[0]); ok {
			family = g.Catalog().MustFamily(n.Family).Name
		}
		r.Add(diag.CyclicRequirement(family, cycle))
	}
}

func checkSupersedesOrder(g *graph.Graph, r *diag.Report) {
	for _, e := range g.Edges() {
		if e.Type != model.Supersedes {
			continue
		}
		src, _ := g.Node(e.Source)
		dst, _ := g.Node(e.Target)
		if src.Family != dst.Family {
			continue
		}
		if src.Introduced.Less(dst.Introduced) {
			r.Add(diag.SupersedesOrder(e, src.Introduced.Name, dst.Introduced.Name))
		}
	}
}
