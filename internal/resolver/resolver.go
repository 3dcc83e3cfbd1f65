// Package resolver answers "which features are available at version V"
// against a frozen graph. A Resolver only reads the graph, so one Resolver
// may serve any number of concurrent queries.
package resolver

import (
	"context"
	"fmt"
	"slices"

	"github.com/specialistvlad/refgraph/internal/ctxlog"
	"github.com/specialistvlad/refgraph/internal/diag"
	"github.com/specialistvlad/refgraph/internal/graph"
	"github.com/specialistvlad/refgraph/internal/model"
	"github.com/specialistvlad/refgraph/internal/version"
)

// Result is the feature set of one family at one version.
type Result struct {
	Family   string            `json:"family" yaml:"family"`
	Version  string            `json:"version" yaml:"version"`
	Features []string          `json:"features" yaml:"features"`
	Warnings []diag.Diagnostic `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Resolver computes version closures over one graph generation.
type Resolver struct {
	g *graph.Graph
}

// New returns a Resolver for g.
func New(g *graph.Graph) *Resolver {
	return &Resolver{g: g}
}

// Resolve returns the features of family available at target, plus every
// feature they require. family is a key or display name; target is a
// version name, short form or dialect tag of that family.
//
// A REQUIRES cycle reachable from the candidates fails the query with a
// *diag.CyclicRequirementError.
func (r *Resolver) Resolve(ctx context.Context, family, target string) (*Result, error) {
	fam, err := r.g.Catalog().Family(family)
	if err != nil {
		return nil, err
	}
	v, err := fam.Version(target)
	if err != nil {
		return nil, err
	}
	return r.ResolveVersion(ctx, v)
}

// ResolveVersion is Resolve for an already parsed version.
func (r *Resolver) ResolveVersion(ctx context.Context, v version.Version) (*Result, error) {
	logger := ctxlog.FromContext(ctx).With("family", v.Family, "version", v.Name)
	fam, err := r.g.Catalog().Family(v.Family)
	if err != nil {
		return nil, err
	}

	// Candidates: introduced at or before v and not yet deprecated.
	var candidates []string
	for _, n := range r.g.FamilyNodes(fam.Key) {
		if n.AvailableAt(v) {
			candidates = append(candidates, n.ID)
		}
	}
	logger.Debug("Resolve: candidates selected.", "count", len(candidates))

	reach := r.g.RequiresReachable(candidates...)
	for _, component := range r.g.RequiresComponents() {
		if slices.ContainsFunc(component, func(id string) bool { return reach[id] }) {
			cycle := r.g.RequiresCycleIn(component)
			logger.Debug("Resolve: reachable requirement cycle.", "cycle", cycle)
			return nil, &diag.CyclicRequirementError{Family: fam.Name, Cycle: cycle}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("resolve canceled: %w", err)
	}

	res := &Result{Family: fam.Name, Version: v.Name}
	included := make(map[string]bool, len(reach))
	for _, id := range candidates {
		included[id] = true
	}

	// Closure: breadth-first over REQUIRES, warning on every edge that pulls
	// in a feature that is not itself a candidate.
	queue := slices.Clone(candidates)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, e := range r.g.Outgoing(id, model.Requires) {
			target, _ := r.g.Node(e.Target)
			if reason := r.unavailable(target, v); reason != "" {
				res.Warnings = append(res.Warnings, diag.VersionOrderViolation(e.Source, e.Target, reason, v.Name))
			}
			if !included[e.Target] {
				included[e.Target] = true
				queue = append(queue, e.Target)
			}
		}
	}

	res.Features = make([]string, 0, len(included))
	for id := range included {
		res.Features = append(res.Features, id)
	}
	slices.Sort(res.Features)
	slices.SortStableFunc(res.Warnings, diag.Compare)

	logger.Debug("Resolve: closure complete.", "features", len(res.Features), "warnings", len(res.Warnings))
	return res, nil
}

// unavailable returns why n is not available at v, or "" when it is.
func (r *Resolver) unavailable(n *model.FeatureRecord, v version.Version) string {
	switch {
	case n.Family != v.Family:
		return diag.ReasonCrossFamily
	case !n.Introduced.AtMost(v):
		return diag.ReasonIntroducedLater
	case n.Deprecated != nil && n.Deprecated.AtMost(v):
		return diag.ReasonDeprecated
	default:
		return ""
	}
}
