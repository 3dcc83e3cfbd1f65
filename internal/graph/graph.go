package graph

import (
	"fmt"
	"slices"
	"time"

	"github.com/specialistvlad/refgraph/internal/dag"
	"github.com/specialistvlad/refgraph/internal/diag"
	"github.com/specialistvlad/refgraph/internal/model"
	"github.com/specialistvlad/refgraph/internal/version"
)

// Options carries the metadata of a generation.
type Options struct {
	Generation  string
	CreatedAt   time.Time
	Catalog     *version.Catalog
	Diagnostics []diag.Diagnostic
	// Strict makes Freeze fail on edges with a missing endpoint instead of
	// setting them aside.
	Strict bool
}

// Graph is a frozen generation of the feature graph.
type Graph struct {
	generation  string
	createdAt   time.Time
	catalog     *version.Catalog
	nodes       []*model.FeatureRecord
	index       map[string]int
	edges       []model.Edge
	dangling    []model.Edge
	out         map[string][]int
	in          map[string][]int
	diagnostics []diag.Diagnostic
	requires    *dag.Graph
}

// Freeze validates records and edges and returns an immutable Graph. The
// inputs are copied; later changes to them do not affect the Graph.
func Freeze(records []*model.FeatureRecord, edges []model.Edge, opts Options) (*Graph, error) {
	if opts.Catalog == nil {
		return nil, fmt.Errorf("freeze: catalog is required")
	}
	if opts.Generation == "" {
		return nil, fmt.Errorf("freeze: generation is required")
	}
	g := &Graph{
		generation: opts.Generation,
		createdAt:  opts.CreatedAt.UTC().Round(0),
		catalog:    opts.Catalog,
		index:      make(map[string]int, len(records)),
		out:        make(map[string][]int),
		in:         make(map[string][]int),
		requires:   dag.New(),
	}

	for _, r := range records {
		if r.ID == "" {
			return nil, fmt.Errorf("freeze: record without id at %s", r.Location)
		}
		fam, err := opts.Catalog.Family(r.Family)
		if err != nil {
			return nil, fmt.Errorf("freeze: record %s: %w", r.ID, err)
		}
		if !fam.Contains(r.Introduced) {
			return nil, fmt.Errorf("freeze: record %s: introduced version %q is not a %s version", r.ID, r.Introduced.Name, fam.Name)
		}
		if r.Deprecated != nil && !fam.Contains(*r.Deprecated) {
			return nil, fmt.Errorf("freeze: record %s: deprecated version %q is not a %s version", r.ID, r.Deprecated.Name, fam.Name)
		}
		c := r.Clone()
		if len(c.Examples) == 0 {
			c.Examples = nil
		}
		g.nodes = append(g.nodes, c)
	}
	slices.SortFunc(g.nodes, func(a, b *model.FeatureRecord) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})
	for i, n := range g.nodes {
		if i > 0 && g.nodes[i-1].ID == n.ID {
			return nil, fmt.Errorf("freeze: duplicate feature id %s", n.ID)
		}
		g.index[n.ID] = i
		g.requires.AddNode(n.ID)
	}

	sorted := slices.Clone(edges)
	slices.SortFunc(sorted, model.CompareEdges)
	sorted = slices.Compact(sorted)
	for _, e := range sorted {
		if e.Source == e.Target {
			return nil, fmt.Errorf("freeze: self-referential edge %s", e)
		}
		_, okSrc := g.index[e.Source]
		_, okDst := g.index[e.Target]
		if !okSrc || !okDst {
			if opts.Strict {
				return nil, fmt.Errorf("freeze: edge %s has a missing endpoint", e)
			}
			g.dangling = append(g.dangling, e)
			continue
		}
		idx := len(g.edges)
		g.edges = append(g.edges, e)
		g.out[e.Source] = append(g.out[e.Source], idx)
		g.in[e.Target] = append(g.in[e.Target], idx)
		if e.Type == model.Requires {
			if err := g.requires.AddEdge(e.Source, e.Target); err != nil {
				return nil, fmt.Errorf("freeze: %w", err)
			}
		}
	}

	for _, d := range opts.Diagnostics {
		g.diagnostics = append(g.diagnostics, d.Clone())
	}
	slices.SortStableFunc(g.diagnostics, diag.Compare)
	return g, nil
}

// Generation returns the unique id of this generation.
func (g *Graph) Generation() string { return g.generation }

// CreatedAt returns when the generation was built.
func (g *Graph) CreatedAt() time.Time { return g.createdAt }

// Catalog returns the version catalog the graph was built with.
func (g *Graph) Catalog() *version.Catalog { return g.catalog }

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// IDs returns every node id in sorted order.
func (g *Graph) IDs() []string {
	ids := make([]string, len(g.nodes))
	for i, n := range g.nodes {
		ids[i] = n.ID
	}
	return ids
}

// Has reports whether a node exists.
func (g *Graph) Has(id string) bool {
	_, ok := g.index[id]
	return ok
}

// Node returns a copy of the node with the given id.
func (g *Graph) Node(id string) (*model.FeatureRecord, bool) {
	i, ok := g.index[id]
	if !ok {
		return nil, false
	}
	return g.nodes[i].Clone(), true
}

// Nodes returns copies of every node, sorted by id.
func (g *Graph) Nodes() []*model.FeatureRecord {
	out := make([]*model.FeatureRecord, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = n.Clone()
	}
	return out
}

// FamilyNodes returns copies of the nodes of one family, sorted by id.
func (g *Graph) FamilyNodes(family string) []*model.FeatureRecord {
	var out []*model.FeatureRecord
	for _, n := range g.nodes {
		if n.Family == family {
			out = append(out, n.Clone())
		}
	}
	return out
}

// Edges returns every edge, sorted by source, target and type.
func (g *Graph) Edges() []model.Edge {
	return slices.Clone(g.edges)
}

// Dangling returns edges read from a file whose endpoint is missing.
func (g *Graph) Dangling() []model.Edge {
	return slices.Clone(g.dangling)
}

// Outgoing returns the edges leaving id, optionally filtered by type.
func (g *Graph) Outgoing(id string, types ...model.EdgeType) []model.Edge {
	return g.collect(g.out[id], types)
}

// Incoming returns the edges entering id, optionally filtered by type.
func (g *Graph) Incoming(id string, types ...model.EdgeType) []model.Edge {
	return g.collect(g.in[id], types)
}

func (g *Graph) collect(indices []int, types []model.EdgeType) []model.Edge {
	var out []model.Edge
	for _, i := range indices {
		e := g.edges[i]
		if len(types) == 0 || slices.Contains(types, e.Type) {
			out = append(out, e)
		}
	}
	return out
}

// Diagnostics returns the build diagnostics stored with the generation.
func (g *Graph) Diagnostics() []diag.Diagnostic {
	out := make([]diag.Diagnostic, len(g.diagnostics))
	for i, d := range g.diagnostics {
		out[i] = d.Clone()
	}
	return out
}

// RequiresReachable returns every node reachable from starts over REQUIRES
// edges, including the starts.
func (g *Graph) RequiresReachable(starts ...string) map[string]bool {
	return g.requires.Reachable(starts...)
}

// RequiresCycles returns every REQUIRES cycle, one per strongly connected
// component, each starting at its smallest id and following edge order.
func (g *Graph) RequiresCycles() [][]string {
	var cycles [][]string
	for _, component := range g.requires.StronglyConnected() {
		if cycle := g.requires.CycleIn(component); len(cycle) > 0 {
			cycles = append(cycles, cycle)
		}
	}
	return cycles
}

// RequiresComponents returns the REQUIRES strongly connected components that
// contain a cycle, each sorted.
func (g *Graph) RequiresComponents() [][]string {
	return g.requires.StronglyConnected()
}

// RequiresCycleIn returns the canonical cycle of one component returned by
// RequiresComponents.
func (g *Graph) RequiresCycleIn(component []string) []string {
	return g.requires.CycleIn(component)
}
