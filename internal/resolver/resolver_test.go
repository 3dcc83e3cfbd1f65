package resolver

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/refgraph/internal/config"
	"github.com/specialistvlad/refgraph/internal/diag"
	"github.com/specialistvlad/refgraph/internal/graph"
	"github.com/specialistvlad/refgraph/internal/model"
	"github.com/specialistvlad/refgraph/internal/version"
)

type feature struct {
	id         string
	introduced string
	deprecated string
}

func freeze(t *testing.T, features []feature, edges ...model.Edge) *graph.Graph {
	t.Helper()
	catalog, err := config.Default().Catalog()
	require.NoError(t, err)

	var records []*model.FeatureRecord
	for _, f := range features {
		fam, _, _ := model.SplitFeatureID(f.id)
		v, err := catalog.ParseVersion(fam, f.introduced)
		require.NoError(t, err)
		rec := &model.FeatureRecord{ID: f.id, Name: f.id, Family: fam, Introduced: v}
		if f.deprecated != "" {
			d, err := catalog.ParseVersion(fam, f.deprecated)
			require.NoError(t, err)
			rec.Deprecated = &d
		}
		records = append(records, rec)
	}
	g, err := graph.Freeze(records, edges, graph.Options{
		Generation: "00000000-0000-4000-8000-000000000001",
		Catalog:    catalog,
		Strict:     true,
	})
	require.NoError(t, err)
	return g
}

func requires(source, target string) model.Edge {
	return model.Edge{Type: model.Requires, Source: source, Target: target}
}

var cppFeatures = []feature{
	{id: "cpp/lambdas", introduced: "C++11"},
	{id: "cpp/generic-lambdas", introduced: "C++14"},
	{id: "cpp/structured-bindings", introduced: "C++17"},
	{id: "cpp/concepts", introduced: "C++20"},
	{id: "cpp/modules", introduced: "C++20"},
	{id: "cpp/reflection", introduced: "C++26"},
	{id: "cpp/auto-ptr", introduced: "C++98", deprecated: "C++17"},
	{id: "cpp/register", introduced: "C++98", deprecated: "C++11"},
	{id: "c/vla", introduced: "C99"},
}

func TestResolve_CPP17(t *testing.T) {
	g := freeze(t, cppFeatures, requires("cpp/generic-lambdas", "cpp/lambdas"))

	res, err := New(g).Resolve(context.Background(), "cpp", "17")
	require.NoError(t, err)

	assert.Equal(t, "C++", res.Family)
	assert.Equal(t, "C++17", res.Version)
	assert.Equal(t, []string{"cpp/generic-lambdas", "cpp/lambdas", "cpp/structured-bindings"}, res.Features)
	assert.Empty(t, res.Warnings)
}

func TestResolve_VersionSpellings(t *testing.T) {
	g := freeze(t, cppFeatures)
	r := New(g)

	for _, spelling := range []string{"C++14", "14", "cpp14", "c++14"} {
		t.Run(spelling, func(t *testing.T) {
			res, err := r.Resolve(context.Background(), "C++", spelling)
			require.NoError(t, err)
			assert.Equal(t, "C++14", res.Version)
			assert.Equal(t, []string{"cpp/auto-ptr", "cpp/generic-lambdas", "cpp/lambdas"}, res.Features)
		})
	}

	_, err := r.Resolve(context.Background(), "cpp", "15")
	assert.ErrorIs(t, err, version.ErrUnknownVersion)
	_, err = r.Resolve(context.Background(), "rust", "2021")
	assert.ErrorIs(t, err, version.ErrUnknownFamily)
}

func TestResolve_ClosureWarnings(t *testing.T) {
	g := freeze(t, cppFeatures,
		requires("cpp/lambdas", "cpp/concepts"),
		requires("cpp/concepts", "cpp/modules"),
		requires("cpp/generic-lambdas", "cpp/register"),
		requires("cpp/lambdas", "c/vla"),
	)

	res, err := New(g).Resolve(context.Background(), "cpp", "C++14")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"c/vla", "cpp/auto-ptr", "cpp/concepts", "cpp/generic-lambdas", "cpp/lambdas", "cpp/modules", "cpp/register",
	}, res.Features)

	got := make(map[string]string)
	for _, w := range res.Warnings {
		assert.Equal(t, diag.KindVersionOrderViolation, w.Kind)
		assert.Equal(t, diag.SeverityWarning, w.Severity)
		got[w.FeatureID+" -> "+w.Target] = w.Related[0]
	}
	assert.Equal(t, map[string]string{
		"cpp/lambdas -> cpp/concepts":         diag.ReasonIntroducedLater,
		"cpp/concepts -> cpp/modules":         diag.ReasonIntroducedLater,
		"cpp/generic-lambdas -> cpp/register": diag.ReasonDeprecated,
		"cpp/lambdas -> c/vla":                diag.ReasonCrossFamily,
	}, got)
}

func TestResolve_Cycle(t *testing.T) {
	features := []feature{
		{id: "cpp/a", introduced: "C++11"},
		{id: "cpp/b", introduced: "C++11"},
		{id: "cpp/c", introduced: "C++20"},
	}
	g := freeze(t, features, requires("cpp/a", "cpp/b"), requires("cpp/b", "cpp/a"))

	_, err := New(g).Resolve(context.Background(), "cpp", "C++17")
	var cycleErr *diag.CyclicRequirementError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, []string{"cpp/a", "cpp/b"}, cycleErr.Cycle)
	assert.Equal(t, "C++", cycleErr.Family)

	t.Run("unreachable cycle does not fail", func(t *testing.T) {
		res, err := New(g).Resolve(context.Background(), "cpp", "C++98")
		require.NoError(t, err)
		assert.Empty(t, res.Features)
	})

	t.Run("cycle reached through requirements", func(t *testing.T) {
		g := freeze(t, features,
			requires("cpp/c", "cpp/a"),
			requires("cpp/a", "cpp/b"),
			requires("cpp/b", "cpp/a"),
		)
		_, err := New(g).Resolve(context.Background(), "cpp", "C++20")
		require.ErrorAs(t, err, &cycleErr)
		assert.Equal(t, []string{"cpp/a", "cpp/b"}, cycleErr.Cycle)
	})
}

func TestResolve_Monotonicity(t *testing.T) {
	features := []feature{
		{id: "cpp/a", introduced: "C++98"},
		{id: "cpp/b", introduced: "C++11"},
		{id: "cpp/c", introduced: "C++14"},
		{id: "cpp/d", introduced: "C++17"},
		{id: "cpp/e", introduced: "C++20"},
		{id: "cpp/f", introduced: "C++23"},
		{id: "cpp/g", introduced: "C++26"},
		{id: "cpp/h", introduced: "C++11", deprecated: "C++20"},
	}
	g := freeze(t, features, requires("cpp/c", "cpp/b"), requires("cpp/e", "cpp/g"))
	r := New(g)
	fam := g.Catalog().MustFamily("cpp")
	deprecations := map[string]version.Version{}
	for _, n := range g.Nodes() {
		if n.Deprecated != nil {
			deprecations[n.ID] = *n.Deprecated
		}
	}

	versions := fam.Versions()
	for i, v1 := range versions {
		for _, v2 := range versions[i:] {
			deprecatedBetween := false
			for _, d := range deprecations {
				if v1.Less(d) && d.AtMost(v2) {
					deprecatedBetween = true
				}
			}
			if deprecatedBetween {
				continue
			}
			t.Run(fmt.Sprintf("%s<=%s", v1.Name, v2.Name), func(t *testing.T) {
				low, err := r.ResolveVersion(context.Background(), v1)
				require.NoError(t, err)
				high, err := r.ResolveVersion(context.Background(), v2)
				require.NoError(t, err)
				assert.Subset(t, high.Features, low.Features)
			})
		}
	}
}

func TestResolve_ConcurrentQueries(t *testing.T) {
	g := freeze(t, cppFeatures, requires("cpp/generic-lambdas", "cpp/lambdas"))
	r := New(g)

	var wg sync.WaitGroup
	for _, v := range g.Catalog().MustFamily("cpp").Versions() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.ResolveVersion(context.Background(), v)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}
