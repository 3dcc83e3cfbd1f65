package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/refgraph/internal/diag"
	"github.com/specialistvlad/refgraph/internal/fsutil"
	"github.com/specialistvlad/refgraph/internal/graph"
	"github.com/specialistvlad/refgraph/internal/hclconfig"
	"github.com/specialistvlad/refgraph/internal/metrics"
	"github.com/specialistvlad/refgraph/internal/resolver"
	"github.com/specialistvlad/refgraph/internal/testutil"
)

var corpus = map[string]string{
	"cpp/lambdas.md": "# Lambdas (C++11)\n\nAnonymous function objects.\n\n" +
		"```cpp\nauto f = [] { return 1; };\n```\n",
	"cpp/generic-lambdas.md": "# Generic Lambdas (C++14)\n\nRequires [Lambdas](lambdas.md#lambdas).\n\n" +
		"```cpp14\nauto g = [](auto x) { return x; };\n```\n",
	"c/vla.md": "# Variable Length Arrays (C99)\n\n```c\nvoid f(int n) { int a[n]; }\n```\n",
}

func newApp(t *testing.T) (*App, *testutil.SafeBuffer) {
	t.Helper()
	a, out, _ := SetupAppTest(t, &Config{Workers: 2}, nil)
	return a, out
}

// extract builds files into a graph and returns the graph path.
func extract(t *testing.T, files map[string]string) string {
	t.Helper()
	in := testutil.WriteFiles(t, files)
	out := filepath.Join(t.TempDir(), "graph.json")
	a, _ := newApp(t)
	err := a.Extract(context.Background(), ExtractOptions{In: in, Out: out, Format: FormatText})
	if err != nil {
		require.ErrorIs(t, err, ErrFindings)
	}
	return out
}

func TestExtract_ThenQuery(t *testing.T) {
	in := testutil.WriteFiles(t, corpus)
	graphPath := filepath.Join(t.TempDir(), "out", "graph.json")

	a, out := newApp(t)
	require.NoError(t, a.Extract(context.Background(), ExtractOptions{In: in, Out: graphPath, Format: FormatText}))
	assert.Contains(t, out.String(), "summary: 0 error(s)")

	t.Run("resolve", func(t *testing.T) {
		tests := []struct {
			version string
			want    []string
		}{
			{version: "11", want: []string{"cpp/lambdas"}},
			{version: "C++14", want: []string{"cpp/generic-lambdas", "cpp/lambdas"}},
		}
		for _, tt := range tests {
			a, out := newApp(t)
			require.NoError(t, a.Resolve(context.Background(), ResolveOptions{
				Graph: graphPath, Family: "cpp", Version: tt.version, Format: FormatJSON,
			}))
			var features []string
			require.NoError(t, json.Unmarshal([]byte(out.String()), &features))
			assert.Equal(t, tt.want, features)
		}
	})

	t.Run("resolve detailed", func(t *testing.T) {
		a, out := newApp(t)
		require.NoError(t, a.Resolve(context.Background(), ResolveOptions{
			Graph: graphPath, Family: "cpp", Version: "14", Format: FormatJSON, Detailed: true,
		}))
		var res resolver.Result
		require.NoError(t, json.Unmarshal([]byte(out.String()), &res))
		assert.Equal(t, "C++", res.Family)
		assert.Equal(t, "C++14", res.Version)
		assert.Equal(t, []string{"cpp/generic-lambdas", "cpp/lambdas"}, res.Features)
	})

	t.Run("resolve yaml", func(t *testing.T) {
		a, out := newApp(t)
		require.NoError(t, a.Resolve(context.Background(), ResolveOptions{
			Graph: graphPath, Family: "c", Version: "C99", Format: FormatYAML,
		}))
		assert.Equal(t, "- c/variable-length-arrays\n", out.String())
	})

	t.Run("resolve text", func(t *testing.T) {
		a, out := newApp(t)
		require.NoError(t, a.Resolve(context.Background(), ResolveOptions{
			Graph: graphPath, Family: "c", Version: "C99", Format: FormatText,
		}))
		assert.Equal(t, "C99: 1 feature(s)\n  c/variable-length-arrays\n", out.String())
	})

	t.Run("validate", func(t *testing.T) {
		a, out := newApp(t)
		require.NoError(t, a.Validate(context.Background(), ValidateOptions{Graph: graphPath, Format: FormatJSON}))
		var doc reportDoc
		require.NoError(t, json.Unmarshal([]byte(out.String()), &doc))
		assert.Equal(t, 0, doc.Counts["error"])
		require.Len(t, doc.Diagnostics, 1)
		assert.Equal(t, diag.KindOrphanFeature, doc.Diagnostics[0].Kind)
		assert.Equal(t, "c/variable-length-arrays", doc.Diagnostics[0].FeatureID)
	})

	t.Run("validate yaml", func(t *testing.T) {
		a, out := newApp(t)
		require.NoError(t, a.Validate(context.Background(), ValidateOptions{Graph: graphPath, Format: FormatYAML}))
		assert.Contains(t, out.String(), "kind: OrphanFeatureWarning")
		assert.Contains(t, out.String(), "severity: warning")
	})
}

func TestExtract_Errors(t *testing.T) {
	t.Run("dangling reference is a finding", func(t *testing.T) {
		in := testutil.WriteFiles(t, map[string]string{
			"a.md": "# Foo (C++11)\n",
			"b.md": "# Bar (C++14)\n\nSee [Bar](a.md#nonexistent).\n",
		})
		graphPath := filepath.Join(t.TempDir(), "graph.json")
		a, out := newApp(t)
		err := a.Extract(context.Background(), ExtractOptions{In: in, Out: graphPath, Format: FormatText})
		assert.ErrorIs(t, err, ErrFindings)
		assert.Contains(t, out.String(), "a.md#nonexistent")
		assert.FileExists(t, graphPath, "the graph is written despite findings")
	})

	t.Run("no documents is fatal", func(t *testing.T) {
		a, _ := newApp(t)
		err := a.Extract(context.Background(), ExtractOptions{
			In: t.TempDir(), Out: filepath.Join(t.TempDir(), "g.json"), Format: FormatText,
		})
		assert.ErrorIs(t, err, ErrFatalInput)
		assert.ErrorIs(t, err, fsutil.ErrNoDocuments)
	})

	t.Run("bad format is fatal", func(t *testing.T) {
		a, _ := newApp(t)
		err := a.Extract(context.Background(), ExtractOptions{In: t.TempDir(), Out: "g.json", Format: "xml"})
		assert.ErrorIs(t, err, ErrFatalInput)
	})
}

func TestResolve_Errors(t *testing.T) {
	t.Run("cycle", func(t *testing.T) {
		graphPath := extract(t, map[string]string{
			"a.md": "# A (C++11)\n\nRequires [B](b.md).\n",
			"b.md": "# B (C++11)\n\nRequires [A](a.md).\n",
		})
		a, out := newApp(t)
		err := a.Resolve(context.Background(), ResolveOptions{Graph: graphPath, Family: "cpp", Version: "17", Format: FormatText})
		require.ErrorIs(t, err, ErrFindings)
		var cycle *diag.CyclicRequirementError
		require.True(t, errors.As(err, &cycle))
		assert.Equal(t, []string{"cpp/a", "cpp/b"}, cycle.Cycle)
		assert.Contains(t, out.String(), string(diag.KindCyclicRequirement))
	})

	graphPath := extract(t, corpus)
	tests := []struct {
		name string
		opts ResolveOptions
	}{
		{name: "unknown family", opts: ResolveOptions{Graph: graphPath, Family: "rust", Version: "2021"}},
		{name: "unknown version", opts: ResolveOptions{Graph: graphPath, Family: "cpp", Version: "C++99"}},
		{name: "missing graph", opts: ResolveOptions{Graph: filepath.Join(t.TempDir(), "none.json"), Family: "cpp", Version: "17"}},
		{name: "no graph", opts: ResolveOptions{Family: "cpp", Version: "17"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := newApp(t)
			tt.opts.Format = FormatJSON
			assert.ErrorIs(t, a.Resolve(context.Background(), tt.opts), ErrFatalInput)
		})
	}
}

func TestValidate_CorruptGraph(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"schemaVersion": 9}`), 0o644))
	a, _ := newApp(t)
	err := a.Validate(context.Background(), ValidateOptions{Graph: path, Format: FormatText})
	assert.ErrorIs(t, err, ErrFatalInput)
	assert.ErrorIs(t, err, graph.ErrUnsupportedSchema)
}

func TestCheckExamples(t *testing.T) {
	graphPath := extract(t, corpus)
	cacheDir := filepath.Join(t.TempDir(), "cache")
	metricsFile := filepath.Join(t.TempDir(), "refgraph.prom")

	run := func(t *testing.T) reportDoc {
		t.Helper()
		a, out := newApp(t)
		require.NoError(t, a.CheckExamples(context.Background(), CheckOptions{
			Graph:       graphPath,
			Backend:     "tree-sitter",
			Timeout:     5 * time.Second,
			CacheDir:    cacheDir,
			MetricsFile: metricsFile,
			Format:      FormatJSON,
		}))
		var doc reportDoc
		require.NoError(t, json.Unmarshal([]byte(out.String()), &doc))
		require.NotNil(t, doc.Examples)
		return doc
	}

	first := run(t)
	assert.Equal(t, 3, first.Examples.Passed)
	assert.Equal(t, 0, first.Examples.Cached)

	second := run(t)
	assert.Equal(t, 3, second.Examples.Passed)
	assert.Equal(t, 3, second.Examples.Cached)

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `refgraph_graph_features{family="C++"} 2`)
	assert.Contains(t, string(prom), `refgraph_cache_lookups_total{result="hit"} 3`)
}

func TestCheckExamples_Errors(t *testing.T) {
	broken := extract(t, map[string]string{
		"a.md": "# Foo (C++11)\n\n```cpp\nint a = 1;\nint b = ;\n```\n",
	})

	t.Run("syntax error is a finding", func(t *testing.T) {
		a, out := newApp(t)
		err := a.CheckExamples(context.Background(), CheckOptions{Graph: broken, Backend: "tree-sitter", Format: FormatText})
		assert.ErrorIs(t, err, ErrFindings)
		assert.Contains(t, out.String(), string(diag.KindSyntaxError))
		assert.Contains(t, out.String(), "a.md:5")
	})

	tests := []struct {
		name string
		opts CheckOptions
	}{
		{name: "unknown dialect filter", opts: CheckOptions{Graph: broken, Dialect: "rust"}},
		{name: "unknown backend", opts: CheckOptions{Graph: broken, Backend: "magic"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := newApp(t)
			tt.opts.Format = FormatText
			assert.ErrorIs(t, a.CheckExamples(context.Background(), tt.opts), ErrFatalInput)
		})
	}
}

func TestWatch_RebuildsGenerations(t *testing.T) {
	in := testutil.WriteFiles(t, corpus)
	graphPath := filepath.Join(t.TempDir(), "graph.json")
	a, _ := newApp(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- a.Watch(ctx, WatchOptions{In: in, Out: graphPath, Format: FormatText, Debounce: 50 * time.Millisecond})
	}()

	var first string
	require.Eventually(t, func() bool {
		g, err := graph.ReadFile(graphPath, a.Catalog())
		if err != nil {
			return false
		}
		first = g.Generation()
		return g.Len() == 3
	}, 10*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(in, "cpp", "concepts.md"), []byte("# Concepts (C++20)\n"), 0o644))
	require.Eventually(t, func() bool {
		g, err := graph.ReadFile(graphPath, a.Catalog())
		return err == nil && g.Has("cpp/concepts") && g.Generation() != first
	}, 10*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestHealthEndpoints(t *testing.T) {
	a, _ := newApp(t)
	m := metrics.New()
	m.SetGraphSize(map[string]int{"C": 4}, nil)
	state := &generationState{}
	srv := httptest.NewServer(a.healthMux(state, m))
	defer srv.Close()

	get := func(path string) (int, string) {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(body)
	}

	code, _ := get("/health")
	assert.Equal(t, http.StatusServiceUnavailable, code)

	state.set("8d3b7c3e-0a3e-4c55-9d0f-6f1f3c2b9a11")
	code, body := get("/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OK 8d3b7c3e-0a3e-4c55-9d0f-6f1f3c2b9a11\n", body)

	code, body = get("/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `refgraph_graph_features{family="C"} 4`)
}

func TestNewConfig(t *testing.T) {
	cfg, err := NewConfig(Config{LogFormat: "JSON"})
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)

	tests := []struct {
		cfg  Config
		want string
	}{
		{cfg: Config{LogFormat: "xml"}, want: "invalid log-format"},
		{cfg: Config{LogLevel: "trace"}, want: "invalid log-level"},
		{cfg: Config{Workers: -1}, want: "invalid workers"},
	}
	for _, tt := range tests {
		_, err := NewConfig(tt.cfg)
		assert.ErrorIs(t, err, ErrFatalInput)
		assert.ErrorContains(t, err, tt.want)
	}
}

func TestNewApp_BadConfigFile(t *testing.T) {
	_, err := NewApp(&testutil.SafeBuffer{}, &testutil.SafeBuffer{},
		&Config{ConfigPath: filepath.Join(t.TempDir(), "missing.hcl"), LogLevel: "info", LogFormat: "text"},
		hclconfig.NewLoader())
	assert.ErrorIs(t, err, ErrFatalInput)
}

func TestResolveFormat(t *testing.T) {
	var buf strings.Builder
	assert.Equal(t, "json", resolveFormat("auto", &buf))
	assert.Equal(t, "text", resolveFormat("text", &buf))
}
