package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Observe(t *testing.T) {
	m := New()
	m.ObserveCheck("cpp17", "tree-sitter", OutcomePass, 3*time.Millisecond)
	m.ObserveCheck("cpp17", "tree-sitter", OutcomePass, 5*time.Millisecond)
	m.ObserveCheck("cpp17", "tree-sitter", OutcomeFail, time.Millisecond)
	m.ObserveCheck("c99", "toolchain:gcc", OutcomeSkipped, 0)
	m.CacheLookup(true)
	m.CacheLookup(false)
	m.CacheLookup(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.examplesTotal.WithLabelValues("cpp17", OutcomePass)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.examplesTotal.WithLabelValues("c99", OutcomeSkipped)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.checkDuration), "skipped checks have no latency")
}

func TestMetrics_WriteFile(t *testing.T) {
	m := New()
	m.SetGraphSize(map[string]int{"C++": 12, "C": 3}, map[string]int{"REQUIRES": 4})
	m.SetDiagnostics(map[string]int{"error": 1, "warning": 2})
	m.ObserveCheck("cpp20", "tree-sitter", OutcomeTimeout, time.Second)

	path := filepath.Join(t.TempDir(), "refgraph.prom")
	require.NoError(t, m.WriteFile(path, time.Unix(1700000000, 0)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `refgraph_graph_features{family="C++"} 12`)
	assert.Contains(t, text, `refgraph_graph_edges{type="REQUIRES"} 4`)
	assert.Contains(t, text, `refgraph_diagnostics{severity="warning"} 2`)
	assert.Contains(t, text, `refgraph_examples_checked_total{dialect="cpp20",outcome="timeout"} 1`)
	assert.Contains(t, text, "refgraph_last_run_timestamp_seconds 1.7e+09")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveCheck("c99", "tree-sitter", OutcomePass, time.Millisecond)
	m.CacheLookup(true)
	m.SetGraphSize(map[string]int{"C": 1}, nil)
	m.SetDiagnostics(map[string]int{"error": 1})
	assert.NoError(t, m.WriteFile(filepath.Join(t.TempDir(), "x.prom"), time.Now()))
}
