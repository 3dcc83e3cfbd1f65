package dag

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildGraph(t *testing.T, nodes []string, edges [][2]string) *Graph {
	t.Helper()
	g := New()
	for _, n := range nodes {
		g.AddNode(n)
	}
	for _, e := range edges {
		require.NoError(t, g.AddEdge(e[0], e[1]))
	}
	return g
}

func TestNew(t *testing.T) {
	g := New()
	require.NotNil(t, g)
	assert.NotNil(t, g.nodes)
	assert.Empty(t, g.nodes)
}

func TestAddNode(t *testing.T) {
	g := New()

	g.AddNode("a")
	assert.Len(t, g.nodes, 1)
	nodeA, ok := g.nodes["a"]
	require.True(t, ok)
	assert.Equal(t, "a", nodeA.id)
	assert.NotNil(t, nodeA.succs)

	g.AddNode("a") // Test idempotency
	assert.Len(t, g.nodes, 1)

	g.AddNode("b")
	assert.Equal(t, []string{"a", "b"}, g.sortedIDs())
}

func TestAddEdge(t *testing.T) {
	t.Run("success case", func(t *testing.T) {
		g := buildGraph(t, []string{"a", "b", "c"}, nil)

		require.NoError(t, g.AddEdge("a", "c"))
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("a", "b")) // duplicate is a no-op

		assert.Equal(t, []string{"b", "c"}, sortedKeys(g.nodes["a"].succs))
		assert.Empty(t, g.nodes["b"].succs)
	})

	t.Run("error cases", func(t *testing.T) {
		g := buildGraph(t, []string{"a", "b"}, nil)

		err := g.AddEdge("dne", "a")
		assert.ErrorContains(t, err, "source node not found")

		err = g.AddEdge("a", "dne")
		assert.ErrorContains(t, err, "destination node not found")

		err = g.AddEdge("a", "a")
		assert.ErrorContains(t, err, "self-referential edge")

	})
}

func TestStronglyConnected(t *testing.T) {
	// Two components joined by the c -> d bridge.
	g := buildGraph(t, []string{"a", "b", "c", "d", "e", "f"}, [][2]string{
		{"a", "b"}, {"b", "c"}, {"c", "a"},
		{"c", "d"},
		{"e", "f"}, {"f", "e"},
	})

	assert.Equal(t, [][]string{{"a", "b", "c"}, {"e", "f"}}, g.StronglyConnected())
	assert.Empty(t, buildGraph(t, []string{"a", "b"}, [][2]string{{"a", "b"}}).StronglyConnected())
}

func TestCycleIn(t *testing.T) {
	// c -> a closes the loop; b -> d leaves the component and must be ignored.
	g := buildGraph(t, []string{"a", "b", "c", "d"}, [][2]string{
		{"a", "b"}, {"b", "d"}, {"b", "c"}, {"c", "a"}, {"c", "b"},
	})
	components := g.StronglyConnected()
	require.Len(t, components, 1)
	assert.Equal(t, []string{"a", "b", "c"}, g.CycleIn(components[0]))
	assert.Equal(t, []string{"x"}, g.CycleIn([]string{"x"}))
}

func TestReachable(t *testing.T) {
	g := buildGraph(t, []string{"a", "b", "c", "d"}, [][2]string{{"a", "b"}, {"b", "c"}})

	assert.Equal(t, map[string]bool{"a": true, "b": true, "c": true}, g.Reachable("a"))
	assert.Equal(t, map[string]bool{"d": true}, g.Reachable("d", "missing"))
}

func TestGraph_ConcurrentReads(t *testing.T) {
	g := buildGraph(t, []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, []string{"a", "b", "c"}, g.CycleIn([]string{"a", "b", "c"}))
			assert.Len(t, g.Reachable("a"), 3)
			assert.Len(t, g.StronglyConnected(), 1)
		}()
	}
	wg.Wait()
}
