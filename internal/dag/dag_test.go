package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddNodeIdempotent(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("a")
	g.AddNode("a")
	assert.Equal(t, 1, g.Len())
}

func TestAddEdgeAndQueries(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("a")
	g.AddNode("b")
	g.AddNode("c")
	require.NoError(t, g.AddEdge("a", "c"))
	require.NoError(t, g.AddEdge("b", "c"))

	after, err := g.After("c")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, after)

	unlocks, err := g.Unlocks("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, unlocks)

	none, err := g.After("a")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAddEdgeUnknownNodes(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("a")
	assert.Error(t, g.AddEdge("a", "missing"))
	assert.Error(t, g.AddEdge("missing", "a"))
	assert.Error(t, g.AddEdge("a", "a"))
}

func TestQueriesUnknownNode(t *testing.T) {
	t.Parallel()

	g := New()
	_, err := g.After("ghost")
	assert.Error(t, err)
	_, err = g.Unlocks("ghost")
	assert.Error(t, err)
}

func TestDetectCyclesClean(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("a")
	g.AddNode("b")
	g.AddNode("c")
	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("b", "c"))
	require.NoError(t, g.AddEdge("a", "c"))

	assert.NoError(t, g.DetectCycles())
}

func TestDetectCyclesFindsLoop(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("a")
	g.AddNode("b")
	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("b", "a"))

	err := g.DetectCycles()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle detected")
}
