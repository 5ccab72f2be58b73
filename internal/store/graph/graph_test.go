// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package graph

import (
	"testing"

	memoerrors "github.com/kraklabs/memo/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddNodeInsertsAndUpdates(t *testing.T) {
	g := Graph{}
	g = AddNode(g, Node{ID: "a", Type: "learning"})
	require.Len(t, g.Nodes, 1)

	g = AddNode(g, Node{ID: "a", Type: "gotcha"})
	require.Len(t, g.Nodes, 1)
	assert.Equal(t, "gotcha", g.Nodes[0].Type)
}

func TestAddNodeIsImmutable(t *testing.T) {
	original := Graph{Nodes: []Node{{ID: "a"}}}
	_ = AddNode(original, Node{ID: "b"})
	assert.Len(t, original.Nodes, 1)
}

func TestRemoveNodeCascadesEdges(t *testing.T) {
	g := Graph{
		Nodes: []Node{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		Edges: []Edge{{Source: "a", Target: "b"}, {Source: "b", Target: "c"}},
	}
	g = RemoveNode(g, "b")

	assert.Len(t, g.Nodes, 2)
	assert.Empty(t, g.Edges, "removing b must cascade both of its incident edges")
}

func TestAddEdgeIsIdempotent(t *testing.T) {
	g := Graph{}
	g = AddEdge(g, Edge{Source: "a", Target: "b"})
	g = AddEdge(g, Edge{Source: "a", Target: "b"})
	assert.Len(t, g.Edges, 1)
}

func TestRemoveEdgeIsIdempotent(t *testing.T) {
	g := Graph{Edges: []Edge{{Source: "a", Target: "b"}}}
	g = RemoveEdge(g, "a", "b", "")
	assert.Empty(t, g.Edges)

	g = RemoveEdge(g, "a", "b", "")
	assert.Empty(t, g.Edges, "removing an absent edge is a no-op")
}

func TestRenameNodeUpdatesNodeAndEdges(t *testing.T) {
	g := Graph{
		Nodes: []Node{{ID: "a", Type: "learning"}, {ID: "b"}},
		Edges: []Edge{{Source: "a", Target: "b"}, {Source: "b", Target: "a"}},
	}
	g = RenameNode(g, "a", "a2")

	assert.True(t, HasNode(g, "a2"))
	assert.False(t, HasNode(g, "a"))
	for _, e := range g.Edges {
		assert.NotEqual(t, "a", e.Source)
		assert.NotEqual(t, "a", e.Target)
	}
}

func TestNeighboursIsUndirected(t *testing.T) {
	g := Graph{Edges: []Edge{{Source: "a", Target: "b"}, {Source: "c", Target: "a"}}}
	neighbours := Neighbours(g, "a")
	assert.ElementsMatch(t, []string{"b", "c"}, neighbours)
}

func TestIncident(t *testing.T) {
	g := Graph{Edges: []Edge{{Source: "a", Target: "b"}, {Source: "c", Target: "d"}}}
	assert.Len(t, Incident(g, "a"), 1)
	assert.Len(t, Incident(g, "d"), 1)
	assert.Empty(t, Incident(g, "z"))
}

func TestBFS(t *testing.T) {
	g := Graph{Edges: []Edge{
		{Source: "a", Target: "b"},
		{Source: "b", Target: "c"},
		{Source: "c", Target: "d"},
	}}

	assert.ElementsMatch(t, []string{"b"}, BFS(g, "a", 1))
	assert.ElementsMatch(t, []string{"b", "c"}, BFS(g, "a", 2))
	assert.ElementsMatch(t, []string{"b", "c", "d"}, BFS(g, "a", 3))
}

func TestOrphans(t *testing.T) {
	g := Graph{
		Nodes: []Node{{ID: "a"}, {ID: "b"}, {ID: "lonely"}},
		Edges: []Edge{{Source: "a", Target: "b"}},
	}
	orphans := Orphans(g)
	require.Len(t, orphans, 1)
	assert.Equal(t, "lonely", orphans[0].ID)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	g := Graph{Nodes: []Node{{ID: "a", Type: "learning"}}, Edges: []Edge{{Source: "a", Target: "a"}}}
	require.NoError(t, Save(dir, g, true))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Len(t, loaded.Nodes, 1)
	assert.Len(t, loaded.Edges, 1)
}

func TestSaveRejectsEmptyGraphOverExistingFiles(t *testing.T) {
	dir := t.TempDir()
	err := Save(dir, Graph{}, true)
	require.Error(t, err)
	assert.True(t, memoerrors.Is(err, memoerrors.KindInvalid))
}

func TestSaveAllowsEmptyGraphWhenNoFilesExist(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, Save(dir, Graph{}, false))
}

func TestLoadMissingReturnsEmptyGraph(t *testing.T) {
	g, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, currentVersion, g.Version)
	assert.Empty(t, g.Nodes)
}
