// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package graph maintains the per-scope graph.json: a typed node/edge
// relationship graph over memory IDs. Like index, graph is a derived
// cache; cross-scope edges are never created, by construction — every
// operation here is scoped to a single graph.
package graph

import (
	"encoding/json"
	"os"
	"path/filepath"

	memoerrors "github.com/kraklabs/memo/internal/errors"
)

// Node mirrors a memory's existence within a scope.
type Node struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Edge is a directed relationship between two nodes in the same scope.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
}

// Graph is the full node/edge set for one scope.
type Graph struct {
	Version int    `json:"version"`
	Nodes   []Node `json:"nodes"`
	Edges   []Edge `json:"edges"`
}

const currentVersion = 1
const fileName = "graph.json"

// Load reads <scopeRoot>/graph.json. A missing file returns an empty
// graph, not an error.
func Load(scopeRoot string) (Graph, error) {
	path := filepath.Join(scopeRoot, fileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Graph{Version: currentVersion}, nil
		}
		return Graph{}, memoerrors.IoError("cannot read graph", err)
	}

	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return Graph{}, memoerrors.Invalid("malformed graph.json: " + err.Error())
	}
	if g.Version == 0 {
		g.Version = currentVersion
	}
	return g, nil
}

// Save atomically writes g to <scopeRoot>/graph.json.
//
// A save that would write an empty graph while memory files still exist
// in the scope is rejected as Invalid — the guard named in spec §8 against
// accidental wipes (e.g. from an aborted rebuild). filesExist is supplied
// by the caller, which already knows the scope's file population.
func Save(scopeRoot string, g Graph, filesExist bool) error {
	if len(g.Nodes) == 0 && len(g.Edges) == 0 && filesExist {
		return memoerrors.Invalid("refusing to write an empty graph over a scope that still has memory files")
	}
	if g.Version == 0 {
		g.Version = currentVersion
	}

	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return memoerrors.IoError("cannot encode graph", err)
	}

	if err := os.MkdirAll(scopeRoot, 0o755); err != nil {
		return memoerrors.IoError("cannot create scope directory", err)
	}

	path := filepath.Join(scopeRoot, fileName)
	tmp, err := os.CreateTemp(scopeRoot, ".graph-tmp-*")
	if err != nil {
		return memoerrors.IoError("cannot create temp graph file", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return memoerrors.IoError("cannot write temp graph file", err)
	}
	if err := tmp.Close(); err != nil {
		return memoerrors.IoError("cannot close temp graph file", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return memoerrors.IoError("cannot move graph into place", err)
	}
	return nil
}

// AddNode returns a new Graph with node added, or with its Type updated if
// a node with the same ID already exists.
func AddNode(g Graph, node Node) Graph {
	nodes := make([]Node, 0, len(g.Nodes)+1)
	replaced := false
	for _, n := range g.Nodes {
		if n.ID == node.ID {
			nodes = append(nodes, node)
			replaced = true
			continue
		}
		nodes = append(nodes, n)
	}
	if !replaced {
		nodes = append(nodes, node)
	}
	return Graph{Version: g.Version, Nodes: nodes, Edges: g.Edges}
}

// RemoveNode returns a new Graph with node id removed along with every
// edge incident to it (cascade).
func RemoveNode(g Graph, id string) Graph {
	nodes := make([]Node, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID != id {
			nodes = append(nodes, n)
		}
	}
	edges := make([]Edge, 0, len(g.Edges))
	for _, e := range g.Edges {
		if e.Source != id && e.Target != id {
			edges = append(edges, e)
		}
	}
	return Graph{Version: g.Version, Nodes: nodes, Edges: edges}
}

// AddEdge returns a new Graph with the edge added. Duplicate edges
// (same source, target, and label) are ignored — link is idempotent.
func AddEdge(g Graph, edge Edge) Graph {
	for _, e := range g.Edges {
		if e.Source == edge.Source && e.Target == edge.Target && e.Label == edge.Label {
			return g
		}
	}
	edges := make([]Edge, len(g.Edges), len(g.Edges)+1)
	copy(edges, g.Edges)
	edges = append(edges, edge)
	return Graph{Version: g.Version, Nodes: g.Nodes, Edges: edges}
}

// RemoveEdge returns a new Graph with the first matching edge removed.
// Unlink is idempotent: removing an absent edge is a no-op.
func RemoveEdge(g Graph, source, target, label string) Graph {
	edges := make([]Edge, 0, len(g.Edges))
	removed := false
	for _, e := range g.Edges {
		if !removed && e.Source == source && e.Target == target && e.Label == label {
			removed = true
			continue
		}
		edges = append(edges, e)
	}
	return Graph{Version: g.Version, Nodes: g.Nodes, Edges: edges}
}

// RenameNode returns a new Graph with node oldID's ID changed to newID,
// along with every edge endpoint referencing it. Used by rename and
// promote, which recompute a memory's ID in place.
func RenameNode(g Graph, oldID, newID string) Graph {
	nodes := make([]Node, len(g.Nodes))
	for i, n := range g.Nodes {
		if n.ID == oldID {
			n.ID = newID
		}
		nodes[i] = n
	}
	edges := make([]Edge, len(g.Edges))
	for i, e := range g.Edges {
		if e.Source == oldID {
			e.Source = newID
		}
		if e.Target == oldID {
			e.Target = newID
		}
		edges[i] = e
	}
	return Graph{Version: g.Version, Nodes: nodes, Edges: edges}
}

// HasNode reports whether id exists as a node in g.
func HasNode(g Graph, id string) bool {
	for _, n := range g.Nodes {
		if n.ID == id {
			return true
		}
	}
	return false
}

// Neighbours returns the distinct set of node IDs reachable from id by a
// single outbound or inbound edge.
func Neighbours(g Graph, id string) []string {
	seen := map[string]bool{}
	var out []string
	for _, e := range g.Edges {
		var other string
		switch id {
		case e.Source:
			other = e.Target
		case e.Target:
			other = e.Source
		default:
			continue
		}
		if !seen[other] {
			seen[other] = true
			out = append(out, other)
		}
	}
	return out
}

// Incident returns every edge with id as its source or target.
func Incident(g Graph, id string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.Source == id || e.Target == id {
			out = append(out, e)
		}
	}
	return out
}

// BFS walks g breadth-first from "from" up to depth hops (undirected, via
// Neighbours), returning the visited IDs in discovery order excluding
// "from" itself.
func BFS(g Graph, from string, depth int) []string {
	if depth <= 0 {
		return nil
	}
	visited := map[string]bool{from: true}
	var order []string
	frontier := []string{from}

	for d := 0; d < depth && len(frontier) > 0; d++ {
		var next []string
		for _, id := range frontier {
			for _, n := range Neighbours(g, id) {
				if !visited[n] {
					visited[n] = true
					order = append(order, n)
					next = append(next, n)
				}
			}
		}
		frontier = next
	}
	return order
}

// Orphans returns every node with no incident edges. This is
// informational, not an error.
func Orphans(g Graph) []Node {
	hasEdge := map[string]bool{}
	for _, e := range g.Edges {
		hasEdge[e.Source] = true
		hasEdge[e.Target] = true
	}
	var out []Node
	for _, n := range g.Nodes {
		if !hasEdge[n.ID] {
			out = append(out, n)
		}
	}
	return out
}
