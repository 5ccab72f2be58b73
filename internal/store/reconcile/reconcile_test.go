// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package reconcile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kraklabs/memo/internal/store/docfile"
	"github.com/kraklabs/memo/internal/store/embed"
	"github.com/kraklabs/memo/internal/store/graph"
	"github.com/kraklabs/memo/internal/store/index"
	"github.com/kraklabs/memo/internal/store/mutate"
	"github.com/kraklabs/memo/internal/store/scope"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 1, 17, 12, 0, 0, 0, time.UTC)

func TestRebuildRecreatesIndexFromFiles(t *testing.T) {
	dir := t.TempDir()
	res, err := mutate.Write(dir, false, mutate.WriteInput{Scope: scope.Project, Type: docfile.Learning, Title: "a learning", Body: "body"}, fixedNow, nil)
	require.NoError(t, err)

	require.NoError(t, index.Save(dir, index.Index{}))

	report, err := Rebuild(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)

	idx, err := index.Load(dir)
	require.NoError(t, err)
	_, ok := index.FindByID(idx, res.ID)
	assert.True(t, ok)
}

func TestRebuildSkipsUnparsableFilesWithoutFailing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, writeRaw(filepath.Join(dir, "permanent", "broken.md"), "not frontmatter at all"))

	report, err := Rebuild(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Scanned)
}

func TestReindexCreatesGhostFreeGraph(t *testing.T) {
	dir := t.TempDir()
	res, err := mutate.Write(dir, false, mutate.WriteInput{Scope: scope.Project, Type: docfile.Learning, Title: "kept"}, fixedNow, nil)
	require.NoError(t, err)

	g, err := graph.Load(dir)
	require.NoError(t, err)
	g = graph.AddNode(g, graph.Node{ID: "learning-ghost", Type: "learning"})
	require.NoError(t, graph.Save(dir, g, true))

	report, err := Reindex(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Removed)

	g, err = graph.Load(dir)
	require.NoError(t, err)
	assert.True(t, graph.HasNode(g, res.ID))
	assert.False(t, graph.HasNode(g, "learning-ghost"))
}

func TestReindexReattachesStaleNodeType(t *testing.T) {
	dir := t.TempDir()
	res, err := mutate.Write(dir, false, mutate.WriteInput{Scope: scope.Project, Type: docfile.Learning, Title: "retyped"}, fixedNow, nil)
	require.NoError(t, err)

	g, err := graph.Load(dir)
	require.NoError(t, err)
	g = graph.AddNode(g, graph.Node{ID: res.ID, Type: "gotcha"})
	require.NoError(t, graph.Save(dir, g, true))

	report, err := Reindex(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Reattached)

	g, err = graph.Load(dir)
	require.NoError(t, err)
	for _, n := range g.Nodes {
		if n.ID == res.ID {
			assert.Equal(t, "learning", n.Type)
		}
	}
}

func TestSyncRemovesDanglingEdges(t *testing.T) {
	dir := t.TempDir()
	res, err := mutate.Write(dir, false, mutate.WriteInput{Scope: scope.Project, Type: docfile.Learning, Title: "lonely"}, fixedNow, nil)
	require.NoError(t, err)

	g, err := graph.Load(dir)
	require.NoError(t, err)
	g = graph.AddEdge(g, graph.Edge{Source: res.ID, Target: "learning-nonexistent"})
	require.NoError(t, graph.Save(dir, g, true))

	report, err := Sync(dir, nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, report.Removed, 1)

	g, err = graph.Load(dir)
	require.NoError(t, err)
	assert.Empty(t, graph.Incident(g, res.ID))
}

func TestSyncIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	_, err := mutate.Write(dir, false, mutate.WriteInput{Scope: scope.Project, Type: docfile.Learning, Title: "stable"}, fixedNow, nil)
	require.NoError(t, err)

	_, err = Sync(dir, nil)
	require.NoError(t, err)
	report, err := Sync(dir, nil)
	require.NoError(t, err)
	assert.Zero(t, report.Removed)
	assert.Zero(t, report.Reattached)
}

func TestRefreshRecomputesWordCount(t *testing.T) {
	dir := t.TempDir()
	res, err := mutate.Write(dir, false, mutate.WriteInput{Scope: scope.Project, Type: docfile.Learning, Title: "counted", Body: "one two three four"}, fixedNow, nil)
	require.NoError(t, err)

	report, err := Refresh(dir, RefreshOptions{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)

	doc, err := docfile.Read(filepath.Join(dir, "permanent", res.ID+".md"))
	require.NoError(t, err)
	assert.Equal(t, 4, doc.Frontmatter.WordCount)
}

func TestRefreshValidatesGoFencesInArtifacts(t *testing.T) {
	dir := t.TempDir()
	res, err := mutate.Write(dir, false, mutate.WriteInput{
		Scope: scope.Project, Type: docfile.Artifact, Title: "snippet",
		Body: "```go\nfunc broken( {\n```\n",
	}, fixedNow, nil)
	require.NoError(t, err)

	_, err = Refresh(dir, RefreshOptions{}, nil)
	require.NoError(t, err)

	doc, err := docfile.Read(filepath.Join(dir, "permanent", res.ID+".md"))
	require.NoError(t, err)
	require.NotNil(t, doc.Frontmatter.CodeValid)
	assert.False(t, *doc.Frontmatter.CodeValid)
}

func TestRefreshRegeneratesEmbeddingsWhenRequested(t *testing.T) {
	dir := t.TempDir()
	res, err := mutate.Write(dir, false, mutate.WriteInput{Scope: scope.Project, Type: docfile.Learning, Title: "embed target", Body: "content"}, fixedNow, nil)
	require.NoError(t, err)

	report, err := Refresh(dir, RefreshOptions{Embeddings: true, Provider: embed.NewMockProvider(8)}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Embeddings.Created)

	cache, err := embed.Load(dir)
	require.NoError(t, err)
	assert.Contains(t, cache.Memories, res.ID)
}

func TestRefreshSkipsBreadcrumbsForEmbedding(t *testing.T) {
	dir := t.TempDir()
	res, err := mutate.Write(dir, false, mutate.WriteInput{Scope: scope.Project, Type: docfile.Breadcrumb, Title: "fleeting"}, fixedNow, nil)
	require.NoError(t, err)

	_, err = Refresh(dir, RefreshOptions{Embeddings: true, Provider: embed.NewMockProvider(8)}, nil)
	require.NoError(t, err)

	cache, err := embed.Load(dir)
	require.NoError(t, err)
	assert.NotContains(t, cache.Memories, res.ID)
}

func TestRepairRunsSync(t *testing.T) {
	dir := t.TempDir()
	_, err := mutate.Write(dir, false, mutate.WriteInput{Scope: scope.Project, Type: docfile.Learning, Title: "repairable"}, fixedNow, nil)
	require.NoError(t, err)

	report, err := Repair(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)
}

func TestValidateCleanScopeReturnsNoIssues(t *testing.T) {
	dir := t.TempDir()
	_, err := mutate.Write(dir, false, mutate.WriteInput{Scope: scope.Project, Type: docfile.Learning, Title: "clean"}, fixedNow, nil)
	require.NoError(t, err)

	issues, err := Validate(dir, nil)
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestValidateDetectsGhostNodes(t *testing.T) {
	dir := t.TempDir()
	_, err := mutate.Write(dir, false, mutate.WriteInput{Scope: scope.Project, Type: docfile.Learning, Title: "real"}, fixedNow, nil)
	require.NoError(t, err)

	g, err := graph.Load(dir)
	require.NoError(t, err)
	g = graph.AddNode(g, graph.Node{ID: "learning-ghost", Type: "learning"})
	require.NoError(t, graph.Save(dir, g, true))

	issues, err := Validate(dir, nil)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "ghost_node", issues[0].Kind)
	assert.Equal(t, "learning-ghost", issues[0].ID)
}

func TestValidateDetectsDanglingEdges(t *testing.T) {
	dir := t.TempDir()
	res, err := mutate.Write(dir, false, mutate.WriteInput{Scope: scope.Project, Type: docfile.Learning, Title: "anchor"}, fixedNow, nil)
	require.NoError(t, err)

	g, err := graph.Load(dir)
	require.NoError(t, err)
	g = graph.AddEdge(g, graph.Edge{Source: res.ID, Target: "learning-nonexistent"})
	require.NoError(t, graph.Save(dir, g, true))

	issues, err := Validate(dir, nil)
	require.NoError(t, err)
	var kinds []string
	for _, issue := range issues {
		kinds = append(kinds, issue.Kind)
	}
	assert.Contains(t, kinds, "dangling_edge")
}

func TestValidateDetectsUntrackedFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, writeRaw(filepath.Join(dir, "permanent", "stray.md"), "---\nid: stray\ntype: learning\n---\nbody"))

	issues, err := Validate(dir, nil)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "untracked_file", issues[0].Kind)
}

func TestValidateDetectsMissingNodes(t *testing.T) {
	dir := t.TempDir()
	res, err := mutate.Write(dir, false, mutate.WriteInput{Scope: scope.Project, Type: docfile.Learning, Title: "unwired"}, fixedNow, nil)
	require.NoError(t, err)

	g, err := graph.Load(dir)
	require.NoError(t, err)
	g = graph.RemoveNode(g, res.ID)
	require.NoError(t, graph.Save(dir, g, true))

	issues, err := Validate(dir, nil)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "missing_node", issues[0].Kind)
	assert.Equal(t, res.ID, issues[0].ID)
}

func TestRepairStillReturnsSyncReportWhenUnresolvedIssuesLogged(t *testing.T) {
	dir := t.TempDir()
	_, err := mutate.Write(dir, false, mutate.WriteInput{Scope: scope.Project, Type: docfile.Learning, Title: "repairable"}, fixedNow, nil)
	require.NoError(t, err)

	g, err := graph.Load(dir)
	require.NoError(t, err)
	g = graph.AddNode(g, graph.Node{ID: "learning-ghost", Type: "learning"})
	require.NoError(t, graph.Save(dir, g, true))

	report, err := Repair(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)
}

func writeRaw(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
