// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package mutate

import (
	"testing"
	"time"

	"github.com/kraklabs/memo/internal/store/docfile"
	"github.com/kraklabs/memo/internal/store/graph"
	"github.com/kraklabs/memo/internal/store/index"
	"github.com/kraklabs/memo/internal/store/scope"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkDeleteReportsPartialFailure(t *testing.T) {
	dir := t.TempDir()
	a := writeOne(t, dir, WriteInput{Scope: scope.Project, Type: docfile.Learning, Title: "a"})

	res, err := BulkDelete(dir, []string{a.ID, "learning-missing"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "learning-missing", res.Errors[0].ID)

	_, err = Read(dir, a.ID)
	assert.Error(t, err)
}

func TestBulkTagAppliesToEveryOp(t *testing.T) {
	dir := t.TempDir()
	a := writeOne(t, dir, WriteInput{Scope: scope.Project, Type: docfile.Learning, Title: "a"})
	b := writeOne(t, dir, WriteInput{Scope: scope.Project, Type: docfile.Learning, Title: "b"})

	res, err := BulkTag(dir, []TagOp{{ID: a.ID, Tag: "x"}, {ID: b.ID, Tag: "x"}}, fixedNow.Add(time.Minute), false)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed)

	docA, err := Read(dir, a.ID)
	require.NoError(t, err)
	assert.Contains(t, docA.Frontmatter.Tags, "x")
}

func TestBulkLinkSkipsMissingEndpointsButContinues(t *testing.T) {
	dir := t.TempDir()
	a := writeOne(t, dir, WriteInput{Scope: scope.Project, Type: docfile.Learning, Title: "a"})
	b := writeOne(t, dir, WriteInput{Scope: scope.Project, Type: docfile.Learning, Title: "b"})

	res, err := BulkLink(dir, []LinkOp{
		{Source: a.ID, Target: b.ID},
		{Source: a.ID, Target: "learning-nope"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 1, res.Skipped)

	g, err := graph.Load(dir)
	require.NoError(t, err)
	assert.Len(t, graph.Incident(g, a.ID), 1)
}

func TestBulkUnlinkIsAlwaysIdempotent(t *testing.T) {
	dir := t.TempDir()
	a := writeOne(t, dir, WriteInput{Scope: scope.Project, Type: docfile.Learning, Title: "a"})
	b := writeOne(t, dir, WriteInput{Scope: scope.Project, Type: docfile.Learning, Title: "b"})

	res, err := BulkUnlink(dir, []LinkOp{{Source: a.ID, Target: b.ID}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	assert.Empty(t, res.Errors)
}

func TestBulkPromoteRetypesEveryID(t *testing.T) {
	dir := t.TempDir()
	a := writeOne(t, dir, WriteInput{Scope: scope.Project, Type: docfile.Breadcrumb, Title: "thought one"})
	b := writeOne(t, dir, WriteInput{Scope: scope.Project, Type: docfile.Breadcrumb, Title: "thought two"})

	res, err := BulkPromote(dir, []string{a.ID, b.ID}, docfile.Learning, fixedNow.Add(time.Hour), false)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed)

	idx, err := index.Load(dir)
	require.NoError(t, err)
	for _, e := range idx.Memories {
		assert.Equal(t, "learning", e.Type)
	}
}

func TestBulkMoveIsTwoPhaseAndReportsMoved(t *testing.T) {
	sourceDir := t.TempDir()
	targetDir := t.TempDir()
	a := writeOne(t, sourceDir, WriteInput{Scope: scope.Project, Type: docfile.Learning, Title: "a"})
	b := writeOne(t, sourceDir, WriteInput{Scope: scope.Project, Type: docfile.Learning, Title: "b"})

	res, err := BulkMove(sourceDir, targetDir, false, []string{a.ID, b.ID, "learning-missing"}, fixedNow.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 1, res.Skipped)

	srcIdx, err := index.Load(sourceDir)
	require.NoError(t, err)
	assert.Empty(t, srcIdx.Memories)

	targetIdx, err := index.Load(targetDir)
	require.NoError(t, err)
	assert.Len(t, targetIdx.Memories, 2)
}
