// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package embed

import (
	"context"
	"strings"
	"testing"

	memoerrors "github.com/kraklabs/memo/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingReturnsEmptyCache(t *testing.T) {
	c, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, currentVersion, c.Version)
	assert.Empty(t, c.Memories)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c := Cache{Version: 1, Memories: map[string]Entry{
		"learning-a": {Vector: []float32{0.1, 0.2}, ContentHash: "abc"},
	}}
	require.NoError(t, Save(dir, c))

	loaded, err := Load(dir)
	require.NoError(t, err)
	entry, ok := loaded.Memories["learning-a"]
	require.True(t, ok)
	assert.Equal(t, "abc", entry.ContentHash)
}

func TestTruncateLeavesShortContentUntouched(t *testing.T) {
	out, truncated := Truncate("short content")
	assert.Equal(t, "short content", out)
	assert.False(t, truncated)
}

func TestTruncateCutsAtWordBoundary(t *testing.T) {
	long := strings.Repeat("word ", 2000)
	out, truncated := Truncate(long)
	assert.True(t, truncated)
	assert.LessOrEqual(t, len(out), MaxContentChars)
	assert.NotEqual(t, byte(' '), out[len(out)-1])
}

func TestGetOrComputeCacheMiss(t *testing.T) {
	c := Cache{Memories: map[string]Entry{}}
	provider := NewMockProvider(8)

	updated, vec, truncated, err := GetOrCompute(context.Background(), c, provider, "learning-a", "some content")
	require.NoError(t, err)
	assert.False(t, truncated)
	assert.NotEmpty(t, vec)
	assert.Contains(t, updated.Memories, "learning-a")
	assert.Empty(t, c.Memories, "original cache must not be mutated")
}

func TestGetOrComputeCacheHitSkipsProvider(t *testing.T) {
	content := "stable content"
	c := Cache{Memories: map[string]Entry{
		"learning-a": {Vector: []float32{9, 9, 9}, ContentHash: HashContent(content)},
	}}

	updated, vec, truncated, err := GetOrCompute(context.Background(), c, failingProvider{}, "learning-a", content)
	require.NoError(t, err)
	assert.False(t, truncated)
	assert.Equal(t, []float32{9, 9, 9}, vec)
	assert.Equal(t, c, updated)
}

func TestGetOrComputeRecomputesOnHashMismatch(t *testing.T) {
	c := Cache{Memories: map[string]Entry{
		"learning-a": {Vector: []float32{9, 9, 9}, ContentHash: "stale-hash"},
	}}
	provider := NewMockProvider(8)

	updated, vec, _, err := GetOrCompute(context.Background(), c, provider, "learning-a", "new content")
	require.NoError(t, err)
	assert.NotEqual(t, []float32{9, 9, 9}, vec)
	assert.Equal(t, HashContent("new content"), updated.Memories["learning-a"].ContentHash)
}

func TestRemove(t *testing.T) {
	c := Cache{Memories: map[string]Entry{"a": {}, "b": {}}}
	out := Remove(c, "a")
	assert.NotContains(t, out.Memories, "a")
	assert.Contains(t, c.Memories, "a", "original cache must not be mutated")
}

func TestStale(t *testing.T) {
	c := Cache{Memories: map[string]Entry{"a": {ContentHash: HashContent("x")}}}
	assert.False(t, Stale(c, "a", "x"))
	assert.True(t, Stale(c, "a", "y"))
	assert.True(t, Stale(c, "missing", "anything"))
}

type failingProvider struct{}

func (failingProvider) Name() string { return "failing" }
func (failingProvider) Embed(context.Context, string) ([]float32, error) {
	return nil, memoerrors.Provider(memoerrors.ProviderUnavailable, "should not be called", nil)
}
