// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package scope

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveEnterpriseUnavailableWhenUnconfigured(t *testing.T) {
	r := &Resolver{}
	root, err := r.Resolve(Enterprise, t.TempDir())
	require.NoError(t, err)
	assert.False(t, root.Available)
}

func TestResolveEnterpriseConfigured(t *testing.T) {
	r := &Resolver{EnterpriseRoot: "/managed/memo"}
	root, err := r.Resolve(Enterprise, "")
	require.NoError(t, err)
	assert.True(t, root.Available)
	assert.Equal(t, "/managed/memo", root.Path)
}

func TestResolveGlobal(t *testing.T) {
	home := t.TempDir()
	r := &Resolver{HomeRoot: home}
	root, err := r.Resolve(Global, "")
	require.NoError(t, err)
	assert.True(t, root.Available)
	assert.Equal(t, filepath.Join(home, ".memo", "global"), root.Path)
}

func TestResolveProjectFindsMarker(t *testing.T) {
	projectDir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(projectDir, ".git"), 0o755))
	nested := filepath.Join(projectDir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	r := &Resolver{MarkerNames: defaultMarkers}
	root, err := r.Resolve(Project, nested)
	require.NoError(t, err)
	assert.True(t, root.Available)
	assert.Equal(t, filepath.Join(projectDir, ".memo", "project"), root.Path)
}

func TestResolveProjectUnavailableOutsideProject(t *testing.T) {
	r := &Resolver{MarkerNames: defaultMarkers}
	root, err := r.Resolve(Project, "/")
	require.NoError(t, err)
	assert.False(t, root.Available)
}

func TestResolveLocalUsesPrivateSubdir(t *testing.T) {
	projectDir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(projectDir, ".git"), 0o755))

	r := &Resolver{MarkerNames: defaultMarkers}
	root, err := r.Resolve(Local, projectDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(projectDir, ".memo", "local"), root.Path)
}

func TestResolveUnknownKindIsInvalid(t *testing.T) {
	r := &Resolver{}
	_, err := r.Resolve(Kind("bogus"), "")
	require.Error(t, err)
}

func TestEnsureGitignoredAppendsOnce(t *testing.T) {
	projectDir := t.TempDir()
	localRoot := filepath.Join(projectDir, ".memo", "local")

	require.NoError(t, EnsureGitignored(localRoot, projectDir))
	content, err := os.ReadFile(filepath.Join(projectDir, ".gitignore"))
	require.NoError(t, err)
	assert.Contains(t, string(content), gitignoreMarker)
	assert.Contains(t, string(content), ".memo/local/")

	// idempotent: calling again must not duplicate the entry.
	require.NoError(t, EnsureGitignored(localRoot, projectDir))
	content2, err := os.ReadFile(filepath.Join(projectDir, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, string(content), string(content2))
}

func TestEnsureGitignoredPreservesExistingContent(t *testing.T) {
	projectDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, ".gitignore"), []byte("node_modules/"), 0o644))

	localRoot := filepath.Join(projectDir, ".memo", "local")
	require.NoError(t, EnsureGitignored(localRoot, projectDir))

	content, err := os.ReadFile(filepath.Join(projectDir, ".gitignore"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "node_modules/")
	assert.Contains(t, string(content), ".memo/local/")
}

func TestValid(t *testing.T) {
	assert.True(t, Valid(Enterprise))
	assert.True(t, Valid(Local))
	assert.True(t, Valid(Project))
	assert.True(t, Valid(Global))
	assert.False(t, Valid(Kind("nope")))
}
