// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kraklabs/memo/internal/store/docfile"
	"github.com/kraklabs/memo/internal/store/mutate"
	"github.com/kraklabs/memo/internal/store/scope"
	"github.com/stretchr/testify/require"
)

// newProjectCwd creates a fresh directory anchored as a git project root
// (a bare .git marker is enough for scope.Resolver.findProjectRoot), so
// --scope=project/--scope=local resolve without touching the real
// filesystem's ancestry.
func newProjectCwd(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
	return dir
}

// writeMemory writes one memory directly via mutate.Write (bypassing the
// CLI layer) so command tests can set up fixtures without re-testing
// `memo write` itself.
func writeMemory(t *testing.T, cwd, title string, typ docfile.Type) string {
	t.Helper()
	root := filepath.Join(cwd, ".memo", "project")
	res, err := mutate.Write(root, false, mutate.WriteInput{
		Scope: scope.Project, Type: typ, Title: title,
	}, fixedTestNow, nil)
	require.NoError(t, err)
	return res.ID
}

var fixedTestNow = time.Date(2026, 1, 17, 12, 0, 0, 0, time.UTC)
