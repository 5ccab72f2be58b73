// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"path/filepath"
	"testing"

	"github.com/kraklabs/memo/internal/errors"
	"github.com/kraklabs/memo/internal/store/docfile"
	"github.com/kraklabs/memo/internal/store/mutate"
	"github.com/kraklabs/memo/internal/store/scope"
	"github.com/stretchr/testify/require"
)

func TestRunSearchFindsKeywordMatch(t *testing.T) {
	cwd := newProjectCwd(t)
	t.Setenv("MEMO_EMBED_PROVIDER", "none")
	writeMemory(t, cwd, "retry backoff jitter", docfile.Learning)
	writeMemory(t, cwd, "unrelated topic", docfile.Learning)

	code := runSearch([]string{"--cwd=" + cwd, "backoff"})
	if code != errors.ExitSuccess {
		t.Fatalf("exit code = %d, want %d", code, errors.ExitSuccess)
	}
}

func TestRunSearchForcesKeywordWithNoProvider(t *testing.T) {
	cwd := newProjectCwd(t)
	t.Setenv("MEMO_EMBED_PROVIDER", "none")
	writeMemory(t, cwd, "keyword only", docfile.Learning)

	code := runSemantic([]string{"--cwd=" + cwd, "keyword"})
	if code != errors.ExitSuccess {
		t.Fatalf("exit code = %d, want %d", code, errors.ExitSuccess)
	}
}

func TestRunSearchMergesAcrossScopes(t *testing.T) {
	cwd := newProjectCwd(t)
	t.Setenv("MEMO_EMBED_PROVIDER", "none")
	writeMemory(t, cwd, "backoff jitter in project", docfile.Learning)

	localRoot := filepath.Join(cwd, ".memo", "local")
	_, err := mutate.Write(localRoot, true, mutate.WriteInput{
		Scope: scope.Local, Type: docfile.Gotcha, Title: "backoff jitter in local",
	}, fixedTestNow, nil)
	require.NoError(t, err)

	code := runSearch([]string{"--cwd=" + cwd, "--json", "backoff jitter"})
	if code != errors.ExitSuccess {
		t.Fatalf("exit code = %d, want %d", code, errors.ExitSuccess)
	}
}

func TestRunSearchUnavailableScope(t *testing.T) {
	// No .git marker leaves project/local unavailable; clearing HOME and
	// MEMO_ENTERPRISE_ROOT leaves global/enterprise unavailable too, so
	// every scope in scope.CrossScopePrecedence is unavailable.
	cwd := t.TempDir()
	t.Setenv("HOME", "")
	t.Setenv("MEMO_HOME", "")
	t.Setenv("MEMO_ENTERPRISE_ROOT", "")

	code := runSearch([]string{"--cwd=" + cwd, "anything"})
	if code == errors.ExitSuccess {
		t.Fatalf("expected a non-zero exit code when no scope is available")
	}
}
