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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunReadReturnsMemory(t *testing.T) {
	cwd := newProjectCwd(t)
	id := writeMemory(t, cwd, "a decision", docfile.Decision)

	code := runRead([]string{"--cwd=" + cwd, id})
	assert.Equal(t, errors.ExitSuccess, code)
}

func TestRunReadUnknownID(t *testing.T) {
	cwd := newProjectCwd(t)
	code := runRead([]string{"--cwd=" + cwd, "decision-nonexistent"})
	assert.NotEqual(t, errors.ExitSuccess, code)
}

func TestRunListMergesAcrossScopes(t *testing.T) {
	cwd := newProjectCwd(t)
	writeMemory(t, cwd, "in project scope", docfile.Learning)

	localRoot := filepath.Join(cwd, ".memo", "local")
	_, err := mutate.Write(localRoot, true, mutate.WriteInput{
		Scope: scope.Local, Type: docfile.Gotcha, Title: "in local scope",
	}, fixedTestNow, nil)
	require.NoError(t, err)

	code := runList([]string{"--cwd=" + cwd, "--json"})
	assert.Equal(t, errors.ExitSuccess, code, "list must merge entries from every available scope, not just --scope's default")
}

func TestRunListFiltersByTypeAcrossScopes(t *testing.T) {
	cwd := newProjectCwd(t)
	writeMemory(t, cwd, "a learning", docfile.Learning)
	writeMemory(t, cwd, "a gotcha", docfile.Gotcha)

	code := runList([]string{"--cwd=" + cwd, "--type=gotcha", "--json"})
	assert.Equal(t, errors.ExitSuccess, code)
}
