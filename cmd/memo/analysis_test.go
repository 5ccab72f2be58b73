// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"testing"

	"github.com/kraklabs/memo/internal/errors"
	"github.com/kraklabs/memo/internal/store/docfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunQueryFiltersByType(t *testing.T) {
	cwd := newProjectCwd(t)
	writeMemory(t, cwd, "a learning", docfile.Learning)
	writeMemory(t, cwd, "a gotcha", docfile.Gotcha)

	code := runQuery([]string{"--cwd=" + cwd, "--type=gotcha", "--json"})
	assert.Equal(t, errors.ExitSuccess, code)
}

func TestRunImpactWalksGraph(t *testing.T) {
	cwd := newProjectCwd(t)
	source := writeMemory(t, cwd, "a", docfile.Learning)
	target := writeMemory(t, cwd, "b", docfile.Learning)
	require.Equal(t, errors.ExitSuccess, runLink([]string{"--cwd=" + cwd, source, target}))

	code := runImpact([]string{"--cwd=" + cwd, source})
	assert.Equal(t, errors.ExitSuccess, code)
}

func TestRunImpactUnknownID(t *testing.T) {
	cwd := newProjectCwd(t)
	writeMemory(t, cwd, "a", docfile.Learning)

	code := runImpact([]string{"--cwd=" + cwd, "learning-nonexistent"})
	assert.NotEqual(t, errors.ExitSuccess, code)
}
