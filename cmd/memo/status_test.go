// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"testing"

	"github.com/kraklabs/memo/internal/errors"
	"github.com/kraklabs/memo/internal/store/docfile"
	"github.com/stretchr/testify/assert"
)

func TestRunStatusReportsEachScope(t *testing.T) {
	cwd := newProjectCwd(t)
	writeMemory(t, cwd, "a memory", docfile.Learning)

	code := runStatus([]string{"--cwd=" + cwd, "--json"})
	assert.Equal(t, errors.ExitSuccess, code)
}

func TestRunStatusUnavailableScopeDoesNotFail(t *testing.T) {
	cwd := t.TempDir()
	code := runStatus([]string{"--cwd=" + cwd, "--json"})
	assert.Equal(t, errors.ExitSuccess, code)
}

func TestRunStatsSummarisesByType(t *testing.T) {
	cwd := newProjectCwd(t)
	writeMemory(t, cwd, "a learning", docfile.Learning)
	writeMemory(t, cwd, "a gotcha", docfile.Gotcha)

	code := runStats([]string{"--cwd=" + cwd, "--json"})
	assert.Equal(t, errors.ExitSuccess, code)
}

func TestRunStatsProm(t *testing.T) {
	code := runStats([]string{"--prom"})
	assert.Equal(t, 0, code)
}
