// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package metrics

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTextIncludesIncrementedCounters(t *testing.T) {
	MemoriesWritten.WithLabelValues("project", "learning").Inc()
	SearchesTotal.WithLabelValues("global", "keyword").Inc()

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf))

	out := buf.String()
	assert.Contains(t, out, "memo_memories_written_total")
	assert.Contains(t, out, "memo_searches_total")
}

func TestLeaseWaitSecondsObserves(t *testing.T) {
	LeaseWaitSeconds.WithLabelValues("local").Observe(0.25)

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf))
	assert.Contains(t, buf.String(), "memo_lease_wait_seconds")
}
