// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package output

import (
	"bytes"
	"strings"
	"testing"

	memoerrors "github.com/kraklabs/memo/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONTo(t *testing.T) {
	var buf bytes.Buffer
	data := map[string]any{"project_id": "test-project", "count": 42}

	require.NoError(t, JSONTo(&buf, data))
	output := buf.String()

	assert.Contains(t, output, "  \"project_id\"")
	assert.Contains(t, output, `"count": 42`)
	assert.True(t, strings.HasSuffix(output, "}\n"))
}

func TestJSONCompactTo(t *testing.T) {
	var buf bytes.Buffer
	data := map[string]any{"project_id": "test-project"}

	require.NoError(t, JSONCompactTo(&buf, data))
	assert.NotContains(t, buf.String(), "  ")
	assert.Contains(t, buf.String(), `"project_id":"test-project"`)
}

func TestSuccessEnvelope(t *testing.T) {
	env := Success("wrote memory", map[string]string{"id": "learning-foo"})
	assert.Equal(t, StatusSuccess, env.Status)
	assert.Equal(t, "wrote memory", env.Message)
}

func TestPartialEnvelope(t *testing.T) {
	env := Partial("bulk-delete completed with errors", nil)
	assert.Equal(t, StatusPartial, env.Status)
}

func TestErrorEnvelopeCarriesKind(t *testing.T) {
	err := memoerrors.NotFound("memory learning-foo not found")
	env := ErrorEnvelope(err, nil)
	assert.Equal(t, StatusError, env.Status)
	data, ok := env.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, string(memoerrors.KindNotFound), data["kind"])
}

func TestErrorEnvelopeFallsBackForUntypedErrors(t *testing.T) {
	env := ErrorEnvelope(assertError{"boom"}, nil)
	data := env.Data.(map[string]any)
	assert.Equal(t, string(memoerrors.KindIoError), data["kind"])
}

func TestErrorEnvelopeRedactsAbsolutePaths(t *testing.T) {
	err := memoerrors.IoError("cannot write /home/u/.memo/project/permanent/foo.md", nil)
	env := ErrorEnvelope(err, []string{"/home/u/.memo/project"})
	assert.NotContains(t, env.Message, "/home/u/.memo/project")
	assert.Contains(t, env.Message, "permanent/foo.md")
}

type assertError struct{ msg string }

func (e assertError) Error() string { return e.msg }
