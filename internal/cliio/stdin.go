// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package cliio reads the JSON payload a memo command accepts on stdin
// when a positional operand is given as the "-" sentinel, per spec.md §6.
package cliio

import (
	"encoding/json"
	"io"

	memoerrors "github.com/kraklabs/memo/internal/errors"
)

// StdinSentinel is the positional-operand value that tells a command to
// read its payload from stdin instead of an inline argument.
const StdinSentinel = "-"

// IsStdinSentinel reports whether operand is the "-" stdin sentinel.
func IsStdinSentinel(operand string) bool {
	return operand == StdinSentinel
}

// ReadStdinJSON decodes a single JSON value from r into v. It is used by
// commands whose payload (e.g. a bulk operation's ID or op list, or an
// import bundle) is too large or too awkward for a single flag value.
func ReadStdinJSON(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	if err := dec.Decode(v); err != nil {
		return memoerrors.Invalid("malformed JSON on stdin: " + err.Error())
	}
	return nil
}

// ReadStdinRaw reads the entirety of r, used by commands whose stdin
// payload is a plain string (e.g. a memory body) rather than structured
// JSON.
func ReadStdinRaw(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", memoerrors.IoError("failed reading stdin", err)
	}
	return string(data), nil
}
