// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"os"

	memoerrors "github.com/kraklabs/memo/internal/errors"
	"github.com/kraklabs/memo/internal/output"
	"github.com/kraklabs/memo/internal/ui"
)

// emitSuccess prints the human success line (unless --json) or the JSON
// success envelope (when --json), returning the process exit code.
func emitSuccess(g GlobalFlags, humanMsg string, jsonMsg string, data any) int {
	if g.JSON {
		_ = output.JSON(output.Success(jsonMsg, data))
		return memoerrors.ExitSuccess
	}
	ui.Success(humanMsg)
	return memoerrors.ExitSuccess
}

// emitPartial prints a bulk operation's partial-success result.
func emitPartial(g GlobalFlags, humanMsg string, jsonMsg string, data any) int {
	if g.JSON {
		_ = output.JSON(output.Partial(jsonMsg, data))
		return memoerrors.ExitSuccess
	}
	ui.Warning(humanMsg)
	return memoerrors.ExitSuccess
}

// emitError prints err as a human Format() (unless --json) or the JSON
// error envelope, returning the process exit code err maps to. Both
// renderers redact any absolute path under a scope root g has already
// resolved (set on g.knownRoots by resolveRoot/resolveAllRoots), so neither
// output mode leaks local filesystem layout.
func emitError(g GlobalFlags, err error) int {
	if g.JSON {
		_ = output.JSON(output.ErrorEnvelope(err, g.knownRoots))
		return memoerrors.ExitCodeFor(err)
	}
	_, _ = os.Stderr.WriteString(memoerrors.Format(err, g.knownRoots, g.NoColor))
	return memoerrors.ExitCodeFor(err)
}

// emitUsage reports a usage error (bad flags/arguments) directly to
// stderr and returns ExitUsage, bypassing the JSON envelope since usage
// errors are a CLI-layer concern, not a store operation result.
func emitUsage(msg string) int {
	_, _ = os.Stderr.WriteString("usage error: " + msg + "\n")
	return memoerrors.ExitUsage
}
