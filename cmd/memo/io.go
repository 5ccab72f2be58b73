// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"io"
	"os"
	"path/filepath"
)

// stdinReader is swappable in tests; production always reads os.Stdin.
var stdinReader io.Reader = os.Stdin

func stdin() io.Reader { return stdinReader }

// pathFor joins a scope root with an index entry's scope-relative path.
func pathFor(root, relative string) string {
	return filepath.Join(root, filepath.FromSlash(relative))
}

// scopeHasFiles reports whether root currently has any memory files,
// mirroring internal/store/mutate's unexported check of the same name;
// cmd/memo needs its own copy for commands (remove-node) that touch the
// graph directly rather than through a mutate.* entry point.
func scopeHasFiles(root string) bool {
	for _, dir := range []string{"permanent", "temporary", "archive"} {
		entries, err := os.ReadDir(filepath.Join(root, dir))
		if err == nil && len(entries) > 0 {
			return true
		}
	}
	return false
}
