// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Git integration: a post-commit hook that queues a prune + sync pass for
// the project scope, adapted from the teacher's post-commit auto-index
// hook but repurposed for the reconciler instead of a re-crawl.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	memoerrors "github.com/kraklabs/memo/internal/errors"
	"github.com/kraklabs/memo/internal/ui"
	"github.com/spf13/pflag"
)

const hookMarker = "# memo post-commit hook"

const postCommitHookContent = hookMarker + `
# Installed by: memo install-hook
# Remove with: memo remove-hook

memo prune --scope=project >/dev/null 2>&1 &
memo sync --scope=project >/dev/null 2>&1 &
`

func runInstallHook(args []string) int {
	var g GlobalFlags
	fs := pflag.NewFlagSet("install-hook", pflag.ContinueOnError)
	g.register(fs)
	force := fs.Bool("force", false, "overwrite an existing non-memo hook")
	if err := fs.Parse(args); err != nil {
		return emitUsage(err.Error())
	}
	ui.InitColors(g.NoColor)

	gitDir, err := findGitDir(g.Cwd)
	if err != nil {
		return emitError(g, memoerrors.Invalid(err.Error()))
	}
	hookPath := filepath.Join(gitDir, "hooks", "post-commit")

	if err := installHook(hookPath, *force); err != nil {
		return emitError(g, memoerrors.IoError(err.Error(), nil))
	}
	msg := "installed git hook: " + hookPath
	return emitSuccess(g, msg, msg, map[string]string{"path": hookPath})
}

func runRemoveHook(args []string) int {
	var g GlobalFlags
	fs := pflag.NewFlagSet("remove-hook", pflag.ContinueOnError)
	g.register(fs)
	if err := fs.Parse(args); err != nil {
		return emitUsage(err.Error())
	}
	ui.InitColors(g.NoColor)

	gitDir, err := findGitDir(g.Cwd)
	if err != nil {
		return emitError(g, memoerrors.Invalid(err.Error()))
	}
	hookPath := filepath.Join(gitDir, "hooks", "post-commit")

	if err := removeHook(hookPath); err != nil {
		return emitError(g, memoerrors.IoError(err.Error(), nil))
	}
	msg := "removed git hook: " + hookPath
	return emitSuccess(g, msg, msg, nil)
}

// findGitDir finds the .git directory by walking up from start (or the
// working directory when start is empty), resolving worktree ".git"
// files to their real gitdir target.
func findGitDir(start string) (string, error) {
	dir := start
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		dir = cwd
	}

	for {
		gitPath := filepath.Join(dir, ".git")
		if info, err := os.Stat(gitPath); err == nil {
			if info.IsDir() {
				return gitPath, nil
			}
			content, err := os.ReadFile(gitPath)
			if err != nil {
				return "", fmt.Errorf("cannot read .git file: %w", err)
			}
			var gitdir string
			if _, err := fmt.Sscanf(string(content), "gitdir: %s", &gitdir); err == nil {
				if filepath.IsAbs(gitdir) {
					return gitdir, nil
				}
				return filepath.Join(dir, gitdir), nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("not a git repository (or any of the parent directories)")
}

func installHook(hookPath string, force bool) error {
	hookDir := filepath.Dir(hookPath)
	if err := os.MkdirAll(hookDir, 0o755); err != nil {
		return fmt.Errorf("cannot create hooks directory: %w", err)
	}

	if _, err := os.Stat(hookPath); err == nil && !force {
		content, err := os.ReadFile(hookPath)
		if err == nil && containsHookMarker(string(content)) {
			return nil
		}
		return fmt.Errorf("hook already exists at %s, use --force to overwrite", hookPath)
	}

	return os.WriteFile(hookPath, []byte(postCommitHookContent), 0o755)
}

func removeHook(hookPath string) error {
	content, err := os.ReadFile(hookPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no hook found at %s", hookPath)
		}
		return fmt.Errorf("cannot read hook: %w", err)
	}

	if !containsHookMarker(string(content)) {
		return fmt.Errorf("hook at %s was not installed by memo, remove it manually if needed", hookPath)
	}

	return os.Remove(hookPath)
}

func containsHookMarker(content string) bool {
	return strings.Contains(content, hookMarker)
}
