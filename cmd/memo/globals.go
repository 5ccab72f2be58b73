// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"os"
	"path/filepath"
	"time"

	memoerrors "github.com/kraklabs/memo/internal/errors"
	"github.com/kraklabs/memo/internal/store/embed"
	"github.com/kraklabs/memo/internal/store/scope"
	"github.com/spf13/pflag"
)

// GlobalFlags are accepted by every memo subcommand, mirroring the
// teacher's top-level --config/--mcp flags but scoped to what the storage
// engine itself needs rather than server bootstrap.
type GlobalFlags struct {
	JSON    bool
	NoColor bool
	Scope   string
	Cwd     string
	Now     string

	// knownRoots accumulates every scope root resolveRoot/resolveAllRoots
	// resolved this invocation, so emitError can redact absolute paths
	// (internal/errors.RedactMessage) without threading root through every
	// call site.
	knownRoots []string
}

// register adds the global flags to fs. Each subcommand's FlagSet embeds
// these alongside its own, matching the teacher's per-command
// flag.NewFlagSet convention translated to pflag.
func (g *GlobalFlags) register(fs *pflag.FlagSet) {
	fs.BoolVar(&g.JSON, "json", false, "emit a single JSON envelope to stdout")
	fs.BoolVar(&g.NoColor, "no-color", false, "disable colored human output")
	fs.StringVar(&g.Scope, "scope", "project", "enterprise|local|project|global")
	fs.StringVar(&g.Cwd, "cwd", "", "override the working directory used to resolve scopes")
	fs.StringVar(&g.Now, "now", "", "override the clock (RFC3339) for deterministic timestamps")
}

// clock returns g.Now parsed, or time.Now() when unset.
func (g *GlobalFlags) clock() (time.Time, error) {
	if g.Now == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, g.Now)
	if err != nil {
		return time.Time{}, memoerrors.Invalid("malformed --now: " + err.Error())
	}
	return t.UTC(), nil
}

// resolver builds a scope.Resolver from environment configuration. The
// enterprise root has no CLI flag — it is managed configuration, per
// spec.md §4.1 — and is read from MEMO_ENTERPRISE_ROOT.
func (g *GlobalFlags) resolver() *scope.Resolver {
	return scope.NewResolver(os.Getenv("MEMO_ENTERPRISE_ROOT"), os.Getenv("MEMO_HOME"))
}

// resolveRoot resolves g.Scope to a concrete scope root directory. An
// unavailable scope (no project anchor, no enterprise config) is reported
// as Unauthorised, per spec.md §7 ("scope unavailable").
func (g *GlobalFlags) resolveRoot() (scope.Kind, string, error) {
	kind := scope.Kind(g.Scope)
	if !scope.Valid(kind) {
		return "", "", memoerrors.Invalid("unknown scope: " + g.Scope)
	}
	root, err := g.resolver().Resolve(kind, g.Cwd)
	if err != nil {
		return "", "", err
	}
	if !root.Available {
		return "", "", memoerrors.Unauthorised("scope " + g.Scope + " is not available here")
	}
	if kind == scope.Local {
		if projectRoot, ok := g.projectRoot(); ok {
			_ = scope.EnsureGitignored(root.Path, projectRoot)
		}
	}
	g.knownRoots = append(g.knownRoots, root.Path)
	return kind, root.Path, nil
}

// resolveAllRoots resolves every scope in scope.CrossScopePrecedence order,
// skipping scopes that are unavailable (spec.md §6: "missing scopes degrade
// silently to empty results"). Cross-scope reads (search, list, query) merge
// across the returned roots; --scope is not consulted here since a read
// spans every scope by construction. Writes still target one scope via
// resolveRoot.
func (g *GlobalFlags) resolveAllRoots() (map[scope.Kind]string, error) {
	resolver := g.resolver()
	roots := make(map[scope.Kind]string, len(scope.CrossScopePrecedence))
	for _, kind := range scope.CrossScopePrecedence {
		root, err := resolver.Resolve(kind, g.Cwd)
		if err != nil {
			return nil, err
		}
		if !root.Available {
			continue
		}
		if kind == scope.Local {
			if projectRoot, ok := g.projectRoot(); ok {
				_ = scope.EnsureGitignored(root.Path, projectRoot)
			}
		}
		roots[kind] = root.Path
		g.knownRoots = append(g.knownRoots, root.Path)
	}
	if len(roots) == 0 {
		return nil, memoerrors.Unauthorised("no scopes are available here")
	}
	return roots, nil
}

func (g *GlobalFlags) projectRoot() (string, bool) {
	projectKind, projectPath, err := (&GlobalFlags{Scope: string(scope.Project), Cwd: g.Cwd}).resolveRoot()
	if err != nil || projectKind != scope.Project {
		return "", false
	}
	// scope.Project root is <projectRoot>/.memo/project; walk back up to
	// the project anchor that EnsureGitignored expects.
	return parentN(projectPath, 2), true
}

func parentN(path string, n int) string {
	for i := 0; i < n; i++ {
		path = filepath.Dir(path)
	}
	return path
}

// embedProvider builds the embedding provider configured via environment,
// defaulting to the deterministic mock so commands remain usable (and
// testable) with no external service running.
func embedProvider() embed.Provider {
	switch os.Getenv("MEMO_EMBED_PROVIDER") {
	case "ollama":
		model := os.Getenv("MEMO_EMBED_MODEL")
		if model == "" {
			model = "nomic-embed-text"
		}
		return embed.NewOllamaProvider(os.Getenv("OLLAMA_HOST"), model, embed.DefaultOllamaTimeout)
	case "none":
		return nil
	default:
		return embed.NewMockProvider(embed.DefaultDimension)
	}
}
