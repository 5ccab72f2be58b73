// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package main implements the memo CLI: a local, file-backed, multi-scope
// knowledge store for decisions, learnings, gotchas, artifacts, hubs, and
// breadcrumbs.
//
// Usage:
//
//	memo write --type=learning --title="..." [--tags=a,b] [--scope=project]
//	memo search "query" [--semantic] [--json]
//	memo sync|rebuild|reindex|refresh|prune|repair [--scope=...]
package main

import (
	"fmt"
	"os"

	"github.com/kraklabs/memo/internal/ui"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	if args[0] == "--version" {
		fmt.Printf("memo version %s (%s)\n", version, commit)
		return 0
	}

	command := args[0]
	rest := args[1:]

	handler, ok := commands[command]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		return 2
	}

	code := handler(rest)
	return code
}

// commands maps every canonical CLI name (spec.md §6) to its handler. Each
// handler parses its own flags (global and command-specific) via pflag and
// calls ui.InitColors itself once --no-color is known.
var commands = map[string]func([]string) int{
	"write":    runWrite,
	"read":     runRead,
	"list":     runList,
	"search":   runSearch,
	"semantic": runSemantic,

	"link":        runLink,
	"unlink":      runUnlink,
	"edges":       runEdges,
	"graph":       runGraph,
	"mermaid":     runMermaid,
	"remove-node": runRemoveNode,

	"tag":   runTag,
	"untag": runUntag,

	"rename":  runRename,
	"move":    runMove,
	"promote": runPromote,
	"archive": runArchive,
	"delete":  runDelete,
	"status":  runStatus,

	"bulk-link":    runBulkLink,
	"bulk-delete":  runBulkDelete,
	"bulk-tag":     runBulkTag,
	"bulk-promote": runBulkPromote,
	"bulk-move":    runBulkMove,
	"bulk-unlink":  runBulkUnlink,

	"sync":    runSync,
	"rebuild": runRebuild,
	"reindex": runReindex,
	"refresh": runRefresh,
	"prune":   runPrune,
	"repair":  runRepair,
	"validate": runValidate,

	"query":  runQuery,
	"stats":  runStats,
	"impact": runImpact,

	"suggest-links": runSuggestLinks,
	"summarize":     runSummarize,

	"export": runExport,
	"import": runImport,

	"install-hook": runInstallHook,
	"remove-hook":  runRemoveHook,
}

func printUsage() {
	ui.Header("memo - a local, file-backed, multi-scope knowledge store")
	fmt.Fprint(os.Stderr, `
Usage:
  memo <command> [--flag value] [--flag=value] [args...]

Memory commands:
  write, read, list, search, delete

Graph commands:
  link, unlink, edges, graph, mermaid, remove-node

Metadata commands:
  tag, untag, rename, move, promote, archive, status

Bulk commands:
  bulk-link, bulk-delete, bulk-tag, bulk-promote, bulk-move, bulk-unlink

Reconciliation:
  sync, rebuild, reindex, refresh [--embeddings], prune, repair, validate

Analysis:
  query, stats, impact, suggest-links, summarize

Transfer:
  export, import

Git integration:
  install-hook, remove-hook

Global flags:
  --json          emit a single JSON envelope to stdout
  --no-color      disable colored human output
  --scope         enterprise|local|project|global (default: project)
  --cwd           override the working directory used to resolve scopes
  --now           override the clock (RFC3339) for deterministic timestamps
`)
}
