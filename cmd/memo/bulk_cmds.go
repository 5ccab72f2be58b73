// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Bulk commands all read their operation list as a JSON array on stdin,
// per spec.md §6 ("bulk-* operands are always `-`"), and report via
// BulkResult so a partially-failed batch still exits 0 with status
// "partial" under --json.
package main

import (
	"github.com/kraklabs/memo/internal/cliio"
	"github.com/kraklabs/memo/internal/store/docfile"
	"github.com/kraklabs/memo/internal/store/mutate"
	"github.com/kraklabs/memo/internal/ui"
	"github.com/spf13/pflag"
)

func bulkEmit(g GlobalFlags, res mutate.BulkResult, name string) int {
	msg := name
	if res.Skipped > 0 {
		return emitPartial(g, msg, name, res)
	}
	return emitSuccess(g, msg, name, res)
}

func runBulkDelete(args []string) int {
	var g GlobalFlags
	fs := pflag.NewFlagSet("bulk-delete", pflag.ContinueOnError)
	g.register(fs)
	if err := fs.Parse(args); err != nil {
		return emitUsage(err.Error())
	}
	ui.InitColors(g.NoColor)

	var ids []string
	if err := cliio.ReadStdinJSON(stdin(), &ids); err != nil {
		return emitError(g, err)
	}

	_, root, err := g.resolveRoot()
	if err != nil {
		return emitError(g, err)
	}

	res, err := mutate.BulkDelete(root, ids)
	if err != nil {
		return emitError(g, err)
	}
	return bulkEmit(g, res, "bulk-deleted")
}

func runBulkTag(args []string) int {
	var g GlobalFlags
	fs := pflag.NewFlagSet("bulk-tag", pflag.ContinueOnError)
	g.register(fs)
	local := fs.Bool("local", false, "rewrite with 0600 permissions (private local scope)")
	if err := fs.Parse(args); err != nil {
		return emitUsage(err.Error())
	}
	ui.InitColors(g.NoColor)

	var ops []mutate.TagOp
	if err := cliio.ReadStdinJSON(stdin(), &ops); err != nil {
		return emitError(g, err)
	}

	_, root, err := g.resolveRoot()
	if err != nil {
		return emitError(g, err)
	}
	now, err := g.clock()
	if err != nil {
		return emitError(g, err)
	}

	res, err := mutate.BulkTag(root, ops, now, *local)
	if err != nil {
		return emitError(g, err)
	}
	return bulkEmit(g, res, "bulk-tagged")
}

func runBulkLink(args []string) int {
	var g GlobalFlags
	fs := pflag.NewFlagSet("bulk-link", pflag.ContinueOnError)
	g.register(fs)
	if err := fs.Parse(args); err != nil {
		return emitUsage(err.Error())
	}
	ui.InitColors(g.NoColor)

	var ops []mutate.LinkOp
	if err := cliio.ReadStdinJSON(stdin(), &ops); err != nil {
		return emitError(g, err)
	}

	_, root, err := g.resolveRoot()
	if err != nil {
		return emitError(g, err)
	}

	res, err := mutate.BulkLink(root, ops)
	if err != nil {
		return emitError(g, err)
	}
	return bulkEmit(g, res, "bulk-linked")
}

func runBulkUnlink(args []string) int {
	var g GlobalFlags
	fs := pflag.NewFlagSet("bulk-unlink", pflag.ContinueOnError)
	g.register(fs)
	if err := fs.Parse(args); err != nil {
		return emitUsage(err.Error())
	}
	ui.InitColors(g.NoColor)

	var ops []mutate.LinkOp
	if err := cliio.ReadStdinJSON(stdin(), &ops); err != nil {
		return emitError(g, err)
	}

	_, root, err := g.resolveRoot()
	if err != nil {
		return emitError(g, err)
	}

	res, err := mutate.BulkUnlink(root, ops)
	if err != nil {
		return emitError(g, err)
	}
	return bulkEmit(g, res, "bulk-unlinked")
}

func runBulkPromote(args []string) int {
	var g GlobalFlags
	fs := pflag.NewFlagSet("bulk-promote", pflag.ContinueOnError)
	g.register(fs)
	newType := fs.String("type", "", "destination memory type")
	local := fs.Bool("local", false, "rewrite with 0600 permissions (private local scope)")
	if err := fs.Parse(args); err != nil {
		return emitUsage(err.Error())
	}
	ui.InitColors(g.NoColor)

	if *newType == "" {
		return emitUsage("--type is required")
	}

	var ids []string
	if err := cliio.ReadStdinJSON(stdin(), &ids); err != nil {
		return emitError(g, err)
	}

	_, root, err := g.resolveRoot()
	if err != nil {
		return emitError(g, err)
	}
	now, err := g.clock()
	if err != nil {
		return emitError(g, err)
	}

	res, err := mutate.BulkPromote(root, ids, docfile.Type(*newType), now, *local)
	if err != nil {
		return emitError(g, err)
	}
	return bulkEmit(g, res, "bulk-promoted")
}

func runBulkMove(args []string) int {
	var g GlobalFlags
	fs := pflag.NewFlagSet("bulk-move", pflag.ContinueOnError)
	g.register(fs)
	toScope := fs.String("to-scope", "", "destination scope: enterprise|local|project|global")
	targetLocal := fs.Bool("local", false, "write destination with 0600 permissions")
	if err := fs.Parse(args); err != nil {
		return emitUsage(err.Error())
	}
	ui.InitColors(g.NoColor)

	if *toScope == "" {
		return emitUsage("--to-scope is required")
	}

	var ids []string
	if err := cliio.ReadStdinJSON(stdin(), &ids); err != nil {
		return emitError(g, err)
	}

	_, sourceRoot, err := g.resolveRoot()
	if err != nil {
		return emitError(g, err)
	}
	targetFlags := g
	targetFlags.Scope = *toScope
	_, targetRoot, err := targetFlags.resolveRoot()
	if err != nil {
		return emitError(g, err)
	}
	now, err := g.clock()
	if err != nil {
		return emitError(g, err)
	}

	res, err := mutate.BulkMove(sourceRoot, targetRoot, *targetLocal, ids, now)
	if err != nil {
		return emitError(g, err)
	}
	return bulkEmit(g, res, "bulk-moved")
}
