// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"fmt"

	"github.com/kraklabs/memo/internal/store/docfile"
	"github.com/kraklabs/memo/internal/store/mutate"
	"github.com/kraklabs/memo/internal/ui"
	"github.com/spf13/pflag"
)

func runRename(args []string) int {
	var g GlobalFlags
	fs := pflag.NewFlagSet("rename", pflag.ContinueOnError)
	g.register(fs)
	local := fs.Bool("local", false, "rewrite with 0600 permissions (private local scope)")
	if err := fs.Parse(args); err != nil {
		return emitUsage(err.Error())
	}
	ui.InitColors(g.NoColor)

	if fs.NArg() != 2 {
		return emitUsage("rename requires a memory id and a new title")
	}
	id, newTitle := fs.Arg(0), fs.Arg(1)

	_, root, err := g.resolveRoot()
	if err != nil {
		return emitError(g, err)
	}
	now, err := g.clock()
	if err != nil {
		return emitError(g, err)
	}

	res, err := mutate.Rename(root, id, newTitle, now, *local)
	if err != nil {
		return emitError(g, err)
	}
	msg := fmt.Sprintf("renamed %s -> %s", res.OldID, res.NewID)
	return emitSuccess(g, msg, msg, res)
}

func runMove(args []string) int {
	var g GlobalFlags
	fs := pflag.NewFlagSet("move", pflag.ContinueOnError)
	g.register(fs)
	toScope := fs.String("to-scope", "", "destination scope: enterprise|local|project|global")
	targetLocal := fs.Bool("local", false, "write destination with 0600 permissions")
	if err := fs.Parse(args); err != nil {
		return emitUsage(err.Error())
	}
	ui.InitColors(g.NoColor)

	if fs.NArg() != 1 {
		return emitUsage("move requires exactly one memory id")
	}
	if *toScope == "" {
		return emitUsage("--to-scope is required")
	}
	id := fs.Arg(0)

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

	res, err := mutate.Move(sourceRoot, targetRoot, *targetLocal, id, now)
	if err != nil {
		return emitError(g, err)
	}
	msg := fmt.Sprintf("moved %s to %s", id, *toScope)
	return emitSuccess(g, msg, msg, res)
}

func runPromote(args []string) int {
	var g GlobalFlags
	fs := pflag.NewFlagSet("promote", pflag.ContinueOnError)
	g.register(fs)
	newType := fs.String("type", "", "destination memory type")
	local := fs.Bool("local", false, "rewrite with 0600 permissions (private local scope)")
	if err := fs.Parse(args); err != nil {
		return emitUsage(err.Error())
	}
	ui.InitColors(g.NoColor)

	if fs.NArg() != 1 {
		return emitUsage("promote requires exactly one memory id")
	}
	if *newType == "" {
		return emitUsage("--type is required")
	}
	id := fs.Arg(0)

	_, root, err := g.resolveRoot()
	if err != nil {
		return emitError(g, err)
	}
	now, err := g.clock()
	if err != nil {
		return emitError(g, err)
	}

	res, err := mutate.Promote(root, id, docfile.Type(*newType), now, *local)
	if err != nil {
		return emitError(g, err)
	}
	msg := fmt.Sprintf("promoted %s -> %s", res.OldID, res.NewID)
	return emitSuccess(g, msg, msg, res)
}

func runArchive(args []string) int {
	var g GlobalFlags
	fs := pflag.NewFlagSet("archive", pflag.ContinueOnError)
	g.register(fs)
	if err := fs.Parse(args); err != nil {
		return emitUsage(err.Error())
	}
	ui.InitColors(g.NoColor)

	if fs.NArg() != 1 {
		return emitUsage("archive requires exactly one memory id")
	}
	id := fs.Arg(0)

	_, root, err := g.resolveRoot()
	if err != nil {
		return emitError(g, err)
	}

	if err := mutate.Archive(root, id); err != nil {
		return emitError(g, err)
	}
	msg := "archived " + id
	return emitSuccess(g, msg, msg, map[string]string{"id": id})
}
