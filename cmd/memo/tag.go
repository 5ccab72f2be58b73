// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"time"

	"github.com/kraklabs/memo/internal/store/mutate"
	"github.com/kraklabs/memo/internal/ui"
	"github.com/spf13/pflag"
)

func runTag(args []string) int {
	return tagCmd(args, "tag", mutate.Tag)
}

func runUntag(args []string) int {
	return tagCmd(args, "untag", mutate.Untag)
}

func tagCmd(args []string, name string, apply func(root, id, tag string, now time.Time, local bool) error) int {
	var g GlobalFlags
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	g.register(fs)
	local := fs.Bool("local", false, "rewrite with 0600 permissions (private local scope)")
	if err := fs.Parse(args); err != nil {
		return emitUsage(err.Error())
	}
	ui.InitColors(g.NoColor)

	if fs.NArg() != 2 {
		return emitUsage(name + " requires a memory id and a tag")
	}
	id, tag := fs.Arg(0), fs.Arg(1)

	_, root, err := g.resolveRoot()
	if err != nil {
		return emitError(g, err)
	}
	now, err := g.clock()
	if err != nil {
		return emitError(g, err)
	}

	if err := apply(root, id, tag, now, *local); err != nil {
		return emitError(g, err)
	}
	msg := name + "ged " + id + " with " + tag
	return emitSuccess(g, msg, msg, map[string]string{"id": id, "tag": tag})
}
