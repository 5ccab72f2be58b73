// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"fmt"

	"github.com/kraklabs/memo/internal/store/index"
	"github.com/kraklabs/memo/internal/store/mutate"
	"github.com/kraklabs/memo/internal/store/scope"
	"github.com/kraklabs/memo/internal/ui"
	"github.com/spf13/pflag"
)

func runRead(args []string) int {
	var g GlobalFlags
	fs := pflag.NewFlagSet("read", pflag.ContinueOnError)
	g.register(fs)
	if err := fs.Parse(args); err != nil {
		return emitUsage(err.Error())
	}
	ui.InitColors(g.NoColor)

	if fs.NArg() != 1 {
		return emitUsage("read requires exactly one memory id")
	}
	id := fs.Arg(0)

	_, root, err := g.resolveRoot()
	if err != nil {
		return emitError(g, err)
	}

	doc, err := mutate.Read(root, id)
	if err != nil {
		return emitError(g, err)
	}
	return emitSuccess(g, doc.Frontmatter.Title, "read "+id, doc)
}

func runList(args []string) int {
	var g GlobalFlags
	fs := pflag.NewFlagSet("list", pflag.ContinueOnError)
	g.register(fs)
	typ := fs.String("type", "", "filter by type")
	tag := fs.String("tag", "", "filter by tag")
	if err := fs.Parse(args); err != nil {
		return emitUsage(err.Error())
	}
	ui.InitColors(g.NoColor)

	roots, err := g.resolveAllRoots()
	if err != nil {
		return emitError(g, err)
	}

	var entries []index.Entry
	for _, kind := range scope.CrossScopePrecedence {
		root, ok := roots[kind]
		if !ok {
			continue
		}
		idx, err := index.Load(root)
		if err != nil {
			return emitError(g, err)
		}
		scoped := idx.Memories
		if *typ != "" {
			scoped = index.ListByType(idx, *typ)
		}
		if *tag != "" {
			scoped = index.ByTag(index.Index{Version: idx.Version, Memories: scoped}, *tag)
		}
		entries = append(entries, scoped...)
	}

	if !g.JSON {
		ui.Header("memo list")
		for _, e := range entries {
			ui.Infof("%s  %-10s  %s", e.ID, e.Type, e.Updated.Format("2006-01-02"))
		}
	}
	return emitSuccess(g, fmt.Sprintf("%d %s", len(entries), plural(len(entries), "memory", "memories")), "listed memories", entries)
}

func plural(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
