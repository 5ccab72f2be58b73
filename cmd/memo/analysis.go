// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"fmt"

	memoerrors "github.com/kraklabs/memo/internal/errors"
	"github.com/kraklabs/memo/internal/store/graph"
	"github.com/kraklabs/memo/internal/store/index"
	"github.com/kraklabs/memo/internal/store/scope"
	"github.com/kraklabs/memo/internal/ui"
	"github.com/spf13/pflag"
)

// runQuery filters the index by type and/or tag, a structured substitute
// for the graph-database query layer the original engine used.
func runQuery(args []string) int {
	var g GlobalFlags
	fs := pflag.NewFlagSet("query", pflag.ContinueOnError)
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
		ui.Header("memo query")
		for _, e := range entries {
			ui.Infof("%s  %-10s  %s", e.ID, e.Type, e.Updated.Format("2006-01-02"))
		}
	}
	return emitSuccess(g, fmt.Sprintf("%d results", len(entries)), "query results", entries)
}

// runImpact walks the graph outward from a memory id to report everything
// that would be affected by a change to it.
func runImpact(args []string) int {
	var g GlobalFlags
	fs := pflag.NewFlagSet("impact", pflag.ContinueOnError)
	g.register(fs)
	depth := fs.Int("depth", 2, "BFS hop limit")
	if err := fs.Parse(args); err != nil {
		return emitUsage(err.Error())
	}
	ui.InitColors(g.NoColor)

	if fs.NArg() != 1 {
		return emitUsage("impact requires exactly one memory id")
	}
	id := fs.Arg(0)

	_, root, err := g.resolveRoot()
	if err != nil {
		return emitError(g, err)
	}

	gr, err := graph.Load(root)
	if err != nil {
		return emitError(g, err)
	}
	if !graph.HasNode(gr, id) {
		return emitError(g, memoerrors.NotFound("no memory with id "+id))
	}

	affected := graph.BFS(gr, id, *depth)

	if !g.JSON {
		ui.Header("memo impact " + id)
		for _, aid := range affected {
			ui.Infof("%s", aid)
		}
	}
	return emitSuccess(g, fmt.Sprintf("%d affected", len(affected)), "impact", affected)
}
