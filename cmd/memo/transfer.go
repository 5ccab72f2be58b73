// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"fmt"
	"path/filepath"

	"github.com/kraklabs/memo/internal/cliio"
	"github.com/kraklabs/memo/internal/store/docfile"
	"github.com/kraklabs/memo/internal/store/graph"
	"github.com/kraklabs/memo/internal/store/index"
	"github.com/kraklabs/memo/internal/store/mutate"
	"github.com/kraklabs/memo/internal/ui"
	"github.com/spf13/pflag"
)

// ExportedMemory is one memory's complete transfer payload.
type ExportedMemory struct {
	Frontmatter docfile.Frontmatter `json:"frontmatter"`
	Body        string              `json:"body"`
}

// ExportBundle is a scope's full exportable state: every memory file,
// plus the derived graph (the index and embedding cache are rebuildable
// from the files via sync, so they are not carried across).
type ExportBundle struct {
	Memories []ExportedMemory `json:"memories"`
	Graph    graph.Graph      `json:"graph"`
}

func runExport(args []string) int {
	var g GlobalFlags
	fs := pflag.NewFlagSet("export", pflag.ContinueOnError)
	g.register(fs)
	if err := fs.Parse(args); err != nil {
		return emitUsage(err.Error())
	}
	ui.InitColors(g.NoColor)

	_, root, err := g.resolveRoot()
	if err != nil {
		return emitError(g, err)
	}

	idx, err := index.Load(root)
	if err != nil {
		return emitError(g, err)
	}
	gr, err := graph.Load(root)
	if err != nil {
		return emitError(g, err)
	}

	bundle := ExportBundle{Graph: gr}
	for _, e := range idx.Memories {
		doc, err := docfile.Read(pathFor(root, e.RelativePath))
		if err != nil {
			continue
		}
		bundle.Memories = append(bundle.Memories, ExportedMemory{Frontmatter: doc.Frontmatter, Body: doc.Body})
	}

	if !g.JSON {
		ui.Header("memo export")
		ui.Infof("%d memories", len(bundle.Memories))
	}
	return emitSuccess(g, fmt.Sprintf("%d memories exported", len(bundle.Memories)), "export", bundle)
}

// runImport re-writes every memory in a bundle read from stdin (see
// ExportBundle) into the resolved scope, preserving each memory's own
// Created/Updated timestamps and re-establishing its graph edges once
// every node has been created.
func runImport(args []string) int {
	var g GlobalFlags
	fs := pflag.NewFlagSet("import", pflag.ContinueOnError)
	g.register(fs)
	local := fs.Bool("local", false, "write with 0600 permissions (private local scope)")
	if err := fs.Parse(args); err != nil {
		return emitUsage(err.Error())
	}
	ui.InitColors(g.NoColor)

	var bundle ExportBundle
	if err := cliio.ReadStdinJSON(stdin(), &bundle); err != nil {
		return emitError(g, err)
	}

	kind, root, err := g.resolveRoot()
	if err != nil {
		return emitError(g, err)
	}

	var imported []string
	for _, m := range bundle.Memories {
		fm := m.Frontmatter
		fm.Scope = kind
		doc := docfile.Document{Frontmatter: fm, Body: m.Body}
		path := pathFor(root, filepath.Join(fm.Type.Dir(), fm.ID+".md"))
		if err := docfile.Write(path, doc, *local); err != nil {
			continue
		}

		idx, err := index.Load(root)
		if err != nil {
			return emitError(g, err)
		}
		idx = index.Upsert(idx, index.Entry{
			ID: fm.ID, RelativePath: filepath.ToSlash(filepath.Join(fm.Type.Dir(), fm.ID+".md")),
			Type: string(fm.Type), Tags: fm.Tags, Created: fm.Created, Updated: fm.Updated, Scope: fm.Scope,
		})
		if err := index.Save(root, idx); err != nil {
			return emitError(g, err)
		}

		gr, err := graph.Load(root)
		if err != nil {
			return emitError(g, err)
		}
		gr = graph.AddNode(gr, graph.Node{ID: fm.ID, Type: string(fm.Type)})
		if err := graph.Save(root, gr, true); err != nil {
			return emitError(g, err)
		}
		imported = append(imported, fm.ID)
	}

	for _, e := range bundle.Graph.Edges {
		_, _ = mutate.Link(root, e.Source, e.Target, e.Label)
	}

	msg := fmt.Sprintf("%d memories imported", len(imported))
	if len(imported) < len(bundle.Memories) {
		return emitPartial(g, msg, msg, imported)
	}
	return emitSuccess(g, msg, msg, imported)
}
