// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"fmt"
	"strings"

	"github.com/kraklabs/memo/internal/store/graph"
	"github.com/kraklabs/memo/internal/store/mutate"
	"github.com/kraklabs/memo/internal/ui"
	"github.com/spf13/pflag"
)

func runLink(args []string) int {
	var g GlobalFlags
	fs := pflag.NewFlagSet("link", pflag.ContinueOnError)
	g.register(fs)
	label := fs.String("label", "", "edge label")
	if err := fs.Parse(args); err != nil {
		return emitUsage(err.Error())
	}
	ui.InitColors(g.NoColor)

	if fs.NArg() != 2 {
		return emitUsage("link requires a source and a target memory id")
	}
	source, target := fs.Arg(0), fs.Arg(1)

	_, root, err := g.resolveRoot()
	if err != nil {
		return emitError(g, err)
	}

	res, err := mutate.Link(root, source, target, *label)
	if err != nil {
		return emitError(g, err)
	}
	msg := fmt.Sprintf("linked %s -> %s", source, target)
	if !res.Created {
		msg = fmt.Sprintf("%s -> %s already linked", source, target)
	}
	return emitSuccess(g, msg, msg, res)
}

func runUnlink(args []string) int {
	var g GlobalFlags
	fs := pflag.NewFlagSet("unlink", pflag.ContinueOnError)
	g.register(fs)
	label := fs.String("label", "", "edge label")
	if err := fs.Parse(args); err != nil {
		return emitUsage(err.Error())
	}
	ui.InitColors(g.NoColor)

	if fs.NArg() != 2 {
		return emitUsage("unlink requires a source and a target memory id")
	}
	source, target := fs.Arg(0), fs.Arg(1)

	_, root, err := g.resolveRoot()
	if err != nil {
		return emitError(g, err)
	}

	if err := mutate.Unlink(root, source, target, *label); err != nil {
		return emitError(g, err)
	}
	msg := fmt.Sprintf("unlinked %s -> %s", source, target)
	return emitSuccess(g, msg, msg, nil)
}

func runEdges(args []string) int {
	var g GlobalFlags
	fs := pflag.NewFlagSet("edges", pflag.ContinueOnError)
	g.register(fs)
	if err := fs.Parse(args); err != nil {
		return emitUsage(err.Error())
	}
	ui.InitColors(g.NoColor)

	if fs.NArg() != 1 {
		return emitUsage("edges requires exactly one memory id")
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
	edges := graph.Incident(gr, id)

	if !g.JSON {
		ui.Header("memo edges " + id)
		for _, e := range edges {
			ui.Infof("%s -> %s  %s", e.Source, e.Target, e.Label)
		}
	}
	return emitSuccess(g, fmt.Sprintf("%d edges", len(edges)), "edges", edges)
}

func runGraph(args []string) int {
	var g GlobalFlags
	fs := pflag.NewFlagSet("graph", pflag.ContinueOnError)
	g.register(fs)
	if err := fs.Parse(args); err != nil {
		return emitUsage(err.Error())
	}
	ui.InitColors(g.NoColor)

	_, root, err := g.resolveRoot()
	if err != nil {
		return emitError(g, err)
	}

	gr, err := graph.Load(root)
	if err != nil {
		return emitError(g, err)
	}

	if !g.JSON {
		ui.Header("memo graph")
		ui.Infof("%d nodes, %d edges", len(gr.Nodes), len(gr.Edges))
	}
	return emitSuccess(g, fmt.Sprintf("%d nodes, %d edges", len(gr.Nodes), len(gr.Edges)), "graph", gr)
}

func runMermaid(args []string) int {
	var g GlobalFlags
	fs := pflag.NewFlagSet("mermaid", pflag.ContinueOnError)
	g.register(fs)
	if err := fs.Parse(args); err != nil {
		return emitUsage(err.Error())
	}
	ui.InitColors(g.NoColor)

	_, root, err := g.resolveRoot()
	if err != nil {
		return emitError(g, err)
	}

	gr, err := graph.Load(root)
	if err != nil {
		return emitError(g, err)
	}

	diagram := renderMermaid(gr)
	if !g.JSON {
		fmt.Println(diagram)
	}
	return emitSuccess(g, "rendered mermaid diagram", "mermaid", diagram)
}

// renderMermaid renders g as a Mermaid flowchart, one node declaration
// per memory (labelled with its type) and one arrow per edge.
func renderMermaid(g graph.Graph) string {
	var b strings.Builder
	b.WriteString("flowchart LR\n")
	for _, n := range g.Nodes {
		fmt.Fprintf(&b, "  %s[\"%s (%s)\"]\n", mermaidID(n.ID), n.ID, n.Type)
	}
	for _, e := range g.Edges {
		if e.Label != "" {
			fmt.Fprintf(&b, "  %s -->|%s| %s\n", mermaidID(e.Source), e.Label, mermaidID(e.Target))
		} else {
			fmt.Fprintf(&b, "  %s --> %s\n", mermaidID(e.Source), mermaidID(e.Target))
		}
	}
	return b.String()
}

// mermaidID sanitises a memory ID into a Mermaid-safe node identifier;
// hyphens are not valid inside Mermaid node IDs.
func mermaidID(id string) string {
	return strings.ReplaceAll(id, "-", "_")
}

func runRemoveNode(args []string) int {
	var g GlobalFlags
	fs := pflag.NewFlagSet("remove-node", pflag.ContinueOnError)
	g.register(fs)
	if err := fs.Parse(args); err != nil {
		return emitUsage(err.Error())
	}
	ui.InitColors(g.NoColor)

	if fs.NArg() != 1 {
		return emitUsage("remove-node requires exactly one memory id")
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
	gr = graph.RemoveNode(gr, id)
	if err := graph.Save(root, gr, scopeHasFiles(root)); err != nil {
		return emitError(g, err)
	}
	msg := "removed graph node " + id
	return emitSuccess(g, msg, msg, nil)
}
