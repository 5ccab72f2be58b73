// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"bytes"
	"fmt"

	"github.com/kraklabs/memo/internal/metrics"
	"github.com/kraklabs/memo/internal/store/graph"
	"github.com/kraklabs/memo/internal/store/index"
	"github.com/kraklabs/memo/internal/store/scope"
	"github.com/kraklabs/memo/internal/ui"
	"github.com/spf13/pflag"
)

// ScopeStatus summarises one scope's derived state for `memo status`.
type ScopeStatus struct {
	Scope     scope.Kind `json:"scope"`
	Available bool       `json:"available"`
	Root      string     `json:"root,omitempty"`
	Memories  int        `json:"memories"`
	ByType    map[string]int `json:"byType,omitempty"`
	Nodes     int        `json:"nodes"`
	Edges     int        `json:"edges"`
	Orphans   int        `json:"orphans"`
}

func runStatus(args []string) int {
	var g GlobalFlags
	fs := pflag.NewFlagSet("status", pflag.ContinueOnError)
	g.register(fs)
	if err := fs.Parse(args); err != nil {
		return emitUsage(err.Error())
	}
	ui.InitColors(g.NoColor)

	var statuses []ScopeStatus
	for _, kind := range []scope.Kind{scope.Enterprise, scope.Local, scope.Project, scope.Global} {
		flags := g
		flags.Scope = string(kind)
		resolvedKind, root, err := flags.resolveRoot()
		if err != nil {
			statuses = append(statuses, ScopeStatus{Scope: kind, Available: false})
			continue
		}

		st := ScopeStatus{Scope: resolvedKind, Available: true, Root: root, ByType: map[string]int{}}
		if idx, err := index.Load(root); err == nil {
			st.Memories = len(idx.Memories)
			for _, e := range idx.Memories {
				st.ByType[e.Type]++
			}
		}
		if gr, err := graph.Load(root); err == nil {
			st.Nodes = len(gr.Nodes)
			st.Edges = len(gr.Edges)
			st.Orphans = len(graph.Orphans(gr))
		}
		statuses = append(statuses, st)
	}

	if !g.JSON {
		ui.Header("memo status")
		for _, st := range statuses {
			if !st.Available {
				ui.Infof("%-10s  unavailable", st.Scope)
				continue
			}
			ui.Infof("%-10s  %d memories, %d nodes, %d edges, %d orphans", st.Scope, st.Memories, st.Nodes, st.Edges, st.Orphans)
		}
	}
	return emitSuccess(g, "status", "scope status", statuses)
}

func runStats(args []string) int {
	var g GlobalFlags
	fs := pflag.NewFlagSet("stats", pflag.ContinueOnError)
	g.register(fs)
	prom := fs.Bool("prom", false, "emit Prometheus text exposition instead of the JSON/human summary")
	if err := fs.Parse(args); err != nil {
		return emitUsage(err.Error())
	}
	ui.InitColors(g.NoColor)

	if *prom {
		var buf bytes.Buffer
		if err := metrics.WriteText(&buf); err != nil {
			return emitError(g, err)
		}
		fmt.Print(buf.String())
		return 0
	}

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

	byType := map[string]int{}
	for _, e := range idx.Memories {
		byType[e.Type]++
	}
	data := map[string]any{
		"memories": len(idx.Memories),
		"byType":   byType,
		"nodes":    len(gr.Nodes),
		"edges":    len(gr.Edges),
		"orphans":  len(graph.Orphans(gr)),
	}

	if !g.JSON {
		ui.Header("memo stats")
		for typ, count := range byType {
			ui.Infof("%-12s  %d", typ, count)
		}
	}
	return emitSuccess(g, fmt.Sprintf("%d memories", len(idx.Memories)), "stats", data)
}
