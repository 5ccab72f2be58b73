// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"fmt"

	"github.com/kraklabs/memo/internal/metrics"
	"github.com/kraklabs/memo/internal/store/docfile"
	"github.com/kraklabs/memo/internal/store/embed"
	"github.com/kraklabs/memo/internal/store/index"
	"github.com/kraklabs/memo/internal/store/scope"
	"github.com/kraklabs/memo/internal/store/search"
	"github.com/kraklabs/memo/internal/ui"
	"github.com/spf13/pflag"
)

// runSearch implements both the "search" and "semantic" canonical
// commands: semantic ranking is the default whenever an embedding
// provider is configured, with --keyword forcing the weighted-frequency
// fallback explicitly. "memo semantic" is a thin alias that always
// requests semantic ranking.
func runSearch(args []string) int {
	return doSearch(args, false)
}

func runSemantic(args []string) int {
	return doSearch(args, true)
}

func doSearch(args []string, forceSemantic bool) int {
	var g GlobalFlags
	fs := pflag.NewFlagSet("search", pflag.ContinueOnError)
	g.register(fs)
	keyword := fs.Bool("keyword", false, "force keyword ranking, skipping the embedding provider")
	limit := fs.Int("limit", 10, "maximum results to return")
	if err := fs.Parse(args); err != nil {
		return emitUsage(err.Error())
	}
	ui.InitColors(g.NoColor)

	if fs.NArg() != 1 {
		return emitUsage("search requires exactly one query argument")
	}
	query := fs.Arg(0)

	roots, err := g.resolveAllRoots()
	if err != nil {
		return emitError(g, err)
	}

	var candidates []search.Candidate
	provider := embedProvider()
	caches := map[scope.Kind]embed.Cache{}
	wantCaches := provider != nil && (!*keyword || forceSemantic)
	for _, kind := range scope.CrossScopePrecedence {
		root, ok := roots[kind]
		if !ok {
			continue
		}
		scopedCandidates, err := loadCandidates(kind, root)
		if err != nil {
			return emitError(g, err)
		}
		candidates = append(candidates, scopedCandidates...)
		if wantCaches {
			if cache, err := embed.Load(root); err == nil {
				caches[kind] = cache
			}
		}
	}

	opts := search.Options{ForceKeyword: *keyword && !forceSemantic, Limit: *limit}
	results := search.Search(context.Background(), query, candidates, caches, provider, opts)

	mode := "keyword"
	if len(results) > 0 {
		mode = string(results[0].Method)
	}
	metrics.SearchesTotal.WithLabelValues("all", mode).Inc()
	if forceSemantic && mode == "keyword" {
		metrics.SearchFallbacksTotal.WithLabelValues("all").Inc()
	}

	if !g.JSON {
		ui.Header(fmt.Sprintf("memo search (%s)", mode))
		for _, r := range results {
			ui.Infof("%-30s  %.3f", r.ID, r.Score)
		}
	}
	return emitSuccess(g, fmt.Sprintf("%d results", len(results)), "search results", results)
}

// loadCandidates reads every memory in root into a search.Candidate,
// flattening frontmatter and body so internal/store/search never has to
// know about on-disk layout.
func loadCandidates(kind scope.Kind, root string) ([]search.Candidate, error) {
	idx, err := index.Load(root)
	if err != nil {
		return nil, err
	}
	candidates := make([]search.Candidate, 0, len(idx.Memories))
	for _, e := range idx.Memories {
		doc, err := docfile.Read(pathFor(root, e.RelativePath))
		if err != nil {
			continue
		}
		candidates = append(candidates, search.Candidate{
			ID:      e.ID,
			Type:    docfile.Type(e.Type),
			Scope:   kind,
			Title:   doc.Frontmatter.Title,
			Tags:    doc.Frontmatter.Tags,
			Body:    doc.Body,
			Updated: e.Updated.Unix(),
		})
	}
	return candidates, nil
}
