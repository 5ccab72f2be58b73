// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kraklabs/memo/internal/narrate"
	"github.com/kraklabs/memo/internal/store/embed"
	"github.com/kraklabs/memo/internal/store/graph"
	"github.com/kraklabs/memo/internal/store/mutate"
	"github.com/kraklabs/memo/internal/store/scope"
	"github.com/kraklabs/memo/internal/store/search"
	"github.com/kraklabs/memo/internal/ui"
	"github.com/spf13/pflag"
)

func runSummarize(args []string) int {
	var g GlobalFlags
	fs := pflag.NewFlagSet("summarize", pflag.ContinueOnError)
	g.register(fs)
	words := fs.Int("words", narrate.DefaultFirstWords, "word count for the non-LLM fallback summary")
	if err := fs.Parse(args); err != nil {
		return emitUsage(err.Error())
	}
	ui.InitColors(g.NoColor)

	if fs.NArg() != 1 {
		return emitUsage("summarize requires exactly one memory id")
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

	chatProvider := chatProviderFromEnv()
	text, usedLLM := narrate.Summarize(context.Background(), chatProvider, doc.Frontmatter.Title, doc.Body, *words)

	result := map[string]any{
		"id":      id,
		"type":    doc.Frontmatter.Type,
		"tags":    doc.Frontmatter.Tags,
		"summary": text,
		"llm":     usedLLM,
	}

	if !g.JSON {
		ui.Header("memo summarize " + id)
		ui.Info(text)
	}
	return emitSuccess(g, text, "summary", result)
}

// chatProviderFromEnv mirrors embedProvider's MEMO_EMBED_PROVIDER
// convention for the narrative chat model, defaulting to nil (non-LLM
// fallback) rather than a mock, since there is no deterministic mock
// narrative worth fabricating.
func chatProviderFromEnv() narrate.ChatProvider {
	if os.Getenv("MEMO_CHAT_PROVIDER") != "ollama" {
		return nil
	}
	model := os.Getenv("MEMO_CHAT_MODEL")
	if model == "" {
		model = "llama3"
	}
	return narrate.NewOllamaChatProvider(os.Getenv("OLLAMA_HOST"), model, narrate.DefaultChatTimeout)
}

// runSuggestLinks runs semantic search scoped to the current project,
// excluding the memory's own existing link set, and returns the top-K
// unlinked neighbours above threshold.
func runSuggestLinks(args []string) int {
	var g GlobalFlags
	fs := pflag.NewFlagSet("suggest-links", pflag.ContinueOnError)
	g.register(fs)
	limit := fs.Int("limit", 5, "maximum suggestions to return")
	if err := fs.Parse(args); err != nil {
		return emitUsage(err.Error())
	}
	ui.InitColors(g.NoColor)

	if fs.NArg() != 1 {
		return emitUsage("suggest-links requires exactly one memory id")
	}
	id := fs.Arg(0)

	kind, root, err := g.resolveRoot()
	if err != nil {
		return emitError(g, err)
	}

	doc, err := mutate.Read(root, id)
	if err != nil {
		return emitError(g, err)
	}

	gr, err := graph.Load(root)
	if err != nil {
		return emitError(g, err)
	}
	excluded := map[string]bool{id: true}
	for _, n := range graph.Neighbours(gr, id) {
		excluded[n] = true
	}

	candidates, err := loadCandidates(kind, root)
	if err != nil {
		return emitError(g, err)
	}

	provider := embedProvider()
	if provider == nil {
		msg := "no embedding provider configured"
		return emitPartial(g, msg, msg, []search.Result{})
	}
	cache, err := embed.Load(root)
	if err != nil {
		return emitError(g, err)
	}

	query := doc.Frontmatter.Title + "\n\n" + doc.Body
	results, err := search.Semantic(context.Background(), query, candidates, map[scope.Kind]embed.Cache{kind: cache}, provider, search.SemanticOptions{})
	if err != nil {
		msg := "embedding provider unreachable, no suggestions"
		return emitPartial(g, msg, msg, []search.Result{})
	}

	suggestions := make([]search.Result, 0, *limit)
	for _, r := range results {
		if excluded[r.ID] {
			continue
		}
		suggestions = append(suggestions, r)
		if len(suggestions) >= *limit {
			break
		}
	}

	if !g.JSON {
		ui.Header("memo suggest-links " + id)
		for _, s := range suggestions {
			ui.Infof("%-30s  %.3f", s.ID, s.Score)
		}
	}
	return emitSuccess(g, fmt.Sprintf("%d suggestions", len(suggestions)), "suggestions", suggestions)
}
