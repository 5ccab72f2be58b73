// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package search ranks memories against a query, either by keyword
// frequency or by cosine similarity over cached embeddings, with the
// latter falling back to the former whenever no embedding provider is
// reachable.
package search

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/kraklabs/memo/internal/store/docfile"
	"github.com/kraklabs/memo/internal/store/embed"
	"github.com/kraklabs/memo/internal/store/scope"
)

// Candidate is one searchable memory, flattened from its frontmatter and
// body so this package never has to know about on-disk layout.
type Candidate struct {
	ID      string
	Type    docfile.Type
	Scope   scope.Kind
	Title   string
	Tags    []string
	Body    string
	Updated int64 // unix seconds, used only as a stable tiebreaker
}

// Method names the ranking strategy a Result was produced by.
type Method string

const (
	MethodKeyword  Method = "keyword"
	MethodSemantic Method = "semantic"
)

// Result is one ranked hit.
type Result struct {
	ID     string
	Scope  scope.Kind
	Score  float64
	Method Method
}

// DefaultSearchThreshold is the cosine-similarity cutoff for interactive
// search. DefaultHookThreshold is the looser cutoff used for automatic
// context injection, per spec.md §4.7.
const (
	DefaultSearchThreshold = 0.45
	DefaultHookThreshold   = 0.4
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// Tokenize lowercases text, splits on non-alphanumeric runs, and drops
// stop words and empty tokens.
func Tokenize(text string) []string {
	lower := strings.ToLower(text)
	raw := tokenPattern.FindAllString(lower, -1)
	out := make([]string, 0, len(raw))
	for _, tok := range raw {
		if IsStopWord(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// Keyword scores every candidate by weighted token frequency: title
// matches count 3x, tags 2x, body 1x. Candidates with zero matches are
// omitted. Results are sorted by score descending, then by Updated
// descending, then by ID for a fully deterministic order.
func Keyword(query string, candidates []Candidate) []Result {
	queryTokens := Tokenize(query)
	if len(queryTokens) == 0 {
		return nil
	}

	var out []Result
	for _, c := range candidates {
		score := weightedFrequency(queryTokens, c)
		if score <= 0 {
			continue
		}
		out = append(out, Result{ID: c.ID, Scope: c.Scope, Score: score, Method: MethodKeyword})
	}
	sortResults(out, candidates)
	return out
}

func weightedFrequency(queryTokens []string, c Candidate) float64 {
	titleTokens := Tokenize(c.Title)
	tagTokens := Tokenize(strings.Join(c.Tags, " "))
	bodyTokens := Tokenize(c.Body)

	var score float64
	for _, qt := range queryTokens {
		score += 3 * float64(countToken(titleTokens, qt))
		score += 2 * float64(countToken(tagTokens, qt))
		score += float64(countToken(bodyTokens, qt))
	}
	return score
}

func countToken(tokens []string, target string) int {
	n := 0
	for _, t := range tokens {
		if t == target {
			n++
		}
	}
	return n
}

// SemanticOptions tunes a semantic search call.
type SemanticOptions struct {
	Threshold float64 // defaults to DefaultSearchThreshold when zero
}

// Semantic embeds query and ranks candidates' cached vectors by cosine
// similarity, excluding breadcrumbs and anything below the threshold.
// Candidates without a cache hit (embedding missing or stale) are
// skipped rather than treated as zero-similarity.
func Semantic(ctx context.Context, query string, candidates []Candidate, caches map[scope.Kind]embed.Cache, provider embed.Provider, opts SemanticOptions) ([]Result, error) {
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultSearchThreshold
	}

	truncatedQuery, _ := embed.Truncate(query)
	queryVec, err := provider.Embed(ctx, truncatedQuery)
	if err != nil {
		return nil, err
	}

	var out []Result
	for _, c := range candidates {
		if c.Type == docfile.Breadcrumb {
			continue
		}
		cache, ok := caches[c.Scope]
		if !ok {
			continue
		}
		entry, ok := cache.Memories[c.ID]
		if !ok {
			continue
		}
		sim := cosineSimilarity(queryVec, entry.Vector)
		if sim < threshold {
			continue
		}
		out = append(out, Result{ID: c.ID, Scope: c.Scope, Score: sim, Method: MethodSemantic})
	}
	sortResults(out, candidates)
	return out, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// Options tunes the unified Search entry point.
type Options struct {
	SemanticOptions
	// ForceKeyword skips the semantic attempt entirely, e.g. when a
	// reachability probe already failed this invocation.
	ForceKeyword bool
	Limit        int
}

// Search tries semantic ranking when provider and caches are available
// and a reachability probe succeeds, falling back to keyword on a failed
// probe, any provider error, or when ForceKeyword is set. Results are
// de-duplicated by (scope, id) and truncated to opts.Limit when positive.
func Search(ctx context.Context, query string, candidates []Candidate, caches map[scope.Kind]embed.Cache, provider embed.Provider, opts Options) []Result {
	var results []Result
	usedSemantic := false

	if !opts.ForceKeyword && provider != nil && len(caches) > 0 && embed.ReachabilityProbe(ctx, provider) {
		if semResults, err := Semantic(ctx, query, candidates, caches, provider, opts.SemanticOptions); err == nil {
			results = semResults
			usedSemantic = true
		}
	}

	if !usedSemantic {
		results = Keyword(query, candidates)
	}

	results = dedupe(results)
	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results
}

func dedupe(results []Result) []Result {
	seen := make(map[string]bool, len(results))
	out := make([]Result, 0, len(results))
	for _, r := range results {
		key := string(r.Scope) + "\x00" + r.ID
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

func sortResults(results []Result, candidates []Candidate) {
	updated := make(map[string]int64, len(candidates))
	for _, c := range candidates {
		updated[c.ID] = c.Updated
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if updated[results[i].ID] != updated[results[j].ID] {
			return updated[results[i].ID] > updated[results[j].ID]
		}
		return results[i].ID < results[j].ID
	})
}
