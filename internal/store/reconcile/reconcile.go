// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package reconcile restores the three-representation consistency (files,
// index, graph, and the optional embedding cache) after external edits or
// crashes. Every procedure here assumes the scope may have been hand-edited
// between runs and is safe to run repeatedly.
package reconcile

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kraklabs/memo/internal/langdetect"
	"github.com/kraklabs/memo/internal/store/docfile"
	"github.com/kraklabs/memo/internal/store/embed"
	"github.com/kraklabs/memo/internal/store/graph"
	"github.com/kraklabs/memo/internal/store/index"
	"github.com/kraklabs/memo/internal/store/lease"
)

// EmbeddingReport tallies how a refresh pass touched the embedding cache.
type EmbeddingReport struct {
	Created int
	Reused  int
	Skipped int
}

// Report is the completion summary every reconciler procedure returns.
// Operations log but do not halt on a per-item error; a skipped item is
// reflected in Embeddings.Skipped or simply absent from Scanned/Migrated,
// never surfaced as a hard failure of the whole pass.
type Report struct {
	Scanned    int
	Migrated   int
	Removed    int
	Reattached int
	Embeddings EmbeddingReport
}

// ProgressThreshold is the scope size, in memories, above which a human-
// mode caller should render a progress bar (spec.md §4.9 / SPEC_FULL §10).
const ProgressThreshold = 200

// Progress is satisfied by *progressbar.ProgressBar; cmd/memo constructs
// one in human-output mode for scopes above ProgressThreshold and passes
// nil otherwise (always nil under --json).
type Progress interface {
	Add(int) error
}

func tick(p Progress) {
	if p != nil {
		_ = p.Add(1)
	}
}

var defaultLogger = slog.Default()

func scanDir(scopeRoot, sub string) ([]string, error) {
	dir := filepath.Join(scopeRoot, sub)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		paths = append(paths, filepath.Join(sub, e.Name()))
	}
	return paths, nil
}

// scanFiles lists every memory file under permanent/ and temporary/,
// scope-relative, in a stable order.
func scanFiles(scopeRoot string) ([]string, error) {
	var all []string
	for _, sub := range []string{"permanent", "temporary"} {
		paths, err := scanDir(scopeRoot, sub)
		if err != nil {
			return nil, err
		}
		all = append(all, paths...)
	}
	sort.Strings(all)
	return all, nil
}

// Rebuild scans files under permanent/ and temporary/ and regenerates
// index.json from their frontmatter, which is authoritative. A file that
// fails to parse is logged and skipped, not fatal to the pass.
func Rebuild(scopeRoot string, prog Progress) (Report, error) {
	var report Report
	err := lease.WithLease(scopeRoot, lease.DefaultTimeout, func() error {
		paths, err := scanFiles(scopeRoot)
		if err != nil {
			return err
		}

		idx := index.Index{}
		for _, rel := range paths {
			doc, err := docfile.Read(filepath.Join(scopeRoot, rel))
			if err != nil {
				defaultLogger.Warn("reconcile.rebuild.parse_error", "path", rel, "error", err)
				tick(prog)
				continue
			}
			idx = index.Upsert(idx, index.Entry{
				ID:           doc.Frontmatter.ID,
				RelativePath: filepath.ToSlash(rel),
				Type:         string(doc.Frontmatter.Type),
				Tags:         doc.Frontmatter.Tags,
				Created:      doc.Frontmatter.Created,
				Updated:      doc.Frontmatter.Updated,
				Scope:        doc.Frontmatter.Scope,
			})
			report.Scanned++
			tick(prog)
		}

		return index.Save(scopeRoot, idx)
	})
	return report, err
}

// Reindex ensures every index entry has a matching graph node (creating or
// retyping it — counted as Reattached), and removes ghost nodes that have
// no corresponding index entry (counted as Removed). It never fabricates
// edges.
func Reindex(scopeRoot string, prog Progress) (Report, error) {
	var report Report
	err := lease.WithLease(scopeRoot, lease.DefaultTimeout, func() error {
		idx, migrated, err := index.LoadMigrating(scopeRoot)
		if err != nil {
			return err
		}
		report.Migrated = migrated

		g, err := graph.Load(scopeRoot)
		if err != nil {
			return err
		}

		byID := make(map[string]index.Entry, len(idx.Memories))
		for _, e := range idx.Memories {
			byID[e.ID] = e
		}

		nodeTypes := make(map[string]string, len(g.Nodes))
		for _, n := range g.Nodes {
			nodeTypes[n.ID] = n.Type
		}

		for _, e := range idx.Memories {
			if typ, ok := nodeTypes[e.ID]; !ok || typ != e.Type {
				report.Reattached++
			}
			g = graph.AddNode(g, graph.Node{ID: e.ID, Type: e.Type})
			report.Scanned++
			tick(prog)
		}

		var kept []graph.Node
		for _, n := range g.Nodes {
			entry, ok := byID[n.ID]
			if !ok {
				report.Removed++
				continue
			}
			if entry.Type != n.Type {
				n.Type = entry.Type
				report.Reattached++
			}
			kept = append(kept, n)
		}
		g = graph.Graph{Version: g.Version, Nodes: kept, Edges: g.Edges}

		return graph.Save(scopeRoot, g, scopeHasFiles(scopeRoot))
	})
	return report, err
}

// Sync runs rebuild and reindex, then removes any edge whose source or
// target is no longer a node in the graph. It is idempotent and safe to
// run at any time.
func Sync(scopeRoot string, prog Progress) (Report, error) {
	rebuildReport, err := Rebuild(scopeRoot, prog)
	if err != nil {
		return Report{}, err
	}
	reindexReport, err := Reindex(scopeRoot, prog)
	if err != nil {
		return Report{}, err
	}

	report := Report{
		Scanned:    rebuildReport.Scanned,
		Migrated:   reindexReport.Migrated,
		Removed:    reindexReport.Removed,
		Reattached: reindexReport.Reattached,
	}

	err = lease.WithLease(scopeRoot, lease.DefaultTimeout, func() error {
		g, err := graph.Load(scopeRoot)
		if err != nil {
			return err
		}

		nodeIDs := make(map[string]bool, len(g.Nodes))
		for _, n := range g.Nodes {
			nodeIDs[n.ID] = true
		}

		var kept []graph.Edge
		for _, e := range g.Edges {
			if !nodeIDs[e.Source] || !nodeIDs[e.Target] {
				report.Removed++
				continue
			}
			kept = append(kept, e)
		}
		g = graph.Graph{Version: g.Version, Nodes: g.Nodes, Edges: kept}

		return graph.Save(scopeRoot, g, scopeHasFiles(scopeRoot))
	})
	return report, err
}

// RefreshOptions controls the refresh pass.
type RefreshOptions struct {
	// Embeddings, when set, (re)generates embedding vectors for every
	// non-breadcrumb memory using provider, in addition to the unconditional
	// computed-field refresh.
	Embeddings bool
	Provider   embed.Provider
}

var goFence = "```go"

// Refresh re-derives computed frontmatter fields (WordCount, and CodeValid
// for artifacts containing a fenced ```go block) from each memory's current
// body, and optionally regenerates embeddings. Truncation during embedding
// generation is logged as a warning, never fatal to the pass.
func Refresh(scopeRoot string, opts RefreshOptions, prog Progress) (Report, error) {
	var report Report
	err := lease.WithLease(scopeRoot, lease.DefaultTimeout, func() error {
		idx, err := index.Load(scopeRoot)
		if err != nil {
			return err
		}

		var cache embed.Cache
		if opts.Embeddings {
			cache, err = embed.Load(scopeRoot)
			if err != nil {
				return err
			}
		}

		for _, entry := range idx.Memories {
			path := filepath.Join(scopeRoot, entry.RelativePath)
			doc, err := docfile.Read(path)
			if err != nil {
				defaultLogger.Warn("reconcile.refresh.parse_error", "id", entry.ID, "error", err)
				tick(prog)
				continue
			}

			doc.Frontmatter.WordCount = len(strings.Fields(doc.Body))
			if doc.Frontmatter.Type == docfile.Artifact && strings.Contains(doc.Body, goFence) {
				valid := langdetect.AllValid(langdetect.CheckGoFences(doc.Body))
				doc.Frontmatter.CodeValid = &valid
			}

			local := doc.Frontmatter.Scope == "local"
			if err := docfile.Write(path, doc, local); err != nil {
				defaultLogger.Warn("reconcile.refresh.write_error", "id", entry.ID, "error", err)
				tick(prog)
				continue
			}
			report.Scanned++

			if opts.Embeddings && opts.Provider != nil && doc.Frontmatter.Type != docfile.Breadcrumb {
				content := doc.Frontmatter.Title + "\n\n" + doc.Body
				before := cache.Memories[entry.ID]
				updated, _, truncated, embedErr := embed.GetOrCompute(context.Background(), cache, opts.Provider, entry.ID, content)
				if embedErr != nil {
					defaultLogger.Warn("reconcile.refresh.embed_error", "id", entry.ID, "error", embedErr)
					report.Embeddings.Skipped++
				} else {
					if truncated {
						defaultLogger.Warn("reconcile.refresh.truncated", "id", entry.ID)
					}
					if before.ContentHash == updated.Memories[entry.ID].ContentHash && before.ContentHash != "" {
						report.Embeddings.Reused++
					} else {
						report.Embeddings.Created++
					}
					cache = updated
				}
			}
			tick(prog)
		}

		if opts.Embeddings {
			return embed.Save(scopeRoot, cache)
		}
		return nil
	})
	return report, err
}

// Issue describes one inconsistency Validate found between files, the
// index, and the graph.
type Issue struct {
	Kind   string // "ghost_node", "dangling_edge", "missing_node", "untracked_file"
	ID     string
	Detail string
}

// Validate scans scopeRoot read-only and reports inconsistencies without
// writing anything, per spec.md §4.9 ("repair: sync + validate"). sync
// fixes what this finds; validate only reports it.
func Validate(scopeRoot string, prog Progress) ([]Issue, error) {
	idx, err := index.Load(scopeRoot)
	if err != nil {
		return nil, err
	}
	g, err := graph.Load(scopeRoot)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]index.Entry, len(idx.Memories))
	tracked := make(map[string]bool, len(idx.Memories))
	for _, e := range idx.Memories {
		byID[e.ID] = e
		tracked[e.RelativePath] = true
	}

	var issues []Issue

	files, err := scanFiles(scopeRoot)
	if err != nil {
		return nil, err
	}
	for _, rel := range files {
		relSlash := filepath.ToSlash(rel)
		if !tracked[relSlash] {
			issues = append(issues, Issue{Kind: "untracked_file", Detail: relSlash})
		}
		tick(prog)
	}

	nodeIDs := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		nodeIDs[n.ID] = true
		if _, ok := byID[n.ID]; !ok {
			issues = append(issues, Issue{Kind: "ghost_node", ID: n.ID})
		}
	}
	for _, e := range g.Edges {
		if !nodeIDs[e.Source] || !nodeIDs[e.Target] {
			issues = append(issues, Issue{Kind: "dangling_edge", ID: e.Source + "->" + e.Target})
		}
	}
	for id := range byID {
		if !nodeIDs[id] {
			issues = append(issues, Issue{Kind: "missing_node", ID: id})
		}
	}
	return issues, nil
}

// Repair runs sync, then validate to confirm the scope is clean,
// logging any issues sync could not resolve (e.g. a dangling reference
// introduced mid-run). It returns sync's report; validate here is a
// confidence check, not a second source of counts.
func Repair(scopeRoot string, prog Progress) (Report, error) {
	report, err := Sync(scopeRoot, prog)
	if err != nil {
		return Report{}, err
	}
	if issues, verr := Validate(scopeRoot, nil); verr == nil {
		for _, issue := range issues {
			defaultLogger.Warn("reconcile.repair.unresolved", "kind", issue.Kind, "id", issue.ID, "detail", issue.Detail)
		}
	}
	return report, nil
}

func scopeHasFiles(scopeRoot string) bool {
	for _, sub := range []string{"permanent", "temporary", "archive"} {
		entries, err := os.ReadDir(filepath.Join(scopeRoot, sub))
		if err == nil && len(entries) > 0 {
			return true
		}
	}
	return false
}
