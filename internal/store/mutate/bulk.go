// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package mutate

import (
	"path/filepath"
	"time"

	"github.com/kraklabs/memo/internal/store/docfile"
	"github.com/kraklabs/memo/internal/store/embed"
	"github.com/kraklabs/memo/internal/store/graph"
	"github.com/kraklabs/memo/internal/store/idgen"
	"github.com/kraklabs/memo/internal/store/index"
	"github.com/kraklabs/memo/internal/store/lease"
)

// ItemResult is one bulk operation's per-item outcome.
type ItemResult struct {
	ID     string
	Status string // "ok" or "error"
	Error  string `json:"error,omitempty"`
}

// BulkResult summarises a bulk operation: how many items succeeded, how
// many were skipped entirely (e.g. not found), and the per-item detail.
// Bulk operations never abort on a single bad ID — they record it and
// continue, per spec.md §4.8.
type BulkResult struct {
	Processed int
	Skipped   int
	Errors    []ItemResult
}

func (r *BulkResult) ok(id string) {
	r.Processed++
}

func (r *BulkResult) fail(id string, err error) {
	r.Skipped++
	r.Errors = append(r.Errors, ItemResult{ID: id, Status: "error", Error: err.Error()})
}

// BulkDelete deletes every id present in scopeRoot, loading the index and
// graph once and saving once after processing the whole batch.
func BulkDelete(scopeRoot string, ids []string) (BulkResult, error) {
	var result BulkResult
	err := lease.WithLease(scopeRoot, lease.DefaultTimeout, func() error {
		idx, err := index.Load(scopeRoot)
		if err != nil {
			return err
		}
		g, err := graph.Load(scopeRoot)
		if err != nil {
			return err
		}
		cache, err := embed.Load(scopeRoot)
		if err != nil {
			return err
		}

		for _, id := range ids {
			entry, ok := index.FindByID(idx, id)
			if !ok {
				result.fail(id, notFoundErr(id))
				continue
			}
			if err := docfile.Delete(filepath.Join(scopeRoot, entry.RelativePath)); err != nil {
				result.fail(id, err)
				continue
			}
			idx = index.Remove(idx, id)
			g = graph.RemoveNode(g, id)
			cache = embed.Remove(cache, id)
			result.ok(id)
		}

		if err := index.Save(scopeRoot, idx); err != nil {
			return err
		}
		if err := graph.Save(scopeRoot, g, scopeHasFiles(scopeRoot)); err != nil {
			return err
		}
		return embed.Save(scopeRoot, cache)
	})
	return result, err
}

// TagOp describes one bulk-tag item: add tag to id.
type TagOp struct {
	ID  string
	Tag string
}

// BulkTag applies every tag op, loading the index once and saving it once.
// Each memory's file is still rewritten individually since tags live in
// per-file frontmatter.
func BulkTag(scopeRoot string, ops []TagOp, now time.Time, local bool) (BulkResult, error) {
	var result BulkResult
	err := lease.WithLease(scopeRoot, lease.DefaultTimeout, func() error {
		idx, err := index.Load(scopeRoot)
		if err != nil {
			return err
		}

		for _, op := range ops {
			entry, ok := index.FindByID(idx, op.ID)
			if !ok {
				result.fail(op.ID, notFoundErr(op.ID))
				continue
			}
			path := filepath.Join(scopeRoot, entry.RelativePath)
			doc, err := docfile.Read(path)
			if err != nil {
				result.fail(op.ID, err)
				continue
			}
			doc.Frontmatter.Tags = addTag(doc.Frontmatter.Tags, op.Tag)
			doc.Frontmatter.Updated = now
			if err := docfile.Write(path, doc, local); err != nil {
				result.fail(op.ID, err)
				continue
			}
			entry.Tags = doc.Frontmatter.Tags
			entry.Updated = now
			idx = index.Upsert(idx, entry)
			result.ok(op.ID)
		}

		return index.Save(scopeRoot, idx)
	})
	return result, err
}

func addTag(tags []string, tag string) []string {
	for _, t := range tags {
		if t == tag {
			return tags
		}
	}
	return append(append([]string{}, tags...), tag)
}

// LinkOp describes one bulk-link or bulk-unlink item.
type LinkOp struct {
	Source string
	Target string
	Label  string
}

// BulkLink adds every edge in ops, loading the graph once and saving once.
// Edges whose endpoints do not both exist in-scope are reported as errors
// but do not abort the remaining batch.
func BulkLink(scopeRoot string, ops []LinkOp) (BulkResult, error) {
	var result BulkResult
	err := lease.WithLease(scopeRoot, lease.DefaultTimeout, func() error {
		g, err := graph.Load(scopeRoot)
		if err != nil {
			return err
		}

		for _, op := range ops {
			if !graph.HasNode(g, op.Source) || !graph.HasNode(g, op.Target) {
				result.fail(op.Source+"->"+op.Target, notFoundErr(op.Source+" or "+op.Target))
				continue
			}
			g = graph.AddEdge(g, graph.Edge{Source: op.Source, Target: op.Target, Label: op.Label})
			result.ok(op.Source + "->" + op.Target)
		}

		return graph.Save(scopeRoot, g, scopeHasFiles(scopeRoot))
	})
	return result, err
}

// BulkUnlink removes every edge in ops, loading the graph once and saving
// once. Unlinking an absent edge is a success (idempotent), matching the
// single-item Unlink semantics.
func BulkUnlink(scopeRoot string, ops []LinkOp) (BulkResult, error) {
	var result BulkResult
	err := lease.WithLease(scopeRoot, lease.DefaultTimeout, func() error {
		g, err := graph.Load(scopeRoot)
		if err != nil {
			return err
		}

		for _, op := range ops {
			g = graph.RemoveEdge(g, op.Source, op.Target, op.Label)
			result.ok(op.Source + "->" + op.Target)
		}

		return graph.Save(scopeRoot, g, scopeHasFiles(scopeRoot))
	})
	return result, err
}

// BulkPromote retypes every id to newType, loading the index and graph
// once and saving once.
func BulkPromote(scopeRoot string, ids []string, newType docfile.Type, now time.Time, local bool) (BulkResult, error) {
	var result BulkResult
	err := lease.WithLease(scopeRoot, lease.DefaultTimeout, func() error {
		if !docfile.ValidType(newType) {
			return invalidTypeErr(newType)
		}

		idx, err := index.Load(scopeRoot)
		if err != nil {
			return err
		}
		g, err := graph.Load(scopeRoot)
		if err != nil {
			return err
		}

		for _, id := range ids {
			entry, ok := index.FindByID(idx, id)
			if !ok {
				result.fail(id, notFoundErr(id))
				continue
			}

			oldPath := filepath.Join(scopeRoot, entry.RelativePath)
			doc, err := docfile.Read(oldPath)
			if err != nil {
				result.fail(id, err)
				continue
			}

			newID := idgen.GenerateID(string(newType), doc.Frontmatter.Title, existingIDs(idx, id))
			doc.Frontmatter.ID = newID
			doc.Frontmatter.Type = newType
			doc.Frontmatter.Updated = now

			newRel := filepath.Join(newType.Dir(), newID+".md")
			if err := docfile.Write(filepath.Join(scopeRoot, newRel), doc, local); err != nil {
				result.fail(id, err)
				continue
			}
			if err := docfile.Delete(oldPath); err != nil {
				result.fail(id, err)
				continue
			}

			idx = index.Remove(idx, id)
			idx = index.Upsert(idx, index.Entry{
				ID: newID, RelativePath: filepath.ToSlash(newRel), Type: string(newType),
				Tags: doc.Frontmatter.Tags, Created: doc.Frontmatter.Created, Updated: now, Scope: doc.Frontmatter.Scope,
			})
			g = graph.RenameNode(g, id, newID)
			g = retypeNode(g, newID, string(newType))
			result.ok(id)
		}

		if err := index.Save(scopeRoot, idx); err != nil {
			return err
		}
		return graph.Save(scopeRoot, g, scopeHasFiles(scopeRoot))
	})
	return result, err
}

func retypeNode(g graph.Graph, id, typ string) graph.Graph {
	nodes := make([]graph.Node, len(g.Nodes))
	for i, n := range g.Nodes {
		if n.ID == id {
			n.Type = typ
		}
		nodes[i] = n
	}
	return graph.Graph{Version: g.Version, Nodes: nodes, Edges: g.Edges}
}

// BulkMove relocates every id from sourceRoot to targetRoot. Per
// spec.md §5, cross-scope bulk moves are not atomic: the target scope is
// loaded and saved once, then the source scope is loaded and saved once,
// and a failure partway through is reported via BulkResult rather than
// rolled back.
func BulkMove(sourceRoot, targetRoot string, targetLocal bool, ids []string, now time.Time) (BulkResult, error) {
	var result BulkResult
	moved := make([]string, 0, len(ids))

	srcIdx, err := index.Load(sourceRoot)
	if err != nil {
		return BulkResult{}, err
	}

	err = lease.WithLease(targetRoot, lease.DefaultTimeout, func() error {
		targetIdx, err := index.Load(targetRoot)
		if err != nil {
			return err
		}
		targetGraph, err := graph.Load(targetRoot)
		if err != nil {
			return err
		}

		for _, id := range ids {
			entry, ok := index.FindByID(srcIdx, id)
			if !ok {
				result.fail(id, notFoundErr(id))
				continue
			}
			doc, err := docfile.Read(filepath.Join(sourceRoot, entry.RelativePath))
			if err != nil {
				result.fail(id, err)
				continue
			}
			doc.Frontmatter.Updated = now
			newRel := filepath.Join(doc.Frontmatter.Type.Dir(), doc.Frontmatter.ID+".md")
			if err := docfile.Write(filepath.Join(targetRoot, newRel), doc, targetLocal); err != nil {
				result.fail(id, err)
				continue
			}

			targetIdx = index.Upsert(targetIdx, index.Entry{
				ID: doc.Frontmatter.ID, RelativePath: filepath.ToSlash(newRel), Type: string(doc.Frontmatter.Type),
				Tags: doc.Frontmatter.Tags, Created: doc.Frontmatter.Created, Updated: now,
			})
			targetGraph = graph.AddNode(targetGraph, graph.Node{ID: doc.Frontmatter.ID, Type: string(doc.Frontmatter.Type)})
			moved = append(moved, id)
			result.ok(id)
		}

		if err := index.Save(targetRoot, targetIdx); err != nil {
			return err
		}
		return graph.Save(targetRoot, targetGraph, scopeHasFiles(targetRoot))
	})
	if err != nil {
		return BulkResult{}, err
	}

	err = lease.WithLease(sourceRoot, lease.DefaultTimeout, func() error {
		idx, err := index.Load(sourceRoot)
		if err != nil {
			return err
		}
		g, err := graph.Load(sourceRoot)
		if err != nil {
			return err
		}

		for _, id := range moved {
			entry, ok := index.FindByID(idx, id)
			if !ok {
				continue
			}
			_ = docfile.Delete(filepath.Join(sourceRoot, entry.RelativePath))
			idx = index.Remove(idx, id)
			g = graph.RemoveNode(g, id)
		}

		if err := index.Save(sourceRoot, idx); err != nil {
			return err
		}
		return graph.Save(sourceRoot, g, scopeHasFiles(sourceRoot))
	})
	return result, err
}
