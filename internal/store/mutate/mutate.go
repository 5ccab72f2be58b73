// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package mutate implements the memory lifecycle: write, read, link,
// tag, rename, move, promote, archive, delete and prune. Every operation
// that touches the index or graph runs under the scope's write lease and
// follows the same ordering — files, then index, then graph — so a crash
// between steps always leaves the files (the authoritative copy) ahead of
// the derived caches, which `sync`/`rebuild` can repair.
package mutate

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	memoerrors "github.com/kraklabs/memo/internal/errors"
	"github.com/kraklabs/memo/internal/store/docfile"
	"github.com/kraklabs/memo/internal/store/embed"
	"github.com/kraklabs/memo/internal/store/graph"
	"github.com/kraklabs/memo/internal/store/idgen"
	"github.com/kraklabs/memo/internal/store/index"
	"github.com/kraklabs/memo/internal/store/lease"
	"github.com/kraklabs/memo/internal/store/scope"
)

// WriteInput describes a new memory.
type WriteInput struct {
	Scope scope.Kind
	Type  docfile.Type
	Title string
	Tags  []string
	Body  string
	Links []string // IDs of existing memories in the same scope to link to
}

// WriteResult reports the outcome of Write.
type WriteResult struct {
	ID           string
	RelativePath string
	SkippedLinks []string // link targets that did not exist in-scope
}

// EmbedHook lets Write kick off a best-effort, fire-and-forget embedding
// computation after the synchronous write completes. When WaitGroup is
// non-nil the goroutine is registered on it, so a caller can wait for
// embeddings.json to be saved; cmd/memo's write command waits on it only
// when testWaitForEmbeds is set.
type EmbedHook struct {
	Provider embed.Provider
	WaitGroup *sync.WaitGroup
}

// Write creates a new memory in scopeRoot. local controls the file mode
// docfile.Write applies (true for the private local scope).
func Write(scopeRoot string, local bool, in WriteInput, now time.Time, hook *EmbedHook) (WriteResult, error) {
	var result WriteResult
	err := lease.WithLease(scopeRoot, lease.DefaultTimeout, func() error {
		if !docfile.ValidType(in.Type) {
			return memoerrors.Invalid("unknown memory type: " + string(in.Type))
		}

		idx, err := index.Load(scopeRoot)
		if err != nil {
			return err
		}
		g, err := graph.Load(scopeRoot)
		if err != nil {
			return err
		}

		existing := existingIDs(idx, "")
		var id string
		if in.Type == docfile.Breadcrumb {
			id = idgen.GenerateThoughtID(now, existing)
		} else {
			id = idgen.GenerateID(string(in.Type), in.Title, existing)
		}

		fm := docfile.Frontmatter{
			ID:      id,
			Title:   in.Title,
			Type:    in.Type,
			Scope:   in.Scope,
			Tags:    in.Tags,
			Created: now,
			Updated: now,
		}
		doc := docfile.Document{Frontmatter: fm, Body: in.Body}
		relPath := filepath.Join(in.Type.Dir(), id+".md")
		path := filepath.Join(scopeRoot, relPath)
		if err := docfile.Write(path, doc, local); err != nil {
			return err
		}

		idx = index.Upsert(idx, index.Entry{
			ID: id, RelativePath: filepath.ToSlash(relPath), Type: string(in.Type),
			Tags: in.Tags, Created: now, Updated: now, Scope: in.Scope,
		})
		if err := index.Save(scopeRoot, idx); err != nil {
			return err
		}

		g = graph.AddNode(g, graph.Node{ID: id, Type: string(in.Type)})
		var skipped []string
		for _, target := range in.Links {
			if !graph.HasNode(g, target) {
				skipped = append(skipped, target)
				continue
			}
			g = graph.AddEdge(g, graph.Edge{Source: id, Target: target})
		}
		if err := graph.Save(scopeRoot, g, scopeHasFiles(scopeRoot)); err != nil {
			return err
		}

		result = WriteResult{ID: id, RelativePath: filepath.ToSlash(relPath), SkippedLinks: skipped}
		return nil
	})
	if err != nil {
		return WriteResult{}, err
	}

	if hook != nil && hook.Provider != nil && in.Type != docfile.Breadcrumb {
		maybeAsyncEmbed(hook, scopeRoot, result.ID, in.Title+"\n\n"+in.Body)
	}
	return result, nil
}

func maybeAsyncEmbed(hook *EmbedHook, scopeRoot, id, content string) {
	if hook.WaitGroup != nil {
		hook.WaitGroup.Add(1)
	}
	go func() {
		if hook.WaitGroup != nil {
			defer hook.WaitGroup.Done()
		}
		_ = lease.WithLease(scopeRoot, lease.DefaultTimeout, func() error {
			cache, err := embed.Load(scopeRoot)
			if err != nil {
				return nil
			}
			updated, _, _, err := embed.GetOrCompute(context.Background(), cache, hook.Provider, id, content)
			if err != nil {
				return nil
			}
			return embed.Save(scopeRoot, updated)
		})
	}()
}

// Read loads a memory's frontmatter and body by ID.
func Read(scopeRoot, id string) (docfile.Document, error) {
	idx, err := index.Load(scopeRoot)
	if err != nil {
		return docfile.Document{}, err
	}
	entry, ok := index.FindByID(idx, id)
	if !ok {
		return docfile.Document{}, memoerrors.NotFound("no memory with id " + id)
	}
	path := filepath.Join(scopeRoot, entry.RelativePath)
	doc, err := docfile.Read(path)
	if err != nil {
		return docfile.Document{}, err
	}
	return doc, nil
}

// LinkResult reports the outcome of Link.
type LinkResult struct {
	EdgeCount int
	Created   bool // false when the edge already existed (idempotent no-op)
}

// Link adds an edge between two memories already present in scopeRoot.
func Link(scopeRoot, source, target, label string) (LinkResult, error) {
	var result LinkResult
	err := lease.WithLease(scopeRoot, lease.DefaultTimeout, func() error {
		g, err := graph.Load(scopeRoot)
		if err != nil {
			return err
		}
		if !graph.HasNode(g, source) {
			return memoerrors.NotFound("link source not found in scope: " + source)
		}
		if !graph.HasNode(g, target) {
			return memoerrors.NotFound("link target not found in scope: " + target)
		}

		before := len(graph.Incident(g, source))
		g = graph.AddEdge(g, graph.Edge{Source: source, Target: target, Label: label})
		after := len(graph.Incident(g, source))

		if err := graph.Save(scopeRoot, g, scopeHasFiles(scopeRoot)); err != nil {
			return err
		}
		result = LinkResult{EdgeCount: len(g.Edges), Created: after > before}
		return nil
	})
	return result, err
}

// Unlink removes a matching edge, idempotently.
func Unlink(scopeRoot, source, target, label string) error {
	return lease.WithLease(scopeRoot, lease.DefaultTimeout, func() error {
		g, err := graph.Load(scopeRoot)
		if err != nil {
			return err
		}
		g = graph.RemoveEdge(g, source, target, label)
		return graph.Save(scopeRoot, g, scopeHasFiles(scopeRoot))
	})
}

// Tag adds tag to a memory's frontmatter tag set (idempotent) and bumps
// updated.
func Tag(scopeRoot, id, tag string, now time.Time, local bool) error {
	return updateTags(scopeRoot, id, now, local, func(tags []string) []string {
		for _, t := range tags {
			if t == tag {
				return tags
			}
		}
		return append(append([]string{}, tags...), tag)
	})
}

// Untag removes tag from a memory's frontmatter tag set (idempotent) and
// bumps updated.
func Untag(scopeRoot, id, tag string, now time.Time, local bool) error {
	return updateTags(scopeRoot, id, now, local, func(tags []string) []string {
		out := make([]string, 0, len(tags))
		for _, t := range tags {
			if t != tag {
				out = append(out, t)
			}
		}
		return out
	})
}

func updateTags(scopeRoot, id string, now time.Time, local bool, transform func([]string) []string) error {
	return lease.WithLease(scopeRoot, lease.DefaultTimeout, func() error {
		idx, err := index.Load(scopeRoot)
		if err != nil {
			return err
		}
		entry, ok := index.FindByID(idx, id)
		if !ok {
			return memoerrors.NotFound("no memory with id " + id)
		}

		path := filepath.Join(scopeRoot, entry.RelativePath)
		doc, err := docfile.Read(path)
		if err != nil {
			return err
		}
		doc.Frontmatter.Tags = transform(doc.Frontmatter.Tags)
		doc.Frontmatter.Updated = now
		if err := docfile.Write(path, doc, local); err != nil {
			return err
		}

		entry.Tags = doc.Frontmatter.Tags
		entry.Updated = now
		idx = index.Upsert(idx, entry)
		return index.Save(scopeRoot, idx)
	})
}

// RenameResult reports the outcome of Rename or Promote.
type RenameResult struct {
	OldID        string
	NewID        string
	RelativePath string
}

// Rename recomputes id's ID from newTitle (same type), renames the file,
// and updates every in-scope graph edge and index entry referencing the
// old ID.
func Rename(scopeRoot, id, newTitle string, now time.Time, local bool) (RenameResult, error) {
	var result RenameResult
	err := lease.WithLease(scopeRoot, lease.DefaultTimeout, func() error {
		idx, err := index.Load(scopeRoot)
		if err != nil {
			return err
		}
		entry, ok := index.FindByID(idx, id)
		if !ok {
			return memoerrors.NotFound("no memory with id " + id)
		}

		oldPath := filepath.Join(scopeRoot, entry.RelativePath)
		doc, err := docfile.Read(oldPath)
		if err != nil {
			return err
		}

		newID := idgen.GenerateID(string(doc.Frontmatter.Type), newTitle, existingIDs(idx, id))
		doc.Frontmatter.ID = newID
		doc.Frontmatter.Title = newTitle
		doc.Frontmatter.Updated = now

		newRel := filepath.Join(doc.Frontmatter.Type.Dir(), newID+".md")
		newPath := filepath.Join(scopeRoot, newRel)
		if err := docfile.Write(newPath, doc, local); err != nil {
			return err
		}
		if newID != id {
			if err := docfile.Delete(oldPath); err != nil {
				return err
			}
		}

		idx = index.Remove(idx, id)
		idx = index.Upsert(idx, index.Entry{
			ID: newID, RelativePath: filepath.ToSlash(newRel), Type: string(doc.Frontmatter.Type),
			Tags: doc.Frontmatter.Tags, Created: doc.Frontmatter.Created, Updated: now, Scope: doc.Frontmatter.Scope,
		})
		if err := index.Save(scopeRoot, idx); err != nil {
			return err
		}

		g, err := graph.Load(scopeRoot)
		if err != nil {
			return err
		}
		g = graph.RenameNode(g, id, newID)
		if err := graph.Save(scopeRoot, g, scopeHasFiles(scopeRoot)); err != nil {
			return err
		}

		result = RenameResult{OldID: id, NewID: newID, RelativePath: filepath.ToSlash(newRel)}
		return nil
	})
	return result, err
}

// MoveResult reports the outcome of Move.
type MoveResult struct {
	NewRelativePath   string
	SourceEdgesRemoved int
	TargetEdgesCreated int // always 0: cross-scope edges are never created
}

// Move relocates a memory from sourceRoot to targetRoot, preserving
// Created and bumping Updated. The source graph node (and every incident
// edge) is dropped; the target graph gets a bare node with no edges.
func Move(sourceRoot, targetRoot string, targetLocal bool, id string, now time.Time) (MoveResult, error) {
	var result MoveResult

	// Read the source document first so the cross-scope operation, which
	// cannot itself be atomic (per spec.md §5), at least fails before any
	// mutation if the source is missing.
	srcIdx, err := index.Load(sourceRoot)
	if err != nil {
		return MoveResult{}, err
	}
	entry, ok := index.FindByID(srcIdx, id)
	if !ok {
		return MoveResult{}, memoerrors.NotFound("no memory with id " + id)
	}
	srcPath := filepath.Join(sourceRoot, entry.RelativePath)
	doc, err := docfile.Read(srcPath)
	if err != nil {
		return MoveResult{}, err
	}

	err = lease.WithLease(targetRoot, lease.DefaultTimeout, func() error {
		doc.Frontmatter.Updated = now
		newRel := filepath.Join(doc.Frontmatter.Type.Dir(), doc.Frontmatter.ID+".md")
		newPath := filepath.Join(targetRoot, newRel)
		if err := docfile.Write(newPath, doc, targetLocal); err != nil {
			return err
		}

		targetIdx, err := index.Load(targetRoot)
		if err != nil {
			return err
		}
		targetIdx = index.Upsert(targetIdx, index.Entry{
			ID: doc.Frontmatter.ID, RelativePath: filepath.ToSlash(newRel), Type: string(doc.Frontmatter.Type),
			Tags: doc.Frontmatter.Tags, Created: doc.Frontmatter.Created, Updated: now,
		})
		if err := index.Save(targetRoot, targetIdx); err != nil {
			return err
		}

		targetGraph, err := graph.Load(targetRoot)
		if err != nil {
			return err
		}
		targetGraph = graph.AddNode(targetGraph, graph.Node{ID: doc.Frontmatter.ID, Type: string(doc.Frontmatter.Type)})
		result.NewRelativePath = filepath.ToSlash(newRel)
		return graph.Save(targetRoot, targetGraph, scopeHasFiles(targetRoot))
	})
	if err != nil {
		return MoveResult{}, err
	}

	err = lease.WithLease(sourceRoot, lease.DefaultTimeout, func() error {
		if err := docfile.Delete(srcPath); err != nil {
			return err
		}

		srcIdx, err := index.Load(sourceRoot)
		if err != nil {
			return err
		}
		srcIdx = index.Remove(srcIdx, id)
		if err := index.Save(sourceRoot, srcIdx); err != nil {
			return err
		}

		srcGraph, err := graph.Load(sourceRoot)
		if err != nil {
			return err
		}
		result.SourceEdgesRemoved = len(graph.Incident(srcGraph, id))
		srcGraph = graph.RemoveNode(srcGraph, id)
		return graph.Save(sourceRoot, srcGraph, scopeHasFiles(sourceRoot))
	})
	if err != nil {
		return MoveResult{}, err
	}

	return result, nil
}

// Promote retypes a memory (typically breadcrumb -> a permanent type),
// moving it between the temporary/ and permanent/ directories and
// recomputing its ID with the new type prefix.
func Promote(scopeRoot, id string, newType docfile.Type, now time.Time, local bool) (RenameResult, error) {
	var result RenameResult
	err := lease.WithLease(scopeRoot, lease.DefaultTimeout, func() error {
		if !docfile.ValidType(newType) {
			return memoerrors.Invalid("unknown memory type: " + string(newType))
		}

		idx, err := index.Load(scopeRoot)
		if err != nil {
			return err
		}
		entry, ok := index.FindByID(idx, id)
		if !ok {
			return memoerrors.NotFound("no memory with id " + id)
		}

		oldPath := filepath.Join(scopeRoot, entry.RelativePath)
		doc, err := docfile.Read(oldPath)
		if err != nil {
			return err
		}

		newID := idgen.GenerateID(string(newType), doc.Frontmatter.Title, existingIDs(idx, id))
		doc.Frontmatter.ID = newID
		doc.Frontmatter.Type = newType
		doc.Frontmatter.Updated = now

		newRel := filepath.Join(newType.Dir(), newID+".md")
		newPath := filepath.Join(scopeRoot, newRel)
		if err := docfile.Write(newPath, doc, local); err != nil {
			return err
		}
		if err := docfile.Delete(oldPath); err != nil {
			return err
		}

		idx = index.Remove(idx, id)
		idx = index.Upsert(idx, index.Entry{
			ID: newID, RelativePath: filepath.ToSlash(newRel), Type: string(newType),
			Tags: doc.Frontmatter.Tags, Created: doc.Frontmatter.Created, Updated: now, Scope: doc.Frontmatter.Scope,
		})
		if err := index.Save(scopeRoot, idx); err != nil {
			return err
		}

		g, err := graph.Load(scopeRoot)
		if err != nil {
			return err
		}
		g = graph.RenameNode(g, id, newID)
		nodes := make([]graph.Node, len(g.Nodes))
		for i, n := range g.Nodes {
			if n.ID == newID {
				n.Type = string(newType)
			}
			nodes[i] = n
		}
		g.Nodes = nodes
		if err := graph.Save(scopeRoot, g, scopeHasFiles(scopeRoot)); err != nil {
			return err
		}

		result = RenameResult{OldID: id, NewID: newID, RelativePath: filepath.ToSlash(newRel)}
		return nil
	})
	return result, err
}

// Archive moves a memory's file under archive/ and drops it from the live
// index and graph. The embedding entry, if any, is left in embeddings.json;
// search ranks only indexed memories, so archived content is not returned
// by it.
func Archive(scopeRoot, id string) error {
	return lease.WithLease(scopeRoot, lease.DefaultTimeout, func() error {
		idx, err := index.Load(scopeRoot)
		if err != nil {
			return err
		}
		entry, ok := index.FindByID(idx, id)
		if !ok {
			return memoerrors.NotFound("no memory with id " + id)
		}

		oldPath := filepath.Join(scopeRoot, entry.RelativePath)
		doc, err := docfile.Read(oldPath)
		if err != nil {
			return err
		}

		archiveRel := filepath.Join("archive", id+".md")
		archivePath := filepath.Join(scopeRoot, archiveRel)
		if err := docfile.Write(archivePath, doc, false); err != nil {
			return err
		}
		if err := docfile.Delete(oldPath); err != nil {
			return err
		}

		idx = index.Remove(idx, id)
		if err := index.Save(scopeRoot, idx); err != nil {
			return err
		}

		g, err := graph.Load(scopeRoot)
		if err != nil {
			return err
		}
		g = graph.RemoveNode(g, id)
		return graph.Save(scopeRoot, g, scopeHasFiles(scopeRoot))
	})
}

// Delete removes a memory's file, index entry, graph node (cascading
// edges) and cached embedding.
func Delete(scopeRoot, id string) error {
	return lease.WithLease(scopeRoot, lease.DefaultTimeout, func() error {
		idx, err := index.Load(scopeRoot)
		if err != nil {
			return err
		}
		entry, ok := index.FindByID(idx, id)
		if !ok {
			return memoerrors.NotFound("no memory with id " + id)
		}

		if err := docfile.Delete(filepath.Join(scopeRoot, entry.RelativePath)); err != nil {
			return err
		}

		idx = index.Remove(idx, id)
		if err := index.Save(scopeRoot, idx); err != nil {
			return err
		}

		g, err := graph.Load(scopeRoot)
		if err != nil {
			return err
		}
		g = graph.RemoveNode(g, id)
		if err := graph.Save(scopeRoot, g, scopeHasFiles(scopeRoot)); err != nil {
			return err
		}

		cache, err := embed.Load(scopeRoot)
		if err != nil {
			return err
		}
		return embed.Save(scopeRoot, embed.Remove(cache, id))
	})
}

// PruneResult reports how many breadcrumbs Prune removed.
type PruneResult struct {
	Removed []string
}

// DefaultPruneAge is the staleness threshold for breadcrumbs, per
// spec.md §4.8 ("default 7 days since updated").
const DefaultPruneAge = 7 * 24 * time.Hour

// Prune removes breadcrumbs whose Updated is older than maxAge (or
// DefaultPruneAge when maxAge <= 0), relative to now.
func Prune(scopeRoot string, maxAge time.Duration, now time.Time) (PruneResult, error) {
	if maxAge <= 0 {
		maxAge = DefaultPruneAge
	}
	var result PruneResult
	err := lease.WithLease(scopeRoot, lease.DefaultTimeout, func() error {
		idx, err := index.Load(scopeRoot)
		if err != nil {
			return err
		}
		g, err := graph.Load(scopeRoot)
		if err != nil {
			return err
		}

		cutoff := now.Add(-maxAge)
		var stale []string
		for _, e := range index.ListByType(idx, string(docfile.Breadcrumb)) {
			if e.Updated.Before(cutoff) {
				stale = append(stale, e.ID)
			}
		}

		for _, id := range stale {
			entry, ok := index.FindByID(idx, id)
			if !ok {
				continue
			}
			if err := docfile.Delete(filepath.Join(scopeRoot, entry.RelativePath)); err != nil {
				return err
			}
			idx = index.Remove(idx, id)
			g = graph.RemoveNode(g, id)
		}

		if err := index.Save(scopeRoot, idx); err != nil {
			return err
		}
		if err := graph.Save(scopeRoot, g, scopeHasFiles(scopeRoot)); err != nil {
			return err
		}
		result = PruneResult{Removed: stale}
		return nil
	})
	return result, err
}

func notFoundErr(id string) error {
	return memoerrors.NotFound("no memory with id " + id)
}

func invalidTypeErr(typ docfile.Type) error {
	return memoerrors.Invalid("unknown memory type: " + string(typ))
}

func existingIDs(idx index.Index, exclude string) map[string]bool {
	out := make(map[string]bool, len(idx.Memories))
	for _, e := range idx.Memories {
		if e.ID != exclude {
			out[e.ID] = true
		}
	}
	return out
}

// scopeHasFiles reports whether scopeRoot currently has any memory files,
// used by callers deciding the filesExist argument to graph.Save when no
// load has happened yet in this call.
func scopeHasFiles(scopeRoot string) bool {
	for _, dir := range []string{"permanent", "temporary", "archive"} {
		entries, err := os.ReadDir(filepath.Join(scopeRoot, dir))
		if err == nil && len(entries) > 0 {
			return true
		}
	}
	return false
}
