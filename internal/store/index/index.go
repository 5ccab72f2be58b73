// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package index maintains the per-scope index.json: a fast id->metadata
// listing rebuildable from the memory files themselves. Index is a cache,
// not a source of truth — the File Store's Markdown files are
// authoritative on any conflict.
package index

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	memoerrors "github.com/kraklabs/memo/internal/errors"
	"github.com/kraklabs/memo/internal/store/scope"
)

// Entry is one memory's index record.
type Entry struct {
	ID           string     `json:"id"`
	RelativePath string     `json:"relativePath"`
	Type         string     `json:"type"`
	Tags         []string   `json:"tags"`
	Created      time.Time  `json:"created"`
	Updated      time.Time  `json:"updated"`
	Scope        scope.Kind `json:"scope"`
}

// legacyEntry captures the pre-relativePath on-disk shape, whose path key
// was an absolute "file" path.
type legacyEntry struct {
	ID      string     `json:"id"`
	File    string     `json:"file"`
	Type    string     `json:"type"`
	Tags    []string   `json:"tags"`
	Created time.Time  `json:"created"`
	Updated time.Time  `json:"updated"`
	Scope   scope.Kind `json:"scope"`
}

// Index is the ordered set of entries for one scope, ordered by Updated
// descending (advisory — consumers must not depend on any secondary
// order).
type Index struct {
	Version   int     `json:"version"`
	Memories  []Entry `json:"memories"`
}

const currentVersion = 1

// fileName is the on-disk index file name within a scope root.
const fileName = "index.json"

// Load reads <scopeRoot>/index.json, migrating the legacy absolute "file"
// key to a scope-relative "relativePath" as it goes. A missing file
// returns an empty index, not an error.
func Load(scopeRoot string) (Index, error) {
	idx, _, err := LoadMigrating(scopeRoot)
	return idx, err
}

// LoadMigrating behaves like Load but also reports how many entries were
// migrated from the legacy "file" shape, for the reconciler's rebuild
// report.
func LoadMigrating(scopeRoot string) (Index, int, error) {
	path := filepath.Join(scopeRoot, fileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Index{Version: currentVersion}, 0, nil
		}
		return Index{}, 0, memoerrors.IoError("cannot read index", err)
	}

	var raw struct {
		Version  int               `json:"version"`
		Memories []json.RawMessage `json:"memories"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Index{}, 0, memoerrors.Invalid("malformed index.json: " + err.Error())
	}

	entries := make([]Entry, 0, len(raw.Memories))
	migrated := 0
	for _, rm := range raw.Memories {
		entry, wasMigrated := decodeEntry(rm, scopeRoot)
		entries = append(entries, entry)
		if wasMigrated {
			migrated++
		}
	}

	idx := Index{Version: currentVersion, Memories: entries}
	return sortByUpdatedDesc(idx), migrated, nil
}

// decodeEntry accepts either the current Entry shape or the legacy "file"
// shape, migrating the latter to a scope-relative path. If the legacy path
// cannot be made relative, it falls back to "<dir>/<id>.md", where <dir> is
// temporary for breadcrumbs and permanent for every other type.
func decodeEntry(raw json.RawMessage, scopeRoot string) (Entry, bool) {
	var entry Entry
	if err := json.Unmarshal(raw, &entry); err == nil && entry.RelativePath != "" {
		return entry, false
	}

	var legacy legacyEntry
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return Entry{}, false
	}

	rel, err := filepath.Rel(scopeRoot, legacy.File)
	if err != nil || rel == "" {
		rel = filepath.Join(typeDir(legacy.Type), legacy.ID+".md")
	}

	return Entry{
		ID:           legacy.ID,
		RelativePath: filepath.ToSlash(rel),
		Type:         legacy.Type,
		Tags:         legacy.Tags,
		Created:      legacy.Created,
		Updated:      legacy.Updated,
		Scope:        legacy.Scope,
	}, true
}

func typeDir(typ string) string {
	if typ == "breadcrumb" {
		return "temporary"
	}
	return "permanent"
}

// Save atomically writes idx to <scopeRoot>/index.json.
func Save(scopeRoot string, idx Index) error {
	if idx.Version == 0 {
		idx.Version = currentVersion
	}
	idx = sortByUpdatedDesc(idx)

	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return memoerrors.IoError("cannot encode index", err)
	}

	if err := os.MkdirAll(scopeRoot, 0o755); err != nil {
		return memoerrors.IoError("cannot create scope directory", err)
	}

	path := filepath.Join(scopeRoot, fileName)
	tmp, err := os.CreateTemp(scopeRoot, ".index-tmp-*")
	if err != nil {
		return memoerrors.IoError("cannot create temp index file", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return memoerrors.IoError("cannot write temp index file", err)
	}
	if err := tmp.Close(); err != nil {
		return memoerrors.IoError("cannot close temp index file", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return memoerrors.IoError("cannot move index into place", err)
	}
	return nil
}

// Upsert returns a new Index with entry inserted (by ID) or replacing the
// existing entry of the same ID. The receiver is left untouched.
func Upsert(idx Index, entry Entry) Index {
	out := make([]Entry, 0, len(idx.Memories)+1)
	replaced := false
	for _, e := range idx.Memories {
		if e.ID == entry.ID {
			out = append(out, entry)
			replaced = true
			continue
		}
		out = append(out, e)
	}
	if !replaced {
		out = append(out, entry)
	}
	return sortByUpdatedDesc(Index{Version: idx.Version, Memories: out})
}

// Remove returns a new Index with the entry matching id removed.
func Remove(idx Index, id string) Index {
	out := make([]Entry, 0, len(idx.Memories))
	for _, e := range idx.Memories {
		if e.ID != id {
			out = append(out, e)
		}
	}
	return Index{Version: idx.Version, Memories: out}
}

// FindByID returns the entry with the given id, if present.
func FindByID(idx Index, id string) (Entry, bool) {
	for _, e := range idx.Memories {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// ListByType returns every entry of the given type, in index order.
func ListByType(idx Index, typ string) []Entry {
	var out []Entry
	for _, e := range idx.Memories {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// ByTag returns every entry carrying tag.
func ByTag(idx Index, tag string) []Entry {
	var out []Entry
	for _, e := range idx.Memories {
		for _, t := range e.Tags {
			if t == tag {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

func sortByUpdatedDesc(idx Index) Index {
	sort.SliceStable(idx.Memories, func(i, j int) bool {
		return idx.Memories[i].Updated.After(idx.Memories[j].Updated)
	})
	return idx
}
