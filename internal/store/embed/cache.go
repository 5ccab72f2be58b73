// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package embed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	memoerrors "github.com/kraklabs/memo/internal/errors"
)

// MaxContentChars is the provider-safe content length; longer content is
// truncated at a word boundary before being sent to Embed.
const MaxContentChars = 6000

// Entry is one memory's cached embedding.
type Entry struct {
	Vector      []float32 `json:"vector"`
	ContentHash string    `json:"contentHash"`
	Timestamp   time.Time `json:"timestamp"`
}

// Cache is the full embeddings.json payload for one scope.
type Cache struct {
	Version   int              `json:"version"`
	Memories  map[string]Entry `json:"memories"`
}

const currentVersion = 1
const fileName = "embeddings.json"

// Load reads <scopeRoot>/embeddings.json. A missing file returns an empty
// cache, not an error — the embedding cache is always optional.
func Load(scopeRoot string) (Cache, error) {
	path := filepath.Join(scopeRoot, fileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Cache{Version: currentVersion, Memories: map[string]Entry{}}, nil
		}
		return Cache{}, memoerrors.IoError("cannot read embedding cache", err)
	}

	var c Cache
	if err := json.Unmarshal(data, &c); err != nil {
		return Cache{}, memoerrors.Invalid("malformed embeddings.json: " + err.Error())
	}
	if c.Memories == nil {
		c.Memories = map[string]Entry{}
	}
	if c.Version == 0 {
		c.Version = currentVersion
	}
	return c, nil
}

// Save atomically writes c to <scopeRoot>/embeddings.json.
func Save(scopeRoot string, c Cache) error {
	if c.Version == 0 {
		c.Version = currentVersion
	}
	if c.Memories == nil {
		c.Memories = map[string]Entry{}
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return memoerrors.IoError("cannot encode embedding cache", err)
	}

	if err := os.MkdirAll(scopeRoot, 0o755); err != nil {
		return memoerrors.IoError("cannot create scope directory", err)
	}

	path := filepath.Join(scopeRoot, fileName)
	tmp, err := os.CreateTemp(scopeRoot, ".embeddings-tmp-*")
	if err != nil {
		return memoerrors.IoError("cannot create temp embedding cache file", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return memoerrors.IoError("cannot write temp embedding cache file", err)
	}
	if err := tmp.Close(); err != nil {
		return memoerrors.IoError("cannot close temp embedding cache file", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return memoerrors.IoError("cannot move embedding cache into place", err)
	}
	return nil
}

// HashContent returns the stable content hash used to detect staleness.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Truncate clamps content to MaxContentChars at a word boundary, reporting
// whether truncation occurred.
func Truncate(content string) (truncated string, wasTruncated bool) {
	if len(content) <= MaxContentChars {
		return content, false
	}
	cut := content[:MaxContentChars]
	if idx := strings.LastIndexAny(cut, " \n\t"); idx > 0 {
		cut = cut[:idx]
	}
	return cut, true
}

// GetOrCompute returns the cached vector for id if its content hash still
// matches content, otherwise truncates content, calls provider, and
// returns an updated Cache with the new entry. wasTruncated reports
// whether truncation occurred on this call (false on a cache hit).
//
// Breadcrumbs are never embedded: callers should not invoke GetOrCompute
// for them at all (spec.md's embedding-validity invariant excludes
// breadcrumbs from the cache entirely).
func GetOrCompute(ctx context.Context, c Cache, provider Provider, id, content string) (updated Cache, vector []float32, wasTruncated bool, err error) {
	hash := HashContent(content)
	if existing, ok := c.Memories[id]; ok && existing.ContentHash == hash {
		return c, existing.Vector, false, nil
	}

	truncatedContent, truncated := Truncate(content)
	vec, err := provider.Embed(ctx, truncatedContent)
	if err != nil {
		return c, nil, truncated, err
	}

	out := cloneCache(c)
	out.Memories[id] = Entry{Vector: vec, ContentHash: hash, Timestamp: time.Now().UTC()}
	return out, vec, truncated, nil
}

// Remove returns a new Cache with id's entry dropped, if present.
func Remove(c Cache, id string) Cache {
	out := cloneCache(c)
	delete(out.Memories, id)
	return out
}

// Stale reports whether id's cached entry (if any) no longer matches
// content.
func Stale(c Cache, id, content string) bool {
	entry, ok := c.Memories[id]
	if !ok {
		return true
	}
	return entry.ContentHash != HashContent(content)
}

func cloneCache(c Cache) Cache {
	out := Cache{Version: c.Version, Memories: make(map[string]Entry, len(c.Memories)+1)}
	for k, v := range c.Memories {
		out.Memories[k] = v
	}
	return out
}
