// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package docfile reads and writes the Markdown-with-YAML-frontmatter files
// that are the authoritative representation of a memory. Parsing and
// serialisation round-trip the declared field set losslessly; the index
// and graph are derived caches over these files, never the other way
// around.
package docfile

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	memoerrors "github.com/kraklabs/memo/internal/errors"
	"github.com/kraklabs/memo/internal/store/scope"
	"gopkg.in/yaml.v3"
)

// Type is a memory's kind, which also determines its directory
// (breadcrumb lives under temporary/, everything else under permanent/)
// and its ID prefix.
type Type string

const (
	Decision   Type = "decision"
	Learning   Type = "learning"
	Gotcha     Type = "gotcha"
	Artifact   Type = "artifact"
	Hub        Type = "hub"
	Breadcrumb Type = "breadcrumb"
)

// ValidType reports whether t is one of the six known memory types.
func ValidType(t Type) bool {
	switch t {
	case Decision, Learning, Gotcha, Artifact, Hub, Breadcrumb:
		return true
	}
	return false
}

// Dir returns the scope subdirectory a memory of type t lives under.
func (t Type) Dir() string {
	if t == Breadcrumb {
		return "temporary"
	}
	return "permanent"
}

// Frontmatter is the parsed metadata block of a memory file.
type Frontmatter struct {
	ID       string
	Title    string
	Type     Type
	Scope    scope.Kind
	Tags     []string
	Created  time.Time
	Updated  time.Time
	Severity string   // optional: low|medium|high|critical
	Project  string   // optional
	Links    []string // optional

	// WordCount and CodeValid are computed fields populated by the
	// reconciler's refresh pass, not by write.
	WordCount int
	CodeValid *bool
}

// Document is a full memory: its frontmatter plus Markdown body.
type Document struct {
	Frontmatter Frontmatter
	Body        string
}

// wireFrontmatter is the on-disk field order from spec.md §6: id, title,
// type, scope, tags, created, updated, severity, project, links, followed
// by the computed fields this implementation adds.
type wireFrontmatter struct {
	ID        string    `yaml:"id"`
	Title     string    `yaml:"title"`
	Type      string    `yaml:"type"`
	Scope     string    `yaml:"scope"`
	Tags      []string  `yaml:"tags"`
	Created   string    `yaml:"created"`
	Updated   string    `yaml:"updated"`
	Severity  string    `yaml:"severity,omitempty"`
	Project   string    `yaml:"project,omitempty"`
	Links     []string  `yaml:"links,omitempty"`
	WordCount int       `yaml:"wordCount,omitempty"`
	CodeValid *bool     `yaml:"codeValid,omitempty"`
}

const timestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t as ISO-8601 UTC with millisecond precision and
// a trailing Z, per spec.md §6.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// ParseTimestamp parses the format FormatTimestamp produces.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(timestampLayout, s)
}

var frontmatterPattern = regexp.MustCompile(`(?s)\A---\r?\n(.*?)\r?\n---\r?\n?(.*)\z`)

// Parse extracts the leading YAML frontmatter block (delimited by lines
// containing only "---") and the Markdown body that follows. An empty
// body after the frontmatter is a valid, preserved result — Parse never
// returns a null frontmatter; malformed input is reported as an error, and
// callers must not branch on a null-frontmatter result.
func Parse(data []byte) (Document, error) {
	m := frontmatterPattern.FindSubmatch(data)
	if m == nil {
		return Document{}, memoerrors.Invalid("missing or malformed frontmatter block")
	}

	var wire wireFrontmatter
	if err := yaml.Unmarshal(m[1], &wire); err != nil {
		return Document{}, memoerrors.Invalid("malformed frontmatter YAML: " + err.Error())
	}

	fm, err := fromWire(wire)
	if err != nil {
		return Document{}, err
	}

	return Document{Frontmatter: fm, Body: string(m[2])}, nil
}

func fromWire(wire wireFrontmatter) (Frontmatter, error) {
	if wire.ID == "" {
		return Frontmatter{}, memoerrors.Invalid("frontmatter missing id")
	}
	t := Type(wire.Type)
	if !ValidType(t) {
		return Frontmatter{}, memoerrors.Invalid("frontmatter has unknown type: " + wire.Type)
	}
	sc := scope.Kind(wire.Scope)
	if !scope.Valid(sc) {
		return Frontmatter{}, memoerrors.Invalid("frontmatter has unknown scope: " + wire.Scope)
	}
	created, err := ParseTimestamp(wire.Created)
	if err != nil {
		return Frontmatter{}, memoerrors.Invalid("frontmatter has malformed created timestamp: " + err.Error())
	}
	updated, err := ParseTimestamp(wire.Updated)
	if err != nil {
		return Frontmatter{}, memoerrors.Invalid("frontmatter has malformed updated timestamp: " + err.Error())
	}

	return Frontmatter{
		ID:        wire.ID,
		Title:     wire.Title,
		Type:      t,
		Scope:     sc,
		Tags:      wire.Tags,
		Created:   created,
		Updated:   updated,
		Severity:  wire.Severity,
		Project:   wire.Project,
		Links:     wire.Links,
		WordCount: wire.WordCount,
		CodeValid: wire.CodeValid,
	}, nil
}

func toWire(fm Frontmatter) wireFrontmatter {
	return wireFrontmatter{
		ID:        fm.ID,
		Title:     fm.Title,
		Type:      string(fm.Type),
		Scope:     string(fm.Scope),
		Tags:      fm.Tags,
		Created:   FormatTimestamp(fm.Created),
		Updated:   FormatTimestamp(fm.Updated),
		Severity:  fm.Severity,
		Project:   fm.Project,
		Links:     fm.Links,
		WordCount: fm.WordCount,
		CodeValid: fm.CodeValid,
	}
}

// Serialise renders doc back to bytes: frontmatter fields in the declared
// order (a title containing ':' double-quoted), followed by "---" and the
// body verbatim.
func Serialise(doc Document) ([]byte, error) {
	var node yaml.Node
	if err := node.Encode(toWire(doc.Frontmatter)); err != nil {
		return nil, memoerrors.Invalid("cannot serialise frontmatter: " + err.Error())
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == "title" && strings.Contains(node.Content[i+1].Value, ":") {
			node.Content[i+1].Style = yaml.DoubleQuotedStyle
		}
	}
	yamlBytes, err := yaml.Marshal(&node)
	if err != nil {
		return nil, memoerrors.Invalid("cannot serialise frontmatter: " + err.Error())
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(yamlBytes)
	b.WriteString("---\n")
	b.WriteString(doc.Body)
	return []byte(b.String()), nil
}

// Write serialises doc and writes it to path via write-to-temp plus atomic
// rename, avoiding torn reads. local controls the file mode: 0o600 for
// the private local scope, 0o644 otherwise.
func Write(path string, doc Document, local bool) error {
	data, err := Serialise(doc)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return memoerrors.IoError("cannot create directory "+dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".memo-tmp-*")
	if err != nil {
		return memoerrors.IoError("cannot create temp file", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return memoerrors.IoError("cannot write temp file", err)
	}
	if err := tmp.Close(); err != nil {
		return memoerrors.IoError("cannot close temp file", err)
	}

	mode := os.FileMode(0o644)
	if local {
		mode = 0o600
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		return memoerrors.IoError("cannot set file mode", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return memoerrors.IoError(fmt.Sprintf("cannot move temp file into place at %s", path), err)
	}
	return nil
}

// Read loads and parses the memory file at path.
func Read(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, memoerrors.NotFound("memory file not found: " + filepath.Base(path))
		}
		return Document{}, memoerrors.IoError("cannot read memory file", err)
	}
	return Parse(data)
}

// Delete removes the memory file at path. A missing file is not an error:
// the desired end state (file absent) already holds.
func Delete(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return memoerrors.IoError("cannot delete memory file", err)
	}
	return nil
}
