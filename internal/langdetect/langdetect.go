// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package langdetect does a best-effort syntax check of fenced Go code
// blocks found inside an artifact memory's body.
//
// It is deliberately narrow: memo's bodies are author-written Markdown, not
// a source tree to crawl, so there is no call graph or symbol table to
// build — only "does this block parse without tree-sitter ERROR nodes",
// surfaced to the reconciler's refresh pass as a computed hint.
package langdetect

import (
	"context"
	"regexp"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

var goFence = regexp.MustCompile("(?s)```go\\n(.*?)```")

// parserPool reuses *sitter.Parser instances; they are not safe for
// concurrent use but are cheap to pool since refresh walks scopes
// sequentially and may still use goroutines per memory.
var parserPool = sync.Pool{
	New: func() any {
		p := sitter.NewParser()
		p.SetLanguage(golang.GetLanguage())
		return p
	},
}

// GoFenceCheck is the result of validating a single ```go fenced block.
type GoFenceCheck struct {
	Snippet    string
	Valid      bool
	ErrorCount int
}

// CheckGoFences extracts every ```go fenced block from body and parses each
// with tree-sitter, reporting whether it is free of ERROR nodes. Tree-sitter
// is error-tolerant, so a parse failure never aborts the check — it only
// lowers Valid for that one block.
func CheckGoFences(body string) []GoFenceCheck {
	matches := goFence.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return nil
	}

	checks := make([]GoFenceCheck, 0, len(matches))
	for _, m := range matches {
		snippet := m[1]
		checks = append(checks, checkSnippet(snippet))
	}
	return checks
}

// AllValid reports whether every fence in checks parsed without errors.
// An artifact with no Go fences is vacuously valid.
func AllValid(checks []GoFenceCheck) bool {
	for _, c := range checks {
		if !c.Valid {
			return false
		}
	}
	return true
}

func checkSnippet(snippet string) GoFenceCheck {
	parserObj := parserPool.Get()
	parser, ok := parserObj.(*sitter.Parser)
	if !ok {
		return GoFenceCheck{Snippet: snippet, Valid: true}
	}
	defer parserPool.Put(parser)

	tree, err := parser.ParseCtx(context.Background(), nil, []byte(snippet))
	if err != nil {
		return GoFenceCheck{Snippet: snippet, Valid: false, ErrorCount: 1}
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return GoFenceCheck{Snippet: snippet, Valid: true}
	}
	return GoFenceCheck{Snippet: snippet, Valid: false, ErrorCount: countErrors(root)}
}

// countErrors counts ERROR nodes in the AST.
func countErrors(node *sitter.Node) int {
	count := 0
	if node.Type() == "ERROR" {
		count++
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		count += countErrors(node.Child(i))
	}
	return count
}
