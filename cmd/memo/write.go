// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"strings"
	"sync"

	"github.com/kraklabs/memo/internal/cliio"
	"github.com/kraklabs/memo/internal/store/docfile"
	"github.com/kraklabs/memo/internal/store/mutate"
	"github.com/kraklabs/memo/internal/ui"
	"github.com/spf13/pflag"
)

func runWrite(args []string) int {
	var g GlobalFlags
	fs := pflag.NewFlagSet("write", pflag.ContinueOnError)
	g.register(fs)

	typ := fs.String("type", "", "decision|learning|gotcha|artifact|hub|breadcrumb")
	title := fs.String("title", "", "memory title")
	tags := fs.StringSlice("tags", nil, "comma-separated tags")
	links := fs.StringSlice("links", nil, "comma-separated memory IDs to link from this memory")
	body := fs.String("body", "", "memory body (Markdown); use body=- to read from stdin")
	local := fs.Bool("local", false, "write with 0600 permissions (private local scope)")

	if err := fs.Parse(args); err != nil {
		return emitUsage(err.Error())
	}
	ui.InitColors(g.NoColor)

	if *title == "" {
		return emitUsage("--title is required")
	}

	bodyText := *body
	if cliio.IsStdinSentinel(bodyText) {
		raw, err := cliio.ReadStdinRaw(stdin())
		if err != nil {
			return emitError(g, err)
		}
		bodyText = raw
	}

	kind, root, err := g.resolveRoot()
	if err != nil {
		return emitError(g, err)
	}

	now, err := g.clock()
	if err != nil {
		return emitError(g, err)
	}

	var wg sync.WaitGroup
	hook := &mutate.EmbedHook{Provider: embedProvider(), WaitGroup: &wg}

	res, err := mutate.Write(root, *local, mutate.WriteInput{
		Scope: kind,
		Type:  docfile.Type(strings.ToLower(*typ)),
		Title: *title,
		Tags:  *tags,
		Body:  bodyText,
		Links: *links,
	}, now, hook)
	if err != nil {
		return emitError(g, err)
	}
	if testWaitForEmbeds {
		wg.Wait()
	}

	msg := "wrote " + res.ID
	if len(res.SkippedLinks) > 0 {
		return emitPartial(g, msg+" (skipped "+strings.Join(res.SkippedLinks, ", ")+")", msg, res)
	}
	return emitSuccess(g, msg, msg, res)
}

// testWaitForEmbeds lets tests observe the fire-and-forget embedding write
// deterministically; production CLI runs never block on it.
var testWaitForEmbeds = false

func runDelete(args []string) int {
	var g GlobalFlags
	fs := pflag.NewFlagSet("delete", pflag.ContinueOnError)
	g.register(fs)
	if err := fs.Parse(args); err != nil {
		return emitUsage(err.Error())
	}
	ui.InitColors(g.NoColor)

	if fs.NArg() != 1 {
		return emitUsage("delete requires exactly one memory id")
	}
	id := fs.Arg(0)

	_, root, err := g.resolveRoot()
	if err != nil {
		return emitError(g, err)
	}

	if err := mutate.Delete(root, id); err != nil {
		return emitError(g, err)
	}
	return emitSuccess(g, "deleted "+id, "deleted "+id, map[string]string{"id": id})
}

