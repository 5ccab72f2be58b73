// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/kraklabs/memo/internal/metrics"
	"github.com/kraklabs/memo/internal/store/index"
	"github.com/kraklabs/memo/internal/store/mutate"
	"github.com/kraklabs/memo/internal/store/reconcile"
	"github.com/kraklabs/memo/internal/ui"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/pflag"
)

// reconcileProgress builds a progress bar for human-mode runs once the
// scope is large enough to warrant one (reconcile.ProgressThreshold),
// returning nil under --json, for small scopes, or when stderr is not a
// terminal, per SPEC_FULL §10.
func reconcileProgress(g GlobalFlags, root, description string) reconcile.Progress {
	if g.JSON || !isatty.IsTerminal(os.Stderr.Fd()) {
		return nil
	}
	idx, err := index.Load(root)
	if err != nil || len(idx.Memories) <= reconcile.ProgressThreshold {
		return nil
	}
	return progressbar.NewOptions64(int64(len(idx.Memories)),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionEnableColorCodes(!g.NoColor),
		progressbar.OptionThrottle(65*time.Millisecond),
	)
}

func runReconcile(g GlobalFlags, root, op string, fn func(reconcile.Progress) (reconcile.Report, error)) int {
	start := time.Now()
	prog := reconcileProgress(g, root, op)
	report, err := fn(prog)
	metrics.ReconcileRunsTotal.WithLabelValues(g.Scope, op).Inc()
	metrics.ReconcileDurationSeconds.WithLabelValues(g.Scope, op).Observe(time.Since(start).Seconds())
	if err != nil {
		return emitError(g, err)
	}
	msg := fmt.Sprintf("%s: %d scanned, %d removed, %d reattached", op, report.Scanned, report.Removed, report.Reattached)
	if !g.JSON {
		ui.Header("memo " + op)
		ui.Infof("%s", msg)
	}
	return emitSuccess(g, msg, op, report)
}

func runSync(args []string) int    { return runReconcileCmd(args, "sync", reconcile.Sync) }
func runRebuild(args []string) int { return runReconcileCmd(args, "rebuild", reconcile.Rebuild) }
func runReindex(args []string) int { return runReconcileCmd(args, "reindex", reconcile.Reindex) }
func runPrune(args []string) int   { return runPruneCmd(args) }
func runRepair(args []string) int  { return runReconcileCmd(args, "repair", reconcile.Repair) }

func runValidate(args []string) int {
	var g GlobalFlags
	fs := pflag.NewFlagSet("validate", pflag.ContinueOnError)
	g.register(fs)
	if err := fs.Parse(args); err != nil {
		return emitUsage(err.Error())
	}
	ui.InitColors(g.NoColor)

	_, root, err := g.resolveRoot()
	if err != nil {
		return emitError(g, err)
	}

	issues, err := reconcile.Validate(root, reconcileProgress(g, root, "validate"))
	if err != nil {
		return emitError(g, err)
	}

	if !g.JSON {
		ui.Header("memo validate")
		for _, issue := range issues {
			ui.Warningf("%s: %s %s", issue.Kind, issue.ID, issue.Detail)
		}
	}
	msg := fmt.Sprintf("%d issues", len(issues))
	if len(issues) > 0 {
		return emitPartial(g, msg, msg, issues)
	}
	return emitSuccess(g, msg, msg, issues)
}

func runReconcileCmd(args []string, op string, fn func(string, reconcile.Progress) (reconcile.Report, error)) int {
	var g GlobalFlags
	fs := pflag.NewFlagSet(op, pflag.ContinueOnError)
	g.register(fs)
	if err := fs.Parse(args); err != nil {
		return emitUsage(err.Error())
	}
	ui.InitColors(g.NoColor)

	_, root, err := g.resolveRoot()
	if err != nil {
		return emitError(g, err)
	}

	return runReconcile(g, root, op, func(prog reconcile.Progress) (reconcile.Report, error) {
		return fn(root, prog)
	})
}

func runRefresh(args []string) int {
	var g GlobalFlags
	fs := pflag.NewFlagSet("refresh", pflag.ContinueOnError)
	g.register(fs)
	embeddings := fs.Bool("embeddings", false, "also regenerate embeddings for every non-breadcrumb memory")
	if err := fs.Parse(args); err != nil {
		return emitUsage(err.Error())
	}
	ui.InitColors(g.NoColor)

	_, root, err := g.resolveRoot()
	if err != nil {
		return emitError(g, err)
	}

	opts := reconcile.RefreshOptions{Embeddings: *embeddings, Provider: embedProvider()}
	return runReconcile(g, root, "refresh", func(prog reconcile.Progress) (reconcile.Report, error) {
		return reconcile.Refresh(root, opts, prog)
	})
}

func runPruneCmd(args []string) int {
	var g GlobalFlags
	fs := pflag.NewFlagSet("prune", pflag.ContinueOnError)
	g.register(fs)
	maxAge := fs.Duration("max-age", 0, "breadcrumb staleness threshold (default 7 days)")
	if err := fs.Parse(args); err != nil {
		return emitUsage(err.Error())
	}
	ui.InitColors(g.NoColor)

	_, root, err := g.resolveRoot()
	if err != nil {
		return emitError(g, err)
	}
	now, err := g.clock()
	if err != nil {
		return emitError(g, err)
	}

	res, err := mutate.Prune(root, *maxAge, now)
	if err != nil {
		return emitError(g, err)
	}
	msg := fmt.Sprintf("pruned %d breadcrumbs", len(res.Removed))
	return emitSuccess(g, msg, msg, res)
}
