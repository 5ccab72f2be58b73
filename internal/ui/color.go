// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package ui provides human-mode terminal output for the memo CLI.
//
// All output goes to stderr so that stdout stays reserved for the single
// JSON envelope a command emits under --json (see internal/output). Colors
// respect the --no-color flag, the NO_COLOR environment variable, and are
// disabled automatically when stderr is not a terminal.
//
// Color usage guidelines:
//   - Red: Errors, failures
//   - Yellow: Warnings, cautions
//   - Green: Success, completions
//   - Cyan: Info, neutral messages
//   - Bold: Headers, important labels
//   - Dim: Less important details, paths
package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Pre-configured color instances for consistent CLI output.
//
// These are initialized at package load time and respect the global
// color.NoColor setting when called.
var (
	// Red is used for error messages and failures.
	Red = color.New(color.FgRed)

	// Yellow is used for warnings and cautions.
	Yellow = color.New(color.FgYellow)

	// Green is used for success messages and completions.
	Green = color.New(color.FgGreen)

	// Cyan is used for informational messages.
	Cyan = color.New(color.FgCyan)

	// Bold is used for headers and important labels.
	Bold = color.New(color.Bold)

	// Dim is used for less important details like paths.
	Dim = color.New(color.Faint)
)

// InitColors configures global color output based on the noColor flag.
//
// This should be called early in main() after parsing flags. It disables
// color when --no-color is passed, when NO_COLOR is set, or when stderr is
// not a terminal (piped output, --json mode) — a plain `color.NoColor`
// check on an isatty-negative stream would otherwise still emit ANSI codes
// into a file or pipe.
func InitColors(noColor bool) {
	if noColor || os.Getenv("NO_COLOR") != "" || !isTerminal(os.Stderr) {
		color.NoColor = true
		return
	}
	color.NoColor = false
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Success prints a green success message with a checkmark prefix to stderr.
//
// Example output: "✓ wrote learning-retry-backoff"
func Success(msg string) {
	_, _ = Green.Fprintln(os.Stderr, "✓ "+msg)
}

// Successf prints a formatted green success message with a checkmark prefix.
func Successf(format string, args ...any) {
	_, _ = Green.Fprintf(os.Stderr, "✓ "+format+"\n", args...)
}

// Warning prints a yellow warning message with a warning symbol prefix.
//
// Example output: "⚠ skipped 3 memories with parse errors"
func Warning(msg string) {
	_, _ = Yellow.Fprintln(os.Stderr, "⚠ "+msg)
}

// Warningf prints a formatted yellow warning message with a warning symbol prefix.
func Warningf(format string, args ...any) {
	_, _ = Yellow.Fprintf(os.Stderr, "⚠ "+format+"\n", args...)
}

// Error prints a red error message with an X prefix.
//
// Example output: "✗ failed to acquire scope lease"
func Error(msg string) {
	_, _ = Red.Fprintln(os.Stderr, "✗ "+msg)
}

// Errorf prints a formatted red error message with an X prefix.
func Errorf(format string, args ...any) {
	_, _ = Red.Fprintf(os.Stderr, "✗ "+format+"\n", args...)
}

// Info prints a cyan informational message with an info symbol prefix.
//
// Example output: "ℹ rebuilding index for scope project"
func Info(msg string) {
	_, _ = Cyan.Fprintln(os.Stderr, "ℹ "+msg)
}

// Infof prints a formatted cyan informational message with an info symbol prefix.
func Infof(format string, args ...any) {
	_, _ = Cyan.Fprintf(os.Stderr, "ℹ "+format+"\n", args...)
}

// Header prints a bold header with an underline separator.
//
// Example output:
//
//	memo status
//	===========
func Header(text string) {
	_, _ = Bold.Fprintln(os.Stderr, text)
	fmt.Fprintln(os.Stderr, strings.Repeat("=", len(text)))
}

// SubHeader prints a bold sub-header without an underline.
//
// Example output: "Scopes:"
func SubHeader(text string) {
	_, _ = Bold.Fprintln(os.Stderr, text)
}

// Label returns a bold-formatted label string for inline use.
//
// Example: fmt.Fprintf(os.Stderr, "%s %s\n", ui.Label("Scope:"), scopeName)
func Label(text string) string {
	return Bold.Sprint(text)
}

// DimText returns a dim-formatted string for less important text.
//
// Example: fmt.Fprintf(os.Stderr, "Data stored in: %s\n", ui.DimText(root))
func DimText(text string) string {
	return Dim.Sprint(text)
}

// CountText returns a cyan-formatted count value for statistics display.
//
// Example: fmt.Fprintf(os.Stderr, "  Memories: %s\n", ui.CountText(42))
func CountText(count int) string {
	return Cyan.Sprint(count)
}
