// Package logging assembles structured slog loggers and formatting helpers used
// across jofsarpur.
//
// It owns the console and JSON handlers, picks a colourised tint handler when
// the console is a terminal, and exposes context-aware helpers so scheduler
// and worker code can tag log lines with run, series, and episode identifiers.
// The package also provides a no-op logger for tests and wiring code that
// cannot fail.
package logging
