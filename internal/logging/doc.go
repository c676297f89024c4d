// Package logging assembles structured slog loggers and formatting helpers
// used across yt-summarize.
//
// It owns the console and JSON handlers, level parsing, and the field names
// every component logs with. Context helpers tag lines with the stage, video
// id, and per-run correlation id. NewNop gives tests and optional wiring a
// logger that cannot fail.
package logging
