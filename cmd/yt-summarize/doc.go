// Package main hosts the yt-summarize CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once per invocation, builds
// the structured logger, and hands each request to the pipeline package. The
// summarize and watch commands share the same runner, so cache behavior and
// credential checks are identical whether a transcript arrives on the command
// line or through the watched folder.
//
// Keep this package thin: new behavior belongs in internal packages first and
// is surfaced here through flags or subcommands.
package main
