// Package pipeline wires the transcript chain, the cache and the summarizer
// into the single cache-aware flow shared by the summarize and watch
// commands. Collaborators are built lazily from configuration so a run only
// needs the credentials of the steps it actually reaches; tests replace them
// with options.
package pipeline
