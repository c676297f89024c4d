// Package textutil provides text helpers for near-duplicate detection and
// filename sanitization.
//
// Fingerprints are term-frequency vectors: text is lowercased, split on
// non-alphanumeric runs, and tokens shorter than 3 characters are dropped.
// The summarizer uses a Deduper over fingerprints to drop key points and
// quotes that repeat across neighbouring transcript chunks. SanitizeFileName
// turns video titles into output directory names.
package textutil
