// Package summarize turns transcript text into a summary with a map-reduce
// pass over a chat model.
//
// The map phase sends each chunk, strictly in order, to the model and
// collects a ChunkExtract. A reply that cannot be parsed degrades to an
// empty extract; a failed request aborts the run with a PhaseError naming
// the chunk. The reduce phase merges the extracts once per requested
// representation. Structured summaries are validated against the Summary
// cardinality rules; markdown is only checked for its section headings.
//
// Clients that enforce JSON schemas (see llm.Client.SupportsSchema) receive
// ChunkExtractSchema and SummarySchema with their requests.
package summarize
