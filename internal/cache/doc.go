// Package cache persists transcripts and summaries as flat JSON files.
//
// Every record lives in its own file named {key}_{kind}.json under a single
// per-user directory, where kind is "transcript" or "summary". Files are
// pretty-printed so they can be inspected by hand and are replaced
// atomically on write. Concurrent writers to one key are not coordinated;
// the last rename wins.
//
// Reads never fail: a missing, unreadable, or undecodable file is reported
// as a miss and logged, so a damaged entry simply gets rebuilt.
//
// Keys come from YouTubeKey ({id}_{lang}_{method}) for network sources and
// FileKey (truncated SHA-256 of the bytes) for local files.
package cache
