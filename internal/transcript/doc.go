// Package transcript resolves a source reference into transcript text.
//
// Video sources go through an ordered fallback chain:
//
//  1. Caption tracks advertised by the watch page (exact language, then a
//     translation, then in auto mode a manual track before an
//     auto-generated one).
//  2. Subtitles downloaded with yt-dlp and reduced to plain text by ParseVTT.
//  3. Audio downloaded with yt-dlp and transcribed by the speech-to-text
//     client, guarded by a duration ceiling and a cost warning.
//
// The chain only advances on unavailability. A missing yt-dlp binary and
// configuration problems stop it immediately, and each strategy runs at most
// once. Results are cached under {id}_{lang}_{method} using the requested
// language; lookups try every method in priority order.
//
// Local .txt files bypass the chain and are keyed by a digest of their bytes.
package transcript
