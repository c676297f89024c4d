// Package ytdlp wraps the yt-dlp command line tool.
//
// The client covers the three invocations the transcript chain needs:
// subtitle download (VTT files written to a work directory), metadata
// lookup (--dump-json, parsed with gjson), and best-quality audio
// extraction to mp3. Process execution is abstracted behind Executor so
// tests can substitute canned output.
//
// A missing binary surfaces as services.ToolMissingError carrying install
// guidance; every other failure is tagged services.ErrUnavailable.
package ytdlp
