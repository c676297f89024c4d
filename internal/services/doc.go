// Package services defines shared utilities consumed by the pipeline stages
// and their external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp stage names, video identifiers, and
//     correlation identifiers for logging.
//   - The error taxonomy (unavailable, tool missing, transcription,
//     summarization, configuration, validation) plus the Wrap helper, so
//     callers can switch on KindOf(err) instead of matching message text.
//
// Subpackages hold the collaborators that talk to the outside world: the
// retry policy, chat models, speech-to-text, yt-dlp, and the caption index.
package services
