package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"ytsummarize/internal/services/ytdlp"
)

// Requirement defines an external binary yt-summarize relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Requirements lists the binaries needed for the given yt-dlp command. ffmpeg
// is only needed to extract audio, so it is optional without audio fallback.
func Requirements(ytdlpCommand string, audioFallback bool) []Requirement {
	return []Requirement{
		{
			Name:        "yt-dlp",
			Command:     ytdlpCommand,
			Description: "Downloads subtitles, metadata and audio. " + ytdlp.Remediation,
		},
		{
			Name:        "FFmpeg",
			Command:     "ffmpeg",
			Description: "Used by yt-dlp to extract audio for transcription",
			Optional:    !audioFallback,
		},
	}
}
