package deps

import (
	"fmt"
	"os/exec"
)

// CheckFFmpeg reports the FFmpeg binary resolved from PATH, which yt-dlp
// invokes for audio extraction when no --ffmpeg-location is passed.
func CheckFFmpeg() Status {
	const name = "ffmpeg"
	result := Status{
		Name:        "FFmpeg",
		Description: "Used by yt-dlp to extract audio for transcription",
		Command:     name,
	}
	path, err := exec.LookPath(name)
	if err != nil {
		result.Detail = fmt.Sprintf("binary %q not found", name)
		return result
	}
	result.Command = path
	result.Available = true
	return result
}
