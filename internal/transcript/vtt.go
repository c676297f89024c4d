package transcript

import (
	"html"
	"regexp"
	"strings"
)

var (
	vttTagPattern        = regexp.MustCompile(`<[^>]+>`)
	vttAnnotationPattern = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)`)
)

// ParseVTT reduces WebVTT caption markup to plain text. Header, note,
// timestamp, and cue identifier lines are dropped, inline tags and
// bracketed annotations such as [Music] or (applause) are removed, and
// consecutive duplicate lines are collapsed before joining with spaces.
func ParseVTT(content string) string {
	var lines []string
	inCue := false
	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case line == "" || strings.HasPrefix(line, "WEBVTT") || strings.HasPrefix(line, "NOTE"):
			inCue = false
			continue
		case strings.Contains(line, "-->"):
			inCue = true
			continue
		case !inCue:
			continue
		}
		clean := vttTagPattern.ReplaceAllString(line, "")
		clean = html.UnescapeString(clean)
		clean = vttAnnotationPattern.ReplaceAllString(clean, "")
		clean = strings.Join(strings.Fields(clean), " ")
		if clean == "" {
			continue
		}
		if n := len(lines); n > 0 && lines[n-1] == clean {
			continue
		}
		lines = append(lines, clean)
	}
	return strings.Join(lines, " ")
}
