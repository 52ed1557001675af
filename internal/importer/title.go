package importer

import (
	"strings"
	"unicode/utf8"
)

const (
	transcriptTitleLimit = 50
	textTitleLimit       = 40
	ellipsis             = "..."

	userMarker    = "**User:**"
	headingMarker = "# "
)

// TranscriptTitle derives a title from a rendered transcript: the first
// non-blank line of the first user turn, cut to 50 runes. Without a user
// turn it falls back to TextTitle.
func (n *Normalizer) TranscriptTitle(transcript string) string {
	if i := strings.Index(transcript, userMarker); i >= 0 {
		for _, line := range strings.Split(transcript[i+len(userMarker):], "\n") {
			if line = strings.TrimSpace(line); line != "" {
				return truncate(line, transcriptTitleLimit)
			}
		}
	}
	return n.TextTitle(transcript)
}

// TextTitle derives a title from Markdown or plain text. A "# " heading
// anywhere wins; otherwise the first non-empty line that is not a heading of
// any level, cut to 40 runes. Never returns "".
func (n *Normalizer) TextTitle(text string) string {
	var first string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, headingMarker) {
			return strings.TrimSpace(line[len(headingMarker):])
		}
		if first == "" && line != "" && !strings.HasPrefix(line, "#") {
			first = line
		}
	}
	if first != "" {
		return truncate(first, textTitleLimit)
	}
	return n.msgs.Untitled
}

// truncate cuts s to limit runes, appending an ellipsis when it cuts.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + ellipsis
}
