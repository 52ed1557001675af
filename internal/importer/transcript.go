package importer

import "strings"

// TurnSeparator sits between rendered turns in a transcript.
const TurnSeparator = "\n\n---\n\n"

func (t turn) label() string {
	if t.Role == "user" {
		return "User"
	}
	return "Assistant"
}

// formatTranscript renders turns as "**User:**\n<text>" segments.
func formatTranscript(turns []turn) string {
	var sb strings.Builder
	for i, t := range turns {
		if i > 0 {
			sb.WriteString(TurnSeparator)
		}
		sb.WriteString("**")
		sb.WriteString(t.label())
		sb.WriteString(":**\n")
		sb.WriteString(t.Text)
	}
	return sb.String()
}

// finish assembles a record from extracted turns. An explicit title wins;
// otherwise it is derived from the transcript.
func (n *Normalizer) finish(title string, turns []turn, source Source) Conversation {
	content := formatTranscript(turns)
	if content == "" {
		content = n.msgs.NoMessages
	}
	if title == "" {
		title = n.TranscriptTitle(content)
	}
	return Conversation{
		Title:   title,
		Content: content,
		Source:  source,
	}
}
