package importer

// Source tags where a normalized conversation came from.
type Source string

const (
	SourceChatGPT Source = "chatgpt"
	SourceClaude  Source = "claude"
	SourceManual  Source = "manual"
)

// Conversation is the canonical record produced for every imported chat.
// Content is never empty: it holds either the rendered transcript or the
// locale's "no messages" placeholder.
type Conversation struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Source  Source `json:"source"`
}

// Variant selects the flat-array dialect handled by ExtractFlat.
type Variant int

const (
	VariantClaude Variant = iota
	VariantGeneric
)

func (v Variant) String() string {
	if v == VariantClaude {
		return "claude"
	}
	return "generic"
}

// turn is a single labelled message, rendered straight into a transcript.
type turn struct {
	Role string // "user" or "assistant"
	Text string
}
