// Package importer detects the format of exported chat logs and normalizes
// them into Conversation records.
//
// Supported inputs are ChatGPT conversation exports (a "mapping" graph of
// message nodes), Claude exports ("chat_messages" arrays), generic
// {"messages": [...]} JSON, arbitrary JSON, Markdown and plain text. The
// package does no I/O: callers hand in decoded text and a filename hint and
// get back at least one record. Unrecognized or malformed input never fails;
// it degrades to a manual record holding the text verbatim.
package importer

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
)

// Normalizer turns raw export text into conversations. It is immutable after
// New and safe for concurrent use.
type Normalizer struct {
	msgs   Messages
	logger *slog.Logger
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLocale selects the placeholder strings, e.g. "en" or "ja-JP".
func WithLocale(locale string) Option {
	return func(n *Normalizer) {
		n.msgs = MessagesFor(locale)
	}
}

// WithLogger sets the logger used for debug-level format decisions.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Normalizer) {
		if logger != nil {
			n.logger = logger
		}
	}
}

func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		msgs:   MessagesFor(""),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Messages returns the placeholder table in use.
func (n *Normalizer) Messages() Messages {
	return n.msgs
}

// Detect is a convenience wrapper around New().Detect.
func Detect(input, filename string) []Conversation {
	return New().Detect(input, filename)
}

// Detect sniffs input and parses it with the first strategy that applies:
// JSON by content, JSON by ".json" extension, Markdown by ".md"/".markdown"
// extension, then plain text. The result always holds at least one record.
func (n *Normalizer) Detect(input, filename string) []Conversation {
	trimmed := strings.TrimSpace(input)

	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		if convs, ok := n.tryJSON(trimmed); ok {
			n.logger.Debug("detected json by content", "filename", filename, "conversations", len(convs))
			return convs
		}
		n.logger.Debug("content looks like json but does not parse, falling through", "filename", filename)
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		if convs, ok := n.tryJSON(trimmed); ok {
			n.logger.Debug("detected json by extension", "filename", filename, "conversations", len(convs))
			return convs
		}
		n.logger.Debug("json extension but invalid json, treating as text", "filename", filename)
	case ".md", ".markdown":
		n.logger.Debug("detected markdown", "filename", filename)
		return []Conversation{n.textRecord(input)}
	}

	n.logger.Debug("detected plain text", "filename", filename)
	return []Conversation{n.textRecord(input)}
}

func (n *Normalizer) tryJSON(s string) ([]Conversation, bool) {
	if s == "" || !gjson.Valid(s) {
		return nil, false
	}
	return n.routeValue(gjson.Parse(s)), true
}

// textRecord wraps Markdown or plain text as a single manual record. Blank
// input gets both placeholders so the content is never empty.
func (n *Normalizer) textRecord(text string) Conversation {
	if strings.TrimSpace(text) == "" {
		return Conversation{
			Title:   n.msgs.Untitled,
			Content: n.msgs.NoMessages,
			Source:  SourceManual,
		}
	}
	return Conversation{
		Title:   n.TextTitle(text),
		Content: text,
		Source:  SourceManual,
	}
}
