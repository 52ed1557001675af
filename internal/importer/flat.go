package importer

import (
	"strings"

	"github.com/tidwall/gjson"
)

// ExtractFlat normalizes a conversation whose messages are a plain array:
// the Claude export shape ("chat_messages" with sender/text or typed content
// blocks) or the generic {"messages": [{"role", "content"}]} shape.
// Messages keep their array order.
func (n *Normalizer) ExtractFlat(raw string, variant Variant) Conversation {
	return n.extractFlat(gjson.Parse(raw), variant)
}

func (n *Normalizer) extractFlat(conv gjson.Result, variant Variant) Conversation {
	var (
		msgs   gjson.Result
		title  string
		source Source
	)
	if variant == VariantClaude {
		msgs = firstTruthy(conv, "chat_messages", "messages")
		title = stringField(conv, "name", "title")
		source = SourceClaude
	} else {
		msgs = conv.Get("messages")
		title = stringField(conv, "title")
		source = SourceManual
	}

	var turns []turn
	if msgs.IsArray() {
		for _, m := range msgs.Array() {
			if t, ok := flatTurn(m, variant); ok {
				turns = append(turns, t)
			}
		}
	}

	return n.finish(title, turns, source)
}

func flatTurn(msg gjson.Result, variant Variant) (turn, bool) {
	if !msg.IsObject() {
		return turn{}, false
	}

	var roleField, text string
	if variant == VariantClaude {
		roleField = firstTruthy(msg, "sender", "role").String()
		text = claudeText(msg)
	} else {
		roleField = firstTruthy(msg, "role", "sender").String()
		text = genericText(msg)
	}

	if strings.TrimSpace(text) == "" {
		return turn{}, false
	}
	role, ok := normalizeRole(roleField)
	if !ok {
		return turn{}, false
	}
	return turn{Role: role, Text: text}, true
}

// normalizeRole maps export role names onto user/assistant. Anything else
// (system, tool, missing) is dropped for every flat dialect.
func normalizeRole(role string) (string, bool) {
	switch role {
	case "human", "user":
		return "user", true
	case "assistant":
		return "assistant", true
	default:
		return "", false
	}
}

// claudeText resolves message text in priority order: a string "text" field,
// "content" as typed blocks (text blocks only), then "content" as a string.
func claudeText(msg gjson.Result) string {
	if t := msg.Get("text"); t.Type == gjson.String {
		return t.Str
	}

	content := msg.Get("content")
	if content.IsArray() {
		var texts []string
		for _, block := range content.Array() {
			if block.Get("type").Str != "text" {
				continue
			}
			if t := block.Get("text"); t.Type == gjson.String {
				texts = append(texts, t.Str)
			}
		}
		return strings.Join(texts, "\n")
	}
	if content.Type == gjson.String {
		return content.Str
	}
	return ""
}

// genericText takes the first truthy of "content" and "text"; it only counts
// when it is a string.
func genericText(msg gjson.Result) string {
	if v := firstTruthy(msg, "content", "text"); v.Type == gjson.String {
		return v.Str
	}
	return ""
}
