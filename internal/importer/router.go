package importer

import (
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// Route classifies a JSON document into a known export shape and extracts
// it. raw should be valid JSON; anything else is kept as a plain-text record.
//
// A top-level array is routed element by element, since bulk exports hold
// many conversations in one file.
func (n *Normalizer) Route(raw string) []Conversation {
	if !gjson.Valid(raw) {
		return []Conversation{n.textRecord(raw)}
	}
	return n.routeValue(gjson.Parse(raw))
}

func (n *Normalizer) routeValue(v gjson.Result) []Conversation {
	if !v.IsArray() {
		return []Conversation{n.routeObject(v, false)}
	}

	var convs []Conversation
	v.ForEach(func(_, item gjson.Result) bool {
		convs = append(convs, n.routeObject(item, true))
		return true
	})
	if len(convs) == 0 {
		return []Conversation{n.fallback(v)}
	}
	return convs
}

// routeObject picks the extractor for one conversation object. Inside an
// array, "messages" is accepted as an alias of "chat_messages"; a standalone
// object with a "messages" array is the generic shape instead.
func (n *Normalizer) routeObject(v gjson.Result, inArray bool) Conversation {
	if !v.IsObject() {
		return n.fallback(v)
	}

	switch {
	case truthy(v.Get("mapping")):
		return n.extractTree(v)
	case truthy(v.Get("chat_messages")):
		return n.extractFlat(v, VariantClaude)
	case inArray && truthy(v.Get("messages")):
		return n.extractFlat(v, VariantClaude)
	case !inArray && v.Get("messages").IsArray():
		return n.extractFlat(v, VariantGeneric)
	}
	return n.fallback(v)
}

// fallback keeps an unrecognized value as pretty-printed JSON. Key order and
// number literals are preserved, so the content parses back to the input.
func (n *Normalizer) fallback(v gjson.Result) Conversation {
	content := strings.TrimRight(string(pretty.Pretty([]byte(v.Raw))), "\n")
	if strings.TrimSpace(content) == "" {
		content = n.msgs.NoMessages
	}

	var title string
	if v.IsObject() {
		title = stringField(v, "title", "name")
	}
	if title == "" {
		title = n.TextTitle(content)
	}

	return Conversation{
		Title:   title,
		Content: content,
		Source:  SourceManual,
	}
}

// truthy mirrors how exports are usually probed: a field counts as present
// unless it is missing, null, false, 0 or "".
func truthy(r gjson.Result) bool {
	switch r.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.Number:
		return r.Num != 0
	case gjson.String:
		return r.Str != ""
	default:
		return true
	}
}

// firstTruthy returns the first truthy field of obj among names.
func firstTruthy(obj gjson.Result, names ...string) gjson.Result {
	for _, name := range names {
		if r := obj.Get(name); truthy(r) {
			return r
		}
	}
	return gjson.Result{}
}

// stringField returns the first non-blank string field of obj among names,
// trimmed.
func stringField(obj gjson.Result, names ...string) string {
	for _, name := range names {
		r := obj.Get(name)
		if r.Type != gjson.String {
			continue
		}
		if s := strings.TrimSpace(r.Str); s != "" {
			return s
		}
	}
	return ""
}
