package importer

import (
	"strings"

	"github.com/tidwall/gjson"
)

// graphNode is one entry of a ChatGPT export's "mapping" object.
type graphNode struct {
	HasParent bool
	Children  []string
	Message   gjson.Result
}

// conversationGraph is the id → node adjacency of a "mapping" object, with
// ids kept in document order.
type conversationGraph struct {
	order []string
	nodes map[string]graphNode
}

func buildGraph(mapping gjson.Result) conversationGraph {
	g := conversationGraph{nodes: make(map[string]graphNode)}
	if !mapping.IsObject() {
		return g
	}

	mapping.ForEach(func(key, value gjson.Result) bool {
		id := key.String()
		// A repeated id keeps its first position; the last value wins.
		if _, seen := g.nodes[id]; !seen {
			g.order = append(g.order, id)
		}
		g.nodes[id] = parseGraphNode(value)
		return true
	})
	return g
}

func parseGraphNode(v gjson.Result) graphNode {
	n := graphNode{
		HasParent: truthy(v.Get("parent")),
		Message:   v.Get("message"),
	}
	if children := v.Get("children"); children.IsArray() {
		for _, c := range children.Array() {
			if c.Type == gjson.String || c.Type == gjson.Number {
				n.Children = append(n.Children, c.String())
			}
		}
	}
	return n
}

// root picks the first parentless node in document order, or the first node
// when every node claims a parent. This is a heuristic: exports with several
// parentless nodes only get the first one's subtree.
func (g conversationGraph) root() (string, bool) {
	for _, id := range g.order {
		if !g.nodes[id].HasParent {
			return id, true
		}
	}
	if len(g.order) > 0 {
		return g.order[0], true
	}
	return "", false
}

// walk returns node ids in breadth-first order from the root. Every id is
// visited at most once, so cycles and repeated children terminate. Children
// missing from the mapping are skipped.
func (g conversationGraph) walk() []string {
	start, ok := g.root()
	if !ok {
		return nil
	}

	visited := make(map[string]struct{}, len(g.nodes))
	queue := []string{start}
	var order []string

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		if _, ok := visited[id]; ok {
			continue
		}
		visited[id] = struct{}{}

		node, ok := g.nodes[id]
		if !ok {
			continue
		}
		order = append(order, id)
		queue = append(queue, node.Children...)
	}
	return order
}

// ExtractTree normalizes one ChatGPT conversation object. Every branch of
// the graph is included in breadth-first order; regenerated answers are not
// pruned.
func (n *Normalizer) ExtractTree(raw string) Conversation {
	return n.extractTree(gjson.Parse(raw))
}

func (n *Normalizer) extractTree(conv gjson.Result) Conversation {
	g := buildGraph(conv.Get("mapping"))

	var turns []turn
	for _, id := range g.walk() {
		if t, ok := treeTurn(g.nodes[id].Message); ok {
			turns = append(turns, t)
		}
	}

	return n.finish(stringField(conv, "title"), turns, SourceChatGPT)
}

// treeTurn extracts a user or assistant message from a mapping node's
// message payload. Non-string parts (images, attachments) are ignored.
func treeTurn(msg gjson.Result) (turn, bool) {
	if !msg.IsObject() || !truthy(msg.Get("content")) {
		return turn{}, false
	}

	role := msg.Get("author.role")
	if role.Type != gjson.String || (role.Str != "user" && role.Str != "assistant") {
		return turn{}, false
	}

	parts := msg.Get("content.parts")
	if !parts.IsArray() {
		return turn{}, false
	}

	var texts []string
	for _, p := range parts.Array() {
		if p.Type == gjson.String {
			texts = append(texts, p.Str)
		}
	}
	text := strings.Join(texts, "\n")
	if strings.TrimSpace(text) == "" {
		return turn{}, false
	}

	return turn{Role: role.Str, Text: text}, true
}
