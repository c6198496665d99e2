// Package adf converts between plain text and the Atlassian Document Format
// Jira uses for rich-text fields (description, environment, comments).
package adf

import (
	"fmt"
	"strings"
)

var blockNodes = map[string]bool{
	"paragraph": true, "heading": true, "blockquote": true, "codeBlock": true,
	"bulletList": true, "orderedList": true, "listItem": true, "rule": true,
	"mediaSingle": true, "mediaGroup": true, "decisionList": true, "taskList": true,
	"table": true, "tableRow": true, "panel": true,
}

// IsDocument reports whether v looks like an ADF document.
func IsDocument(v any) bool {
	m, ok := v.(map[string]any)
	if !ok {
		return false
	}
	t, _ := m["type"].(string)
	return t == "doc"
}

// Text flattens an ADF document into plain text, one line per block.
// Strings pass through unchanged.
func Text(doc any) string {
	switch v := doc.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any:
		var b strings.Builder
		walk(&b, v)
		return strings.TrimSpace(b.String())
	}
	return fmt.Sprintf("%v", doc)
}

func walk(b *strings.Builder, node map[string]any) {
	nodeType, _ := node["type"].(string)
	switch nodeType {
	case "text":
		s, _ := node["text"].(string)
		b.WriteString(s)
		return
	case "hardBreak":
		b.WriteString("\n")
		return
	case "mention", "emoji", "status":
		if attrs, ok := node["attrs"].(map[string]any); ok {
			for _, k := range []string{"text", "shortName"} {
				if s, ok := attrs[k].(string); ok && s != "" {
					b.WriteString(s)
					return
				}
			}
		}
		return
	case "inlineCard":
		if attrs, ok := node["attrs"].(map[string]any); ok {
			if s, ok := attrs["url"].(string); ok {
				b.WriteString(s)
			}
		}
		return
	}

	children, _ := node["content"].([]any)
	for _, c := range children {
		if child, ok := c.(map[string]any); ok {
			walk(b, child)
		}
	}
	if blockNodes[nodeType] {
		b.WriteString("\n")
	}
}

// Document wraps plain text in a minimal ADF document. Blank lines separate
// paragraphs; single newlines become hard breaks. Empty text yields nil so
// the field is cleared.
func Document(text string) map[string]any {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var content []any
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		var inline []any
		for i, line := range strings.Split(p, "\n") {
			if i > 0 {
				inline = append(inline, map[string]any{"type": "hardBreak"})
			}
			if line != "" {
				inline = append(inline, map[string]any{"type": "text", "text": line})
			}
		}
		content = append(content, map[string]any{"type": "paragraph", "content": inline})
	}
	return map[string]any{
		"version": 1,
		"type":    "doc",
		"content": content,
	}
}
