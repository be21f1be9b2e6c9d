package enricher

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
)

var markdownEngine = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Strikethrough,
		extension.Linkify,
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithXHTML(),
	),
)

// normalizeBlock returns the block as HTML. Content that carries no tags is
// treated as markdown and rendered, so a backend that ignored the HTML
// formatting instruction still publishes cleanly.
func normalizeBlock(block string) string {
	trimmed := strings.TrimSpace(block)
	if trimmed == "" || strings.Contains(trimmed, "<") {
		return trimmed
	}

	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(trimmed), &buf); err != nil {
		return "<p>" + trimmed + "</p>"
	}
	return strings.TrimSpace(buf.String())
}
