package ui

import (
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// RenderMarkdown converts a markdown answer to HTML for display.
// Each call builds a fresh parser because gomarkdown parsers are stateful
// and not safe to reuse across documents.
func RenderMarkdown(md string) string {
	if md == "" {
		return ""
	}
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.NoEmptyLineBeforeBlock)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.SkipHTML})
	return string(markdown.ToHTML([]byte(md), p, renderer))
}
