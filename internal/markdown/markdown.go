// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package markdown renders the Markdown source of a post (its BodyMark) into
// the HTML body that is stored and served. Raw HTML inside the source passes
// through so posts imported from HTML-only clients keep their markup.
package markdown

import (
	"bytes"
	"fmt"

	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// DefaultStyle is the highlighting style of fenced code blocks.
const DefaultStyle = "monokai"

// Renderer converts post Markdown into HTML. It is safe for concurrent use.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer builds a renderer with GFM, footnotes, typographic
// punctuation and heading anchors. Fenced code is highlighted with the
// named style; an empty style disables highlighting.
func NewRenderer(style string) *Renderer {
	exts := []goldmark.Extender{
		extension.GFM,
		extension.Footnote,
		extension.Typographer,
	}
	if style != "" {
		exts = append(exts, highlighting.NewHighlighting(
			highlighting.WithStyle(style),
			highlighting.WithGuessLanguage(false),
		))
	}

	return &Renderer{md: goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)}
}

// Render converts source into an HTML fragment.
func (r *Renderer) Render(source string) (string, error) {
	var buf bytes.Buffer
	buf.Grow(len(source) + len(source)/2)
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

var defaultRenderer = NewRenderer(DefaultStyle)

// ToHTML renders source with the default renderer.
func ToHTML(source string) (string, error) {
	return defaultRenderer.Render(source)
}
