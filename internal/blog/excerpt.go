// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blog

import (
	"strings"

	"golang.org/x/net/html"
)

// ellipsis marks an excerpt cut short.
const ellipsis = "…"

// blockTags separate words even when no whitespace surrounds them in the markup.
var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "table": true, "tr": true, "td": true, "th": true,
	"section": true, "article": true, "hr": true, "figure": true, "figcaption": true,
}

// PlainText extracts the readable text of an HTML fragment, skipping
// scripts and styles.
func PlainText(fragment string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or malformed input; either way keep what was read.
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style":
				skip++
			default:
				if blockTags[string(name)] {
					b.WriteByte(' ')
				}
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style":
				if skip > 0 {
					skip--
				}
			default:
				if blockTags[string(name)] {
					b.WriteByte(' ')
				}
			}
		}
	}
}

// Excerpt returns the first limit words of the body's text, with an
// ellipsis when words were cut.
func Excerpt(body string, limit int) string {
	words := strings.Fields(PlainText(body))
	if limit <= 0 || len(words) <= limit {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:limit], " ") + ellipsis
}
