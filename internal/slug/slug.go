// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation from arbitrary strings.
package slug

import (
	"context"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLen is the longest slug Generate returns, matching the 256-char
// slug columns in the database.
const MaxLen = 256

// fallbackLen is the length of the random token used when a taxonomy title
// produces an empty slug.
const fallbackLen = 6

// foldings covers letters that have no Unicode decomposition into a base
// letter plus combining marks.
var foldings = map[rune]string{
	'ß': "ss",
	'æ': "ae",
	'ø': "o",
	'œ': "oe",
	'đ': "d",
	'ł': "l",
	'þ': "th",
	'ı': "i",
}

// stripMarks decomposes accented characters and drops the combining marks,
// so "é" becomes "e".
func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Generate creates a URL-friendly slug from the given string.
// Example: "Héllo, World! 2026" → "hello-world-2026"
//
// Apostrophes are dropped ("How's" → "hows"), a '#' that follows a letter or
// digit reads as "s" ("C#" → "cs"), and every other run of characters outside
// [a-z0-9] collapses into a single hyphen.
func Generate(s string) string {
	s = stripMarks(strings.ToLower(strings.TrimSpace(s)))

	var b strings.Builder
	b.Grow(len(s))
	pendingHyphen := false
	var prev rune

	write := func(r rune) {
		if pendingHyphen && b.Len() > 0 {
			b.WriteByte('-')
		}
		pendingHyphen = false
		b.WriteRune(r)
	}

	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			write(r)
		case r == '\'' || r == '’':
			// dropped without splitting the word
		case r == '#' && isAlnum(prev):
			write('s')
		default:
			if f, ok := foldings[r]; ok {
				for _, fr := range f {
					write(fr)
				}
			} else {
				pendingHyphen = true
			}
		}
		prev = r
	}

	return truncate(b.String(), MaxLen)
}

// Taxonomy returns the slug for a category or tag title. Titles that yield
// no ASCII characters at all (e.g. CJK-only titles) get a short random
// token so the slug column is never empty.
func Taxonomy(title string) string {
	if s := Generate(title); s != "" {
		return s
	}
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:fallbackLen]
}

// Uniquify returns base if taken reports it free, otherwise the first free
// candidate among base-2, base-3, ... The suffix always fits within MaxLen.
func Uniquify(ctx context.Context, base string, taken func(context.Context, string) (bool, error)) (string, error) {
	candidate := base
	for n := 2; ; n++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		used, err := taken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !used {
			return candidate, nil
		}
		suffix := "-" + strconv.Itoa(n)
		candidate = truncate(base, MaxLen-len(suffix)) + suffix
	}
}

// truncate cuts s to at most max bytes (slugs are ASCII) and trims any
// hyphen left dangling at the cut.
func truncate(s string, max int) string {
	if len(s) > max {
		s = s[:max]
	}
	return strings.Trim(s, "-")
}

func isAlnum(r rune) bool {
	return r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r))
}
