// Package sanitize normalizes raw user input before any analysis runs.
// Script blocks, markup tags and null bytes are removed and the result is
// truncated to the configured maximum length. Sanitization is pure; it
// never talks to the backend.
package sanitize

import (
	"regexp"
	"strings"
)

// scriptBlockRe matches complete <script>…</script> elements including
// their content.
// Flags: i = case-insensitive, s = dot matches newline.
var scriptBlockRe = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)

// Clean strips script blocks, markup tags and null bytes from text and
// truncates it to maxLen runes. A maxLen ≤ 0 disables truncation.
func Clean(text string, maxLen int) string {
	text = scriptBlockRe.ReplaceAllString(text, "")
	text = stripTags(text)
	text = strings.ReplaceAll(text, "\x00", "")

	if maxLen > 0 {
		runes := []rune(text)
		if len(runes) > maxLen {
			text = string(runes[:maxLen])
		}
	}

	return strings.TrimSpace(text)
}

// stripTags removes anything between '<' and '>' inclusive. An unclosed
// '<' swallows the rest of the text, which is acceptable for input that is
// about to be screened anyway.
func stripTags(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inTag := false

	for _, ch := range s {
		switch ch {
		case '<':
			inTag = true
		case '>':
			inTag = false
		default:
			if !inTag {
				b.WriteRune(ch)
			}
		}
	}

	return b.String()
}
