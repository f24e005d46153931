// Package chunker splits long texts into bounded segments for per-chunk
// translation while preserving semantic boundaries. Paragraphs are the
// preferred unit; a paragraph that alone exceeds the limit is split
// further at sentence boundaries. Chunk order always matches source
// order and joining the chunks loses no content.
package chunker

import (
	"strings"
	"unicode"
)

const paragraphSeparator = "\n\n"

// Split cuts text into chunks of at most limit runes each. The only
// permitted overflow is a single sentence that itself exceeds the limit;
// such a sentence is kept whole rather than dropped. Split never returns
// an empty slice: when no boundary logic applies the whole text comes
// back as one chunk.
func Split(text string, limit int) []string {
	if limit <= 0 || len([]rune(text)) <= limit {
		return []string{text}
	}

	var chunks []string
	var buf strings.Builder

	flush := func() {
		if s := strings.TrimSpace(buf.String()); s != "" {
			chunks = append(chunks, s)
		}
		buf.Reset()
	}

	for _, para := range strings.Split(text, paragraphSeparator) {
		if runeLen(buf.String())+runeLen(para) > limit && buf.Len() > 0 {
			flush()
		}

		if runeLen(para) > limit {
			// The paragraph alone does not fit; fall back to
			// sentence granularity with the same accumulate
			// and flush rule.
			for _, sentence := range Sentences(para) {
				if runeLen(buf.String())+runeLen(sentence) > limit && buf.Len() > 0 {
					flush()
				}
				buf.WriteString(sentence)
				buf.WriteString(" ")
			}
		} else {
			buf.WriteString(para)
			buf.WriteString(paragraphSeparator)
		}
	}

	flush()

	if len(chunks) == 0 {
		return []string{text}
	}
	return chunks
}

// Sentences splits text at terminal punctuation (. ! ?) followed by
// whitespace. The punctuation stays attached to its sentence. Empty
// fragments are dropped.
func Sentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if (r == '.' || r == '!' || r == '?') && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
				sentences = append(sentences, s)
			}
			// Skip the whitespace run after the terminator.
			j := i + 1
			for j < len(runes) && unicode.IsSpace(runes[j]) {
				j++
			}
			start = j
			i = j - 1
		}
	}

	if start < len(runes) {
		if s := strings.TrimSpace(string(runes[start:])); s != "" {
			sentences = append(sentences, s)
		}
	}

	return sentences
}

func runeLen(s string) int {
	return len([]rune(s))
}
