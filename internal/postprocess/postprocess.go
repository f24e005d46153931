// Package postprocess strips common LLM artifacts from translation output
// before it is reassembled into the final result.
package postprocess

import (
	"regexp"
	"strings"
)

// Clean removes instruction echoes and wrapping quotes from text and
// returns the trimmed result. It is applied to every backend reply in the
// translation path; the security and detection paths parse JSON and do
// not need it.
func Clean(text string) string {
	text = removeInstructionEchoes(strings.TrimSpace(text))
	text = removeQuoteWrapping(text)
	return strings.TrimSpace(text)
}

// echoPatterns match introductory phrases that models sometimes prepend
// even when instructed not to. Each pattern is anchored to the start of
// the string and requires a colon to reduce false positives on
// legitimate content.
var echoPatterns = []*regexp.Regexp{
	// "Here is / Here's [the] [English] translation:"
	regexp.MustCompile(`(?i)^here(?:'s| is)(?: the)? (?:english )?(?:translation|translated text)\s*:`),
	// "[The] [English] translation [is]:"
	regexp.MustCompile(`(?i)^(?:the )?(?:english )?(?:translation|translated text)(?: is)?\s*:`),
	// "Certainly / Sure / Of course[,] here is the translation:"
	regexp.MustCompile(`(?i)^(?:certainly|sure|of course)[,.]? here(?:'s| is)(?: the)? (?:english )?(?:translation|translated text)\s*:`),
}

func removeInstructionEchoes(text string) string {
	for _, re := range echoPatterns {
		if loc := re.FindStringIndex(text); loc != nil && loc[0] == 0 {
			text = strings.TrimSpace(text[loc[1]:])
		}
	}
	return text
}

// removeQuoteWrapping strips a matching pair of outer quotes when the
// entire text is wrapped in them. Supported pairs:
//
//	"…"  '…'  «…»  “…”  ‘…’
func removeQuoteWrapping(text string) string {
	runes := []rune(text)
	n := len(runes)
	if n < 2 {
		return text
	}
	first, last := runes[0], runes[n-1]
	if (first == '"' && last == '"') ||
		(first == '\'' && last == '\'') ||
		(first == '«' && last == '»') ||
		(first == '“' && last == '”') ||
		(first == '‘' && last == '’') {
		return strings.TrimSpace(string(runes[1 : n-1]))
	}
	return text
}
