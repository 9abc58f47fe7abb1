package search

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// snippetRadius is how far the excerpt extends around the match.
	snippetRadius = 120

	// maxSnippetLen caps the excerpt when no match anchors it.
	maxSnippetLen = 240

	// maxHighlightsPerTerm caps highlight ranges per matched term.
	maxHighlightsPerTerm = 5
)

// buildSnippet extracts a short excerpt around the first matched term
// and returns it with byte ranges of every term occurrence inside it.
// Without a lexical match the head of the content is used.
func buildSnippet(content string, matchedTerms []string, query string) (string, []Range) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", nil
	}

	terms := matchedTerms
	if len(terms) == 0 {
		terms = strings.Fields(strings.ToLower(query))
	}

	anchor := firstMatch(content, terms)
	snippet := excerpt(content, anchor)
	return snippet, highlightRanges(snippet, terms)
}

// firstMatch returns the byte offset of the earliest occurrence of any
// term, or -1 when nothing matches.
func firstMatch(content string, terms []string) int {
	lower := strings.ToLower(content)
	anchor := -1
	for _, term := range terms {
		if term == "" {
			continue
		}
		idx := strings.Index(lower, strings.ToLower(term))
		if idx >= 0 && (anchor < 0 || idx < anchor) {
			anchor = idx
		}
	}
	return anchor
}

// excerpt cuts a window around anchor, trimmed to word boundaries,
// with ellipses marking truncation.
func excerpt(content string, anchor int) string {
	if anchor < 0 {
		if len(content) <= maxSnippetLen {
			return content
		}
		return trimToWord(content[:alignRuneEnd(content, maxSnippetLen)], false) + "..."
	}

	start := anchor - snippetRadius
	end := anchor + snippetRadius
	if start < 0 {
		start = 0
	}
	if end > len(content) {
		end = len(content)
	}
	start = alignRuneStart(content, start)
	end = alignRuneEnd(content, end)

	snippet := content[start:end]
	if start > 0 {
		snippet = "..." + trimToWord(snippet, true)
	}
	if end < len(content) {
		snippet = trimToWord(snippet, false) + "..."
	}
	return snippet
}

// alignRuneStart moves a byte offset forward to the next rune start so
// a slice beginning there never opens mid-rune.
func alignRuneStart(s string, i int) int {
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return i
}

// alignRuneEnd moves a byte offset back to a rune boundary so a slice
// ending there never cuts a rune in half.
func alignRuneEnd(s string, i int) int {
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

// trimToWord drops a partial word from the leading or trailing edge.
func trimToWord(s string, leading bool) string {
	if leading {
		if idx := strings.IndexFunc(s, unicode.IsSpace); idx >= 0 {
			return strings.TrimLeftFunc(s[idx:], unicode.IsSpace)
		}
		return s
	}
	if idx := strings.LastIndexFunc(s, unicode.IsSpace); idx >= 0 {
		return strings.TrimRightFunc(s[:idx], unicode.IsSpace)
	}
	return s
}

// highlightRanges finds byte spans of each term inside the snippet,
// case-insensitively, sorted by start offset.
func highlightRanges(snippet string, terms []string) []Range {
	if len(terms) == 0 || snippet == "" {
		return []Range{}
	}

	lower := strings.ToLower(snippet)
	highlights := make([]Range, 0, len(terms))

	for _, term := range terms {
		if term == "" {
			continue
		}
		lowerTerm := strings.ToLower(term)
		start := 0
		for count := 0; count < maxHighlightsPerTerm; count++ {
			idx := strings.Index(lower[start:], lowerTerm)
			if idx < 0 {
				break
			}
			absStart := start + idx
			highlights = append(highlights, Range{
				Start: absStart,
				End:   absStart + len(term),
			})
			start = absStart + len(term)
		}
	}

	if len(highlights) > 1 {
		sort.Slice(highlights, func(i, j int) bool {
			return highlights[i].Start < highlights[j].Start
		})
	}

	return highlights
}
