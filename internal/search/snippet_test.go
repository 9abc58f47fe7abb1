package search

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSnippetAnchorsOnMatch(t *testing.T) {
	content := strings.Repeat("filler text before the interesting part. ", 10) +
		"Severe corrosion was observed near weld 14." +
		strings.Repeat(" trailing filler text after the match.", 10)

	snippet, highlights := buildSnippet(content, []string{"corrosion"}, "corrosion")

	assert.Contains(t, snippet, "corrosion")
	assert.True(t, strings.HasPrefix(snippet, "..."))
	assert.True(t, strings.HasSuffix(snippet, "..."))

	require.NotEmpty(t, highlights)
	h := highlights[0]
	assert.Equal(t, "corrosion", strings.ToLower(snippet[h.Start:h.End]))
}

func TestBuildSnippetFallsBackToHead(t *testing.T) {
	content := strings.Repeat("no match in this document body at all. ", 20)

	snippet, highlights := buildSnippet(content, nil, "zirconium")

	assert.True(t, strings.HasPrefix(content, strings.TrimSuffix(snippet, "...")))
	assert.LessOrEqual(t, len(snippet), maxSnippetLen+3)
	assert.Empty(t, highlights)
}

func TestBuildSnippetShortContent(t *testing.T) {
	snippet, highlights := buildSnippet("The budget was approved.", []string{"budget"}, "budget")

	assert.Equal(t, "The budget was approved.", snippet)
	require.Len(t, highlights, 1)
	assert.Equal(t, "budget", snippet[highlights[0].Start:highlights[0].End])
}

func TestBuildSnippetCaseInsensitive(t *testing.T) {
	snippet, highlights := buildSnippet("CORROSION was found.", []string{"corrosion"}, "")

	assert.Contains(t, snippet, "CORROSION")
	require.Len(t, highlights, 1)
	assert.Equal(t, "CORROSION", snippet[highlights[0].Start:highlights[0].End])
}

func TestBuildSnippetEmptyContent(t *testing.T) {
	snippet, highlights := buildSnippet("   ", []string{"term"}, "term")

	assert.Empty(t, snippet)
	assert.Empty(t, highlights)
}

func TestBuildSnippetNeverSplitsRunes(t *testing.T) {
	// No spaces anywhere, so word trimming cannot rescue a cut that
	// lands inside a multi-byte rune.
	anchored := "corrosion." + strings.Repeat("配", 100)
	snippet, _ := buildSnippet(anchored, []string{"corrosion"}, "corrosion")
	require.True(t, utf8.ValidString(snippet), "anchored snippet must stay valid UTF-8")
	assert.Contains(t, snippet, "corrosion")

	head := "ab" + strings.Repeat("配", 100)
	snippet, _ = buildSnippet(head, nil, "nomatch")
	require.True(t, utf8.ValidString(snippet), "head snippet must stay valid UTF-8")
}
