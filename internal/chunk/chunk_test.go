package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "basic split",
			text: "First sentence. Second one! Third?",
			want: []string{"First sentence.", "Second one!", "Third?"},
		},
		{
			name: "newlines inside sentences",
			text: "Corrosion was found\non segment four. Repairs followed.",
			want: []string{"Corrosion was found\non segment four.", "Repairs followed."},
		},
		{
			name: "no terminator falls back to whole text",
			text: "heading without punctuation",
			want: []string{"heading without punctuation"},
		},
		{
			name: "blank text",
			text: "   \n  ",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sentences(tt.text))
		})
	}
}

func TestSentencesPreserveOrder(t *testing.T) {
	text := "Alpha one. Bravo two. Charlie three. Delta four."
	got := Sentences(text)
	require.Len(t, got, 4)
	assert.Equal(t, "Alpha one.", got[0])
	assert.Equal(t, "Delta four.", got[3])
}

func TestSplitterWindows(t *testing.T) {
	text := "S1 aa. S2 bb. S3 cc. S4 dd. S5 ee."

	chunks := NewSplitter(2, 0).Split("doc1", text)
	require.Len(t, chunks, 3)

	assert.Equal(t, "doc1:0", chunks[0].ID)
	assert.Equal(t, "S1 aa. S2 bb.", chunks[0].Text)
	assert.Equal(t, "S3 cc. S4 dd.", chunks[1].Text)
	assert.Equal(t, "S5 ee.", chunks[2].Text)
	assert.Equal(t, 2, chunks[2].Index)
}

func TestSplitterOverlap(t *testing.T) {
	text := "S1 aa. S2 bb. S3 cc. S4 dd."

	chunks := NewSplitter(3, 1).Split("doc1", text)
	require.Len(t, chunks, 2)
	assert.Equal(t, "S1 aa. S2 bb. S3 cc.", chunks[0].Text)
	assert.Equal(t, "S3 cc. S4 dd.", chunks[1].Text)
}

func TestSplitterOverlapClamped(t *testing.T) {
	// Overlap >= window would loop forever without clamping.
	text := strings.Repeat("Word one. ", 10)
	chunks := NewSplitter(2, 5).Split("doc1", text)
	require.NotEmpty(t, chunks)
	assert.Less(t, len(chunks), 20)
}

func TestSplitterBlankText(t *testing.T) {
	assert.Nil(t, NewSplitter(3, 0).Split("doc1", "  "))
}
