package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitText_ShortTextIsOneChunk(t *testing.T) {
	chunks := SplitText("A short paragraph.", "doc.txt", 500, 50)

	require.Len(t, chunks, 1)
	assert.Equal(t, "A short paragraph.", chunks[0].Text)
	assert.Equal(t, "doc.txt", chunks[0].Source)
}

func TestSplitText_SplitsOnParagraphs(t *testing.T) {
	para := strings.Repeat("word ", 60) // ~300 chars
	text := para + "\n\n" + para + "\n\n" + para

	chunks := SplitText(text, "doc.txt", 500, 50)

	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.Equal(t, "doc.txt", c.Source)
		assert.NotEmpty(t, strings.TrimSpace(c.Text))
	}
}

func TestSplitText_CarriesOverlap(t *testing.T) {
	first := strings.Repeat("a", 400)
	second := strings.Repeat("b", 400)

	chunks := SplitText(first+"\n\n"+second, "doc.txt", 450, 50)

	require.Len(t, chunks, 2)
	// The second chunk starts with the tail of the first.
	assert.Contains(t, chunks[1].Text, "a")
	assert.Contains(t, chunks[1].Text, second)
}

func TestSplitText_EmptyInput(t *testing.T) {
	assert.Empty(t, SplitText("", "doc.txt", 500, 50))
	assert.Empty(t, SplitText("   \n\n   ", "doc.txt", 500, 50))
}

func TestSplitText_BadParamsFallBackToDefaults(t *testing.T) {
	chunks := SplitText("some text", "doc.txt", 0, -1)
	require.Len(t, chunks, 1)
	assert.Equal(t, "some text", chunks[0].Text)
}

func TestCompressChunks_MergesSmallChunks(t *testing.T) {
	chunks := []Chunk{
		{Text: "one", Source: "a.md"},
		{Text: "two", Source: "a.md"},
		{Text: "three", Source: "a.md"},
	}

	merged := CompressChunks(chunks, 100)

	require.Len(t, merged, 1)
	assert.Equal(t, "one\ntwo\nthree", merged[0].Text)
	assert.Equal(t, "a.md", merged[0].Source)
}

func TestCompressChunks_KeepsLargeChunksSeparate(t *testing.T) {
	big := strings.Repeat("x", 150)
	chunks := []Chunk{
		{Text: big, Source: "a.md"},
		{Text: big, Source: "a.md"},
	}

	merged := CompressChunks(chunks, 100)
	assert.Len(t, merged, 2)
}

func TestCompressChunks_Empty(t *testing.T) {
	assert.Empty(t, CompressChunks(nil, 100))
}

func TestNormalizeExtractedText(t *testing.T) {
	in := "line one\r\nline two   \n\n\n\nline three\t\n"
	got := normalizeExtractedText(in)

	assert.Equal(t, "line one\nline two\n\nline three", got)
}
