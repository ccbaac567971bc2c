package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingEmbedder struct {
	calls int
	err   error
}

func (r *recordingEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return []float32{0.1, 0.2}, nil
}

type recordingWriter struct {
	added   []Chunk
	ids     []string
	flushed int
	addErr  error
}

func (r *recordingWriter) Add(ctx context.Context, id string, chunk Chunk, embedding []float32) error {
	if r.addErr != nil {
		return r.addErr
	}
	r.added = append(r.added, chunk)
	r.ids = append(r.ids, id)
	return nil
}

func (r *recordingWriter) Flush(ctx context.Context) error {
	r.flushed++
	return nil
}

func writeDocs(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func newTestIngester(e DocumentEmbedder, w VectorWriter) *Ingester {
	ing := NewIngester(e, w, zap.NewNop())
	ing.EmbedDelay = 0
	return ing
}

func TestIngesterRun_WalksAndWritesAllChunks(t *testing.T) {
	dir := writeDocs(t, map[string]string{
		"ch1.md":         "# Intro\n\nSome introduction text.",
		"notes/ch2.txt":  "Plain text notes about channels.",
		"skip/image.png": "binary junk",
	})

	embedder := &recordingEmbedder{}
	writer := &recordingWriter{}
	ing := newTestIngester(embedder, writer)

	written, err := ing.Run(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, len(writer.added), written)
	assert.Equal(t, embedder.calls, written)
	assert.GreaterOrEqual(t, written, 2)
	assert.Equal(t, 1, writer.flushed)

	// Every chunk carries its origin and a fresh id.
	seen := make(map[string]bool)
	for i, chunk := range writer.added {
		assert.NotEmpty(t, chunk.Source)
		assert.False(t, seen[writer.ids[i]], "duplicate chunk id")
		seen[writer.ids[i]] = true
	}
}

func TestIngesterRun_EmptyDirectoryIsAnError(t *testing.T) {
	dir := writeDocs(t, map[string]string{"only.png": "not a document"})

	ing := newTestIngester(&recordingEmbedder{}, &recordingWriter{})

	_, err := ing.Run(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no supported documents")
}

func TestIngesterRun_EmbedFailureStops(t *testing.T) {
	dir := writeDocs(t, map[string]string{"ch1.txt": "some content"})

	embedder := &recordingEmbedder{err: errors.New("quota exceeded")}
	writer := &recordingWriter{}
	ing := newTestIngester(embedder, writer)

	_, err := ing.Run(context.Background(), dir)
	require.Error(t, err)
	assert.Empty(t, writer.added)
	assert.Zero(t, writer.flushed)
}

func TestIngesterRun_CancelledContext(t *testing.T) {
	dir := writeDocs(t, map[string]string{"ch1.txt": "some content"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ing := newTestIngester(&recordingEmbedder{}, &recordingWriter{})

	_, err := ing.Run(ctx, dir)
	require.ErrorIs(t, err, context.Canceled)
}

func TestChunkFile(t *testing.T) {
	dir := writeDocs(t, map[string]string{
		"doc.md":   "# Title\n\nBody text.",
		"doc.txt":  "Plain body.",
		"doc.yaml": "unsupported: true",
	})

	t.Run("markdown", func(t *testing.T) {
		chunks, err := ChunkFile(filepath.Join(dir, "doc.md"))
		require.NoError(t, err)
		require.NotEmpty(t, chunks)
		assert.Contains(t, chunks[0].Text, "Title")
	})

	t.Run("plain text", func(t *testing.T) {
		chunks, err := ChunkFile(filepath.Join(dir, "doc.txt"))
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, "Plain body.", chunks[0].Text)
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := ChunkFile(filepath.Join(dir, "doc.yaml"))
		require.Error(t, err)
	})
}

func TestExtractText_PlainFile(t *testing.T) {
	dir := writeDocs(t, map[string]string{"doc.txt": "line one\r\nline two\n\n\nline three"})

	got, err := ExtractText(filepath.Join(dir, "doc.txt"))
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two\n\nline three", got)
}

func TestExtractText_EmptyFile(t *testing.T) {
	dir := writeDocs(t, map[string]string{"empty.txt": "   \n  \n"})

	_, err := ExtractText(filepath.Join(dir, "empty.txt"))
	require.Error(t, err)
}

func TestExtractText_MissingFile(t *testing.T) {
	_, err := ExtractText(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
}
