package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DocumentEmbedder computes search-document embeddings.
type DocumentEmbedder interface {
	EmbedDocument(ctx context.Context, text string) ([]float32, error)
}

// VectorWriter receives embedded chunks. Add may buffer; Flush must
// leave everything durable in the target store.
type VectorWriter interface {
	Add(ctx context.Context, id string, chunk Chunk, embedding []float32) error
	Flush(ctx context.Context) error
}

// Ingester walks a documentation directory, chunks every supported
// file, embeds each chunk and hands it to the writer.
type Ingester struct {
	embedder DocumentEmbedder
	writer   VectorWriter
	// Pause between embed calls; Cohere trial keys allow ~90/min.
	EmbedDelay time.Duration
	logger     *zap.Logger
}

func NewIngester(embedder DocumentEmbedder, writer VectorWriter, logger *zap.Logger) *Ingester {
	return &Ingester{
		embedder:   embedder,
		writer:     writer,
		EmbedDelay: 700 * time.Millisecond,
		logger:     logger,
	}
}

// ChunkFile turns one file into chunks, picking the splitter by type.
func ChunkFile(path string) ([]Chunk, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".md" {
		source, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return ChunkMarkdown(source, path, DefaultChunkSize), nil
	}

	content, err := ExtractText(path)
	if err != nil {
		return nil, err
	}
	return SplitText(content, path, DefaultChunkSize, DefaultChunkOverlap), nil
}

// Run ingests every supported file under docsPath and returns the
// number of chunks written.
func (ing *Ingester) Run(ctx context.Context, docsPath string) (int, error) {
	var paths []string
	err := filepath.WalkDir(docsPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		for _, supported := range SupportedExtensions {
			if ext == supported {
				paths = append(paths, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walking %s: %w", docsPath, err)
	}
	if len(paths) == 0 {
		return 0, fmt.Errorf("no supported documents found in %s", docsPath)
	}

	ing.logger.Info("found documents", zap.Int("files", len(paths)))

	written := 0
	for _, path := range paths {
		chunks, err := ChunkFile(path)
		if err != nil {
			ing.logger.Warn("skipping file", zap.String("path", path), zap.Error(err))
			continue
		}

		for _, chunk := range chunks {
			if ctx.Err() != nil {
				return written, ctx.Err()
			}

			embedding, err := ing.embedder.EmbedDocument(ctx, chunk.Text)
			if err != nil {
				return written, fmt.Errorf("embedding chunk from %s: %w", path, err)
			}

			if err := ing.writer.Add(ctx, uuid.NewString(), chunk, embedding); err != nil {
				return written, fmt.Errorf("writing chunk from %s: %w", path, err)
			}

			written++
			if written%10 == 0 {
				ing.logger.Info("ingestion progress", zap.Int("chunks", written))
			}

			if ing.EmbedDelay > 0 {
				select {
				case <-time.After(ing.EmbedDelay):
				case <-ctx.Done():
					return written, ctx.Err()
				}
			}
		}
	}

	if err := ing.writer.Flush(ctx); err != nil {
		return written, fmt.Errorf("flushing writer: %w", err)
	}

	ing.logger.Info("ingestion complete", zap.Int("chunks", written))
	return written, nil
}
