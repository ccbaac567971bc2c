package ingest

import (
	"context"

	"bookchat-backend/internal/services"
)

const upsertBatchSize = 64

// QdrantWriter buffers embedded chunks and upserts them in batches.
type QdrantWriter struct {
	qdrant *services.QdrantService
	batch  []services.QdrantPoint
}

func NewQdrantWriter(qdrant *services.QdrantService) *QdrantWriter {
	return &QdrantWriter{qdrant: qdrant}
}

func (w *QdrantWriter) Add(ctx context.Context, id string, chunk Chunk, embedding []float32) error {
	w.batch = append(w.batch, services.QdrantPoint{
		ID:     id,
		Vector: embedding,
		Payload: map[string]interface{}{
			"text":   chunk.Text,
			"source": chunk.Source,
		},
	})
	if len(w.batch) >= upsertBatchSize {
		return w.Flush(ctx)
	}
	return nil
}

func (w *QdrantWriter) Flush(ctx context.Context) error {
	if len(w.batch) == 0 {
		return nil
	}
	if err := w.qdrant.Upsert(ctx, w.batch); err != nil {
		return err
	}
	w.batch = w.batch[:0]
	return nil
}

// LocalWriter feeds an in-process chromem store and exports it on Flush.
type LocalWriter struct {
	store *services.LocalStore
}

func NewLocalWriter(store *services.LocalStore) *LocalWriter {
	return &LocalWriter{store: store}
}

func (w *LocalWriter) Add(ctx context.Context, id string, chunk Chunk, embedding []float32) error {
	return w.store.Add(ctx, id, chunk.Text, chunk.Source, embedding)
}

func (w *LocalWriter) Flush(ctx context.Context) error {
	return w.store.Export()
}
