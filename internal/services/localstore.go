package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"bookchat-backend/internal/models"
)

// LocalStore serves retrieval from an in-process chromem-go database,
// as an alternative to a remote Qdrant when running self-contained.
// The database is a gob export produced by the ingest CLI.
type LocalStore struct {
	db         *chromem.DB
	collection string
	path       string
	logger     *zap.Logger
}

// OpenLocalStore loads an exported database from disk (server read path).
func OpenLocalStore(path, collection string, logger *zap.Logger) (*LocalStore, error) {
	db := chromem.NewDB()
	if err := db.Import(path, ""); err != nil {
		return nil, fmt.Errorf("importing local store from %s: %w", path, err)
	}
	return &LocalStore{db: db, collection: collection, path: path, logger: logger}, nil
}

// NewEmptyLocalStore starts a fresh database (ingest write path).
func NewEmptyLocalStore(path, collection string, logger *zap.Logger) (*LocalStore, error) {
	db := chromem.NewDB()
	if _, err := db.CreateCollection(collection, nil, nil); err != nil {
		return nil, fmt.Errorf("creating collection %q: %w", collection, err)
	}
	return &LocalStore{db: db, collection: collection, path: path, logger: logger}, nil
}

// Search returns the topK most similar documents for the embedding.
func (s *LocalStore) Search(ctx context.Context, embedding []float32, topK int) ([]models.RetrievedDocument, error) {
	if topK <= 0 {
		return nil, &RetrievalError{Message: fmt.Sprintf("topK must be positive, got %d", topK)}
	}

	c := s.db.GetCollection(s.collection, nil)
	if c == nil {
		return nil, &RetrievalError{Message: fmt.Sprintf("local collection %q not found", s.collection)}
	}

	// chromem rejects result counts above the document count.
	n := topK
	if count := c.Count(); count < n {
		n = count
	}
	if n == 0 {
		return []models.RetrievedDocument{}, nil
	}

	results, err := c.QueryEmbedding(ctx, embedding, n, nil, nil)
	if err != nil {
		return nil, &RetrievalError{Message: fmt.Sprintf("local store query failed: %v", err)}
	}

	docs := make([]models.RetrievedDocument, 0, len(results))
	for _, r := range results {
		docs = append(docs, models.RetrievedDocument{
			ID:     r.ID,
			Text:   r.Content,
			Source: r.Metadata["source"],
			Score:  r.Similarity,
		})
	}
	return docs, nil
}

// Add stores one chunk with its precomputed embedding.
func (s *LocalStore) Add(ctx context.Context, id, text, source string, embedding []float32) error {
	c := s.db.GetCollection(s.collection, nil)
	if c == nil {
		return fmt.Errorf("local collection %q not found", s.collection)
	}
	return c.AddDocuments(ctx, []chromem.Document{
		{
			ID:        id,
			Content:   text,
			Embedding: embedding,
			Metadata:  map[string]string{"source": source},
		},
	}, 1)
}

// Export writes the database to its configured path.
func (s *LocalStore) Export() error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating store directory: %w", err)
		}
	}
	s.logger.Info("exporting local store", zap.String("path", s.path))
	return s.db.Export(s.path, false, "")
}
