package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"bookchat-backend/internal/models"
)

// QdrantService queries and maintains a Qdrant collection over its
// REST API. Search is the hot path; the collection and upsert
// operations exist for the ingest CLI.
type QdrantService struct {
	baseURL    string
	apiKey     string
	collection string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewQdrantService(baseURL, apiKey, collection string, timeout time.Duration, logger *zap.Logger) *QdrantService {
	return &QdrantService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		collection: collection,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type qdrantQueryRequest struct {
	Query       []float32 `json:"query"`
	Limit       int       `json:"limit"`
	WithPayload bool      `json:"with_payload"`
}

type qdrantQueryResponse struct {
	Result struct {
		Points []struct {
			ID      interface{}            `json:"id"`
			Score   float32                `json:"score"`
			Payload map[string]interface{} `json:"payload"`
		} `json:"points"`
	} `json:"result"`
	Status interface{} `json:"status"`
}

// Search returns the topK nearest documents for the query embedding,
// highest score first (Qdrant's own ordering is preserved).
func (s *QdrantService) Search(ctx context.Context, embedding []float32, topK int) ([]models.RetrievedDocument, error) {
	if topK <= 0 {
		return nil, &RetrievalError{Message: fmt.Sprintf("topK must be positive, got %d", topK)}
	}
	if len(embedding) == 0 {
		return nil, &RetrievalError{Message: "query embedding is empty"}
	}

	body := qdrantQueryRequest{
		Query:       embedding,
		Limit:       topK,
		WithPayload: true,
	}

	url := fmt.Sprintf("%s/collections/%s/points/query", s.baseURL, s.collection)
	status, respBody, err := s.do(ctx, http.MethodPost, url, body, true)
	if err != nil {
		return nil, &RetrievalError{Message: fmt.Sprintf("Qdrant query failed: %v", err)}
	}
	if status != http.StatusOK {
		return nil, &RetrievalError{
			Message: fmt.Sprintf("Qdrant query error: %d - %s", status, truncate(respBody, 200)),
			Status:  status,
		}
	}

	var queryResp qdrantQueryResponse
	if err := json.Unmarshal(respBody, &queryResp); err != nil {
		return nil, &RetrievalError{Message: fmt.Sprintf("failed to parse Qdrant response: %v", err)}
	}

	docs := make([]models.RetrievedDocument, 0, len(queryResp.Result.Points))
	for _, point := range queryResp.Result.Points {
		doc := models.RetrievedDocument{
			ID:    pointID(point.ID),
			Score: point.Score,
		}
		if text, ok := point.Payload["text"].(string); ok {
			doc.Text = text
		}
		if source, ok := point.Payload["source"].(string); ok {
			doc.Source = source
		}
		if doc.Text == "" {
			continue
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

// QdrantPoint is one vector with its payload, as stored at ingestion.
type QdrantPoint struct {
	ID      string                 `json:"id"`
	Vector  []float32              `json:"vector"`
	Payload map[string]interface{} `json:"payload"`
}

// EnsureCollection creates the collection when it does not exist yet.
func (s *QdrantService) EnsureCollection(ctx context.Context, vectorSize int) error {
	url := fmt.Sprintf("%s/collections/%s", s.baseURL, s.collection)
	status, _, err := s.do(ctx, http.MethodGet, url, nil, false)
	if err != nil {
		return fmt.Errorf("checking collection %q: %w", s.collection, err)
	}
	if status == http.StatusOK {
		return nil
	}
	return s.createCollection(ctx, vectorSize)
}

// RecreateCollection drops the collection and creates it empty.
func (s *QdrantService) RecreateCollection(ctx context.Context, vectorSize int) error {
	url := fmt.Sprintf("%s/collections/%s", s.baseURL, s.collection)
	if _, _, err := s.do(ctx, http.MethodDelete, url, nil, false); err != nil {
		return fmt.Errorf("deleting collection %q: %w", s.collection, err)
	}
	return s.createCollection(ctx, vectorSize)
}

func (s *QdrantService) createCollection(ctx context.Context, vectorSize int) error {
	url := fmt.Sprintf("%s/collections/%s", s.baseURL, s.collection)
	body := map[string]interface{}{
		"vectors": map[string]interface{}{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}
	status, respBody, err := s.do(ctx, http.MethodPut, url, body, false)
	if err != nil {
		return fmt.Errorf("creating collection %q: %w", s.collection, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("creating collection %q: status %d - %s", s.collection, status, truncate(respBody, 200))
	}
	s.logger.Info("created Qdrant collection",
		zap.String("collection", s.collection),
		zap.Int("vector_size", vectorSize))
	return nil
}

// Upsert writes points and waits for the operation to complete.
func (s *QdrantService) Upsert(ctx context.Context, points []QdrantPoint) error {
	if len(points) == 0 {
		return nil
	}
	url := fmt.Sprintf("%s/collections/%s/points?wait=true", s.baseURL, s.collection)
	body := map[string]interface{}{"points": points}
	status, respBody, err := s.do(ctx, http.MethodPut, url, body, false)
	if err != nil {
		return fmt.Errorf("upserting %d points: %w", len(points), err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("upserting points: status %d - %s", status, truncate(respBody, 200))
	}
	return nil
}

// do issues one request, with a single immediate retry on transport
// failure when retryTransport is set. HTTP-level failures (including
// auth) are never retried.
func (s *QdrantService) do(ctx context.Context, method, url string, payload interface{}, retryTransport bool) (int, []byte, error) {
	var data []byte
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	attempts := 1
	if retryTransport {
		attempts = 2
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		var reader io.Reader
		if data != nil {
			reader = bytes.NewReader(data)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return 0, nil, err
		}
		if data != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if s.apiKey != "" {
			req.Header.Set("api-key", s.apiKey)
		}

		resp, err := s.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return 0, nil, ctx.Err()
			}
			lastErr = err
			if attempt == 0 && retryTransport {
				s.logger.Warn("Qdrant transport failure, retrying once", zap.Error(err))
			}
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		return resp.StatusCode, body, nil
	}

	return 0, nil, lastErr
}

func pointID(id interface{}) string {
	switch v := id.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	default:
		return fmt.Sprint(v)
	}
}
