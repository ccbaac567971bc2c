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

const (
	embedPath = "/v2/embed"
	chatPath  = "/v2/chat"
)

// RetryConfig defines retry behavior for Cohere API calls.
type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryConfig returns the bounded policy used in production:
// at most two extra attempts, only for transient failures.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   2,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	}
}

// CohereService talks to the Cohere v2 embed and chat APIs.
type CohereService struct {
	apiKey     string
	baseURL    string
	embedModel string
	chatModel  string
	httpClient *http.Client
	retry      RetryConfig
	logger     *zap.Logger
}

func NewCohereService(apiKey, baseURL, embedModel, chatModel string, timeout time.Duration, logger *zap.Logger) *CohereService {
	return &CohereService{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		embedModel: embedModel,
		chatModel:  chatModel,
		httpClient: &http.Client{Timeout: timeout},
		retry:      DefaultRetryConfig(),
		logger:     logger,
	}
}

type embedRequest struct {
	Model          string   `json:"model"`
	Texts          []string `json:"texts"`
	InputType      string   `json:"input_type"`
	EmbeddingTypes []string `json:"embedding_types"`
}

type embedResponse struct {
	Embeddings struct {
		Float [][]float32 `json:"float"`
	} `json:"embeddings"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatDocument struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type chatRequest struct {
	Model     string         `json:"model"`
	Messages  []chatMessage  `json:"messages"`
	Documents []chatDocument `json:"documents,omitempty"`
}

type chatResponse struct {
	Message struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

// Embed generates a search-query embedding for the given text.
func (s *CohereService) Embed(ctx context.Context, text string) ([]float32, error) {
	return s.embed(ctx, text, "search_query")
}

// EmbedDocument generates a search-document embedding, used at ingestion time.
func (s *CohereService) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return s.embed(ctx, text, "search_document")
}

func (s *CohereService) embed(ctx context.Context, text, inputType string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &EmbeddingError{Message: "cannot embed empty text"}
	}

	body := embedRequest{
		Model:          s.embedModel,
		Texts:          []string{text},
		InputType:      inputType,
		EmbeddingTypes: []string{"float"},
	}

	status, respBody, retryAfter, err := s.post(ctx, embedPath, body)
	if err != nil {
		return nil, &EmbeddingError{Message: fmt.Sprintf("Cohere embed call failed: %v", err)}
	}
	if status != http.StatusOK {
		return nil, &EmbeddingError{
			Message:    fmt.Sprintf("Cohere embed error: %d - %s", status, truncate(respBody, 200)),
			Status:     status,
			RetryAfter: retryAfter,
		}
	}

	var apiResp embedResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, &EmbeddingError{Message: fmt.Sprintf("failed to parse embed response: %v", err)}
	}
	if len(apiResp.Embeddings.Float) == 0 {
		return nil, &EmbeddingError{Message: "Cohere embed returned no embeddings"}
	}

	return apiResp.Embeddings.Float[0], nil
}

// Generate asks the chat model for a completion grounded in the given
// documents. Document order is preserved as received from retrieval.
func (s *CohereService) Generate(ctx context.Context, prompt string, docs []models.RetrievedDocument, history []models.ChatMessage) (string, error) {
	messages := make([]chatMessage, 0, len(history)+1)
	for _, msg := range history {
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		role := "assistant"
		if msg.Role == "user" {
			role = "user"
		}
		messages = append(messages, chatMessage{Role: role, Content: msg.Content})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	var documents []chatDocument
	for i, doc := range docs {
		id := doc.ID
		if id == "" {
			id = strconv.Itoa(i)
		}
		documents = append(documents, chatDocument{ID: id, Text: doc.Text})
	}

	body := chatRequest{
		Model:     s.chatModel,
		Messages:  messages,
		Documents: documents,
	}

	status, respBody, retryAfter, err := s.post(ctx, chatPath, body)
	if err != nil {
		return "", &GenerationError{Message: fmt.Sprintf("Cohere chat call failed: %v", err)}
	}
	if status != http.StatusOK {
		return "", &GenerationError{
			Message:    fmt.Sprintf("Cohere chat error: %d - %s", status, truncate(respBody, 200)),
			Status:     status,
			RetryAfter: retryAfter,
		}
	}

	var apiResp chatResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", &GenerationError{Message: fmt.Sprintf("failed to parse chat response: %v", err)}
	}

	var sb strings.Builder
	for _, part := range apiResp.Message.Content {
		if part.Type == "text" {
			sb.WriteString(part.Text)
		}
	}
	answer := sb.String()
	if answer == "" {
		return "", &GenerationError{Message: "Cohere chat returned an empty completion"}
	}

	return answer, nil
}

// post sends a JSON request with bounded retry on 429, 5xx and
// transport failures. Other statuses return immediately.
func (s *CohereService) post(ctx context.Context, path string, payload interface{}) (int, []byte, time.Duration, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	var (
		lastErr    error
		retryAfter time.Duration
	)
	delay := s.retry.InitialDelay

	for attempt := 0; attempt <= s.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			s.logger.Warn("retrying Cohere call",
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return 0, nil, 0, ctx.Err()
			}
			delay = time.Duration(float64(delay) * s.retry.Multiplier)
			if delay > s.retry.MaxDelay {
				delay = s.retry.MaxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(data))
		if err != nil {
			return 0, nil, 0, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+s.apiKey)

		resp, err := s.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return 0, nil, 0, ctx.Err()
			}
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			retryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
			lastErr = fmt.Errorf("upstream status %d", resp.StatusCode)
			if attempt == s.retry.MaxRetries {
				return resp.StatusCode, body, retryAfter, nil
			}
			continue
		}

		return resp.StatusCode, body, 0, nil
	}

	return 0, nil, retryAfter, lastErr
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func truncate(b []byte, n int) string {
	s := string(b)
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
