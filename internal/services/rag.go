package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"bookchat-backend/internal/models"
)

// The orchestrator depends on these three capabilities only, so test
// doubles substitute for the real adapters without further plumbing.

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Retriever interface {
	Search(ctx context.Context, embedding []float32, topK int) ([]models.RetrievedDocument, error)
}

type Generator interface {
	Generate(ctx context.Context, prompt string, docs []models.RetrievedDocument, history []models.ChatMessage) (string, error)
}

const ragPreamble = `You are a helpful assistant for a technical book. Your task is to answer the user's question based *only* on the provided context documents. If the answer is not found in the context, say "I'm sorry, I don't have enough information to answer that question." Do not use any external knowledge.`

// noContextFallback is returned without calling the generator when
// retrieval comes back empty.
const noContextFallback = "I'm sorry, I couldn't find any relevant information in the documentation to answer your question."

// RAGService answers questions by retrieving supporting passages and
// asking the generator for a grounded completion. It holds no state
// between requests.
type RAGService struct {
	embedder  Embedder
	retriever Retriever
	generator Generator
	topK      int
	logger    *zap.Logger
}

func NewRAGService(embedder Embedder, retriever Retriever, generator Generator, topK int, logger *zap.Logger) *RAGService {
	if topK <= 0 {
		topK = 5
	}
	return &RAGService{
		embedder:  embedder,
		retriever: retriever,
		generator: generator,
		topK:      topK,
		logger:    logger,
	}
}

// Chat runs the full pipeline: embed the query, retrieve topK
// passages, build a grounded prompt and generate an answer. Any
// adapter failure aborts the request; no partial answer is returned.
func (s *RAGService) Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, &ValidationError{Fields: map[string]string{"query": "query is required"}}
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	docs, err := s.retriever.Search(ctx, embedding, s.topK)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("retrieved context",
		zap.String("query", query),
		zap.Int("documents", len(docs)))

	if len(docs) == 0 {
		return &models.ChatResponse{
			Response:        noContextFallback,
			SourceDocuments: []models.RetrievedDocument{},
		}, nil
	}

	prompt := buildPrompt(query, docs)
	answer, err := s.generator.Generate(ctx, prompt, docs, req.ChatHistory)
	if err != nil {
		return nil, err
	}

	return &models.ChatResponse{
		Response:        answer,
		SourceDocuments: docs,
	}, nil
}

// ExplainSelection answers about client-supplied passages, bypassing
// embedding and retrieval entirely. The passages are trusted as
// received; with no server-side session there is nothing to check
// identifiers against.
func (s *RAGService) ExplainSelection(ctx context.Context, req models.SelectContextRequest) (*models.ChatResponse, error) {
	docs := make([]models.RetrievedDocument, 0, len(req.SelectedDocuments))
	for i, sel := range req.SelectedDocuments {
		if strings.TrimSpace(sel.Text) == "" {
			continue
		}
		id := sel.ID
		if id == "" {
			id = fmt.Sprintf("selection-%d", i)
		}
		docs = append(docs, models.RetrievedDocument{
			ID:     id,
			Text:   sel.Text,
			Source: sel.Source,
			Score:  1.0,
		})
	}
	if len(docs) == 0 {
		return nil, &ValidationError{Fields: map[string]string{
			"selected_documents": "at least one document with non-empty text is required",
		}}
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		// The implicit question is "explain this".
		var sb strings.Builder
		for _, doc := range docs {
			sb.WriteString(doc.Text)
			sb.WriteString("\n")
		}
		query = fmt.Sprintf("Please explain the following text in simple terms:\n\n---\n%s---", sb.String())
	}

	prompt := buildPrompt(query, docs)
	answer, err := s.generator.Generate(ctx, prompt, docs, nil)
	if err != nil {
		return nil, err
	}

	return &models.ChatResponse{
		Response:        answer,
		SourceDocuments: docs,
	}, nil
}

// buildPrompt joins the document texts in retrieval order, highest
// relevance first.
func buildPrompt(query string, docs []models.RetrievedDocument) string {
	texts := make([]string, 0, len(docs))
	for _, doc := range docs {
		texts = append(texts, doc.Text)
	}
	contextStr := strings.Join(texts, "\n---\n")

	return fmt.Sprintf("%s\n\n**Context Documents:**\n%s\n\n**User's Question:**\n%s",
		ragPreamble, contextStr, query)
}
