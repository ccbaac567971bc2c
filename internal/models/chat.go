package models

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ChatRequest is the payload sent to /api/chat.
type ChatRequest struct {
	Query       string        `json:"query" validate:"required"`
	ChatHistory []ChatMessage `json:"chat_history,omitempty"`
}

// SelectedDocument is a passage the client picked from an earlier
// retrieval response. The server is stateless, so the text travels
// with the identifier instead of being looked up.
type SelectedDocument struct {
	ID     string `json:"id"`
	Text   string `json:"text" validate:"required"`
	Source string `json:"source,omitempty"`
}

// SelectContextRequest is the payload sent to /api/select-context.
// Query may be empty; the server then asks for an explanation of the
// selected passages.
type SelectContextRequest struct {
	Query             string             `json:"query,omitempty"`
	SelectedDocuments []SelectedDocument `json:"selected_documents" validate:"required,min=1,dive"`
}

// RetrievedDocument is a scored passage returned by the vector store.
type RetrievedDocument struct {
	ID     string  `json:"id"`
	Text   string  `json:"text"`
	Source string  `json:"source,omitempty"`
	Score  float32 `json:"score"`
}

// ChatResponse is returned by both chat endpoints.
type ChatResponse struct {
	Response        string              `json:"response"`
	SourceDocuments []RetrievedDocument `json:"source_documents"`
}

// HealthResponse reports process liveness.
type HealthResponse struct {
	Status string `json:"status"`
}
