package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"bookchat-backend/internal/models"
)

// chatService is the slice of the orchestrator the handlers need.
type chatService interface {
	Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error)
	ExplainSelection(ctx context.Context, req models.SelectContextRequest) (*models.ChatResponse, error)
}

type ChatHandler struct {
	rag chatService
}

func NewChatHandler(rag chatService) *ChatHandler {
	return &ChatHandler{rag: rag}
}

// Chat handles POST /api/chat.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if verr := validateRequest(req); verr != nil {
		handleServiceError(w, r, verr)
		return
	}

	resp, err := h.rag.Chat(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// SelectContext handles POST /api/select-context. Retrieval is
// bypassed; the client's selected passages become the context.
func (h *ChatHandler) SelectContext(w http.ResponseWriter, r *http.Request) {
	var req models.SelectContextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if verr := validateRequest(req); verr != nil {
		handleServiceError(w, r, verr)
		return
	}

	resp, err := h.rag.ExplainSelection(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
