package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"bookchat-backend/internal/models"
	"bookchat-backend/internal/services"
)

var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			Fields:    fields,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

// validateRequest runs struct tag validation and converts failures
// into the service-level error the response mapping understands.
func validateRequest(s interface{}) *services.ValidationError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &services.ValidationError{Fields: map[string]string{"request": "invalid request"}}
	}

	fields := make(map[string]string)
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			fields[field] = fmt.Sprintf("%s is required", field)
		case "min":
			fields[field] = fmt.Sprintf("%s must contain at least %s items", field, fe.Param())
		default:
			fields[field] = fmt.Sprintf("%s is invalid", field)
		}
	}
	return &services.ValidationError{Fields: fields}
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch e := err.(type) {
	case *services.ValidationError:
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", e.Fields, r))
	case *services.EmbeddingError:
		writeUpstreamError(w, r, "EMBEDDING_ERROR", e.Message, e.Status, e.RetryAfter)
	case *services.RetrievalError:
		writeUpstreamError(w, r, "RETRIEVAL_ERROR", e.Message, e.Status, 0)
	case *services.GenerationError:
		writeUpstreamError(w, r, "GENERATION_ERROR", e.Message, e.Status, e.RetryAfter)
	default:
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}

// Upstream failures map to 502, except rate limiting which maps to
// 503 and passes the upstream's Retry-After hint through when present.
func writeUpstreamError(w http.ResponseWriter, r *http.Request, code, message string, upstreamStatus int, retryAfter time.Duration) {
	status := http.StatusBadGateway
	if upstreamStatus == http.StatusTooManyRequests {
		status = http.StatusServiceUnavailable
	}
	if retryAfter > 0 {
		secs := int(retryAfter / time.Second)
		if retryAfter%time.Second != 0 {
			secs++
		}
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	writeJSON(w, status, errorResp(code, message, r))
}
