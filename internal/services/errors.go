package services

import "time"

// Service error types. The HTTP layer switches on these to pick a
// status code and machine-readable error code; nothing below the
// handlers writes to the response.

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

// EmbeddingError reports a failed call to the embedding upstream.
// Status carries the upstream HTTP status when one was received,
// zero for transport failures.
type EmbeddingError struct {
	Message    string
	Status     int
	RetryAfter time.Duration
}

func (e *EmbeddingError) Error() string { return e.Message }

// RetrievalError reports a failed vector store query.
type RetrievalError struct {
	Message string
	Status  int
}

func (e *RetrievalError) Error() string { return e.Message }

// GenerationError reports a failed chat completion call. RetryAfter
// is non-zero when the upstream supplied a rate-limit hint.
type GenerationError struct {
	Message    string
	Status     int
	RetryAfter time.Duration
}

func (e *GenerationError) Error() string { return e.Message }
