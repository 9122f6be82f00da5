package app

import (
	"errors"

	"research-assistant/internal/ai"
	"research-assistant/internal/ingest"
	"research-assistant/internal/repository"
	"research-assistant/internal/vectorindex"
)

var (
	ErrValidation            = errors.New("validation failed")
	ErrDocumentNotReady      = errors.New("document is not ready")
	ErrInsufficientDocuments = errors.New("at least two ready documents are required")
)

// Errors raised by lower layers, re-exported so handlers depend on app only.
var (
	ErrNotFound            = repository.ErrNotFound
	ErrConstraintViolation = repository.ErrConstraintViolation
	ErrInvalidTransition   = repository.ErrInvalidTransition
	ErrUnsupportedFormat   = ingest.ErrUnsupportedFormat
	ErrEmptyDocument       = ingest.ErrEmptyDocument
	ErrEmbeddingService    = ingest.ErrEmbeddingService
	ErrIndexNotFound       = vectorindex.ErrIndexNotFound
	ErrUpstreamUnavailable = ai.ErrUpstreamUnavailable
)
