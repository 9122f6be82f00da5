package ingest

import "errors"

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyDocument     = errors.New("no text could be extracted from document")
	ErrEmbeddingService  = errors.New("embedding service failed")
)
