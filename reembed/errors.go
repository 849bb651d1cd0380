package reembed

import "errors"

var (
	// ErrScannerRequired is returned when no content scanner is provided.
	ErrScannerRequired = errors.New("content scanner required")

	// ErrEmbedderRequired is returned when no embedder is provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrIndexRequired is returned when no vector index is provided.
	ErrIndexRequired = errors.New("vector index required")
)
