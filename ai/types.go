package ai

import "errors"

// ProviderKind names an embedding backend.
type ProviderKind string

const (
	// ProviderTEI is a text-embeddings-inference server exposing POST /embed.
	ProviderTEI ProviderKind = "tei"
	// ProviderOpenAI is an OpenAI-compatible /v1/embeddings endpoint.
	ProviderOpenAI ProviderKind = "openai"
)

// DefaultBatchSize is the largest number of texts sent in one embedding request.
const DefaultBatchSize = 100

var (
	// ErrEmbeddingCountMismatch is returned when a service answers with a
	// different number of vectors than texts it was given.
	ErrEmbeddingCountMismatch = errors.New("embedding count mismatch")
	// ErrUnknownProvider is returned for an unsupported ProviderKind.
	ErrUnknownProvider = errors.New("unknown embedding provider")
)
