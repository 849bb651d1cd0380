package openai

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/poiesic/crawlvec/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"
)

// Embedder implements ai.Embedder on an OpenAI-compatible /v1/embeddings
// endpoint.
//
// EmbedTexts sends at most config.BatchSize inputs per request (100 by
// default) and concatenates the batch results in input order. A batch that
// fails fails the whole call; retrying is left to the caller. Lines are sent
// verbatim, newlines included.
type Embedder struct {
	embedder  embeddings.Embedder
	batchSize int
	logger    *slog.Logger
}

// limitedClient gates each batch request on a rate limiter.
type limitedClient struct {
	client  embeddings.EmbedderClient
	limiter *rate.Limiter
}

func (c limitedClient) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.client.CreateEmbedding(ctx, texts)
}

func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// local OpenAI-compatible services accept any token
	llm, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(config.EmbeddingModel),
		openai.WithHTTPClient(&http.Client{Timeout: config.Timeout}),
	)
	if err != nil {
		return nil, err
	}

	var client embeddings.EmbedderClient = llm
	if config.RequestsPerSecond > 0 {
		client = limitedClient{client: llm, limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1)}
	}

	embedder, err := embeddings.NewEmbedder(client,
		embeddings.WithBatchSize(config.BatchSize),
		embeddings.WithStripNewLines(false),
	)
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder:  embedder,
		batchSize: config.BatchSize,
		logger:    slog.Default().With("component", "openai-embedder", "model", config.EmbeddingModel),
	}, nil
}

// NewEmbedder creates an embedder for the OpenAI-compatible service in config.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// EmbedText embeds a single text, typically a search query.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts returns one vector per text, in order.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	e.logger.Debug("generating embeddings", "count", len(texts), "batchSize", e.batchSize)

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: sent %d texts, got %d vectors", ai.ErrEmbeddingCountMismatch, len(texts), len(vectors))
	}
	return vectors, nil
}
