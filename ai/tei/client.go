// Package tei implements ai.Embedder against a text-embeddings-inference
// server, which accepts {"inputs": [...]} on POST /embed and answers with one
// vector per input.
package tei

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/poiesic/crawlvec/ai"
	"golang.org/x/time/rate"
)

// ErrUnexpectedStatus is returned for non-2xx responses.
var ErrUnexpectedStatus = errors.New("tei: unexpected status")

type embedRequest struct {
	Inputs []string `json:"inputs"`
}

// Client issues raw /embed requests. It satisfies the langchaingo
// embeddings.EmbedderClient interface.
type Client struct {
	hc       *http.Client
	endpoint string
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// NewClient builds a client for the server at cfg.EmbeddingHost.
func NewClient(cfg *ai.Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Client{
		hc:       &http.Client{Timeout: cfg.Timeout},
		endpoint: cfg.EmbeddingHost + "/embed",
		logger:   slog.Default().With("component", "tei-client"),
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return c, nil
}

// CreateEmbedding embeds texts in a single request.
func (c *Client) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	body, err := json.Marshal(embedRequest{Inputs: texts})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tei request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w %d: %s", ErrUnexpectedStatus, resp.StatusCode, bytes.TrimSpace(msg))
	}

	var vectors [][]float32
	if err := json.NewDecoder(resp.Body).Decode(&vectors); err != nil {
		return nil, fmt.Errorf("tei decode: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: sent %d texts, got %d vectors", ai.ErrEmbeddingCountMismatch, len(texts), len(vectors))
	}
	c.logger.Debug("embedded batch", "count", len(texts))
	return vectors, nil
}
