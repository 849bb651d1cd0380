package reembed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/crawlvec/ai"
	"github.com/poiesic/crawlvec/chunker"
	"github.com/poiesic/crawlvec/core"
	"github.com/poiesic/crawlvec/ingestion"
	"github.com/poiesic/crawlvec/retry"
	"github.com/poiesic/crawlvec/vector"
)

// BatchResult counts what one batch produced.
type BatchResult struct {
	Records int // records embedded
	Points  int // points written
	Skipped int // records whose text could not be decoded
}

// BatchProcessor embeds batches of content records into the vector index.
type BatchProcessor struct {
	embedder ai.Embedder
	index    vector.Index
	chunker  *chunker.Chunker
	policy   *retry.Policy
	logger   *slog.Logger
}

// NewBatchProcessor creates a new batch processor. The embed and insert
// sequence of a batch is retried under policy.
func NewBatchProcessor(embedder ai.Embedder, index vector.Index, policy *retry.Policy, logger *slog.Logger) *BatchProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchProcessor{
		embedder: embedder,
		index:    index,
		chunker:  chunker.New(chunker.MaxChunkSize),
		policy:   policy,
		logger:   logger,
	}
}

// Process writes the points for records. Point IDs are derived from the
// record ID and chunk position, so existing points are overwritten.
func (bp *BatchProcessor) Process(ctx context.Context, records []*core.ContentRecord) (BatchResult, error) {
	var result BatchResult
	var (
		texts  []string
		owners []core.ID
		slots  []int
	)
	for _, record := range records {
		text, err := core.DecompressText(record.TextGzip)
		if err != nil {
			bp.logger.Warn("skipping undecodable content record", "id", record.Id, "err", err)
			result.Skipped++
			continue
		}
		for i, chunk := range bp.chunker.Split(text) {
			texts = append(texts, chunk)
			owners = append(owners, record.Id)
			slots = append(slots, i)
		}
		result.Records++
	}
	if len(texts) == 0 {
		return result, nil
	}

	err := bp.policy.Do(ctx, func(ctx context.Context) error {
		vectors, err := bp.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed: %w", err)
		}
		if len(vectors) != len(texts) {
			return fmt.Errorf("%w: %d chunks, %d vectors", ai.ErrEmbeddingCountMismatch, len(texts), len(vectors))
		}
		points := make([]core.VectorPoint, len(vectors))
		for i, v := range vectors {
			points[i] = core.VectorPoint{
				Id:       ingestion.PointID(owners[i], slots[i]),
				Vector:   v,
				SourceId: owners[i],
			}
		}
		return bp.index.Insert(ctx, points)
	})
	if err != nil {
		return result, fmt.Errorf("failed to embed batch of %d records: %w", len(records), err)
	}
	result.Points = len(texts)
	return result, nil
}
