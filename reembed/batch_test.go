package reembed

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/crawlvec/ai/mock"
	"github.com/poiesic/crawlvec/core"
	"github.com/poiesic/crawlvec/ingestion"
	"github.com/poiesic/crawlvec/retry"
	"github.com/poiesic/crawlvec/vector/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecord(t *testing.T, url, line string) *core.ContentRecord {
	t.Helper()
	record, err := core.NewContentRecord(url, line, line)
	require.NoError(t, err)
	return record
}

func noDelay(max int) *retry.Policy {
	return retry.NewPolicy(max, 0)
}

func TestBatchProcessor_Process(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	index := memory.New()
	processor := NewBatchProcessor(embedder, index, noDelay(3), nil)

	short := newRecord(t, "https://a.example/", "A single short line of text.")
	long := newRecord(t, "https://b.example/", strings.Repeat("word ", 250))

	result, err := processor.Process(context.Background(), []*core.ContentRecord{short, long})
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Records: 2, Points: 4}, result)
	assert.Equal(t, 1, embedder.CallCount(), "one request per batch")

	points := index.PointsFor(long.Id)
	require.Len(t, points, 3)
	ids := []string{points[0].Id, points[1].Id, points[2].Id}
	assert.ElementsMatch(t, []string{
		ingestion.PointID(long.Id, 0),
		ingestion.PointID(long.Id, 1),
		ingestion.PointID(long.Id, 2),
	}, ids)
	assert.Len(t, index.PointsFor(short.Id), 1)
}

func TestBatchProcessor_OverwritesExistingPoints(t *testing.T) {
	index := memory.New()
	processor := NewBatchProcessor(mock.NewMockEmbedder(), index, noDelay(1), nil)
	record := newRecord(t, "https://a.example/", "A line embedded twice.")

	for range 2 {
		_, err := processor.Process(context.Background(), []*core.ContentRecord{record})
		require.NoError(t, err)
	}
	assert.Len(t, index.Points(), 1)
}

func TestBatchProcessor_SkipsUndecodableRecords(t *testing.T) {
	index := memory.New()
	processor := NewBatchProcessor(mock.NewMockEmbedder(), index, noDelay(1), nil)
	broken := &core.ContentRecord{Id: "broken", PageId: "page", TextGzip: []byte("not gzip")}
	good := newRecord(t, "https://a.example/", "A line that decodes.")

	result, err := processor.Process(context.Background(), []*core.ContentRecord{broken, good})
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Records: 1, Points: 1, Skipped: 1}, result)
}

func TestBatchProcessor_RetriesThenFails(t *testing.T) {
	var calls atomic.Int32
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
		calls.Add(1)
		return nil, errors.New("embedding service unavailable")
	}
	index := memory.New()
	processor := NewBatchProcessor(embedder, index, noDelay(3), nil)

	_, err := processor.Process(context.Background(), []*core.ContentRecord{
		newRecord(t, "https://a.example/", "Some line."),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding service unavailable")
	assert.Equal(t, int32(3), calls.Load())
	assert.Empty(t, index.Points())
}

func TestBatchProcessor_CountMismatch(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
		return [][]float32{{1, 0}}, nil
	}
	processor := NewBatchProcessor(embedder, memory.New(), noDelay(1), nil)

	_, err := processor.Process(context.Background(), []*core.ContentRecord{
		newRecord(t, "https://a.example/", "First line."),
		newRecord(t, "https://a.example/", "Second line."),
	})
	assert.Error(t, err)
}

func TestBatchProcessor_Empty(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	processor := NewBatchProcessor(embedder, memory.New(), retry.NewPolicy(1, time.Hour), nil)

	result, err := processor.Process(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, result)
	assert.Zero(t, embedder.CallCount())
}
