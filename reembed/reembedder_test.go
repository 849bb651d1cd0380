package reembed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/crawlvec/ai/mock"
	"github.com/poiesic/crawlvec/core"
	"github.com/poiesic/crawlvec/storage/badger"
	"github.com/poiesic/crawlvec/vector/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T, n int) (*badger.Store, []*core.ContentRecord) {
	t.Helper()
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	records := make([]*core.ContentRecord, n)
	for i := range n {
		records[i] = newRecord(t, "https://example.com/", fmt.Sprintf("Stored line number %d.", i))
	}
	if n > 0 {
		require.NoError(t, store.UpsertContents(context.Background(), records...))
	}
	return store, records
}

func testConfig() *Config {
	return &Config{
		BatchSize:      3,
		ReportInterval: 3,
		MaxAttempts:    3,
		RetryDelay:     time.Millisecond,
	}
}

func TestNewReembedder_Validation(t *testing.T) {
	store, _ := setupTestStore(t, 0)

	_, err := NewReembedder(nil, mock.NewMockEmbedder(), memory.New(), nil, nil)
	assert.ErrorIs(t, err, ErrScannerRequired)
	_, err = NewReembedder(store, nil, memory.New(), nil, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
	_, err = NewReembedder(store, mock.NewMockEmbedder(), nil, nil, nil)
	assert.ErrorIs(t, err, ErrIndexRequired)

	r, err := NewReembedder(store, mock.NewMockEmbedder(), memory.New(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), r.config)
}

func TestConfig_RetryPolicy(t *testing.T) {
	cfg := testConfig()
	cfg.RetryDelay = 10 * time.Millisecond

	fixed := cfg.retryPolicy(nil)
	assert.Equal(t, 3, fixed.MaxAttempts)
	assert.Equal(t, 10*time.Millisecond, fixed.Backoff(1))
	assert.Equal(t, 10*time.Millisecond, fixed.Backoff(3))

	cfg.ExponentialBackoff = true
	exp := cfg.retryPolicy(nil)
	assert.Equal(t, 10*time.Millisecond, exp.Backoff(1))
	assert.Equal(t, 40*time.Millisecond, exp.Backoff(3))
}

func TestReembedder_Run(t *testing.T) {
	store, records := setupTestStore(t, 10)
	embedder := mock.NewMockEmbedder()
	index := memory.New()

	var buf bytes.Buffer
	r, err := NewReembedder(store, embedder, index, testConfig(), &buf)
	require.NoError(t, err)

	stats, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, stats.Records)
	assert.Equal(t, 10, stats.Points)
	assert.Zero(t, stats.Skipped)
	assert.Equal(t, 4, embedder.CallCount(), "batches of 3, 3, 3 and 1")

	for _, record := range records {
		assert.Len(t, index.PointsFor(record.Id), 1)
	}

	output := buf.String()
	assert.Contains(t, output, "Starting reembedding of 10 records")
	assert.Contains(t, output, "10/10 records")
	assert.Contains(t, output, "Reembedding complete")
}

func TestReembedder_RunTwiceOverwrites(t *testing.T) {
	store, _ := setupTestStore(t, 5)
	index := memory.New()
	r, err := NewReembedder(store, mock.NewMockEmbedder(), index, testConfig(), nil)
	require.NoError(t, err)

	_, err = r.Run(context.Background())
	require.NoError(t, err)
	_, err = r.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, index.Points(), 5)
}

func TestReembedder_EmptyStore(t *testing.T) {
	store, _ := setupTestStore(t, 0)
	embedder := mock.NewMockEmbedder()

	var buf bytes.Buffer
	r, err := NewReembedder(store, embedder, memory.New(), testConfig(), &buf)
	require.NoError(t, err)

	stats, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Records)
	assert.Zero(t, embedder.CallCount())
	assert.Contains(t, buf.String(), "No records found")
}

func TestReembedder_StopsOnFailedBatch(t *testing.T) {
	store, _ := setupTestStore(t, 9)
	embedder := mock.NewMockEmbedder()
	calls := 0
	embedder.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		calls++
		if calls > 1 {
			return nil, errors.New("embedding service unavailable")
		}
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = mock.GenerateDeterministicVector(text, mock.DefaultDimension)
		}
		return out, nil
	}
	index := memory.New()
	r, err := NewReembedder(store, embedder, index, testConfig(), nil)
	require.NoError(t, err)

	stats, err := r.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1+3, calls, "first batch, then three attempts at the second")
	assert.Len(t, index.Points(), 3)
	assert.Equal(t, 6, stats.Records, "second batch was decoded before embedding failed")
	assert.Equal(t, 3, stats.Points)
}

func TestReembedder_Canceled(t *testing.T) {
	store, _ := setupTestStore(t, 4)
	ctx, cancel := context.WithCancel(context.Background())
	embedder := mock.NewMockEmbedder()
	r, err := NewReembedder(store, embedder, memory.New(), testConfig(), nil)
	require.NoError(t, err)

	cancel()
	_, err = r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, embedder.CallCount())
}
