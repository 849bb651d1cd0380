package tei

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/poiesic/crawlvec/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer answers /embed with [len(text), index] for each input and
// records the size of every batch it sees.
type fakeServer struct {
	mu      sync.Mutex
	batches []int
	status  int
	short   bool
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/embed" || r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if f.status != 0 {
		http.Error(w, "model overloaded", f.status)
		return
	}
	var req embedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.batches = append(f.batches, len(req.Inputs))
	f.mu.Unlock()

	out := make([][]float32, 0, len(req.Inputs))
	for i, text := range req.Inputs {
		out = append(out, []float32{float32(len(text)), float32(i)})
	}
	if f.short {
		out = out[:len(out)-1]
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func newTestEmbedder(t *testing.T, srv *httptest.Server, opts ...ai.ConfigOption) ai.Embedder {
	t.Helper()
	cfg := ai.NewConfig(append([]ai.ConfigOption{ai.WithEmbeddingHost(srv.URL)}, opts...)...)
	e, err := NewEmbedder(cfg)
	require.NoError(t, err)
	return e
}

func TestEmbedTexts_BatchesOfConfiguredSize(t *testing.T) {
	fake := &fakeServer{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	e := newTestEmbedder(t, srv)

	texts := make([]string, 250)
	for i := range texts {
		texts[i] = string(make([]byte, i%7))
	}
	vectors, err := e.EmbedTexts(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, 250)
	assert.Equal(t, []int{100, 100, 50}, fake.batches)

	for i, v := range vectors {
		assert.Equal(t, float32(i%7), v[0], "order preserved at %d", i)
	}
}

func TestEmbedTexts_Empty(t *testing.T) {
	fake := &fakeServer{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	e := newTestEmbedder(t, srv)
	vectors, err := e.EmbedTexts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
	assert.Empty(t, fake.batches)
}

func TestEmbedText(t *testing.T) {
	srv := httptest.NewServer(&fakeServer{})
	defer srv.Close()

	e := newTestEmbedder(t, srv)
	v, err := e.EmbedText(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 0}, v)
}

func TestEmbedTexts_Non2xx(t *testing.T) {
	srv := httptest.NewServer(&fakeServer{status: http.StatusServiceUnavailable})
	defer srv.Close()

	e := newTestEmbedder(t, srv)
	_, err := e.EmbedTexts(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestEmbedTexts_CountMismatch(t *testing.T) {
	srv := httptest.NewServer(&fakeServer{short: true})
	defer srv.Close()

	e := newTestEmbedder(t, srv)
	_, err := e.EmbedTexts(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, ai.ErrEmbeddingCountMismatch)
}

func TestClient_RateLimitedHonoursContext(t *testing.T) {
	srv := httptest.NewServer(&fakeServer{})
	defer srv.Close()

	cfg := ai.NewConfig(ai.WithEmbeddingHost(srv.URL), ai.WithRequestsPerSecond(0.001))
	c, err := NewClient(cfg)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = c.CreateEmbedding(ctx, []string{"first"})
	require.NoError(t, err, "first request uses the burst")

	ctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = c.CreateEmbedding(ctx, []string{"second"})
	assert.Error(t, err)
}

func TestNewClient_InvalidConfig(t *testing.T) {
	_, err := NewClient(&ai.Config{})
	assert.Error(t, err)
}
