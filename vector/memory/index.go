// Package memory provides an in-process vector.Index for tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/poiesic/crawlvec/core"
	"github.com/poiesic/crawlvec/vector"
)

// Index keeps points in memory and scores them by cosine similarity.
type Index struct {
	// InsertFunc, if set, is called before every insert; a non-nil error
	// fails the insert.
	InsertFunc func(points []core.VectorPoint) error

	mu        sync.RWMutex
	dimension int
	points    map[string]core.VectorPoint
	inserts   int
	closed    bool
}

var _ vector.Index = (*Index)(nil)

// New creates an empty index.
func New() *Index {
	return &Index{points: make(map[string]core.VectorPoint)}
}

// EnsureCollection fixes the dimension of the index. Calling it again is a no-op.
func (ix *Index) EnsureCollection(_ context.Context, dimension int) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.dimension == 0 {
		ix.dimension = dimension
	}
	return nil
}

// Insert stores points, replacing any with the same ID.
func (ix *Index) Insert(ctx context.Context, points []core.VectorPoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ix.InsertFunc != nil {
		if err := ix.InsertFunc(points); err != nil {
			return err
		}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	for _, p := range points {
		if ix.dimension > 0 && len(p.Vector) != ix.dimension {
			return fmt.Errorf("%w: got %d, want %d", vector.ErrDimensionMismatch, len(p.Vector), ix.dimension)
		}
	}
	for _, p := range points {
		ix.points[p.Id] = p
	}
	ix.inserts++
	return nil
}

// Search scores every point against query.
func (ix *Index) Search(ctx context.Context, query []float32, opts vector.SearchOptions) ([]vector.Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ix.mu.RLock()
	hits := make([]vector.Hit, 0, len(ix.points))
	for _, p := range ix.points {
		score := cosine(query, p.Vector)
		if score < opts.MinScore {
			continue
		}
		hits = append(hits, vector.Hit{PointId: p.Id, SourceId: p.SourceId, Score: score})
	}
	ix.mu.RUnlock()

	slices.SortFunc(hits, func(a, b vector.Hit) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		if a.PointId < b.PointId {
			return -1
		}
		if a.PointId > b.PointId {
			return 1
		}
		return 0
	})

	if opts.Offset >= len(hits) {
		return []vector.Hit{}, nil
	}
	hits = hits[opts.Offset:]
	if opts.Limit > 0 && len(hits) > opts.Limit {
		hits = hits[:opts.Limit]
	}
	return hits, nil
}

// Points returns a copy of all stored points.
func (ix *Index) Points() []core.VectorPoint {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]core.VectorPoint, 0, len(ix.points))
	for _, p := range ix.points {
		out = append(out, p)
	}
	return out
}

// PointsFor returns the stored points referencing a content record.
func (ix *Index) PointsFor(sourceID core.ID) []core.VectorPoint {
	var out []core.VectorPoint
	for _, p := range ix.Points() {
		if p.SourceId == sourceID {
			out = append(out, p)
		}
	}
	return out
}

// InsertCount returns the number of successful Insert calls.
func (ix *Index) InsertCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.inserts
}

// Close marks the index closed.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.closed = true
	return nil
}

// Closed reports whether Close was called.
func (ix *Index) Closed() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.closed
}

func cosine(a, b []float32) float32 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
