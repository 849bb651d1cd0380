package ingestion

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/crawlvec/archive"
	"github.com/poiesic/crawlvec/core"
	"github.com/poiesic/crawlvec/fetch"
	"github.com/poiesic/crawlvec/storage"
)

// DefaultWorkers is the number of archive objects processed at once.
const DefaultWorkers = 2

// Fetcher downloads manifests and archive objects to local scratch files.
// *fetch.Fetcher implements it.
type Fetcher interface {
	FetchManifest(ctx context.Context, snapshot core.Snapshot) (string, error)
	Retrieve(ctx context.Context, ref core.ObjectRef) (string, error)
	Remove(path string) error
}

var _ Fetcher = (*fetch.Fetcher)(nil)

// RunStats summarizes a snapshot run.
type RunStats struct {
	Snapshot  core.Snapshot
	Files     int // references listed in the manifest
	Processed int
	Skipped   int // already in the ledger
	Failed    int
	Totals    FileStats
	Elapsed   time.Duration
}

// Pipeline drives archive objects through a bounded worker pool. A new
// object is admitted as soon as any worker is free.
type Pipeline struct {
	store    storage.Store
	fetcher  Fetcher
	proc     processor
	pool     *ants.Pool
	workers  int
	parser   *archive.Parser
	progress io.Writer
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithWorkers sets the number of objects processed concurrently.
// Default is 2.
func WithWorkers(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		p.workers = size
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithProgress reports per-snapshot progress to w.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) error {
		p.progress = w
		return nil
	}
}

// WithParser replaces the default archive parser.
func WithParser(parser *archive.Parser) Option {
	return func(p *Pipeline) error {
		p.parser = parser
		return nil
	}
}

// NewPipeline creates a pipeline over the given collaborators.
func NewPipeline(store storage.Store, fetcher Fetcher, upserter *VectorUpserter, opts ...Option) (*Pipeline, error) {
	if upserter == nil {
		return nil, ErrUpserterRequired
	}
	p, err := newPipeline(store, fetcher, opts...)
	if err != nil {
		return nil, err
	}
	if p.parser == nil {
		p.parser = archive.NewParser(archive.WithLogger(p.logger))
	}
	p.proc = newFileProcessor(store, fetcher, upserter, p.parser, p.logger)
	return p, nil
}

func newPipeline(store storage.Store, fetcher Fetcher, opts ...Option) (*Pipeline, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if fetcher == nil {
		return nil, ErrFetcherRequired
	}

	pool, err := ants.NewPool(DefaultWorkers)
	if err != nil {
		return nil, err
	}
	p := &Pipeline{
		store:   store,
		fetcher: fetcher,
		pool:    pool,
		workers: DefaultWorkers,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	p.logger = p.logger.With("component", "pipeline")
	return p, nil
}

// Run processes snapshots one after another. It stops at the first fatal
// setup failure or when ctx ends. Per-file failures are logged and counted.
func (p *Pipeline) Run(ctx context.Context, snapshots ...core.Snapshot) ([]RunStats, error) {
	all := make([]RunStats, 0, len(snapshots))
	for _, snapshot := range snapshots {
		stats, err := p.RunSnapshot(ctx, snapshot)
		all = append(all, stats)
		if err != nil {
			return all, err
		}
	}
	return all, nil
}

// RunSnapshot fetches the manifest for snapshot and processes every listed
// object. Only manifest failures and cancellation are returned as errors.
func (p *Pipeline) RunSnapshot(ctx context.Context, snapshot core.Snapshot) (RunStats, error) {
	start := time.Now()
	stats := RunStats{Snapshot: snapshot}
	logger := p.logger.With("snapshot", snapshot)

	path, err := p.fetcher.FetchManifest(ctx, snapshot)
	if err != nil {
		return stats, err
	}
	refs, err := fetch.ReadManifest(path)
	if err != nil {
		return stats, fmt.Errorf("read manifest for %s: %w", snapshot, err)
	}
	stats.Files = len(refs)
	logger.Info("starting snapshot", "files", len(refs), "workers", p.workers)

	var tracker *ProgressTracker
	if p.progress != nil {
		tracker = NewProgressTracker(p.progress, len(refs), 1)
		tracker.Start()
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	record := func(o outcome, fs FileStats) {
		mu.Lock()
		defer mu.Unlock()
		switch o {
		case outcomeProcessed:
			stats.Processed++
			stats.Totals.add(fs)
		case outcomeSkipped:
			stats.Skipped++
		case outcomeFailed:
			stats.Failed++
		}
		if tracker != nil {
			tracker.Increment(1)
		}
	}

	for _, ref := range refs {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		// Submit blocks until a worker is free.
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			o, fs := p.processFile(ctx, ref)
			record(o, fs)
		})
		if submitErr != nil {
			wg.Done()
			logger.Error("could not schedule file", "ref", ref, "err", submitErr)
			record(outcomeFailed, FileStats{})
		}
	}
	wg.Wait()

	if tracker != nil {
		tracker.Finish()
	}
	stats.Elapsed = time.Since(start)

	if err := ctx.Err(); err != nil {
		logger.Warn("snapshot interrupted", "processed", stats.Processed, "skipped", stats.Skipped, "failed", stats.Failed)
		return stats, err
	}
	logger.Info("finished snapshot",
		"processed", stats.Processed,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"contents", stats.Totals.Contents,
		"vectors", stats.Totals.Vectors,
		"elapsed", stats.Elapsed)
	return stats, nil
}

type outcome int

const (
	outcomeProcessed outcome = iota
	outcomeSkipped
	outcomeFailed
)

// processFile checks the ledger and runs the processor for one object.
func (p *Pipeline) processFile(ctx context.Context, ref core.ObjectRef) (outcome, FileStats) {
	logger := p.logger.With("ref", ref)

	done, err := p.store.HasEntry(ctx, ref.ID())
	if err != nil {
		logger.Error("ledger lookup failed", "err", err)
		return outcomeFailed, FileStats{}
	}
	if done {
		logger.Debug("already processed, skipping")
		return outcomeSkipped, FileStats{}
	}

	logger.Info("processing file")
	fs, err := p.proc.process(ctx, ref)
	if err != nil {
		logger.Error("file failed", "err", err)
		return outcomeFailed, fs
	}
	logger.Info("file done", "lines", fs.Lines, "pages", fs.Pages, "contents", fs.Contents, "vectors", fs.Vectors)
	return outcomeProcessed, fs
}

// Workers returns the pool width.
func (p *Pipeline) Workers() int {
	return p.workers
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
