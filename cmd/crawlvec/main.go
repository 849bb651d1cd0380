// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/crawlvec"
	"github.com/poiesic/crawlvec/config"
	"github.com/poiesic/crawlvec/ingestion"
	"github.com/poiesic/crawlvec/reembed"
	"github.com/poiesic/crawlvec/search"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "crawlvec",
		Usage: "Ingest Common Crawl text archives into a vector index and search them",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML configuration file",
				EnvVars: []string{"CRAWLVEC_CONFIG"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Download, parse, embed and store the archives of one or more snapshots",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "snapshot",
						Aliases: []string{"s"},
						Usage:   "Crawl snapshot to ingest, e.g. CC-MAIN-2023-50 (repeatable)",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of archive files processed concurrently",
						Value: ingestion.DefaultWorkers,
					},
					&cli.IntFlag{
						Name:  "max-attempts",
						Usage: "Embedding and insert attempts per line before its vectors are abandoned",
						Value: ingestion.DefaultMaxAttempts,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Delay between embedding attempts",
						Value: ingestion.DefaultRetryDelay,
					},
					&cli.BoolFlag{
						Name:  "random-point-ids",
						Usage: "Give every vector a random ID instead of one derived from its content",
					},
					&cli.BoolFlag{
						Name:  "progress",
						Usage: "Report progress on stderr",
						Value: true,
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Rebuild the vector index from the stored content records",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of records embedded per request",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N records",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-attempts",
						Usage: "Embedding and insert attempts per batch",
						Value: ingestion.DefaultMaxAttempts,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Delay between attempts",
						Value: ingestion.DefaultRetryDelay,
					},
					&cli.BoolFlag{
						Name:  "exponential-backoff",
						Usage: "Double the retry delay after each failed attempt",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Find stored lines similar to a query",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: search.DefaultLimit,
					},
					&cli.IntFlag{
						Name:  "offset",
						Usage: "Number of results to skip",
					},
					&cli.Float64Flag{
						Name:  "min-score",
						Usage: "Lowest similarity score returned",
						Value: float64(search.DefaultMinScore),
					},
				},
			},
		},
	}
}

// loadConfig resolves the configuration and applies the flags the user set.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	applyIngestFlags(c, cfg)
	return cfg, nil
}

func applyIngestFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("snapshot") {
		var snapshots []string
		for _, s := range c.StringSlice("snapshot") {
			snapshots = append(snapshots, config.SplitList(s)...)
		}
		cfg.Crawl.Snapshots = snapshots
	}
	if c.IsSet("workers") {
		cfg.Ingest.Workers = c.Int("workers")
	}
	if c.IsSet("max-attempts") {
		cfg.Ingest.MaxAttempts = c.Int("max-attempts")
	}
	if c.IsSet("retry-delay") {
		cfg.Ingest.RetryDelay = c.Duration("retry-delay")
	}
	if c.IsSet("random-point-ids") {
		cfg.Ingest.RandomPointIDs = c.Bool("random-point-ids")
	}
}

func ingestCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	engine, err := crawlvec.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	var opts []ingestion.Option
	if c.Bool("progress") {
		opts = append(opts, ingestion.WithProgress(c.App.ErrWriter))
	}
	pipeline, err := engine.NewPipeline(opts...)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	slog.Info("starting ingestion", "snapshots", cfg.Crawl.Snapshots, "workers", cfg.Ingest.Workers)
	runs, err := pipeline.Run(ctx, cfg.SnapshotList()...)
	printRunStats(c.App.Writer, runs)
	if errors.Is(err, context.Canceled) {
		slog.Warn("ingestion interrupted; rerun to resume from the ledger")
		return nil
	}
	return err
}

func reembedCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if c.Int("batch-size") <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	engine, err := crawlvec.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	reembedder, err := engine.NewReembedder(&reembed.Config{
		BatchSize:          c.Int("batch-size"),
		ReportInterval:     c.Int("report-interval"),
		MaxAttempts:        c.Int("max-attempts"),
		RetryDelay:         c.Duration("retry-delay"),
		ExponentialBackoff: c.Bool("exponential-backoff"),
	}, c.App.ErrWriter)
	if err != nil {
		return fmt.Errorf("failed to create reembedder: %w", err)
	}

	stats, err := reembedder.Run(ctx)
	if err != nil {
		return fmt.Errorf("reembedding failed after %d records: %w", stats.Records, err)
	}
	fmt.Fprintf(c.App.Writer, "%d records, %d points, %d skipped (%s)\n",
		stats.Records, stats.Points, stats.Skipped, stats.Elapsed.Round(time.Millisecond))
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return errors.New("a search query is required")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx := c.Context
	engine, err := crawlvec.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	searcher, err := engine.NewSearcher(search.WithMinScore(float32(c.Float64("min-score"))))
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	start := time.Now()
	results, err := searcher.Search(ctx, query, c.Int("limit"), c.Int("offset"))
	if err != nil {
		return err
	}
	slog.Debug("search finished", "results", len(results), "elapsed", time.Since(start))
	printResults(c.App.Writer, results)
	return nil
}

func printRunStats(w io.Writer, runs []ingestion.RunStats) {
	for _, r := range runs {
		fmt.Fprintf(w, "%s: %d files, %d processed, %d skipped, %d failed, %d lines kept, %d vectors, %d lines without vectors (%s)\n",
			r.Snapshot, r.Files, r.Processed, r.Skipped, r.Failed,
			r.Totals.Contents, r.Totals.Vectors, r.Totals.VectorLoss,
			r.Elapsed.Round(time.Millisecond))
	}
}

func printResults(w io.Writer, results []*search.Result) {
	if len(results) == 0 {
		fmt.Fprintln(w, "no results")
		return
	}
	for i, r := range results {
		marker := ""
		if r.Verbatim {
			marker = " *"
		}
		fmt.Fprintf(w, "%d. [%.3f]%s %s\n   %s\n", i+1, r.Score, marker, r.URL, r.Text)
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
