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


// Package fetch downloads snapshot manifests and archive objects into a
// local scratch directory, decompressing them on the way.
package fetch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/poiesic/crawlvec/core"
)

// Fetcher materializes remote objects under a scratch directory.
type Fetcher struct {
	source Source
	dir    string
	logger *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// New creates a Fetcher writing into dir, creating dir if needed.
func New(source Source, dir string, opts ...Option) (*Fetcher, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch dir %s: %w", dir, err)
	}
	f := &Fetcher{
		source: source,
		dir:    dir,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With("component", "fetcher")
	return f, nil
}

// ManifestKey is the remote key of a snapshot's object list.
func ManifestKey(snapshot core.Snapshot) string {
	return "crawl-data/" + string(snapshot) + "/wet.paths.gz"
}

// ManifestPath is where FetchManifest writes the list for snapshot.
func (f *Fetcher) ManifestPath(snapshot core.Snapshot) string {
	return filepath.Join(f.dir, string(snapshot)+".wet.paths")
}

// ScratchPath is where Retrieve writes ref. The name depends only on ref.
func (f *Fetcher) ScratchPath(ref core.ObjectRef) string {
	return filepath.Join(f.dir, ref.ID().String()+".wet")
}

// FetchManifest downloads and decompresses the manifest for snapshot,
// overwriting any previous copy. It returns the local path.
func (f *Fetcher) FetchManifest(ctx context.Context, snapshot core.Snapshot) (string, error) {
	dest := f.ManifestPath(snapshot)
	if err := f.download(ctx, ManifestKey(snapshot), dest); err != nil {
		return "", fmt.Errorf("fetch manifest for %s: %w", snapshot, err)
	}
	f.logger.Info("fetched manifest", "snapshot", snapshot, "path", dest)
	return dest, nil
}

// Retrieve downloads and decompresses one archive object and returns its
// local path. The caller removes the file once it is processed.
func (f *Fetcher) Retrieve(ctx context.Context, ref core.ObjectRef) (string, error) {
	dest := f.ScratchPath(ref)
	if err := f.download(ctx, string(ref), dest); err != nil {
		return "", fmt.Errorf("retrieve %s: %w", ref, err)
	}
	f.logger.Debug("retrieved object", "ref", ref, "path", dest)
	return dest, nil
}

// Remove deletes a scratch file. A missing file is not an error.
func (f *Fetcher) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// download streams key through a gzip reader into dest. A partial dest is
// removed on failure.
func (f *Fetcher) download(ctx context.Context, key, dest string) (err error) {
	body, err := f.source.Open(ctx, key)
	if err != nil {
		return err
	}
	defer body.Close()

	// Archive objects are concatenated gzip members; the reader handles
	// multistream input by default.
	zr, err := gzip.NewReader(bufio.NewReaderSize(body, 1<<20))
	if err != nil {
		return fmt.Errorf("gzip: %w", err)
	}
	defer zr.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(dest)
		}
	}()

	w := bufio.NewWriterSize(out, 1<<20)
	if _, err = io.Copy(w, zr); err != nil {
		return err
	}
	return w.Flush()
}

// ReadManifest returns the object references listed in a manifest file,
// skipping blank lines.
func ReadManifest(path string) ([]core.ObjectRef, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var refs []core.ObjectRef
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		refs = append(refs, core.ObjectRef(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	return refs, nil
}
