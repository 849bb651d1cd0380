// Package reembed rebuilds the vector index from the document store.
//
// Stored content records are the source of truth: a Reembedder walks them in
// batches, splits each line into chunks, embeds every chunk of a batch with
// one request and writes the points under their deterministic IDs. Running it
// after a model change or on an empty collection brings the index back in
// line with the store without downloading any archives.
package reembed
