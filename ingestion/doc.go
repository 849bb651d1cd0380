// Package ingestion drives crawl archive objects into the document store and
// the vector index.
//
// A Pipeline fetches a snapshot's manifest and hands every listed object to a
// bounded worker pool. For each object it:
//   - skips the object if the ledger already records it
//   - retrieves and decompresses it to a scratch file
//   - parses it, upserting pages and qualifying content lines
//   - writes the ledger entry and removes the scratch file
//
// Each qualifying line goes through the VectorUpserter, which retries the
// embed+insert sequence under a retry.Policy and gives up quietly when the
// attempts run out. Content records are persisted either way.
package ingestion
