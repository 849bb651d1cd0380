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

// Package storage defines the document store used by the crawl pipeline.
//
// The store holds three keyed collections:
//   - pages, keyed by the hash of the page URL
//   - content records, keyed by the hash of URL plus normalized line
//   - ledger entries, keyed by the hash of the archive object reference
//
// Every write is an upsert by ID, so re-processing the same archive object
// rewrites identical records.
//
// # Implementations
//
// Two backends are provided:
//   - storage/badger: embedded BadgerDB, the default for single-host runs
//   - storage/mongo: MongoDB, matching the collection layout used by the
//     search front end ("urls", "contents", "crawl_files")
//
// Use in tests with in-memory storage:
//
//	store, err := badger.NewMemoryStore()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
// # Thread Safety
//
// All store implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
