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


package core

import "fmt"

// ValidatePage validates a Page according to domain rules.
//
// Validation rules:
//   - URL must not be empty
//   - Id must equal PageID(URL)
func ValidatePage(page *Page) error {
	if page == nil {
		return fmt.Errorf("%w: page is nil", ErrInvalidPage)
	}
	if page.URL == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPage, ErrEmptyURL)
	}
	if page.Id != PageID(page.URL) {
		return fmt.Errorf("%w: %w", ErrInvalidPage, ErrIDMismatch)
	}
	return nil
}

// ValidateContentRecord validates a ContentRecord according to domain rules.
//
// Validation rules:
//   - Id and PageId must not be empty
//   - TextGzip must not be empty
//
// The Id cannot be re-derived here since the normalized text is not stored.
func ValidateContentRecord(record *ContentRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidContentRecord)
	}
	if record.Id == "" || record.PageId == "" {
		return fmt.Errorf("%w: %w", ErrInvalidContentRecord, ErrEmptyID)
	}
	if len(record.TextGzip) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidContentRecord, ErrEmptyContent)
	}
	return nil
}

// ValidateLedgerEntry validates a LedgerEntry according to domain rules.
func ValidateLedgerEntry(entry *LedgerEntry) error {
	if entry == nil {
		return fmt.Errorf("%w: entry is nil", ErrInvalidLedgerEntry)
	}
	if entry.Id == "" {
		return fmt.Errorf("%w: %w", ErrInvalidLedgerEntry, ErrEmptyID)
	}
	if entry.Ref != "" && entry.Id != entry.Ref.ID() {
		return fmt.Errorf("%w: %w", ErrInvalidLedgerEntry, ErrIDMismatch)
	}
	return nil
}
