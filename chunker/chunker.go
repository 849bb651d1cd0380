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


// Package chunker splits text into size-bounded segments on whitespace boundaries.
package chunker

import (
	"strings"
	"unicode/utf8"
)

// MaxChunkSize is the default chunk bound, in characters.
const MaxChunkSize = 500

// Chunker splits text into chunks of at most Size characters.
// A single token longer than Size is emitted whole.
type Chunker struct {
	Size int
}

// New returns a Chunker with the given bound. Non-positive sizes use MaxChunkSize.
func New(size int) *Chunker {
	if size <= 0 {
		size = MaxChunkSize
	}
	return &Chunker{Size: size}
}

// Split returns the chunks of text in order. Tokens are never split and are
// rejoined with single spaces. Empty or whitespace-only input yields nil.
func (c *Chunker) Split(text string) []string {
	var chunks []string
	var current strings.Builder
	currentLen := 0

	for _, token := range strings.Fields(text) {
		tokenLen := utf8.RuneCountInString(token)
		if currentLen == 0 {
			// first token of a chunk is never checked against the bound
			current.WriteString(token)
			currentLen = tokenLen
			continue
		}
		if currentLen+1+tokenLen > c.Size {
			chunks = append(chunks, current.String())
			current.Reset()
			current.WriteString(token)
			currentLen = tokenLen
			continue
		}
		current.WriteByte(' ')
		current.WriteString(token)
		currentLen += 1 + tokenLen
	}

	if currentLen > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

// Split chunks text with the default bound.
func Split(text string) []string {
	return defaultChunker.Split(text)
}

var defaultChunker = New(MaxChunkSize)
