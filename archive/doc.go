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

// Package archive parses WARC/WET extracted-text archives line by line.
//
// Parsing is split in two layers:
//   - Step, a pure transition function over a Machine value that turns one
//     line into zero or more Events
//   - Parser, which feeds lines from an io.Reader through Step and hands the
//     resulting events to a Handler
//
// A record starts at a "WARC/1.0" line that directly follows a blank line.
// Header lines announce the page URI ("WARC-Target-URI: ") and the body
// length ("Content-Length: "); the first blank line after the length header
// opens the body. Body lines that look like prose qualify as content.
package archive
