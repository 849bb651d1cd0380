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


// Package search answers free-text queries over ingested crawl content.
//
// The Searcher embeds the query, asks the vector index for the nearest
// chunks above a score threshold, and resolves each hit back to its content
// record and page. Results keep the index's ranking. Each result also reports
// whether the line contains every non-stop word of the query, which callers
// can use to highlight literal matches.
package search
