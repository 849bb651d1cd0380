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


// Package ai provides the embedding abstraction used by the crawl pipeline.
//
// # Implementation Packages
//
//   - ai/tei: text-embeddings-inference servers (POST /embed)
//   - ai/openai: OpenAI-compatible /v1/embeddings endpoints
//   - ai/mock: test doubles
//
// Both production embedders wrap a langchaingo EmbedderClient, which splits
// inputs into batches of Config.BatchSize and issues them sequentially, so
// the vectors come back in input order.
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithEmbeddingHost("http://localhost:8888"))
//	provider, err := tei.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vectors, err := provider.Embedder().EmbedTexts(ctx, chunks)
package ai
