// Package mock provides test doubles for the ai interfaces.
//
// # Usage in Tests
//
//	embedder := mock.NewMockEmbedderWithDimension(16)
//	vectors, err := embedder.EmbedTexts(ctx, []string{"a", "b"})
//
//	// Inject failures
//	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, errors.New("unavailable")
//	}
//
// The default MockEmbedder returns unit vectors derived from an FNV hash of
// the text, so equal texts always embed identically.
package mock
