// Package embed provides the text embedding backends used by the similarity
// engine: a fast model for headlines and a higher-quality model for
// descriptions, each behind a lazily-initialized handle.
package embed

import "context"

// Embedder produces a vector embedding for a piece of text.
type Embedder interface {
	// Embed returns the embedding vector for text. Failures wrap
	// models.ErrEmbeddingUnavailable.
	Embed(ctx context.Context, text string) ([]float32, error)
	// Model names the underlying embedding model.
	Model() string
}
