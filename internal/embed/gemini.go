package embed

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/croissant-tools/dlsim/internal/metrics"
	"github.com/croissant-tools/dlsim/internal/models"
)

// GeminiEmbedder generates vector embeddings via the Gemini API.
type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

var _ Embedder = (*GeminiEmbedder)(nil)

// NewGeminiEmbedder creates an embedder backed by the Gemini embedding model.
func NewGeminiEmbedder(ctx context.Context, apiKey, model string) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &GeminiEmbedder{client: client, model: model}, nil
}

// Model returns the Gemini model name.
func (e *GeminiEmbedder) Model() string { return e.model }

// Embed produces a vector embedding for the given text.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	metrics.EmbedRequestsTotal.WithLabelValues(e.model).Inc()

	resp, err := e.client.EmbeddingModel(e.model).EmbedContent(ctx, genai.Text(text))
	if err != nil {
		metrics.EmbedErrorsTotal.WithLabelValues(e.model).Inc()

		return nil, fmt.Errorf("%w: gemini embed: %w", models.ErrEmbeddingUnavailable, err)
	}

	if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		metrics.EmbedErrorsTotal.WithLabelValues(e.model).Inc()

		return nil, fmt.Errorf("%w: gemini returned empty embedding", models.ErrEmbeddingUnavailable)
	}

	return resp.Embedding.Values, nil
}

// Close releases the underlying API client.
func (e *GeminiEmbedder) Close() error {
	return e.client.Close()
}
