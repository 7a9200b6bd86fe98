package embed

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/croissant-tools/dlsim/internal/models"
)

// BuildFunc constructs an embedding backend. Builders run lazily, on the
// first request that needs the model.
type BuildFunc func(ctx context.Context) (Embedder, error)

// Provider owns the two embedding handles of the engine: the fast headline
// model and the higher-quality description model. Each backend is built at
// most once; a failed build is reported as ErrEmbeddingUnavailable and
// retried on the next request rather than cached.
type Provider struct {
	log *logrus.Logger

	mu               sync.RWMutex
	headline         Embedder
	description      Embedder
	buildHeadline    BuildFunc
	buildDescription BuildFunc
}

// NewProvider creates a Provider with the given backend builders.
func NewProvider(log *logrus.Logger, headline, description BuildFunc) *Provider {
	return &Provider{
		log:              log,
		buildHeadline:    headline,
		buildDescription: description,
	}
}

// Headline returns the fast embedding backend, building it on first use.
func (p *Provider) Headline(ctx context.Context) (Embedder, error) {
	return p.get(ctx, &p.headline, p.buildHeadline, "headline")
}

// Description returns the quality embedding backend, building it on first use.
func (p *Provider) Description(ctx context.Context) (Embedder, error) {
	return p.get(ctx, &p.description, p.buildDescription, "description")
}

func (p *Provider) get(ctx context.Context, slot *Embedder, build BuildFunc, role string) (Embedder, error) {
	p.mu.RLock()
	e := *slot
	p.mu.RUnlock()

	if e != nil {
		return e, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Re-check: another request may have built the backend while we waited.
	if *slot != nil {
		return *slot, nil
	}

	e, err := build(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: initializing %s embedder: %w", models.ErrEmbeddingUnavailable, role, err)
	}

	p.log.WithFields(logrus.Fields{"role": role, "model": e.Model()}).Info("embedding backend initialized")
	*slot = e

	return e, nil
}

// Close releases any built backends that hold resources.
func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, e := range []Embedder{p.headline, p.description} {
		if c, ok := e.(io.Closer); ok && e != nil {
			if err := c.Close(); err != nil {
				p.log.WithError(err).Warn("closing embedding backend")
			}
		}
	}

	p.headline = nil
	p.description = nil
}

// OllamaBuilder returns a BuildFunc that constructs an Ollama backend and
// verifies connectivity before handing it out.
func OllamaBuilder(baseURL, model string) BuildFunc {
	return func(ctx context.Context) (Embedder, error) {
		e := NewOllamaEmbedder(baseURL, model)
		if err := e.Ping(ctx); err != nil {
			return nil, err
		}

		return e, nil
	}
}

// GeminiBuilder returns a BuildFunc that constructs a Gemini backend.
func GeminiBuilder(apiKey, model string) BuildFunc {
	return func(ctx context.Context) (Embedder, error) {
		return NewGeminiEmbedder(ctx, apiKey, model)
	}
}
