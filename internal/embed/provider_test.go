package embed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/croissant-tools/dlsim/internal/models"
)

type fakeEmbedder struct {
	model   string
	embedFn func(ctx context.Context, text string) ([]float32, error)
}

func (f *fakeEmbedder) Model() string { return f.model }

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.embedFn != nil {
		return f.embedFn(ctx, text)
	}

	return []float32{1, 0}, nil
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	return log
}

func TestProvider_BuildsOnce(t *testing.T) {
	var builds atomic.Int32

	p := NewProvider(testLogger(),
		func(context.Context) (Embedder, error) {
			builds.Add(1)

			return &fakeEmbedder{model: "fast"}, nil
		},
		func(context.Context) (Embedder, error) {
			t.Fatal("description builder must not run")

			return nil, nil
		},
	)

	for range 3 {
		if _, err := p.Headline(context.Background()); err != nil {
			t.Fatalf("Headline: %v", err)
		}
	}

	if got := builds.Load(); got != 1 {
		t.Errorf("builder ran %d times, want 1", got)
	}
}

func TestProvider_ConcurrentFirstUse(t *testing.T) {
	var builds atomic.Int32

	p := NewProvider(testLogger(),
		func(context.Context) (Embedder, error) {
			builds.Add(1)

			return &fakeEmbedder{model: "fast"}, nil
		},
		func(context.Context) (Embedder, error) {
			return &fakeEmbedder{model: "quality"}, nil
		},
	)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			if _, err := p.Headline(context.Background()); err != nil {
				t.Errorf("Headline: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := builds.Load(); got != 1 {
		t.Errorf("builder ran %d times under contention, want 1", got)
	}
}

func TestProvider_FailedBuildIsRetried(t *testing.T) {
	var builds atomic.Int32

	p := NewProvider(testLogger(),
		func(context.Context) (Embedder, error) {
			if builds.Add(1) == 1 {
				return nil, fmt.Errorf("backend down")
			}

			return &fakeEmbedder{model: "fast"}, nil
		},
		func(context.Context) (Embedder, error) {
			return &fakeEmbedder{model: "quality"}, nil
		},
	)

	_, err := p.Headline(context.Background())
	if !errors.Is(err, models.ErrEmbeddingUnavailable) {
		t.Fatalf("first call error = %v, want ErrEmbeddingUnavailable", err)
	}

	e, err := p.Headline(context.Background())
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	if e.Model() != "fast" {
		t.Errorf("model = %q, want fast", e.Model())
	}

	if got := builds.Load(); got != 2 {
		t.Errorf("builder ran %d times, want 2 (failure not cached)", got)
	}
}

func TestProvider_IndependentHandles(t *testing.T) {
	p := NewProvider(testLogger(),
		func(context.Context) (Embedder, error) {
			return &fakeEmbedder{model: "fast"}, nil
		},
		func(context.Context) (Embedder, error) {
			return &fakeEmbedder{model: "quality"}, nil
		},
	)

	h, err := p.Headline(context.Background())
	if err != nil {
		t.Fatalf("Headline: %v", err)
	}

	d, err := p.Description(context.Background())
	if err != nil {
		t.Fatalf("Description: %v", err)
	}

	if h.Model() == d.Model() {
		t.Errorf("handles must address different models, both %q", h.Model())
	}
}
