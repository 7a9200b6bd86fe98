package embed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/croissant-tools/dlsim/internal/models"
)

func newOllamaServer(t *testing.T, routes map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for pattern, handler := range routes {
		mux.HandleFunc(pattern, handler)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func TestOllamaEmbedder_Embed(t *testing.T) {
	srv := newOllamaServer(t, map[string]http.HandlerFunc{
		"POST /api/embed": func(w http.ResponseWriter, r *http.Request) {
			var req ollamaRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode request: %v", err)
			}
			if req.Model != "all-minilm" {
				t.Errorf("got model %q, want all-minilm", req.Model)
			}
			if req.Input != "sales records" {
				t.Errorf("got input %q", req.Input)
			}
			json.NewEncoder(w).Encode(ollamaResponse{Embeddings: [][]float32{{0.1, 0.2, 0.3}}}) //nolint:errcheck
		},
	})

	e := NewOllamaEmbedder(srv.URL, "all-minilm")

	vec, err := e.Embed(context.Background(), "sales records")
	if err != nil {
		t.Fatalf("Embed error: %v", err)
	}
	if len(vec) != 3 {
		t.Fatalf("got %d dims, want 3", len(vec))
	}
	if vec[0] != 0.1 {
		t.Errorf("vec[0] = %v, want 0.1", vec[0])
	}
}

func TestOllamaEmbedder_ServerError(t *testing.T) {
	srv := newOllamaServer(t, map[string]http.HandlerFunc{
		"POST /api/embed": func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "model not found", http.StatusNotFound)
		},
	})

	e := NewOllamaEmbedder(srv.URL, "missing-model")

	_, err := e.Embed(context.Background(), "anything")
	if !errors.Is(err, models.ErrEmbeddingUnavailable) {
		t.Fatalf("error = %v, want ErrEmbeddingUnavailable", err)
	}
}

func TestOllamaEmbedder_EmptyEmbedding(t *testing.T) {
	srv := newOllamaServer(t, map[string]http.HandlerFunc{
		"POST /api/embed": func(w http.ResponseWriter, _ *http.Request) {
			json.NewEncoder(w).Encode(ollamaResponse{Embeddings: [][]float32{}}) //nolint:errcheck
		},
	})

	e := NewOllamaEmbedder(srv.URL, "all-minilm")

	_, err := e.Embed(context.Background(), "anything")
	if !errors.Is(err, models.ErrEmbeddingUnavailable) {
		t.Fatalf("error = %v, want ErrEmbeddingUnavailable", err)
	}
}

func TestOllamaEmbedder_CircuitBreakerOpens(t *testing.T) {
	var hits atomic.Int32

	srv := newOllamaServer(t, map[string]http.HandlerFunc{
		"POST /api/embed": func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			http.Error(w, "overloaded", http.StatusInternalServerError)
		},
	})

	e := NewOllamaEmbedder(srv.URL, "all-minilm")

	ctx := context.Background()
	for range cbFailureThreshold {
		if _, err := e.Embed(ctx, "x"); err == nil {
			t.Fatal("expected error from failing backend")
		}
	}
	if got := hits.Load(); got != cbFailureThreshold {
		t.Fatalf("backend hit %d times, want %d", got, cbFailureThreshold)
	}

	// Breaker is open now; the next call must fail fast without a request.
	_, err := e.Embed(ctx, "x")
	if !errors.Is(err, models.ErrEmbeddingUnavailable) {
		t.Fatalf("error = %v, want ErrEmbeddingUnavailable", err)
	}
	if got := hits.Load(); got != cbFailureThreshold {
		t.Errorf("backend hit %d times after breaker opened, want %d", got, cbFailureThreshold)
	}
}

func TestOllamaEmbedder_Ping(t *testing.T) {
	srv := newOllamaServer(t, map[string]http.HandlerFunc{
		"GET /api/version": func(w http.ResponseWriter, _ *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"version": "0.6.2"}) //nolint:errcheck
		},
	})

	e := NewOllamaEmbedder(srv.URL, "all-minilm")
	if err := e.Ping(context.Background()); err != nil {
		t.Fatalf("Ping error: %v", err)
	}

	down := NewOllamaEmbedder("http://127.0.0.1:1", "all-minilm")
	if err := down.Ping(context.Background()); err == nil {
		t.Fatal("Ping against closed port should fail")
	}
}
