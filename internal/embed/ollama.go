package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/croissant-tools/dlsim/internal/metrics"
	"github.com/croissant-tools/dlsim/internal/models"
)

const (
	embedTimeout = 30 * time.Second
	probeTimeout = 2 * time.Second
)

// Circuit breaker configuration.
const (
	cbFailureThreshold = 5
	cbCooldown         = 30 * time.Second
)

// Circuit breaker states.
const (
	cbClosed   = iota // Normal operation.
	cbOpen            // Fail fast.
	cbHalfOpen        // Probe with one request.
)

// OllamaEmbedder generates vector embeddings via the Ollama API. A circuit
// breaker fails fast while the backend is down instead of stalling every
// pair computation on a timeout.
type OllamaEmbedder struct {
	baseURL string
	model   string
	client  *http.Client

	mu              sync.Mutex
	cbState         int
	cbFailures      int
	cbLastFailureAt time.Time
}

var _ Embedder = (*OllamaEmbedder)(nil)

type ollamaRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type ollamaResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewOllamaEmbedder creates an embedder for the given Ollama endpoint and model.
func NewOllamaEmbedder(baseURL, model string) *OllamaEmbedder {
	return &OllamaEmbedder{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: embedTimeout},
		cbState: cbClosed,
	}
}

// Model returns the Ollama model name.
func (e *OllamaEmbedder) Model() string { return e.model }

// Embed produces a vector embedding for the given text.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	metrics.EmbedRequestsTotal.WithLabelValues(e.model).Inc()

	if err := e.cbAllow(); err != nil {
		metrics.EmbedErrorsTotal.WithLabelValues(e.model).Inc()

		return nil, err
	}

	result, err := e.doEmbed(ctx, text)
	if err != nil {
		e.cbRecordFailure()
		metrics.EmbedErrorsTotal.WithLabelValues(e.model).Inc()

		return nil, fmt.Errorf("%w: %w", models.ErrEmbeddingUnavailable, err)
	}

	e.cbRecordSuccess()

	return result, nil
}

func (e *OllamaEmbedder) doEmbed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(ollamaRequest{Model: e.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("marshaling embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating embed request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling ollama embed API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain body so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20)) //nolint:errcheck // best-effort drain before close.
		return nil, fmt.Errorf("ollama embed API returned status %d", resp.StatusCode)
	}

	var result ollamaResponse

	limited := io.LimitReader(resp.Body, 10<<20) // 10 MB
	if err := json.NewDecoder(limited).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding embed response: %w", err)
	}

	if len(result.Embeddings) == 0 || len(result.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("ollama returned empty embeddings")
	}

	return result.Embeddings[0], nil
}

// Ping checks connectivity to the Ollama API.
func (e *OllamaEmbedder) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/api/version", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama unreachable: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	return nil
}

// cbAllow checks whether the circuit breaker permits a request.
// In closed state, all requests pass. In open state, requests are rejected
// until the cooldown expires, at which point we transition to half-open.
// In half-open state, one probe request is allowed.
func (e *OllamaEmbedder) cbAllow() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.cbState {
	case cbClosed:
		return nil
	case cbOpen:
		if time.Since(e.cbLastFailureAt) >= cbCooldown {
			e.cbState = cbHalfOpen

			return nil
		}

		return fmt.Errorf("%w: circuit breaker open", models.ErrEmbeddingUnavailable)
	case cbHalfOpen:
		// Already probing — reject additional requests.
		return fmt.Errorf("%w: circuit breaker open", models.ErrEmbeddingUnavailable)
	}

	return nil
}

// cbRecordSuccess records a successful call. In half-open state this closes
// the circuit breaker, restoring normal operation.
func (e *OllamaEmbedder) cbRecordSuccess() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cbFailures = 0
	e.cbState = cbClosed
}

// cbRecordFailure records a failed call. After reaching the failure threshold
// the circuit breaker transitions to open state.
func (e *OllamaEmbedder) cbRecordFailure() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cbFailures++
	e.cbLastFailureAt = time.Now()

	if e.cbFailures >= cbFailureThreshold || e.cbState == cbHalfOpen {
		e.cbState = cbOpen
	}
}
