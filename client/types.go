package client

import (
	"net/url"
	"strconv"

	"github.com/croissant-tools/dlsim/internal/models"
	"github.com/croissant-tools/dlsim/internal/similarity"
)

// ParamOverrides carries optional scoring parameter overrides. Nil fields
// leave the server default in place.
type ParamOverrides struct {
	Keywords    *float64 `json:"kw,omitempty"`
	Description *float64 `json:"desc,omitempty"`
	Headline    *float64 `json:"head,omitempty"`
	Threshold   *float64 `json:"th,omitempty"`
}

// query renders the overrides as URL query parameters for GET endpoints.
func (o *ParamOverrides) query() url.Values {
	params := url.Values{}
	if o == nil {
		return params
	}

	set := func(key string, v *float64) {
		if v != nil {
			params.Set(key, strconv.FormatFloat(*v, 'f', -1, 64))
		}
	}
	set("kw", o.Keywords)
	set("desc", o.Description)
	set("head", o.Headline)
	set("th", o.Threshold)
	return params
}

// Weights echoes the effective scoring weights of a response. Normalized is
// true when the requested weights were rescaled to sum to one.
type Weights struct {
	Keywords    float64 `json:"keywords"`
	Description float64 `json:"description"`
	Headline    float64 `json:"headline"`
	Normalized  bool    `json:"normalized"`
}

// BatchResult is the response of the batch similarity endpoints.
type BatchResult struct {
	Results   []models.SimilarityResult `json:"results"`
	Weights   Weights                   `json:"weights"`
	Threshold float64                   `json:"threshold"`
	Stats     similarity.BatchStats     `json:"stats"`
}

// PairResult is the response of the single-pair endpoint.
type PairResult struct {
	Result    models.SimilarityResult `json:"result"`
	Weights   Weights                 `json:"weights"`
	Threshold float64                 `json:"threshold"`
}

// RegisterResult reports the outcome of a profile registration.
type RegisterResult struct {
	Profiles []models.ProfileSummary `json:"profiles"`
	Created  int                     `json:"created"`
	Replaced int                     `json:"replaced"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Database      string  `json:"database"`
	Embeddings    string  `json:"embeddings"`
	Profiles      int     `json:"profiles"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// ReadyResponse is returned by the readiness endpoint.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
