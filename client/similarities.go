package client

import (
	"context"
	"net/url"
)

// SimilarityService handles the synchronous similarity endpoints.
type SimilarityService struct {
	c *Client
}

// selectRequest is the payload for scoring a subset of profiles.
type selectRequest struct {
	IDs []string `json:"ids"`
	ParamOverrides
}

// All scores every registered profile pair.
func (s *SimilarityService) All(ctx context.Context, opts *ParamOverrides) (*BatchResult, error) {
	var result BatchResult
	if err := s.c.get(ctx, "/api/v1/similarities", opts.query(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Select scores every pair drawn from the named profiles.
func (s *SimilarityService) Select(ctx context.Context, ids []string, opts *ParamOverrides) (*BatchResult, error) {
	req := selectRequest{IDs: ids}
	if opts != nil {
		req.ParamOverrides = *opts
	}

	var result BatchResult
	if err := s.c.post(ctx, "/api/v1/similarities/select", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Pair scores a single profile pair. Below-threshold pairs are returned with
// passes_threshold false rather than omitted.
func (s *SimilarityService) Pair(ctx context.Context, a, b string, opts *ParamOverrides) (*PairResult, error) {
	params := opts.query()
	params.Set("a", a)
	params.Set("b", b)

	var result PairResult
	if err := s.c.get(ctx, "/api/v1/similarities/pair", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// queryWithPair is a tiny helper for endpoints addressed by two profile ids.
func queryWithPair(a, b string) url.Values {
	params := url.Values{}
	params.Set("a", a)
	params.Set("b", b)
	return params
}
