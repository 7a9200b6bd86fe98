package client

import (
	"context"

	"github.com/croissant-tools/dlsim/internal/models"
	"github.com/croissant-tools/dlsim/internal/report"
)

// RefineService handles the structural refinement endpoints.
type RefineService struct {
	c *Client
}

// Compare runs the refinement pass for one profile pair.
func (s *RefineService) Compare(ctx context.Context, a, b string) (*models.RefinementResult, error) {
	var result models.RefinementResult
	if err := s.c.get(ctx, "/api/v1/refine", queryWithPair(a, b), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Report returns the refinement pass rendered as an export document.
func (s *RefineService) Report(ctx context.Context, a, b string) (*report.RefinementReport, error) {
	var doc report.RefinementReport
	if err := s.c.get(ctx, "/api/v1/refine/report", queryWithPair(a, b), &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Download returns the refinement report as raw bytes plus the
// server-suggested filename.
func (s *RefineService) Download(ctx context.Context, a, b string) ([]byte, string, error) {
	return s.c.download(ctx, "/api/v1/refine/report/download", queryWithPair(a, b))
}
