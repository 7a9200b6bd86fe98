package client

import (
	"context"

	"github.com/croissant-tools/dlsim/internal/report"
)

// ReportService handles the synchronous similarity report endpoints.
type ReportService struct {
	c *Client
}

// Get scores the whole registry and returns the similarity report document.
func (s *ReportService) Get(ctx context.Context, opts *ParamOverrides) (*report.SimilarityReport, error) {
	var doc report.SimilarityReport
	if err := s.c.get(ctx, "/api/v1/report", opts.query(), &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Download returns the similarity report as raw bytes plus the
// server-suggested filename.
func (s *ReportService) Download(ctx context.Context, opts *ParamOverrides) ([]byte, string, error) {
	return s.c.download(ctx, "/api/v1/report/download", opts.query())
}
