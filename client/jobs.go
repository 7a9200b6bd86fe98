package client

import (
	"context"
	"net/url"
	"strconv"

	"github.com/croissant-tools/dlsim/internal/models"
)

// JobService handles the background job endpoints.
type JobService struct {
	c *Client
}

// jobListResponse wraps the job listing responses.
type jobListResponse struct {
	Jobs  []models.Job `json:"jobs"`
	Count int          `json:"count"`
}

// refineJobRequest is the payload for starting a refine job.
type refineJobRequest struct {
	A string `json:"a"`
	B string `json:"b"`
	ParamOverrides
}

// StartReport queues a background similarity report job.
func (s *JobService) StartReport(ctx context.Context, opts *ParamOverrides) (*models.Job, error) {
	return s.start(ctx, "/api/v1/jobs/report", opts)
}

// StartAnalysis queues a background analysis job (batch scoring plus
// refinement of every qualifying pair).
func (s *JobService) StartAnalysis(ctx context.Context, opts *ParamOverrides) (*models.Job, error) {
	return s.start(ctx, "/api/v1/jobs/analysis", opts)
}

// StartRefine queues a background refinement job for one profile pair.
func (s *JobService) StartRefine(ctx context.Context, a, b string, opts *ParamOverrides) (*models.Job, error) {
	req := refineJobRequest{A: a, B: b}
	if opts != nil {
		req.ParamOverrides = *opts
	}

	var j models.Job
	if err := s.c.post(ctx, "/api/v1/jobs/refine", req, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

func (s *JobService) start(ctx context.Context, path string, opts *ParamOverrides) (*models.Job, error) {
	var body any
	if opts != nil {
		body = opts
	}

	var j models.Job
	if err := s.c.post(ctx, path, body, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

// List returns the in-memory job table, newest first, without result
// payloads.
func (s *JobService) List(ctx context.Context) ([]models.Job, error) {
	var resp jobListResponse
	if err := s.c.get(ctx, "/api/v1/jobs", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Jobs, nil
}

// Archive returns recent persisted jobs. Servers without a configured
// database return an empty list.
func (s *JobService) Archive(ctx context.Context, limit int) ([]models.Job, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var resp jobListResponse
	if err := s.c.get(ctx, "/api/v1/jobs/archive", params, &resp); err != nil {
		return nil, err
	}
	return resp.Jobs, nil
}

// Get returns a job's status without its result payload.
func (s *JobService) Get(ctx context.Context, id string) (*models.Job, error) {
	var j models.Job
	if err := s.c.get(ctx, "/api/v1/jobs/"+url.PathEscape(id), nil, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

// Result returns the full job including its result once finished; before
// that it is a status echo.
func (s *JobService) Result(ctx context.Context, id string) (*models.Job, error) {
	var j models.Job
	if err := s.c.get(ctx, "/api/v1/jobs/"+url.PathEscape(id)+"/result", nil, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

// Download returns a finished job's result as raw bytes plus the
// server-suggested filename. Unfinished jobs conflict (IsConflict).
func (s *JobService) Download(ctx context.Context, id string) ([]byte, string, error) {
	return s.c.download(ctx, "/api/v1/jobs/"+url.PathEscape(id)+"/download", nil)
}

// Cancel requests cancellation of a pending or running job. Canceling a
// finished job is a no-op.
func (s *JobService) Cancel(ctx context.Context, id string) error {
	return s.c.post(ctx, "/api/v1/jobs/"+url.PathEscape(id)+"/cancel", nil, nil)
}
