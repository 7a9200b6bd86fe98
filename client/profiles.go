package client

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/croissant-tools/dlsim/internal/models"
)

// ProfileService handles profile registration and lookup.
type ProfileService struct {
	c *Client
}

// profileListResponse wraps the registry listing response.
type profileListResponse struct {
	Profiles []models.ProfileSummary `json:"profiles"`
	Count    int                     `json:"count"`
}

// Register parses and registers a batch of Croissant documents. The server
// rejects the whole batch when any document fails to parse.
func (s *ProfileService) Register(ctx context.Context, docs []json.RawMessage) (*RegisterResult, error) {
	var result RegisterResult
	if err := s.c.post(ctx, "/api/v1/profiles", docs, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// List returns summaries of every registered profile.
func (s *ProfileService) List(ctx context.Context) ([]models.ProfileSummary, error) {
	var resp profileListResponse
	if err := s.c.get(ctx, "/api/v1/profiles", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Profiles, nil
}

// Get returns a single parsed profile by id.
func (s *ProfileService) Get(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	if err := s.c.get(ctx, "/api/v1/profiles/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes a profile by id.
func (s *ProfileService) Delete(ctx context.Context, id string) error {
	return s.c.del(ctx, "/api/v1/profiles/"+url.PathEscape(id), nil, nil)
}
