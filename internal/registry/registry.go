// Package registry keeps the in-memory set of dataset profiles the engines
// operate on. Profiles are immutable after parsing; every mutation purges the
// similarity result cache so no cached score outlives its inputs.
package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/croissant-tools/dlsim/internal/cache"
	"github.com/croissant-tools/dlsim/internal/metrics"
	"github.com/croissant-tools/dlsim/internal/models"
)

// ProfileStore persists registry mutations. Failures never fail the request
// path; the registry logs them and moves on.
type ProfileStore interface {
	SaveProfile(ctx context.Context, p *models.Profile) error
	DeleteProfile(ctx context.Context, id string) error
}

// Registry is the concurrent profile set.
type Registry struct {
	log   *logrus.Logger
	cache *cache.ResultCache
	store ProfileStore

	mu       sync.RWMutex
	profiles map[string]*models.Profile
}

// New creates a Registry. Both cache and store may be nil.
func New(cache *cache.ResultCache, store ProfileStore, log *logrus.Logger) *Registry {
	return &Registry{
		log:      log,
		cache:    cache,
		store:    store,
		profiles: make(map[string]*models.Profile),
	}
}

// Put registers a profile, replacing any previous one with the same id.
// Returns true when the profile is new.
func (r *Registry) Put(ctx context.Context, p *models.Profile) (bool, error) {
	if err := p.Validate(); err != nil {
		return false, err
	}

	r.mu.Lock()
	_, existed := r.profiles[p.ID]
	r.profiles[p.ID] = p
	count := len(r.profiles)
	r.mu.Unlock()

	r.invalidate(count)

	if r.store != nil {
		if err := r.store.SaveProfile(ctx, p); err != nil {
			r.log.WithError(err).WithField("profile_id", p.ID).Warn("persisting profile")
		}
	}

	return !existed, nil
}

// Get returns the profile with the given id.
func (r *Registry) Get(id string) (*models.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[id]
	if !ok {
		return nil, models.ErrProfileNotFound
	}

	return p, nil
}

// Delete removes a profile.
func (r *Registry) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	if _, ok := r.profiles[id]; !ok {
		r.mu.Unlock()

		return models.ErrProfileNotFound
	}
	delete(r.profiles, id)
	count := len(r.profiles)
	r.mu.Unlock()

	r.invalidate(count)

	if r.store != nil {
		if err := r.store.DeleteProfile(ctx, id); err != nil {
			r.log.WithError(err).WithField("profile_id", id).Warn("deleting persisted profile")
		}
	}

	return nil
}

// List returns all profiles sorted by id.
func (r *Registry) List() []*models.Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}

// Summaries returns listing entries for all profiles sorted by id.
func (r *Registry) Summaries() []models.ProfileSummary {
	profiles := r.List()

	out := make([]models.ProfileSummary, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, p.Summary())
	}

	return out
}

// Len reports the number of registered profiles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.profiles)
}

// Bootstrap loads persisted profiles at startup, bypassing the store
// write-back. Invalid entries are skipped with a warning.
func (r *Registry) Bootstrap(profiles []*models.Profile) {
	r.mu.Lock()
	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			r.log.WithError(err).WithField("profile_id", p.ID).Warn("skipping persisted profile")

			continue
		}
		r.profiles[p.ID] = p
	}
	count := len(r.profiles)
	r.mu.Unlock()

	r.invalidate(count)
	r.log.WithField("profiles", count).Info("registry loaded")
}

func (r *Registry) invalidate(count int) {
	if r.cache != nil {
		r.cache.Purge()
	}
	metrics.ProfileCount.Set(float64(count))
}
