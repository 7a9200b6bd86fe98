package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/croissant-tools/dlsim/internal/models"
)

// SaveProfile upserts a profile keyed by its id. The parsed document is
// stored whole as jsonb so column changes never lose fields.
func (s *Store) SaveProfile(ctx context.Context, p *models.Profile) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshalling profile %s: %w", p.ID, err)
	}

	query := `INSERT INTO profiles (id, name, document, registered_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, document = EXCLUDED.document, registered_at = now()`

	if _, err := s.Pool.Exec(ctx, query, p.ID, p.Name, doc); err != nil {
		return fmt.Errorf("saving profile %s: %w", p.ID, err)
	}

	return nil
}

// DeleteProfile removes a persisted profile. Deleting an unknown id is not
// an error; the registry already decided the profile existed.
func (s *Store) DeleteProfile(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if _, err := s.Pool.Exec(ctx, "DELETE FROM profiles WHERE id = $1", id); err != nil {
		return fmt.Errorf("deleting profile %s: %w", id, err)
	}

	return nil
}

// LoadProfiles returns every persisted profile for the registry bootstrap.
func (s *Store) LoadProfiles(ctx context.Context) ([]*models.Profile, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx, "SELECT document FROM profiles ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("loading profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]*models.Profile, 0, 16)

	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scanning profile row: %w", err)
		}

		var p models.Profile
		if err := json.Unmarshal(doc, &p); err != nil {
			return nil, fmt.Errorf("unmarshalling profile document: %w", err)
		}

		profiles = append(profiles, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating profile rows: %w", err)
	}

	return profiles, nil
}
