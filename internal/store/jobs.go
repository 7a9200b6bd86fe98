package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/croissant-tools/dlsim/internal/models"
)

// jobColumns lists the columns selected for archived job queries.
const jobColumns = `id, kind, status, processed, total, message, params,
	result, error, created_at, started_at, finished_at`

// SaveJob upserts a job snapshot. The manager archives every terminal job;
// re-archiving the same id just refreshes the row.
func (s *Store) SaveJob(ctx context.Context, j *models.Job) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	params, err := json.Marshal(j.Params)
	if err != nil {
		return fmt.Errorf("marshalling params for job %s: %w", j.ID, err)
	}

	var result []byte
	if j.Result != nil {
		result, err = json.Marshal(j.Result)
		if err != nil {
			return fmt.Errorf("marshalling result for job %s: %w", j.ID, err)
		}
	}

	query := `INSERT INTO jobs (id, kind, status, processed, total, message,
			params, result, error, created_at, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			processed = EXCLUDED.processed,
			total = EXCLUDED.total,
			message = EXCLUDED.message,
			result = EXCLUDED.result,
			error = EXCLUDED.error,
			started_at = EXCLUDED.started_at,
			finished_at = EXCLUDED.finished_at`

	_, err = s.Pool.Exec(ctx, query,
		j.ID, string(j.Kind), string(j.Status), j.Processed, j.Total, j.Message,
		params, result, j.Error, j.CreatedAt, j.StartedAt, j.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("saving job %s: %w", j.ID, err)
	}

	return nil
}

// RecentJobs returns the newest archived jobs, freshest first.
func (s *Store) RecentJobs(ctx context.Context, limit int) ([]models.Job, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + jobColumns + ` FROM jobs ORDER BY created_at DESC LIMIT $1`

	rows, err := s.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing archived jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]models.Job, 0, limit)

	for rows.Next() {
		j, err := scanJob(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning job row: %w", err)
		}

		jobs = append(jobs, *j)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating job rows: %w", err)
	}

	return jobs, nil
}

// scanJob scans a single row into a models.Job.
func scanJob(scan func(dest ...any) error) (*models.Job, error) {
	var j models.Job
	var kind, status string
	var params, result []byte

	err := scan(
		&j.ID,
		&kind,
		&status,
		&j.Processed,
		&j.Total,
		&j.Message,
		&params,
		&result,
		&j.Error,
		&j.CreatedAt,
		&j.StartedAt,
		&j.FinishedAt,
	)
	if err != nil {
		return nil, err
	}

	j.Kind = models.JobKind(kind)
	j.Status = models.JobStatus(status)

	if err := json.Unmarshal(params, &j.Params); err != nil {
		return nil, fmt.Errorf("unmarshalling job params: %w", err)
	}

	if result != nil {
		var res any
		if err := json.Unmarshal(result, &res); err != nil {
			return nil, fmt.Errorf("unmarshalling job result: %w", err)
		}
		j.Result = res
	}

	return &j, nil
}
