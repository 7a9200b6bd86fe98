// Package job runs background similarity and refinement work with bounded
// concurrency and observable progress.
package job

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/croissant-tools/dlsim/internal/metrics"
	"github.com/croissant-tools/dlsim/internal/models"
)

const (
	defaultWorkers = 2
	archiveTimeout = 5 * time.Second
)

// Notifier receives job lifecycle events. *ws.Hub satisfies it.
type Notifier interface {
	BroadcastEvent(eventType string, data json.RawMessage)
}

// Archiver persists terminal job snapshots. Failures are logged, never
// surfaced to the job itself.
type Archiver interface {
	SaveJob(ctx context.Context, j *models.Job) error
}

// RunFunc is the body of a job. It reports progress through the tracker and
// returns the job result. A non-nil result returned alongside an error is
// kept as the partial outcome.
type RunFunc func(ctx context.Context, t *Tracker) (any, error)

type record struct {
	job    models.Job
	cancel context.CancelFunc
}

// Manager owns the in-memory job table and the worker semaphore. A job is
// pending from Start until it acquires a semaphore slot.
type Manager struct {
	log      *logrus.Logger
	notifier Notifier
	archiver Archiver
	sem      *semaphore.Weighted

	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup

	mu   sync.RWMutex
	jobs map[string]*record
}

// NewManager creates a Manager running at most workers jobs concurrently.
// Notifier and archiver may be nil.
func NewManager(workers int, notifier Notifier, archiver Archiver, log *logrus.Logger) *Manager {
	if workers <= 0 {
		workers = defaultWorkers
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		log:      log,
		notifier: notifier,
		archiver: archiver,
		sem:      semaphore.NewWeighted(int64(workers)),
		baseCtx:  ctx,
		stop:     cancel,
		jobs:     make(map[string]*record),
	}
}

// Start registers a pending job and launches it. The returned snapshot
// reflects the job at registration time.
func (m *Manager) Start(kind models.JobKind, p models.Params, run RunFunc) models.Job {
	ctx, cancel := context.WithCancel(m.baseCtx)

	rec := &record{
		job: models.Job{
			ID:        uuid.New().String(),
			Kind:      kind,
			Status:    models.JobPending,
			Params:    p,
			CreatedAt: time.Now().UTC(),
		},
		cancel: cancel,
	}

	m.mu.Lock()
	m.jobs[rec.job.ID] = rec
	snapshot := rec.job
	m.mu.Unlock()

	m.log.WithFields(logrus.Fields{"job_id": snapshot.ID, "kind": kind}).Info("job queued")
	m.emit("job.created", snapshot)

	m.wg.Add(1)
	go m.runJob(ctx, rec.job.ID, run)

	return snapshot
}

func (m *Manager) runJob(ctx context.Context, id string, run RunFunc) {
	defer m.wg.Done()

	if err := m.sem.Acquire(ctx, 1); err != nil {
		// Canceled while still queued.
		m.finish(id, nil, err)

		return
	}
	defer m.sem.Release(1)

	now := time.Now().UTC()
	snapshot := m.update(id, func(j *models.Job) {
		j.Status = models.JobRunning
		j.StartedAt = &now
	})
	metrics.JobsRunning.Inc()
	defer metrics.JobsRunning.Dec()
	m.emit("job.updated", snapshot)

	result, err := run(ctx, &Tracker{m: m, id: id})
	m.finish(id, result, err)
}

// finish records the terminal state and archives the snapshot.
func (m *Manager) finish(id string, result any, err error) {
	now := time.Now().UTC()
	snapshot := m.update(id, func(j *models.Job) {
		j.FinishedAt = &now
		j.Result = result
		if err != nil {
			j.Status = models.JobFailed
			j.Error = err.Error()
		} else {
			j.Status = models.JobCompleted
		}
	})

	metrics.JobsTotal.WithLabelValues(string(snapshot.Kind), string(snapshot.Status)).Inc()

	entry := m.log.WithFields(logrus.Fields{"job_id": id, "kind": snapshot.Kind})
	if err != nil {
		entry.WithError(err).Warn("job failed")
		m.emit("job.failed", snapshot)
	} else {
		entry.Info("job completed")
		m.emit("job.completed", snapshot)
	}

	if m.archiver != nil {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()
		if archiveErr := m.archiver.SaveJob(ctx, &snapshot); archiveErr != nil {
			m.log.WithError(archiveErr).WithField("job_id", id).Warn("archiving job")
		}
	}
}

// update applies fn to the job under lock and returns the new snapshot.
func (m *Manager) update(id string, fn func(j *models.Job)) models.Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.jobs[id]
	if !ok {
		return models.Job{}
	}
	fn(&rec.job)

	return rec.job
}

// emit broadcasts a job event carrying the snapshot without its result;
// clients fetch results over HTTP.
func (m *Manager) emit(eventType string, snapshot models.Job) {
	if m.notifier == nil {
		return
	}

	snapshot.Result = nil
	data, err := json.Marshal(snapshot)
	if err != nil {
		m.log.WithError(err).Error("marshaling job event")

		return
	}

	m.notifier.BroadcastEvent(eventType, data)
}

// Get returns a snapshot of the job.
func (m *Manager) Get(id string) (models.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.jobs[id]
	if !ok {
		return models.Job{}, models.ErrJobNotFound
	}

	return rec.job, nil
}

// List returns snapshots of all jobs, newest first.
func (m *Manager) List() []models.Job {
	m.mu.RLock()
	out := make([]models.Job, 0, len(m.jobs))
	for _, rec := range m.jobs {
		out = append(out, rec.job)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}

		return out[i].ID < out[j].ID
	})

	return out
}

// Cancel requests cooperative cancellation. Canceling a finished job is a
// no-op.
func (m *Manager) Cancel(id string) error {
	m.mu.RLock()
	rec, ok := m.jobs[id]
	m.mu.RUnlock()

	if !ok {
		return models.ErrJobNotFound
	}

	if rec.job.Finished() {
		return nil
	}

	m.log.WithField("job_id", id).Info("canceling job")
	rec.cancel()

	return nil
}

// Shutdown cancels every unfinished job and waits for their goroutines to
// return, up to the context deadline.
func (m *Manager) Shutdown(ctx context.Context) {
	m.stop()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		m.log.Warn("job shutdown timed out")
	}
}

// Tracker reports progress for one running job.
type Tracker struct {
	m  *Manager
	id string
}

// SetTotal sets the number of units the job will process.
func (t *Tracker) SetTotal(n int) {
	snapshot := t.m.update(t.id, func(j *models.Job) { j.Total = n })
	t.m.emit("job.updated", snapshot)
}

// Advance marks one unit processed.
func (t *Tracker) Advance() {
	snapshot := t.m.update(t.id, func(j *models.Job) { j.Processed++ })
	t.m.emit("job.updated", snapshot)
}

// SetMessage publishes a human-readable progress note.
func (t *Tracker) SetMessage(msg string) {
	snapshot := t.m.update(t.id, func(j *models.Job) { j.Message = msg })
	t.m.emit("job.updated", snapshot)
}
