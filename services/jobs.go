package services

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"fdeconsole/models"
	"fdeconsole/observability"

	"github.com/sirupsen/logrus"
)

// JobStore is in-memory bookkeeping for operations requested through the API.
// It never performs the side effects itself.
type JobStore struct {
	mu     sync.Mutex
	jobs   map[string]*models.Job
	order  []string
	nextID int
	now    func() time.Time
	log    logrus.FieldLogger
}

func NewJobStore(log logrus.FieldLogger) *JobStore {
	return &JobStore{
		jobs: make(map[string]*models.Job),
		now:  time.Now,
		log:  log,
	}
}

// WithClock swaps the time source, for tests.
func (s *JobStore) WithClock(now func() time.Time) *JobStore {
	s.now = now
	return s
}

func (s *JobStore) Create(jobType models.JobType, entityID string, meta map[string]interface{}) (models.Job, error) {
	if !jobType.Valid() {
		return models.Job{}, fmt.Errorf("unknown job type %q", jobType)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	job := &models.Job{
		ID:        fmt.Sprintf("job_%d", s.nextID),
		Type:      jobType,
		Status:    models.JobQueued,
		EntityID:  entityID,
		StartedAt: s.now(),
		Meta:      copyMeta(meta),
	}
	s.jobs[job.ID] = job
	s.order = append(s.order, job.ID)

	observability.JobsCreated.WithLabelValues(string(jobType)).Inc()
	s.log.WithFields(logrus.Fields{"job_id": job.ID, "type": jobType, "entity": entityID}).Info("job queued")
	return cloneJob(job), nil
}

func (s *JobStore) Get(id string) (models.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return models.Job{}, false
	}
	return cloneJob(job), true
}

// List returns jobs in creation order, filtered by entity when entityID is set.
func (s *JobStore) List(entityID string) []models.Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]models.Job, 0, len(s.order))
	for _, id := range s.order {
		job := s.jobs[id]
		if entityID != "" && job.EntityID != entityID {
			continue
		}
		result = append(result, cloneJob(job))
	}
	return result
}

// Tick moves every non-terminal job exactly one state forward and returns the
// jobs that changed.
func (s *JobStore) Tick() []models.Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := []models.Job{}
	for _, id := range s.order {
		job := s.jobs[id]
		if job.Status.Terminal() {
			continue
		}
		if s.advance(job) {
			updated = append(updated, cloneJob(job))
		}
	}
	return updated
}

// advance applies one transition to job; a panic leaves the job untouched.
func (s *JobStore) advance(job *models.Job) (changed bool) {
	defer func() {
		if r := recover(); r != nil {
			s.log.WithFields(logrus.Fields{"job_id": job.ID, "panic": r}).Error("job tick panic recovered")
			changed = false
		}
	}()

	switch job.Status {
	case models.JobQueued:
		return s.update(job.ID, models.JobRunning, nil)
	case models.JobRunning:
		return s.update(job.ID, models.JobSucceeded, completionMeta(job))
	}
	return false
}

// update is the only place a job is mutated; callers hold s.mu.
func (s *JobStore) update(id string, status models.JobStatus, meta map[string]interface{}) bool {
	job, ok := s.jobs[id]
	if !ok || job.Status.Terminal() {
		return false
	}

	next := cloneJob(job)
	next.Status = status
	if status.Terminal() {
		finished := s.now()
		next.FinishedAt = &finished
	}
	for k, v := range meta {
		if next.Meta == nil {
			next.Meta = make(map[string]interface{})
		}
		next.Meta[k] = v
	}
	*job = next

	observability.JobTransitions.WithLabelValues(string(job.Type), string(status)).Inc()
	s.log.WithFields(logrus.Fields{"job_id": id, "status": status}).Debug("job advanced")
	return true
}

func completionMeta(job *models.Job) map[string]interface{} {
	count, ok := job.Meta["count"]
	if !ok {
		return nil
	}
	switch job.Type {
	case models.JobBackfill:
		return map[string]interface{}{"processed": count}
	case models.JobReplayEvents:
		return map[string]interface{}{"replayed": count}
	}
	return nil
}

// SortByStartedDesc orders jobs newest first, the way the dashboard lists them.
func SortByStartedDesc(jobs []models.Job) {
	sort.SliceStable(jobs, func(i, j int) bool {
		return jobs[i].StartedAt.After(jobs[j].StartedAt)
	})
}

func cloneJob(job *models.Job) models.Job {
	c := *job
	c.Meta = copyMeta(job.Meta)
	if job.FinishedAt != nil {
		finished := *job.FinishedAt
		c.FinishedAt = &finished
	}
	return c
}

func copyMeta(meta map[string]interface{}) map[string]interface{} {
	if meta == nil {
		return nil
	}
	c := make(map[string]interface{}, len(meta))
	for k, v := range meta {
		c[k] = v
	}
	return c
}
