package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"fdeconsole/models"
	"fdeconsole/observability"
)

var testLog = observability.NopLogger()

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

type recordingNotifier struct {
	mu         sync.Mutex
	sent       []models.Notification
	fail       bool
	configured bool
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{configured: true}
}

func (r *recordingNotifier) Configured() bool { return r.configured }

func (r *recordingNotifier) Send(ctx context.Context, n models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("webhook returned 500")
	}
	r.sent = append(r.sent, n)
	return nil
}

func (r *recordingNotifier) Sent() []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Notification(nil), r.sent...)
}

type recordingAlerter struct {
	mu     sync.Mutex
	errors []models.SimulatedError
}

func (r *recordingAlerter) Dispatch(ctx context.Context, e models.SimulatedError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, e)
}

type staticStats map[string]models.EntityStats

func (s staticStats) Stats(id string) (models.EntityStats, bool) {
	st, ok := s[id]
	return st, ok
}
