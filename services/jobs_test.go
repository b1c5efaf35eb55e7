package services

import (
	"sync"
	"testing"
	"time"

	"fdeconsole/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJobStore() (*JobStore, *fakeClock) {
	clock := newFakeClock()
	return NewJobStore(testLog).WithClock(clock.Now), clock
}

func TestJobStore_TickLifecycle(t *testing.T) {
	store, clock := newTestJobStore()

	job, err := store.Create(models.JobBackfill, "acme", map[string]interface{}{"count": 123})
	require.NoError(t, err)
	assert.Equal(t, models.JobQueued, job.Status)
	assert.Nil(t, job.FinishedAt)
	assert.Equal(t, clock.Now(), job.StartedAt)

	updated := store.Tick()
	require.Len(t, updated, 1)
	assert.Equal(t, models.JobRunning, updated[0].Status)
	assert.Nil(t, updated[0].FinishedAt)

	clock.Advance(2 * time.Second)
	updated = store.Tick()
	require.Len(t, updated, 1)
	assert.Equal(t, models.JobSucceeded, updated[0].Status)
	require.NotNil(t, updated[0].FinishedAt)
	assert.Equal(t, clock.Now(), *updated[0].FinishedAt)
	assert.Equal(t, 123, updated[0].Meta["processed"])

	assert.Empty(t, store.Tick())

	got, ok := store.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, models.JobSucceeded, got.Status)
}

func TestJobStore_OneStepPerTick(t *testing.T) {
	store, _ := newTestJobStore()

	first, _ := store.Create(models.JobReplayEvents, "acme", nil)
	store.Tick()
	second, _ := store.Create(models.JobReplayEvents, "acme", nil)

	updated := store.Tick()
	require.Len(t, updated, 2)

	byID := map[string]models.Job{}
	for _, j := range updated {
		byID[j.ID] = j
	}
	assert.Equal(t, models.JobSucceeded, byID[first.ID].Status)
	assert.Equal(t, models.JobRunning, byID[second.ID].Status)
}

func TestJobStore_FinishedAtOnlyWhenTerminal(t *testing.T) {
	store, _ := newTestJobStore()
	for i := 0; i < 5; i++ {
		_, err := store.Create(models.JobCreatePR, "globex", nil)
		require.NoError(t, err)
		store.Tick()
	}

	for _, j := range store.List("") {
		assert.Equal(t, j.Status.Terminal(), j.FinishedAt != nil, "job %s in %s", j.ID, j.Status)
	}
}

func TestJobStore_ListFilter(t *testing.T) {
	store, _ := newTestJobStore()
	store.Create(models.JobBackfill, "acme", nil)
	store.Create(models.JobBackfill, "globex", nil)
	store.Create(models.JobReplayEvents, "acme", nil)

	acme := store.List("acme")
	require.Len(t, acme, 2)
	for _, j := range acme {
		assert.Equal(t, "acme", j.EntityID)
	}
	assert.Len(t, store.List(""), 3)
	assert.Empty(t, store.List("nobody"))
}

func TestJobStore_IDsIncrease(t *testing.T) {
	store, _ := newTestJobStore()
	a, _ := store.Create(models.JobBackfill, "acme", nil)
	b, _ := store.Create(models.JobBackfill, "acme", nil)
	assert.Equal(t, "job_1", a.ID)
	assert.Equal(t, "job_2", b.ID)
}

func TestJobStore_UnknownTypeAndID(t *testing.T) {
	store, _ := newTestJobStore()

	_, err := store.Create(models.JobType("deploy"), "acme", nil)
	assert.Error(t, err)

	_, ok := store.Get("job_404")
	assert.False(t, ok)
}

func TestJobStore_ReturnsCopies(t *testing.T) {
	store, _ := newTestJobStore()
	meta := map[string]interface{}{"count": 1}
	job, _ := store.Create(models.JobBackfill, "acme", meta)

	meta["count"] = 99
	job.Meta["count"] = 42

	got, _ := store.Get(job.ID)
	assert.Equal(t, 1, got.Meta["count"])
}

func TestJobStore_ConcurrentTicksNeverDoubleAdvance(t *testing.T) {
	store, _ := newTestJobStore()
	for i := 0; i < 50; i++ {
		store.Create(models.JobBackfill, "acme", nil)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	transitions := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n := len(store.Tick())
			mu.Lock()
			transitions += n
			mu.Unlock()
		}()
	}
	wg.Wait()

	// 50 jobs can move at most twice each, and 8 ticks are enough to finish them all
	assert.Equal(t, 100, transitions)
	for _, j := range store.List("") {
		assert.Equal(t, models.JobSucceeded, j.Status)
	}
}

func TestSortByStartedDesc(t *testing.T) {
	store, clock := newTestJobStore()
	a, _ := store.Create(models.JobBackfill, "acme", nil)
	clock.Advance(time.Minute)
	b, _ := store.Create(models.JobBackfill, "acme", nil)

	jobs := store.List("")
	SortByStartedDesc(jobs)
	assert.Equal(t, []string{b.ID, a.ID}, []string{jobs[0].ID, jobs[1].ID})
}
