package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"fdeconsole/models"
	"fdeconsole/observability"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultLogCap = 100
	rateWindow    = time.Minute
)

var (
	ErrInvalidEntity = errors.New("invalid entity")
	ErrUnknownEntity = errors.New("unknown entity")
)

type healthProfile struct {
	frequency    float64
	distribution map[models.Severity]float64
}

var healthProfiles = map[models.Health]healthProfile{
	models.HealthHealthy: {
		frequency: 0.05,
		distribution: map[models.Severity]float64{
			models.SeverityLow: 0.7, models.SeverityMedium: 0.25, models.SeverityHigh: 0.05, models.SeverityCritical: 0,
		},
	},
	models.HealthNoisy: {
		frequency: 0.25,
		distribution: map[models.Severity]float64{
			models.SeverityLow: 0.3, models.SeverityMedium: 0.4, models.SeverityHigh: 0.25, models.SeverityCritical: 0.05,
		},
	},
	models.HealthDegraded: {
		frequency: 0.5,
		distribution: map[models.Severity]float64{
			models.SeverityLow: 0.1, models.SeverityMedium: 0.3, models.SeverityHigh: 0.5, models.SeverityCritical: 0.1,
		},
	},
}

// The catalog severity is informational only; emitted severity is rolled
// from the entity's health profile.
type failureMode struct {
	errorType string
	message   string
	severity  models.Severity
	payload   func(r *rand.Rand) map[string]interface{}
}

var failureCatalog = []failureMode{
	{"auth_failure", "OAuth token expired or revoked for upstream connection", models.SeverityHigh,
		func(r *rand.Rand) map[string]interface{} {
			return map[string]interface{}{"tokenAgeHours": 24 + r.Intn(720)}
		}},
	{"rate_limit", "Upstream API rate limit exceeded (429)", models.SeverityMedium,
		func(r *rand.Rand) map[string]interface{} {
			return map[string]interface{}{"retryAfterSeconds": 5 + r.Intn(55)}
		}},
	{"mapping_error", "Field mapping failed: source field missing in payload", models.SeverityMedium,
		func(r *rand.Rand) map[string]interface{} {
			fields := []string{"account_id", "email", "amount", "currency", "external_ref"}
			return map[string]interface{}{"field": fields[r.Intn(len(fields))]}
		}},
	{"connection_timeout", "Connection to upstream timed out after 30s", models.SeverityHigh,
		func(r *rand.Rand) map[string]interface{} {
			return map[string]interface{}{"timeoutMs": 30000, "attempt": 1 + r.Intn(3)}
		}},
	{"validation_error", "Record rejected by destination schema validation", models.SeverityLow, nil},
	{"sync_conflict", "Sync conflict: record modified on both sides", models.SeverityMedium, nil},
	{"permission_denied", "Integration user lacks permission on target object", models.SeverityHigh, nil},
	{"payload_too_large", "Payload exceeds destination size limit", models.SeverityLow,
		func(r *rand.Rand) map[string]interface{} {
			return map[string]interface{}{"sizeKb": 1024 + r.Intn(4096), "limitKb": 1024}
		}},
	{"null_reference", "Null reference while transforming record", models.SeverityCritical, nil},
	{"webhook_failure", "Webhook delivery failed with non-2xx response", models.SeverityHigh,
		func(r *rand.Rand) map[string]interface{} {
			codes := []int{500, 502, 503, 504}
			return map[string]interface{}{"statusCode": codes[r.Intn(len(codes))]}
		}},
	{"duplicate_key", "Duplicate key violation on upsert", models.SeverityLow, nil},
	{"network_error", "Network unreachable while contacting upstream", models.SeverityCritical, nil},
}

// HealthForRate is the only way health is derived from activity.
func HealthForRate(errorRate int) models.Health {
	switch {
	case errorRate > 10:
		return models.HealthDegraded
	case errorRate > 5:
		return models.HealthNoisy
	default:
		return models.HealthHealthy
	}
}

// rollSeverity picks the first bucket, in fixed order, whose cumulative mass
// exceeds the draw.
func rollSeverity(dist map[models.Severity]float64, draw float64) models.Severity {
	cumulative := 0.0
	for _, s := range models.Severities {
		cumulative += dist[s]
		if draw < cumulative {
			return s
		}
	}
	// rounding left the draw past the last bucket
	for i := len(models.Severities) - 1; i >= 0; i-- {
		if dist[models.Severities[i]] > 0 {
			return models.Severities[i]
		}
	}
	return models.SeverityLow
}

// Alerter receives every high and critical error.
type Alerter interface {
	Dispatch(ctx context.Context, e models.SimulatedError)
}

type ErrorListener func(models.SimulatedError)

// Engine generates synthetic errors for a set of entities and keeps rolling
// health statistics for them.
type Engine struct {
	mu        sync.Mutex
	entities  []models.Entity
	nominal   map[string]models.Health
	stats     map[string]*models.EntityStats
	errorLog  []models.SimulatedError
	logCap    int
	listeners map[int]ErrorListener
	nextSub   int
	running   bool
	cancel    context.CancelFunc
	interval  time.Duration

	rng     *rand.Rand
	now     func() time.Time
	alerter Alerter
	async   bool
	log     logrus.FieldLogger
}

type EngineOption func(*Engine)

func WithRand(r *rand.Rand) EngineOption {
	return func(e *Engine) { e.rng = r }
}

func WithEngineClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

func WithLogCap(n int) EngineOption {
	return func(e *Engine) { e.logCap = n }
}

// WithAlerter wires the alert path. Dispatch runs on its own goroutine unless
// sync is set.
func WithAlerter(a Alerter, sync bool) EngineOption {
	return func(e *Engine) {
		e.alerter = a
		e.async = !sync
	}
}

func NewEngine(log logrus.FieldLogger, opts ...EngineOption) *Engine {
	e := &Engine{
		nominal:   make(map[string]models.Health),
		stats:     make(map[string]*models.EntityStats),
		logCap:    DefaultLogCap,
		listeners: make(map[int]ErrorListener),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		now:       time.Now,
		async:     true,
		log:       log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ValidateEntities rejects empty ids, unknown health values and duplicates.
func ValidateEntities(entities []models.Entity) error {
	if len(entities) == 0 {
		return fmt.Errorf("%w: no entities given", ErrInvalidEntity)
	}
	seen := make(map[string]bool, len(entities))
	for i, ent := range entities {
		if ent.ID == "" {
			return fmt.Errorf("%w: entity %d has no id", ErrInvalidEntity, i)
		}
		if !ent.Health.Valid() {
			return fmt.Errorf("%w: entity %s has health %q", ErrInvalidEntity, ent.ID, ent.Health)
		}
		if seen[ent.ID] {
			return fmt.Errorf("%w: duplicate entity %s", ErrInvalidEntity, ent.ID)
		}
		seen[ent.ID] = true
	}
	return nil
}

// Load registers entities without starting the scheduler. Entities seen
// before keep their accumulated stats.
func (e *Engine) Load(entities []models.Entity) error {
	if err := ValidateEntities(entities); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.entities = make([]models.Entity, len(entities))
	for i, ent := range entities {
		if ent.Name == "" {
			ent.Name = ent.ID
		}
		e.entities[i] = ent
		e.nominal[ent.ID] = ent.Health
		if _, ok := e.stats[ent.ID]; !ok {
			e.stats[ent.ID] = &models.EntityStats{EntityID: ent.ID, Health: ent.Health}
			observability.EntityHealth.WithLabelValues(ent.ID).Set(healthGauge(ent.Health))
		}
	}
	return nil
}

// Start begins periodic checks. Calling it while running is a no-op.
func (e *Engine) Start(entities []models.Entity, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("check interval must be positive, got %s", interval)
	}

	e.mu.Lock()
	running := e.running
	e.mu.Unlock()
	if running {
		return nil
	}

	if err := e.Load(entities); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.running = true
	e.cancel = cancel
	e.interval = interval
	go e.loop(ctx, interval)

	e.log.WithFields(logrus.Fields{"entities": len(e.entities), "interval": interval.String()}).Info("simulation started")
	return nil
}

// Stop halts future checks; the error log and stats are kept.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	e.cancel()
	e.running = false
	e.cancel = nil
	e.log.Info("simulation stopped")
}

func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

func (e *Engine) Interval() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.interval
}

func (e *Engine) loop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.CheckAll()
		}
	}
}

// CheckAll runs one scheduling tick over every entity in registration order.
func (e *Engine) CheckAll() {
	for _, ent := range e.Entities() {
		e.checkEntity(ent)
	}
}

func (e *Engine) Entities() []models.Entity {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.Entity, len(e.entities))
	copy(out, e.entities)
	return out
}

func (e *Engine) checkEntity(ent models.Entity) {
	defer func() {
		if r := recover(); r != nil {
			e.log.WithFields(logrus.Fields{"entity": ent.ID, "panic": r}).Error("entity check panic recovered")
		}
	}()

	simErr, ok := e.roll(ent)
	if !ok {
		return
	}

	observability.SimulatedErrors.WithLabelValues(ent.ID, string(simErr.Severity)).Inc()
	e.notify(simErr)

	if simErr.Severity.Urgent() && e.alerter != nil {
		if e.async {
			go e.alerter.Dispatch(context.Background(), simErr)
		} else {
			e.alerter.Dispatch(context.Background(), simErr)
		}
	}
}

// roll performs the random draw and, on a hit, commits the new error to the
// log and the entity's stats in one step.
func (e *Engine) roll(ent models.Entity) (models.SimulatedError, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	current, ok := e.stats[ent.ID]
	if !ok {
		return models.SimulatedError{}, false
	}
	next := *current
	next.Checks++

	// frequency and severity follow the configured health; next.Health is
	// only the derived view of recent activity
	profile := healthProfiles[e.nominal[ent.ID]]
	if e.rng.Float64() >= profile.frequency {
		*current = next
		return models.SimulatedError{}, false
	}

	now := e.now()
	mode := failureCatalog[e.rng.Intn(len(failureCatalog))]
	simErr := models.SimulatedError{
		ID:           uuid.NewString(),
		EntityID:     ent.ID,
		EntityName:   ent.Name,
		Timestamp:    now,
		ErrorType:    mode.errorType,
		ErrorMessage: mode.message,
		Severity:     rollSeverity(profile.distribution, e.rng.Float64()),
	}
	if mode.payload != nil {
		simErr.Payload = mode.payload(e.rng)
	}

	errorLog := append(e.errorLog, simErr)
	if over := len(errorLog) - e.logCap; over > 0 {
		errorLog = append([]models.SimulatedError(nil), errorLog[over:]...)
	}

	last := simErr
	next.ErrorCount++
	next.LastError = &last
	next.ErrorRate = countSince(errorLog, ent.ID, now.Add(-rateWindow))
	next.Health = HealthForRate(next.ErrorRate)

	e.errorLog = errorLog
	*current = next

	observability.EntityErrorRate.WithLabelValues(ent.ID).Set(float64(next.ErrorRate))
	observability.EntityHealth.WithLabelValues(ent.ID).Set(healthGauge(next.Health))
	return simErr, true
}

func countSince(errorLog []models.SimulatedError, entityID string, since time.Time) int {
	n := 0
	for _, e := range errorLog {
		if e.EntityID == entityID && e.Timestamp.After(since) {
			n++
		}
	}
	return n
}

func (e *Engine) notify(simErr models.SimulatedError) {
	e.mu.Lock()
	listeners := make([]ErrorListener, 0, len(e.listeners))
	for id := 0; id < e.nextSub; id++ {
		if l, ok := e.listeners[id]; ok {
			listeners = append(listeners, l)
		}
	}
	e.mu.Unlock()

	for _, l := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					e.log.WithField("panic", r).Error("error listener panic recovered")
				}
			}()
			l(simErr)
		}()
	}
}

// OnError registers a listener for every generated error and returns its
// unsubscribe function.
func (e *Engine) OnError(l ErrorListener) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextSub
	e.nextSub++
	e.listeners[id] = l

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.listeners, id)
			e.mu.Unlock()
		})
	}
}

func (e *Engine) Stats(entityID string) (models.EntityStats, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.stats[entityID]
	if !ok {
		return models.EntityStats{}, false
	}
	return cloneStats(st), true
}

// AllStats returns a snapshot per registered entity, in registration order.
func (e *Engine) AllStats() []models.EntityStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.EntityStats, 0, len(e.entities))
	for _, ent := range e.entities {
		if st, ok := e.stats[ent.ID]; ok {
			out = append(out, cloneStats(st))
		}
	}
	return out
}

// RecentErrors returns up to limit errors, newest first. limit <= 0 means all.
func (e *Engine) RecentErrors(entityID string, limit int) []models.SimulatedError {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := []models.SimulatedError{}
	for i := len(e.errorLog) - 1; i >= 0; i-- {
		if entityID != "" && e.errorLog[i].EntityID != entityID {
			continue
		}
		out = append(out, e.errorLog[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// ClearErrors drops log entries only (all of them when entityID is empty).
// Counters and health are left as they are; use ResetEntity for that.
func (e *Engine) ClearErrors(entityID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clearLocked(entityID)
}

// ResetEntity clears the entity's log entries and restores its stats to the
// nominal starting health. An empty id resets every entity.
func (e *Engine) ResetEntity(entityID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if entityID != "" {
		if _, ok := e.stats[entityID]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownEntity, entityID)
		}
	}
	e.clearLocked(entityID)
	for id := range e.stats {
		if entityID != "" && id != entityID {
			continue
		}
		health := e.nominal[id]
		e.stats[id] = &models.EntityStats{EntityID: id, Health: health}
		observability.EntityErrorRate.WithLabelValues(id).Set(0)
		observability.EntityHealth.WithLabelValues(id).Set(healthGauge(health))
	}
	return nil
}

func (e *Engine) clearLocked(entityID string) {
	if entityID == "" {
		e.errorLog = nil
		return
	}
	kept := e.errorLog[:0]
	for _, se := range e.errorLog {
		if se.EntityID != entityID {
			kept = append(kept, se)
		}
	}
	e.errorLog = kept
}

func cloneStats(st *models.EntityStats) models.EntityStats {
	c := *st
	if st.LastError != nil {
		last := *st.LastError
		c.LastError = &last
	}
	return c
}

func healthGauge(h models.Health) float64 {
	switch h {
	case models.HealthNoisy:
		return 1
	case models.HealthDegraded:
		return 2
	default:
		return 0
	}
}
