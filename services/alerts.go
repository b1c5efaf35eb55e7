package services

import (
	"context"
	"sync"
	"time"

	"fdeconsole/models"
	"fdeconsole/observability"

	"github.com/sirupsen/logrus"
)

const alertSendTimeout = 10 * time.Second

// AlertPolicy gates monitor alerts on threshold, floor and a per-entity
// cooldown. Recording a send is a separate call so failed deliveries never
// start a cooldown.
type AlertPolicy struct {
	mu        sync.Mutex
	lastAlert map[string]time.Time
	now       func() time.Time
}

func NewAlertPolicy() *AlertPolicy {
	return &AlertPolicy{
		lastAlert: make(map[string]time.Time),
		now:       time.Now,
	}
}

func (p *AlertPolicy) WithClock(now func() time.Time) *AlertPolicy {
	p.now = now
	return p
}

func (p *AlertPolicy) ShouldAlert(entityID string, errorRatePercent float64, errorCount int, cfg models.AlertConfig) bool {
	if !cfg.Enabled {
		return false
	}
	if errorRatePercent < cfg.ErrorRateThreshold {
		return false
	}
	if errorCount < cfg.MinErrorCount {
		return false
	}

	p.mu.Lock()
	last, ok := p.lastAlert[entityID]
	p.mu.Unlock()
	if !ok {
		return true
	}
	return p.now().Sub(last) >= time.Duration(cfg.CooldownMinutes)*time.Minute
}

func (p *AlertPolicy) RecordAlert(entityID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastAlert[entityID] = p.now()
}

func (p *AlertPolicy) LastAlert(entityID string) (time.Time, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.lastAlert[entityID]
	return t, ok
}

// Deliveries remembers the outcome of the latest alert delivery per entity.
type Deliveries struct {
	mu     sync.Mutex
	status map[string]models.DeliveryStatus
	now    func() time.Time
}

func NewDeliveries() *Deliveries {
	return &Deliveries{status: make(map[string]models.DeliveryStatus), now: time.Now}
}

func (d *Deliveries) Sent(entityID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	st := d.status[entityID]
	st.EntityID = entityID
	t := d.now()
	st.LastSentAt = &t
	d.status[entityID] = st
}

func (d *Deliveries) Failed(entityID string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	st := d.status[entityID]
	st.EntityID = entityID
	t := d.now()
	st.LastError = err.Error()
	st.LastErrorAt = &t
	d.status[entityID] = st
}

func (d *Deliveries) Get(entityID string) models.DeliveryStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	st, ok := d.status[entityID]
	if !ok {
		return models.DeliveryStatus{EntityID: entityID}
	}
	return st
}

// SimulationAlerter is the engine's alert path: every high or critical error
// is sent when the entity has alerting enabled and a channel configured. It
// does not consult the AlertPolicy cooldown.
type SimulationAlerter struct {
	publicURL  string
	settings   *Settings
	notifiers  Notifiers
	deliveries *Deliveries
	log        logrus.FieldLogger
}

func NewSimulationAlerter(settings *Settings, notifiers Notifiers, deliveries *Deliveries, log logrus.FieldLogger) *SimulationAlerter {
	return &SimulationAlerter{
		settings:   settings,
		notifiers:  notifiers,
		deliveries: deliveries,
		log:        log,
	}
}

// WithPublicURL sets the console base URL used for links in alerts.
func (a *SimulationAlerter) WithPublicURL(u string) *SimulationAlerter {
	a.publicURL = u
	return a
}

// Dispatch never returns an error; failures are logged and recorded.
func (a *SimulationAlerter) Dispatch(ctx context.Context, e models.SimulatedError) {
	defer func() {
		if r := recover(); r != nil {
			a.log.WithField("panic", r).Error("simulation alert panic recovered")
		}
	}()

	fields := logrus.Fields{"entity": e.EntityID, "error_id": e.ID, "severity": e.Severity}

	cfg, err := a.settings.AlertConfig(ctx, e.EntityID)
	if err != nil {
		a.log.WithFields(fields).WithError(err).Warn("alert config unavailable")
		return
	}
	if !cfg.Enabled {
		return
	}

	channel, err := a.settings.Channel(ctx, e.EntityID)
	if err != nil {
		a.log.WithFields(fields).WithError(err).Warn("alert channel unavailable")
		return
	}
	notifier, err := a.notifiers.For(channel)
	if err != nil {
		a.log.WithFields(fields).Debug("alert skipped: no channel configured")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, alertSendTimeout)
	defer cancel()

	if err := notifier.Send(ctx, errorNotification(e, a.publicURL)); err != nil {
		a.deliveries.Failed(e.EntityID, err)
		observability.AlertsFailed.WithLabelValues("simulation", string(channel)).Inc()
		a.log.WithFields(fields).WithError(err).Warn("simulation alert delivery failed")
		return
	}
	a.deliveries.Sent(e.EntityID)
	observability.AlertsSent.WithLabelValues("simulation", string(channel)).Inc()
	a.log.WithFields(fields).Info("simulation alert sent")
}
