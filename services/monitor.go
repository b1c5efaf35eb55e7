package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fdeconsole/models"
	"fdeconsole/observability"

	"github.com/sirupsen/logrus"
)

type StatsSource interface {
	Stats(entityID string) (models.EntityStats, bool)
}

type MonitorResult struct {
	EntityID     string  `json:"entityId"`
	ErrorPercent float64 `json:"errorRatePercent"`
	ErrorCount   int     `json:"errorCount"`
	Health       string  `json:"health"`
	Alerted      bool    `json:"alerted"`
	Reason       string  `json:"reason,omitempty"`
}

// Monitor is the watcher behind an open deployment view. Unlike the
// simulation alert path it goes through the AlertPolicy.
type Monitor struct {
	stats      StatsSource
	settings   *Settings
	policy     *AlertPolicy
	notifiers  Notifiers
	deliveries *Deliveries
	publicURL  string
	log        logrus.FieldLogger
}

func NewMonitor(stats StatsSource, settings *Settings, policy *AlertPolicy, notifiers Notifiers, deliveries *Deliveries, log logrus.FieldLogger) *Monitor {
	return &Monitor{
		stats:      stats,
		settings:   settings,
		policy:     policy,
		notifiers:  notifiers,
		deliveries: deliveries,
		log:        log,
	}
}

func (m *Monitor) WithPublicURL(u string) *Monitor {
	m.publicURL = u
	return m
}

// Check evaluates one entity and sends an alert when the policy allows it.
// The cooldown only starts after a successful send.
func (m *Monitor) Check(ctx context.Context, entityID string) (MonitorResult, error) {
	st, ok := m.stats.Stats(entityID)
	if !ok {
		return MonitorResult{}, fmt.Errorf("%w: %s", ErrUnknownEntity, entityID)
	}

	result := MonitorResult{
		EntityID:     entityID,
		ErrorPercent: st.ErrorPercent(),
		ErrorCount:   st.ErrorCount,
		Health:       string(st.Health),
	}

	cfg, err := m.settings.AlertConfig(ctx, entityID)
	if err != nil {
		return result, err
	}
	if !m.policy.ShouldAlert(entityID, result.ErrorPercent, result.ErrorCount, cfg) {
		observability.AlertsSuppressed.WithLabelValues(entityID).Inc()
		result.Reason = suppressReason(cfg, result)
		return result, nil
	}

	channel, err := m.settings.Channel(ctx, entityID)
	if err != nil {
		return result, err
	}
	notifier, err := m.notifiers.For(channel)
	if err != nil {
		result.Reason = "no notification channel configured"
		return result, nil
	}

	sendCtx, cancel := context.WithTimeout(ctx, alertSendTimeout)
	defer cancel()

	fields := logrus.Fields{"entity": entityID, "channel": channel, "error_percent": result.ErrorPercent}
	if err := notifier.Send(sendCtx, monitorNotification(st, result, m.publicURL)); err != nil {
		m.deliveries.Failed(entityID, err)
		observability.AlertsFailed.WithLabelValues("monitor", string(channel)).Inc()
		m.log.WithFields(fields).WithError(err).Warn("monitor alert delivery failed")
		result.Reason = "delivery failed: " + err.Error()
		return result, nil
	}

	m.policy.RecordAlert(entityID)
	m.deliveries.Sent(entityID)
	observability.AlertsSent.WithLabelValues("monitor", string(channel)).Inc()
	m.log.WithFields(fields).Info("monitor alert sent")
	result.Alerted = true
	return result, nil
}

// Watch re-checks one entity on every interval until ctx is done. A
// non-positive interval is refused and Watch returns at once.
func (m *Monitor) Watch(ctx context.Context, entityID string, interval time.Duration) {
	if interval <= 0 {
		m.log.WithFields(logrus.Fields{"entity": entityID, "interval": interval.String()}).Error("monitor interval must be positive, not watching")
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.log.WithFields(logrus.Fields{"entity": entityID, "interval": interval.String()}).Info("monitor watching")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						m.log.WithField("panic", r).Error("monitor tick panic recovered")
					}
				}()
				if _, err := m.Check(ctx, entityID); err != nil && !errors.Is(err, context.Canceled) {
					m.log.WithField("entity", entityID).WithError(err).Warn("monitor check failed")
				}
			}()
		}
	}
}

func suppressReason(cfg models.AlertConfig, r MonitorResult) string {
	switch {
	case !cfg.Enabled:
		return "alerting disabled"
	case r.ErrorPercent < cfg.ErrorRateThreshold:
		return fmt.Sprintf("error rate %.1f%% below threshold %.1f%%", r.ErrorPercent, cfg.ErrorRateThreshold)
	case r.ErrorCount < cfg.MinErrorCount:
		return fmt.Sprintf("error count %d below minimum %d", r.ErrorCount, cfg.MinErrorCount)
	default:
		return "cooldown active"
	}
}

func monitorNotification(st models.EntityStats, r MonitorResult, publicURL string) models.Notification {
	severity := models.SeverityHigh
	if st.Health == models.HealthDegraded {
		severity = models.SeverityCritical
	}
	n := models.Notification{
		Title:    fmt.Sprintf("Error rate alert for %s", st.EntityID),
		Severity: severity,
		Message: fmt.Sprintf("%.1f%% of checks are failing (%d errors, %d in the last minute).",
			r.ErrorPercent, st.ErrorCount, st.ErrorRate),
		Fields: []models.Field{
			{Label: "Entity", Value: st.EntityID, Short: true},
			{Label: "Health", Value: string(st.Health), Short: true},
			{Label: "Error rate", Value: fmt.Sprintf("%.1f%%", r.ErrorPercent), Short: true},
			{Label: "Errors", Value: fmt.Sprintf("%d", st.ErrorCount), Short: true},
		},
		Actions: entityActions(publicURL, st.EntityID),
	}
	if st.LastError != nil {
		n.Fields = append(n.Fields, models.Field{Label: "Last error", Value: st.LastError.ErrorMessage})
	}
	return n
}
