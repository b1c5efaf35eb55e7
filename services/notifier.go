package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"fdeconsole/models"
)

var ErrChannelNotConfigured = errors.New("notification channel not configured")

// Notifier delivers a fully formed alert to one outbound channel.
type Notifier interface {
	Send(ctx context.Context, n models.Notification) error
	Configured() bool
}

// Notifiers resolves a channel name to its sender.
type Notifiers map[models.Channel]Notifier

func (n Notifiers) For(channel models.Channel) (Notifier, error) {
	if channel == models.ChannelNone || channel == "" {
		return nil, ErrChannelNotConfigured
	}
	notifier, ok := n[channel]
	if !ok || notifier == nil || !notifier.Configured() {
		return nil, fmt.Errorf("%w: %s", ErrChannelNotConfigured, channel)
	}
	return notifier, nil
}

func severityColor(s models.Severity) string {
	switch s {
	case models.SeverityCritical:
		return "#d32f2f"
	case models.SeverityHigh:
		return "#f57c00"
	case models.SeverityMedium:
		return "#fbc02d"
	default:
		return "#1976d2"
	}
}

// entityActions links an alert back to the console views for the entity.
// Without a public URL there is nothing to link to.
func entityActions(publicURL, entityID string) []models.Action {
	if publicURL == "" {
		return nil
	}
	base := strings.TrimRight(publicURL, "/")
	return []models.Action{
		{Text: "Recent errors", URL: base + "/api/simulation/errors?entityId=" + url.QueryEscape(entityID)},
		{Text: "Delivery status", URL: base + "/api/entities/" + url.PathEscape(entityID) + "/delivery"},
	}
}

func errorNotification(e models.SimulatedError, publicURL string) models.Notification {
	return models.Notification{
		Title:    fmt.Sprintf("[%s] %s on %s", e.Severity, e.ErrorType, e.EntityName),
		Severity: e.Severity,
		Message:  e.ErrorMessage,
		Fields: []models.Field{
			{Label: "Entity", Value: e.EntityID, Short: true},
			{Label: "Severity", Value: string(e.Severity), Short: true},
			{Label: "Error type", Value: e.ErrorType, Short: true},
			{Label: "Time", Value: e.Timestamp.UTC().Format("2006-01-02T15:04:05Z"), Short: true},
			{Label: "Error ID", Value: e.ID},
		},
		Actions: entityActions(publicURL, e.EntityID),
	}
}
