package models

import (
	"time"
)

type JobType string

const (
	JobBackfill     JobType = "backfill"
	JobReplayEvents JobType = "replay_events"
	JobCreatePR     JobType = "create_pr"
)

func (t JobType) Valid() bool {
	switch t {
	case JobBackfill, JobReplayEvents, JobCreatePR:
		return true
	}
	return false
}

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Terminal reports whether a job in this status can still move.
func (s JobStatus) Terminal() bool {
	return s == JobSucceeded || s == JobFailed
}

type Job struct {
	ID         string                 `json:"id"`
	Type       JobType                `json:"type"`
	Status     JobStatus              `json:"status"`
	EntityID   string                 `json:"entityId"`
	StartedAt  time.Time              `json:"startedAt"`
	FinishedAt *time.Time             `json:"finishedAt,omitempty"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Severities is the fixed order used when bucketing a severity roll.
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

func (s Severity) Urgent() bool {
	return s == SeverityHigh || s == SeverityCritical
}

type Health string

const (
	HealthHealthy  Health = "healthy"
	HealthNoisy    Health = "noisy"
	HealthDegraded Health = "degraded"
)

func (h Health) Valid() bool {
	switch h {
	case HealthHealthy, HealthNoisy, HealthDegraded:
		return true
	}
	return false
}

// Entity is a monitored deployment / integration target.
type Entity struct {
	ID     string `json:"id" mapstructure:"id"`
	Name   string `json:"name" mapstructure:"name"`
	Health Health `json:"health" mapstructure:"health"`
}

type SimulatedError struct {
	ID           string                 `json:"id"`
	EntityID     string                 `json:"entityId"`
	EntityName   string                 `json:"entityName"`
	Timestamp    time.Time              `json:"timestamp"`
	ErrorType    string                 `json:"errorType"`
	ErrorMessage string                 `json:"errorMessage"`
	Severity     Severity               `json:"severity"`
	Payload      map[string]interface{} `json:"payload,omitempty"`
}

type EntityStats struct {
	EntityID   string          `json:"entityId"`
	ErrorCount int             `json:"errorCount"`
	ErrorRate  int             `json:"errorRate"` // errors in the trailing minute
	Checks     int             `json:"checks"`
	LastError  *SimulatedError `json:"lastError,omitempty"`
	Health     Health          `json:"health"`
}

// ErrorPercent is the share of checks that produced an error.
func (s EntityStats) ErrorPercent() float64 {
	if s.Checks == 0 {
		return 0
	}
	return float64(s.ErrorCount) / float64(s.Checks) * 100
}

type AlertConfig struct {
	Enabled            bool    `json:"enabled"`
	ErrorRateThreshold float64 `json:"errorRateThreshold"`
	MinErrorCount      int     `json:"minErrorCount"`
	CooldownMinutes    int     `json:"cooldownMinutes"`
}

func DefaultAlertConfig() AlertConfig {
	return AlertConfig{
		Enabled:            false,
		ErrorRateThreshold: 10,
		MinErrorCount:      5,
		CooldownMinutes:    30,
	}
}

type Channel string

const (
	ChannelNone  Channel = "none"
	ChannelSlack Channel = "slack"
	ChannelEmail Channel = "email"
)

func (c Channel) Valid() bool {
	switch c {
	case ChannelNone, ChannelSlack, ChannelEmail:
		return true
	}
	return false
}

type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Short bool   `json:"short,omitempty"`
}

type Action struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// Notification is the structured alert handed to a notification sender.
type Notification struct {
	Title    string   `json:"title"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Fields   []Field  `json:"fields,omitempty"`
	Actions  []Action `json:"actions,omitempty"`
}

type DeliveryStatus struct {
	EntityID    string     `json:"entityId"`
	LastSentAt  *time.Time `json:"lastSentAt,omitempty"`
	LastError   string     `json:"lastError,omitempty"`
	LastErrorAt *time.Time `json:"lastErrorAt,omitempty"`
}
