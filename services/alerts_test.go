package services

import (
	"context"
	"testing"
	"time"

	"fdeconsole/db"
	"fdeconsole/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioConfig() models.AlertConfig {
	return models.AlertConfig{Enabled: true, ErrorRateThreshold: 10, MinErrorCount: 5, CooldownMinutes: 30}
}

func TestAlertPolicy_CooldownAfterRecordedAlert(t *testing.T) {
	clock := newFakeClock()
	policy := NewAlertPolicy().WithClock(clock.Now)
	cfg := scenarioConfig()

	assert.True(t, policy.ShouldAlert("y", 15, 6, cfg))
	policy.RecordAlert("y")
	assert.False(t, policy.ShouldAlert("y", 15, 6, cfg))

	clock.Advance(29 * time.Minute)
	assert.False(t, policy.ShouldAlert("y", 15, 6, cfg))

	clock.Advance(2 * time.Minute)
	assert.True(t, policy.ShouldAlert("y", 15, 6, cfg))

	// other entities are not affected by y's cooldown
	policy.RecordAlert("y")
	assert.True(t, policy.ShouldAlert("z", 15, 6, cfg))
}

func TestAlertPolicy_Gates(t *testing.T) {
	policy := NewAlertPolicy()
	cfg := scenarioConfig()

	assert.False(t, policy.ShouldAlert("y", 5, 6, cfg), "rate below threshold")
	assert.False(t, policy.ShouldAlert("y", 15, 4, cfg), "count below floor")
	assert.True(t, policy.ShouldAlert("y", 10, 5, cfg), "thresholds are inclusive")

	disabled := cfg
	disabled.Enabled = false
	assert.False(t, policy.ShouldAlert("y", 100, 1000, disabled))
}

func TestAlertPolicy_CheckDoesNotStartCooldown(t *testing.T) {
	policy := NewAlertPolicy()
	cfg := scenarioConfig()

	for i := 0; i < 3; i++ {
		assert.True(t, policy.ShouldAlert("y", 15, 6, cfg))
	}
	_, ok := policy.LastAlert("y")
	assert.False(t, ok)
}

func TestAlertPolicy_ZeroCooldown(t *testing.T) {
	policy := NewAlertPolicy()
	cfg := scenarioConfig()
	cfg.CooldownMinutes = 0

	policy.RecordAlert("y")
	assert.True(t, policy.ShouldAlert("y", 15, 6, cfg))
}

func newTestSettings(t *testing.T) *Settings {
	t.Helper()
	return NewSettings(db.NewMemoryStore())
}

func urgentError(entityID string) models.SimulatedError {
	return models.SimulatedError{
		ID:           "err-1",
		EntityID:     entityID,
		EntityName:   entityID,
		Timestamp:    time.Now(),
		ErrorType:    "network_error",
		ErrorMessage: "Network unreachable while contacting upstream",
		Severity:     models.SeverityCritical,
	}
}

func TestSimulationAlerter_SendsWithoutCooldown(t *testing.T) {
	ctx := context.Background()
	settings := newTestSettings(t)
	require.NoError(t, settings.SetAlertConfig(ctx, "acme", scenarioConfig()))
	require.NoError(t, settings.SetChannel(ctx, "acme", models.ChannelSlack))

	slack := newRecordingNotifier()
	deliveries := NewDeliveries()
	alerter := NewSimulationAlerter(settings, Notifiers{models.ChannelSlack: slack}, deliveries, testLog).
		WithPublicURL("https://fde.example.com/")

	alerter.Dispatch(ctx, urgentError("acme"))
	alerter.Dispatch(ctx, urgentError("acme"))

	sent := slack.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, models.SeverityCritical, sent[0].Severity)
	assert.Contains(t, sent[0].Title, "network_error")
	assert.Equal(t, []models.Action{
		{Text: "Recent errors", URL: "https://fde.example.com/api/simulation/errors?entityId=acme"},
		{Text: "Delivery status", URL: "https://fde.example.com/api/entities/acme/delivery"},
	}, sent[0].Actions)
	assert.NotNil(t, deliveries.Get("acme").LastSentAt)
}

func TestSimulationAlerter_SkipsDisabledOrUnconfigured(t *testing.T) {
	ctx := context.Background()
	settings := newTestSettings(t)
	slack := newRecordingNotifier()
	alerter := NewSimulationAlerter(settings, Notifiers{models.ChannelSlack: slack}, NewDeliveries(), testLog)

	// defaults are disabled
	alerter.Dispatch(ctx, urgentError("acme"))

	require.NoError(t, settings.SetAlertConfig(ctx, "acme", scenarioConfig()))
	// enabled but no channel chosen
	alerter.Dispatch(ctx, urgentError("acme"))

	require.NoError(t, settings.SetChannel(ctx, "acme", models.ChannelEmail))
	// email chosen but not wired
	alerter.Dispatch(ctx, urgentError("acme"))

	assert.Empty(t, slack.Sent())
}

func TestSimulationAlerter_RecordsDeliveryFailure(t *testing.T) {
	ctx := context.Background()
	settings := newTestSettings(t)
	require.NoError(t, settings.SetAlertConfig(ctx, "acme", scenarioConfig()))
	require.NoError(t, settings.SetChannel(ctx, "acme", models.ChannelSlack))

	slack := newRecordingNotifier()
	slack.fail = true
	deliveries := NewDeliveries()
	alerter := NewSimulationAlerter(settings, Notifiers{models.ChannelSlack: slack}, deliveries, testLog)

	alerter.Dispatch(ctx, urgentError("acme"))

	st := deliveries.Get("acme")
	assert.Contains(t, st.LastError, "500")
	assert.NotNil(t, st.LastErrorAt)
	assert.Nil(t, st.LastSentAt)
}

func TestSettings_DefaultsAndValidation(t *testing.T) {
	ctx := context.Background()
	settings := newTestSettings(t)

	cfg, err := settings.AlertConfig(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultAlertConfig(), cfg)

	ch, err := settings.Channel(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, models.ChannelNone, ch)

	assert.Error(t, settings.SetChannel(ctx, "new", models.Channel("pager")))
	assert.Error(t, settings.SetAlertConfig(ctx, "new", models.AlertConfig{CooldownMinutes: -1}))
}

func TestSettings_CorruptConfig(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()
	require.NoError(t, store.Set(ctx, "alert-config:acme", "{not json"))

	_, err := NewSettings(store).AlertConfig(ctx, "acme")
	assert.Error(t, err)
}
