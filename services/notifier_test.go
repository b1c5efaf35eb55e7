package services

import (
	"testing"

	"fdeconsole/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityActions(t *testing.T) {
	assert.Nil(t, entityActions("", "acme"))

	actions := entityActions("http://console.local", "acme/eu west")
	require.Len(t, actions, 2)
	assert.Equal(t, "http://console.local/api/simulation/errors?entityId=acme%2Feu+west", actions[0].URL)
	assert.Equal(t, "http://console.local/api/entities/acme%2Feu%20west/delivery", actions[1].URL)
}

func TestNotifiers_For(t *testing.T) {
	slack := newRecordingNotifier()
	unwired := newRecordingNotifier()
	unwired.configured = false
	n := Notifiers{models.ChannelSlack: slack, models.ChannelEmail: unwired}

	got, err := n.For(models.ChannelSlack)
	require.NoError(t, err)
	assert.Same(t, slack, got)

	_, err = n.For(models.ChannelNone)
	assert.ErrorIs(t, err, ErrChannelNotConfigured)
	_, err = n.For(models.ChannelEmail)
	assert.ErrorIs(t, err, ErrChannelNotConfigured)
}
