package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"fdeconsole/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type webhookSink struct {
	mu       sync.Mutex
	payloads []slackPayload
	status   int
}

func (w *webhookSink) handler(t *testing.T) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var p slackPayload
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		w.mu.Lock()
		w.payloads = append(w.payloads, p)
		status := w.status
		w.mu.Unlock()
		if status == 0 {
			status = http.StatusOK
		}
		rw.WriteHeader(status)
	}
}

func TestSlackNotifier_PostsAttachment(t *testing.T) {
	sink := &webhookSink{}
	srv := httptest.NewServer(sink.handler(t))
	defer srv.Close()

	slack := NewSlackNotifier(srv.URL, 10, 5)
	err := slack.Send(context.Background(), models.Notification{
		Title:    "Error rate alert for acme",
		Severity: models.SeverityCritical,
		Message:  "20% of checks are failing",
		Fields:   []models.Field{{Label: "Entity", Value: "acme", Short: true}},
		Actions:  []models.Action{{Text: "Open", URL: "http://localhost/acme"}},
	})
	require.NoError(t, err)

	require.Len(t, sink.payloads, 1)
	p := sink.payloads[0]
	assert.Contains(t, p.Text, "Error rate alert for acme")
	require.Len(t, p.Attachments, 1)
	a := p.Attachments[0]
	assert.Equal(t, "#d32f2f", a.Color)
	assert.Equal(t, []slackField{{Title: "Entity", Value: "acme", Short: true}}, a.Fields)
	assert.Equal(t, "button", a.Actions[0].Type)
}

func TestSlackNotifier_NotConfigured(t *testing.T) {
	slack := NewSlackNotifier("", 1, 1)
	assert.False(t, slack.Configured())
	assert.ErrorIs(t, slack.SendText(context.Background(), "hi"), ErrChannelNotConfigured)
}

func TestSlackNotifier_ErrorStatus(t *testing.T) {
	sink := &webhookSink{status: http.StatusInternalServerError}
	srv := httptest.NewServer(sink.handler(t))
	defer srv.Close()

	err := NewSlackNotifier(srv.URL, 10, 5).SendText(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestSlackNotifier_RateLimited(t *testing.T) {
	sink := &webhookSink{}
	srv := httptest.NewServer(sink.handler(t))
	defer srv.Close()

	// a near-zero refill means only the burst gets through
	slack := NewSlackNotifier(srv.URL, 0.0001, 2)
	ctx := context.Background()
	require.NoError(t, slack.SendText(ctx, "one"))
	require.NoError(t, slack.SendText(ctx, "two"))
	assert.ErrorIs(t, slack.SendText(ctx, "three"), ErrRateLimited)
	assert.Len(t, sink.payloads, 2)
}
