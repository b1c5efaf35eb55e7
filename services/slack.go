package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"fdeconsole/models"

	"golang.org/x/time/rate"
)

var ErrRateLimited = errors.New("slack webhook rate limited")

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type slackAction struct {
	Type string `json:"type"`
	Text string `json:"text"`
	URL  string `json:"url"`
}

type slackAttachment struct {
	Color   string        `json:"color"`
	Title   string        `json:"title"`
	Text    string        `json:"text"`
	Fields  []slackField  `json:"fields,omitempty"`
	Actions []slackAction `json:"actions,omitempty"`
	Ts      int64         `json:"ts"`
}

type slackPayload struct {
	Text        string            `json:"text"`
	Attachments []slackAttachment `json:"attachments,omitempty"`
}

// SlackNotifier posts to an incoming webhook. Sends beyond the limiter's
// budget fail immediately instead of queueing.
type SlackNotifier struct {
	webhookURL string
	client     *http.Client
	limiter    *rate.Limiter
}

func NewSlackNotifier(webhookURL string, perSecond float64, burst int) *SlackNotifier {
	if burst <= 0 {
		burst = 1
	}
	return &SlackNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

func (s *SlackNotifier) Configured() bool {
	return s.webhookURL != ""
}

func (s *SlackNotifier) Send(ctx context.Context, n models.Notification) error {
	attachment := slackAttachment{
		Color: severityColor(n.Severity),
		Title: n.Title,
		Text:  n.Message,
		Ts:    time.Now().Unix(),
	}
	for _, f := range n.Fields {
		attachment.Fields = append(attachment.Fields, slackField{Title: f.Label, Value: f.Value, Short: f.Short})
	}
	for _, a := range n.Actions {
		attachment.Actions = append(attachment.Actions, slackAction{Type: "button", Text: a.Text, URL: a.URL})
	}

	return s.post(ctx, slackPayload{
		Text:        fmt.Sprintf("🚨 %s", n.Title),
		Attachments: []slackAttachment{attachment},
	})
}

// SendText is the plain proxy used by the integrations route.
func (s *SlackNotifier) SendText(ctx context.Context, text string) error {
	return s.post(ctx, slackPayload{Text: text})
}

func (s *SlackNotifier) post(ctx context.Context, payload slackPayload) error {
	if !s.Configured() {
		return ErrChannelNotConfigured
	}
	if !s.limiter.Allow() {
		return ErrRateLimited
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send slack request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("slack API error: status %d", resp.StatusCode)
	}
	return nil
}
