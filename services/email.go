package services

import (
	"context"
	"fmt"
	"strings"

	"fdeconsole/models"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type emailClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// EmailNotifier sends alerts through SendGrid to a single operator address.
type EmailNotifier struct {
	alertEmail string
	client     emailClient
}

func NewEmailNotifier(apiKey, alertEmail string) *EmailNotifier {
	n := &EmailNotifier{alertEmail: alertEmail}
	if apiKey != "" {
		n.client = sendgrid.NewSendClient(apiKey)
	}
	return n
}

func (e *EmailNotifier) Configured() bool {
	return e.client != nil && e.alertEmail != ""
}

func (e *EmailNotifier) Send(ctx context.Context, n models.Notification) error {
	if !e.Configured() {
		return ErrChannelNotConfigured
	}

	subject := fmt.Sprintf("[%s] %s", strings.ToUpper(string(n.Severity)), n.Title)
	body := renderEmail(n)

	from := mail.NewEmail("FDE Console", e.alertEmail)
	to := mail.NewEmail("Operator", e.alertEmail)
	message := mail.NewSingleEmail(from, subject, to, body, strings.ReplaceAll(body, "\n", "<br>"))

	resp, err := e.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d", resp.StatusCode)
	}
	return nil
}

func renderEmail(n models.Notification) string {
	var b strings.Builder
	b.WriteString(n.Title)
	b.WriteString("\n\n")
	b.WriteString(n.Message)
	b.WriteString("\n")
	if len(n.Fields) > 0 {
		b.WriteString("\nDETAILS:\n")
		for _, f := range n.Fields {
			fmt.Fprintf(&b, "%s: %s\n", f.Label, f.Value)
		}
	}
	if len(n.Actions) > 0 {
		b.WriteString("\nLINKS:\n")
		for _, a := range n.Actions {
			fmt.Fprintf(&b, "%s: %s\n", a.Text, a.URL)
		}
	}
	return b.String()
}
