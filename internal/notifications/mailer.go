package notifications

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/subtrackr/subtrackr-backend/pkg/config"
)

// Mailer delivers reminder emails. The cron worker swaps in a no-op mailer
// when no API key is configured.
type Mailer interface {
	SendReminderEmail(ctx context.Context, input ReminderEmail) error
}

// ReminderEmail carries everything needed to render a renewal reminder.
type ReminderEmail struct {
	ToEmail          string
	ToName           string
	SubscriptionName string
	ReminderType     string
	RenewalDate      string
}

type sendgridMailer struct {
	client   *sendgrid.Client
	from     string
	fromName string
}

// NewSendgridMailer builds a mailer backed by the SendGrid v3 API.
func NewSendgridMailer(cfg config.SendgridConfig) (Mailer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("sendgrid api key required")
	}
	if cfg.DefaultFrom == "" {
		return nil, fmt.Errorf("sendgrid from address required")
	}
	return &sendgridMailer{
		client:   sendgrid.NewSendClient(cfg.APIKey),
		from:     cfg.DefaultFrom,
		fromName: cfg.FromName,
	}, nil
}

func (m *sendgridMailer) SendReminderEmail(ctx context.Context, input ReminderEmail) error {
	from := mail.NewEmail(m.fromName, m.from)
	to := mail.NewEmail(input.ToName, input.ToEmail)
	subject := fmt.Sprintf("Renewal reminder: %s", input.SubscriptionName)

	plainContent := fmt.Sprintf("Your subscription '%s' renews on %s (%s).",
		input.SubscriptionName, input.RenewalDate, input.ReminderType)
	htmlContent := fmt.Sprintf("<p>Your subscription '<strong>%s</strong>' renews on %s (%s).</p>",
		input.SubscriptionName, input.RenewalDate, input.ReminderType)

	message := mail.NewSingleEmail(from, subject, to, plainContent, htmlContent)
	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid rejected reminder email: status %d", response.StatusCode)
	}
	return nil
}

type noopMailer struct{}

// NewNoopMailer returns a mailer that silently drops email. Used when email
// delivery is not configured.
func NewNoopMailer() Mailer {
	return noopMailer{}
}

func (noopMailer) SendReminderEmail(context.Context, ReminderEmail) error { return nil }
