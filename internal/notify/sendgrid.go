package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// SendGridSender delivers messages through the SendGrid v3 mail API.
type SendGridSender struct {
	client *sendgrid.Client
}

// NewSendGridSender returns a sender authenticated with apiKey.
func NewSendGridSender(apiKey string) *SendGridSender {
	return &SendGridSender{client: sendgrid.NewSendClient(apiKey)}
}

// Send posts msg; any non-2xx response counts as a failure.
func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	email := mail.NewV3MailInit(
		mail.NewEmail("", msg.From),
		msg.Subject,
		mail.NewEmail("", msg.To),
		mail.NewContent("text/plain", msg.Text),
	)

	resp, err := s.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("sendgrid: unexpected status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// LogSender writes messages to the log instead of sending them.
// It is used when no provider API key is configured.
type LogSender struct {
	Log *zap.Logger
}

// Send logs msg at info level.
func (s LogSender) Send(_ context.Context, msg Message) error {
	s.Log.Info("email (not sent, no provider configured)",
		zap.String("to", msg.To),
		zap.String("from", msg.From),
		zap.String("subject", msg.Subject),
	)
	return nil
}
