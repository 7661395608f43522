package notification

import (
	"context"
	"fmt"
	"log"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Notifier sends account lifecycle messages. Callers treat it as
// fire-and-forget: a failed send must never fail the primary operation.
type Notifier interface {
	SendWelcome(ctx context.Context, email, name string) error
	SendCancellation(ctx context.Context, email, name string) error
}

// New returns a SendGrid-backed notifier, or a log-only notifier when no API
// key is configured so local development works without credentials.
func New(apiKey, from string) Notifier {
	if apiKey == "" {
		return &logNotifier{}
	}
	return &sendGridNotifier{apiKey: apiKey, from: from}
}

type sendGridNotifier struct {
	apiKey string
	from   string
}

func (n *sendGridNotifier) SendWelcome(ctx context.Context, email, name string) error {
	subject := "Welcome to Task Hub!"
	body := fmt.Sprintf("Welcome to the app, %s. Let us know how you found us!", name)
	return n.send(ctx, email, name, subject, body)
}

func (n *sendGridNotifier) SendCancellation(ctx context.Context, email, name string) error {
	subject := "Goodbye!"
	body := fmt.Sprintf("Thanks for using Task Hub, %s. Your account has been deleted. If there was anything we could have done better, please let us know!", name)
	return n.send(ctx, email, name, subject, body)
}

func (n *sendGridNotifier) send(ctx context.Context, email, name, subject, body string) error {
	message := mail.NewSingleEmail(
		mail.NewEmail("Task Hub", n.from),
		subject,
		mail.NewEmail(name, email),
		body,
		"",
	)
	client := sendgrid.NewSendClient(n.apiKey)
	resp, err := client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send: status %d", resp.StatusCode)
	}
	return nil
}

// logNotifier writes the would-be messages to the process log.
type logNotifier struct{}

func (n *logNotifier) SendWelcome(ctx context.Context, email, name string) error {
	log.Printf("notification (no SENDGRID_API_KEY): welcome email to %s (%s)", email, name)
	return nil
}

func (n *logNotifier) SendCancellation(ctx context.Context, email, name string) error {
	log.Printf("notification (no SENDGRID_API_KEY): cancellation email to %s (%s)", email, name)
	return nil
}
