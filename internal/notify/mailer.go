package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v2"
)

var ErrSenderNotConfigured = errors.New("email sender not configured")

type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

type Mailer interface {
	Send(ctx context.Context, m Message) error
}

type emailSender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendMailer delivers mail through the Resend API.
type ResendMailer struct {
	emails emailSender
	from   string
}

func NewResendMailer(apiKey, senderEmail, storeName string) *ResendMailer {
	return newResendMailer(resend.NewClient(apiKey).Emails, senderEmail, storeName)
}

func newResendMailer(emails emailSender, senderEmail, storeName string) *ResendMailer {
	from := ""
	if senderEmail != "" {
		from = fmt.Sprintf("%s <%s>", storeName, senderEmail)
	}
	return &ResendMailer{emails: emails, from: from}
}

func (m *ResendMailer) Send(ctx context.Context, msg Message) error {
	if m.from == "" {
		return ErrSenderNotConfigured
	}
	_, err := m.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	return nil
}
