// Package notify delivers plain-text notifications over email and SMS.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/subcover-api/pkg/config"
)

// Channel names a delivery channel.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// EmailSender delivers one email.
type EmailSender interface {
	SendEmail(ctx context.Context, subject, recipient, body string) error
}

// SMSSender delivers one text message.
type SMSSender interface {
	SendSMS(ctx context.Context, recipient, body string) error
}

// Gateway is the notification capability handed to the dispatcher.
type Gateway interface {
	EmailSender
	SMSSender
}

// Disabled accepts and drops every message.
type Disabled struct{}

// SendEmail implements EmailSender.
func (Disabled) SendEmail(context.Context, string, string, string) error { return nil }

// SendSMS implements SMSSender.
func (Disabled) SendSMS(context.Context, string, string) error { return nil }

type composite struct {
	email EmailSender
	sms   SMSSender
}

// Compose joins an email and an SMS transport. A nil transport is disabled.
func Compose(email EmailSender, sms SMSSender) Gateway {
	if email == nil {
		email = Disabled{}
	}
	if sms == nil {
		sms = Disabled{}
	}
	return composite{email: email, sms: sms}
}

func (c composite) SendEmail(ctx context.Context, subject, recipient, body string) error {
	return c.email.SendEmail(ctx, subject, recipient, body)
}

func (c composite) SendSMS(ctx context.Context, recipient, body string) error {
	return c.sms.SendSMS(ctx, recipient, body)
}

// FromConfig wires the transports that have credentials and disables the rest.
func FromConfig(cfg *config.Config, logger *zap.Logger) (Gateway, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var email EmailSender
	if cfg.Mail.Host != "" {
		mailer, err := NewSMTPMailer(cfg.Mail)
		if err != nil {
			return nil, err
		}
		email = mailer
	} else {
		logger.Warn("mail server not configured, email notifications disabled")
	}

	var sms SMSSender
	if cfg.SMS.AccountSID != "" && cfg.SMS.AuthToken != "" && cfg.SMS.FromNumber != "" {
		sms = NewTwilioSMS(cfg.SMS)
	} else {
		logger.Warn("twilio credentials not configured, sms notifications disabled")
	}

	return Compose(email, sms), nil
}
