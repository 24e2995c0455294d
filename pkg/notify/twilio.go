package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/noah-isme/subcover-api/pkg/config"
)

type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// TwilioSMS sends text messages through the Twilio REST API.
type TwilioSMS struct {
	api    messageCreator
	from   string
	prefix string
}

// NewTwilioSMS builds an SMS sender from account credentials.
func NewTwilioSMS(cfg config.SMSConfig) *TwilioSMS {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &TwilioSMS{api: client.Api, from: cfg.FromNumber, prefix: cfg.DefaultPrefix}
}

// SendSMS implements SMSSender. The Twilio client has no context support, so
// ctx is only checked before the call.
func (t *TwilioSMS) SendSMS(ctx context.Context, recipient, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	to := NormalizePhone(recipient, t.prefix)
	if to == "" {
		return fmt.Errorf("empty sms recipient")
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(t.from)
	params.SetBody(body)

	if _, err := t.api.CreateMessage(params); err != nil {
		return fmt.Errorf("send sms to %s: %w", to, err)
	}
	return nil
}

// NormalizePhone strips formatting and prepends prefix to numbers that are not
// already in international form.
func NormalizePhone(raw, prefix string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	var b strings.Builder
	for i, r := range trimmed {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if strings.HasPrefix(digits, "+") {
		return digits
	}
	if prefix == "" {
		prefix = "+1"
	}
	return prefix + digits
}
