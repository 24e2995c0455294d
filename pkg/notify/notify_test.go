package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"github.com/noah-isme/subcover-api/pkg/config"
)

type recordingSender struct {
	emails []string
	texts  []string
}

func (r *recordingSender) SendEmail(_ context.Context, subject, recipient, _ string) error {
	r.emails = append(r.emails, recipient+"|"+subject)
	return nil
}

func (r *recordingSender) SendSMS(_ context.Context, recipient, _ string) error {
	r.texts = append(r.texts, recipient)
	return nil
}

type fakeMessages struct {
	params *openapi.CreateMessageParams
	err    error
}

func (f *fakeMessages) CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error) {
	f.params = params
	return &openapi.ApiV2010Message{}, f.err
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+15551234567", NormalizePhone("(555) 123-4567", "+1"))
	assert.Equal(t, "+445551234", NormalizePhone("+44 555 1234", "+1"))
	assert.Equal(t, "+15551234", NormalizePhone("5551234", ""))
	assert.Equal(t, "", NormalizePhone("  ", "+1"))
}

func TestComposeRoutesChannels(t *testing.T) {
	rec := &recordingSender{}
	gw := Compose(rec, nil)

	require.NoError(t, gw.SendEmail(context.Background(), "hello", "a@example.com", "body"))
	require.NoError(t, gw.SendSMS(context.Background(), "5551234", "body"))
	assert.Equal(t, []string{"a@example.com|hello"}, rec.emails)
	assert.Empty(t, rec.texts, "sms falls back to the disabled transport")
}

func TestFromConfigWithoutCredentialsIsDisabled(t *testing.T) {
	gw, err := FromConfig(&config.Config{}, zap.NewNop())
	require.NoError(t, err)
	assert.NoError(t, gw.SendEmail(context.Background(), "s", "a@example.com", "b"))
	assert.NoError(t, gw.SendSMS(context.Background(), "5551234", "b"))
}

func TestTwilioSMSBuildsParams(t *testing.T) {
	fake := &fakeMessages{}
	sms := &TwilioSMS{api: fake, from: "+15550000000", prefix: "+1"}

	require.NoError(t, sms.SendSMS(context.Background(), "555-123-4567", "covered"))
	require.NotNil(t, fake.params)
	assert.Equal(t, "+15551234567", *fake.params.To)
	assert.Equal(t, "+15550000000", *fake.params.From)
	assert.Equal(t, "covered", *fake.params.Body)

	fake.err = errors.New("rejected")
	assert.Error(t, sms.SendSMS(context.Background(), "5551234567", "x"))
}

func TestTwilioSMSHonoursCancelledContext(t *testing.T) {
	fake := &fakeMessages{}
	sms := &TwilioSMS{api: fake, from: "+15550000000"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, sms.SendSMS(ctx, "5551234567", "x"), context.Canceled)
	assert.Nil(t, fake.params)
}
