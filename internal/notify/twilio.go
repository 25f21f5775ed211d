// Package notify sends chat replies over WhatsApp.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

const whatsappPrefix = "whatsapp:"

var ErrEmptyNumber = errors.New("phone number is empty")

type Config struct {
	AccountSID string
	AuthToken  string
	From       string
	MockMode   bool
}

// messageAPI is the subset of the Twilio REST client used here.
type messageAPI interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

type Twilio struct {
	api  messageAPI
	from string
	mock bool
	now  func() time.Time
}

func NewTwilio(cfg Config) *Twilio {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})

	return &Twilio{
		api:  client.Api,
		from: cfg.From,
		mock: cfg.MockMode,
		now:  time.Now,
	}
}

// SendText delivers body to the given number and returns the message SID.
// In mock mode nothing leaves the process and a MOCK_<millis> id is returned.
func (t *Twilio) SendText(_ context.Context, to, body string) (string, error) {
	formattedTo, err := FormatWhatsApp(to)
	if err != nil {
		return "", err
	}

	if t.mock {
		sid := fmt.Sprintf("MOCK_%d", t.now().UnixMilli())
		slog.Info("mock whatsapp message", "to", formattedTo, "body", body, "sid", sid)

		return sid, nil
	}

	from, err := FormatWhatsApp(t.from)
	if err != nil {
		return "", fmt.Errorf("sender: %w", err)
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(formattedTo)
	params.SetFrom(from)
	params.SetBody(body)

	msg, err := t.api.CreateMessage(params)
	if err != nil {
		return "", fmt.Errorf("sending whatsapp message to %s: %w", formattedTo, err)
	}

	if msg.Sid == nil {
		return "", nil
	}

	return *msg.Sid, nil
}

// FormatWhatsApp adds the whatsapp: prefix when missing.
func FormatWhatsApp(number string) (string, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return "", ErrEmptyNumber
	}

	if strings.HasPrefix(number, whatsappPrefix) {
		return number, nil
	}

	return whatsappPrefix + number, nil
}
