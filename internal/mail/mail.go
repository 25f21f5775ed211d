// Package mail delivers authorization emails over SMTP.
package mail

import (
	"context"
	"fmt"
	"log/slog"

	gomail "github.com/wneessen/go-mail"

	"github.com/MrJamesThe3rd/billbot/internal/draft"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	MockMode bool
}

type SMTP struct {
	cfg Config
}

func New(cfg Config) *SMTP {
	return &SMTP{cfg: cfg}
}

// Send delivers d and returns its Message-ID. In mock mode the message is
// built and logged but not sent.
func (s *SMTP) Send(ctx context.Context, d draft.Draft) (string, error) {
	msg, err := s.build(d)
	if err != nil {
		return "", err
	}

	id := messageID(msg)

	if s.cfg.MockMode {
		slog.Info("mock email", "to", d.To, "subject", d.Subject, "message_id", id)
		return id, nil
	}

	client, err := gomail.NewClient(s.cfg.Host, s.clientOptions()...)
	if err != nil {
		return "", fmt.Errorf("creating smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return "", fmt.Errorf("sending email to %s: %w", d.To, err)
	}

	return id, nil
}

func (s *SMTP) build(d draft.Draft) (*gomail.Msg, error) {
	msg := gomail.NewMsg()

	if err := msg.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", s.cfg.From, err)
	}

	if err := msg.To(d.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", d.To, err)
	}

	msg.Subject(d.Subject)
	msg.SetBodyString(gomail.TypeTextHTML, d.HTMLBody)
	msg.SetMessageID()
	msg.SetDate()

	return msg, nil
}

func (s *SMTP) clientOptions() []gomail.Option {
	opts := []gomail.Option{
		gomail.WithPort(s.cfg.Port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
	}

	if s.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password),
		)
	}

	return opts
}

func messageID(msg *gomail.Msg) string {
	if ids := msg.GetGenHeader(gomail.HeaderMessageID); len(ids) > 0 {
		return ids[0]
	}

	return ""
}
