// Package events publishes completed billing authorizations to NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/billbot/internal/billing"
)

type Config struct {
	URL     string
	Subject string
	Token   string
}

type RecordPayload struct {
	ClientName string          `json:"client_name"`
	Days       decimal.Decimal `json:"days"`
	Rate       decimal.Decimal `json:"rate"`
	Total      decimal.Decimal `json:"total"`
}

// Completion is the payload published once an authorization is sent.
type Completion struct {
	Identity    string          `json:"identity"`
	Month       string          `json:"month"`
	Year        string          `json:"year"`
	Records     []RecordPayload `json:"records"`
	GrandTotal  decimal.Decimal `json:"grand_total"`
	CompletedAt time.Time       `json:"completed_at"`
}

func NewCompletion(identity string, records []billing.Record, at time.Time) Completion {
	c := Completion{
		Identity:    identity,
		Records:     make([]RecordPayload, 0, len(records)),
		GrandTotal:  decimal.Zero,
		CompletedAt: at,
	}

	for _, r := range records {
		c.Month, c.Year = r.Month, r.Year
		c.Records = append(c.Records, RecordPayload{
			ClientName: r.ClientName,
			Days:       r.Days,
			Rate:       r.Rate,
			Total:      r.Total(),
		})
		c.GrandTotal = c.GrandTotal.Add(r.Total())
	}

	return c
}

// Publisher sends completion events. A Publisher without a connection
// discards events, so callers never need to check whether NATS is configured.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

// Noop returns a Publisher that drops every event.
func Noop() *Publisher {
	return &Publisher{}
}

// Connect dials NATS. An empty URL yields a no-op publisher.
func Connect(cfg Config) (*Publisher, error) {
	if cfg.URL == "" {
		return Noop(), nil
	}

	opts := []nats.Option{
		nats.Name("billbot"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	}

	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}

	return &Publisher{conn: nc, subject: cfg.Subject}, nil
}

func (p *Publisher) Enabled() bool {
	return p != nil && p.conn != nil
}

func (p *Publisher) PublishCompletion(_ context.Context, c Completion) error {
	if !p.Enabled() {
		return nil
	}

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding completion: %w", err)
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publishing completion: %w", err)
	}

	return nil
}

func (p *Publisher) Close() {
	if p.Enabled() {
		p.conn.Close()
	}
}
