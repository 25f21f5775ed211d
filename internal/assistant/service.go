// Package assistant runs chat turns end to end: it serializes access to a
// conversation, drives the engine and carries out the resulting side effects.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/MrJamesThe3rd/billbot/internal/billing"
	"github.com/MrJamesThe3rd/billbot/internal/conversation"
	"github.com/MrJamesThe3rd/billbot/internal/draft"
	"github.com/MrJamesThe3rd/billbot/internal/events"
	"github.com/MrJamesThe3rd/billbot/internal/metrics"
)

// Notifier delivers chat replies.
type Notifier interface {
	SendText(ctx context.Context, to, body string) (string, error)
}

// Mailer delivers the authorization email.
type Mailer interface {
	Send(ctx context.Context, d draft.Draft) (string, error)
}

type Publisher interface {
	PublishCompletion(ctx context.Context, c events.Completion) error
}

type Service struct {
	repo      conversation.Repository
	engine    *conversation.Engine
	mailer    Mailer
	notifier  Notifier
	publisher Publisher
	now       func() time.Time
}

func NewService(
	repo conversation.Repository,
	engine *conversation.Engine,
	mailer Mailer,
	notifier Notifier,
	publisher Publisher,
) *Service {
	return &Service{
		repo:      repo,
		engine:    engine,
		mailer:    mailer,
		notifier:  notifier,
		publisher: publisher,
		now:       time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// SubmitMessage handles one inbound message. A storage failure aborts the
// turn and is returned without any reply being sent.
func (s *Service) SubmitMessage(ctx context.Context, sender, text string) error {
	identity, err := conversation.CanonicalIdentity(sender)
	if err != nil {
		return err
	}

	turn, err := s.repo.BeginTurn(ctx, identity)
	if err != nil {
		return fmt.Errorf("beginning turn: %w", err)
	}
	defer turn.Rollback()

	now := s.now()

	conv, err := s.load(ctx, turn, identity, now)
	if err != nil {
		return err
	}

	res := s.engine.HandleTurn(ctx, conv, text)

	var persisted []billing.Record
	if !res.Effects.Empty() {
		persisted, err = s.execute(ctx, turn, res.Effects)
		if err != nil {
			slog.Error("completing authorization", "identity", identity, "error", err)
			res = conversation.DeliveryFailed(conv)
		}
	}

	res.Conversation.LastUpdated = now

	if err := turn.Save(ctx, res.Conversation); err != nil {
		return fmt.Errorf("saving conversation: %w", err)
	}

	if err := turn.Commit(); err != nil {
		return fmt.Errorf("committing turn: %w", err)
	}

	metrics.RecordsPersistedTotal.Add(float64(len(persisted)))

	slog.Info("turn handled",
		"identity", identity,
		"from", conv.State,
		"to", res.Conversation.State,
		"records", len(persisted),
	)
	metrics.RecordTurn(string(conv.State), string(res.Conversation.State))

	if len(persisted) > 0 {
		s.publish(ctx, identity, persisted, now)
	}

	s.reply(ctx, identity, res.Reply)

	return nil
}

// StartCycle resets the recipient's conversation and sends the opening prompt.
func (s *Service) StartCycle(ctx context.Context, recipient string) error {
	identity, err := conversation.CanonicalIdentity(recipient)
	if err != nil {
		return err
	}

	turn, err := s.repo.BeginTurn(ctx, identity)
	if err != nil {
		return fmt.Errorf("beginning turn: %w", err)
	}
	defer turn.Rollback()

	now := s.now()

	conv, err := s.load(ctx, turn, identity, now)
	if err != nil {
		return err
	}

	res := s.engine.Start(conv)
	res.Conversation.LastUpdated = now

	if err := turn.Save(ctx, res.Conversation); err != nil {
		return fmt.Errorf("saving conversation: %w", err)
	}

	if err := turn.Commit(); err != nil {
		return fmt.Errorf("committing turn: %w", err)
	}

	slog.Info("billing cycle started", "identity", identity)
	s.reply(ctx, identity, res.Reply)

	return nil
}

// ExpireSessions deletes conversations idle for longer than maxIdle.
func (s *Service) ExpireSessions(ctx context.Context, maxIdle time.Duration) (int64, error) {
	n, err := s.repo.DeleteOlderThan(ctx, s.now().Add(-maxIdle))
	if err != nil {
		return 0, fmt.Errorf("expiring sessions: %w", err)
	}

	metrics.ConversationsSweptTotal.Add(float64(n))

	return n, nil
}

func (s *Service) ResetAll(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("resetting sessions: %w", err)
	}

	metrics.ConversationsSweptTotal.Add(float64(n))

	return n, nil
}

func (s *Service) ActiveSessions(ctx context.Context) (int64, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting sessions: %w", err)
	}

	metrics.ActiveConversations.Set(float64(n))

	return n, nil
}

func (s *Service) load(ctx context.Context, turn conversation.TurnTx, identity string, now time.Time) (conversation.Conversation, error) {
	conv, err := turn.Get(ctx)
	if errors.Is(err, conversation.ErrNotFound) {
		return conversation.New(identity, now), nil
	}

	if err != nil {
		return conversation.Conversation{}, fmt.Errorf("loading conversation: %w", err)
	}

	return conv, nil
}

// execute sends the email first and only then writes the records through the
// turn, so they commit together with the COMPLETED state or not at all.
func (s *Service) execute(ctx context.Context, turn conversation.TurnTx, effects conversation.Effects) ([]billing.Record, error) {
	if effects.Email != nil {
		id, err := s.mailer.Send(ctx, *effects.Email)
		if err != nil {
			metrics.RecordEffectFailure("email")
			return nil, fmt.Errorf("sending email: %w", err)
		}

		slog.Info("authorization email sent", "to", effects.Email.To, "message_id", id)
	}

	if len(effects.Records) == 0 {
		return nil, nil
	}

	records := slices.Clone(effects.Records)
	if err := turn.CreateRecords(ctx, records); err != nil {
		metrics.RecordEffectFailure("records")
		return nil, fmt.Errorf("persisting records: %w", err)
	}

	return records, nil
}

func (s *Service) publish(ctx context.Context, identity string, records []billing.Record, at time.Time) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.PublishCompletion(ctx, events.NewCompletion(identity, records, at)); err != nil {
		slog.Error("publishing completion event", "identity", identity, "error", err)
	}
}

func (s *Service) reply(ctx context.Context, identity, text string) {
	id, err := s.notifier.SendText(ctx, identity, text)
	if err != nil {
		slog.Error("sending reply", "identity", identity, "error", err)
		metrics.RecordNotification(false)

		return
	}

	metrics.RecordNotification(true)
	slog.Debug("reply sent", "identity", identity, "delivery_id", id)
}
