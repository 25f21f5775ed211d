package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/billbot/internal/billing"
	billingstore "github.com/MrJamesThe3rd/billbot/internal/billing/store"
	"github.com/MrJamesThe3rd/billbot/internal/conversation"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// turnLockKey maps an identity to a Postgres advisory lock key. The prefix
// keeps conversation locks apart from any other advisory lock user.
func turnLockKey(identity string) int64 {
	h := fnv.New64a()
	h.Write([]byte("conversation"))
	h.Write([]byte{0})
	h.Write([]byte(identity))

	return int64(h.Sum64())
}

type turnTx struct {
	tx       *sql.Tx
	identity string
}

func (s *Store) BeginTurn(ctx context.Context, identity string) (conversation.TurnTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning turn tx: %w", err)
	}

	if _, err := dbTx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", turnLockKey(identity)); err != nil {
		dbTx.Rollback()
		return nil, fmt.Errorf("acquiring turn lock: %w", err)
	}

	return &turnTx{tx: dbTx, identity: identity}, nil
}

func (t *turnTx) Commit() error   { return t.tx.Commit() }
func (t *turnTx) Rollback() error { return t.tx.Rollback() }

func (t *turnTx) Get(ctx context.Context) (conversation.Conversation, error) {
	query := `
		SELECT identity, state, month, year, project_ids, project_cursor, lines, created_at, last_updated
		FROM conversations
		WHERE identity = $1
	`

	var (
		c         conversation.Conversation
		state     string
		idsJSON   []byte
		linesJSON []byte
		month, yr sql.NullString
	)

	err := t.tx.QueryRowContext(ctx, query, t.identity).Scan(
		&c.Identity, &state, &month, &yr, &idsJSON, &c.Cursor, &linesJSON, &c.CreatedAt, &c.LastUpdated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return conversation.Conversation{}, conversation.ErrNotFound
		}

		return conversation.Conversation{}, fmt.Errorf("getting conversation: %w", err)
	}

	c.State = conversation.State(state)
	c.Month = month.String
	c.Year = yr.String

	c.ProjectIDs = []uuid.UUID{}
	if err := json.Unmarshal(idsJSON, &c.ProjectIDs); err != nil {
		return conversation.Conversation{}, fmt.Errorf("decoding project ids: %w", err)
	}

	c.Lines = []billing.Line{}
	if err := json.Unmarshal(linesJSON, &c.Lines); err != nil {
		return conversation.Conversation{}, fmt.Errorf("decoding lines: %w", err)
	}

	return c.Clone(), nil
}

func (t *turnTx) Save(ctx context.Context, c conversation.Conversation) error {
	if c.Identity != t.identity {
		return fmt.Errorf("saving conversation %q inside turn for %q", c.Identity, t.identity)
	}

	c = c.Clone()

	idsJSON, err := json.Marshal(c.ProjectIDs)
	if err != nil {
		return fmt.Errorf("encoding project ids: %w", err)
	}

	linesJSON, err := json.Marshal(c.Lines)
	if err != nil {
		return fmt.Errorf("encoding lines: %w", err)
	}

	query := `
		INSERT INTO conversations (identity, state, month, year, project_ids, project_cursor, lines, created_at, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (identity) DO UPDATE SET
			state = EXCLUDED.state,
			month = EXCLUDED.month,
			year = EXCLUDED.year,
			project_ids = EXCLUDED.project_ids,
			project_cursor = EXCLUDED.project_cursor,
			lines = EXCLUDED.lines,
			last_updated = EXCLUDED.last_updated
	`

	_, err = t.tx.ExecContext(ctx, query,
		c.Identity,
		string(c.State),
		nullIfEmpty(c.Month),
		nullIfEmpty(c.Year),
		idsJSON,
		c.Cursor,
		linesJSON,
		c.CreatedAt,
		c.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("saving conversation: %w", err)
	}

	return nil
}

// CreateRecords runs under a savepoint so a failed insert does not abort the
// turn and the conversation can still be saved.
func (t *turnTx) CreateRecords(ctx context.Context, records []billing.Record) error {
	if _, err := t.tx.ExecContext(ctx, "SAVEPOINT billing_records"); err != nil {
		return fmt.Errorf("creating savepoint: %w", err)
	}

	if err := billingstore.InsertRecords(ctx, t.tx, records); err != nil {
		if _, rbErr := t.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT billing_records"); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rolling back to savepoint: %w", rbErr))
		}

		return err
	}

	if _, err := t.tx.ExecContext(ctx, "RELEASE SAVEPOINT billing_records"); err != nil {
		return fmt.Errorf("releasing savepoint: %w", err)
	}

	return nil
}

func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE last_updated < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting stale conversations: %w", err)
	}

	return res.RowsAffected()
}

func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM conversations`)
	if err != nil {
		return 0, fmt.Errorf("deleting conversations: %w", err)
	}

	return res.RowsAffected()
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting conversations: %w", err)
	}

	return n, nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
