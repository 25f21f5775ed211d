package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/billbot/internal/billing"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Querier is the part of *sql.DB and *sql.Tx that InsertRecords needs.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// InsertRecords writes records through q, filling in ID and CreatedAt.
// The caller owns the transaction q belongs to.
func InsertRecords(ctx context.Context, q Querier, records []billing.Record) error {
	query := `
		INSERT INTO billing_records (client_name, days, rate, month, year, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, created_at
	`

	for i := range records {
		r := &records[i]

		err := q.QueryRowContext(ctx, query,
			r.ClientName,
			r.Days,
			r.Rate,
			r.Month,
			r.Year,
		).Scan(&r.ID, &r.CreatedAt)
		if err != nil {
			return fmt.Errorf("creating billing record: %w", err)
		}
	}

	return nil
}

func (s *Store) ListRecords(ctx context.Context, filter billing.ListFilter) ([]*billing.Record, error) {
	query := `
		SELECT id, client_name, days, rate, month, year, created_at
		FROM billing_records
		WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.Month != nil {
		query += fmt.Sprintf(" AND LOWER(month) = LOWER($%d)", argIdx)

		args = append(args, *filter.Month)
		argIdx++
	}

	if filter.Year != nil {
		query += fmt.Sprintf(" AND year = $%d", argIdx)

		args = append(args, *filter.Year)
		argIdx++
	}

	if filter.ClientName != nil {
		query += fmt.Sprintf(" AND client_name = $%d", argIdx)

		args = append(args, *filter.ClientName)
		argIdx++
	}

	query += " ORDER BY created_at ASC, client_name ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing billing records: %w", err)
	}
	defer rows.Close()

	var records []*billing.Record

	for rows.Next() {
		var r billing.Record
		if err := rows.Scan(&r.ID, &r.ClientName, &r.Days, &r.Rate, &r.Month, &r.Year, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning billing record: %w", err)
		}

		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating billing records: %w", err)
	}

	return records, nil
}

func (s *Store) DeleteRecord(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM billing_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting billing record: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting billing record: %w", err)
	}

	if n == 0 {
		return billing.ErrNotFound
	}

	return nil
}
