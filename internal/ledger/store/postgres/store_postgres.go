// Package postgres is the durable ledger store.
//
// Tables:
//
//	CREATE TABLE ledger_accounts (
//	    user_id        TEXT PRIMARY KEY,
//	    credit_balance NUMERIC(12,2) NOT NULL DEFAULT 0,
//	    usage_count    INTEGER NOT NULL DEFAULT 0,
//	    updated_at     TIMESTAMPTZ NOT NULL
//	);
//	CREATE TABLE ledger_transactions (
//	    id          UUID PRIMARY KEY,
//	    user_id     TEXT NOT NULL,
//	    type        TEXT NOT NULL,
//	    amount      NUMERIC(12,2) NOT NULL,
//	    description TEXT NOT NULL DEFAULT '',
//	    reference   TEXT NOT NULL DEFAULT '',
//	    provider    TEXT NOT NULL DEFAULT '',
//	    created_at  TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX ledger_transactions_user_idx ON ledger_transactions (user_id, created_at DESC);
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/SmartForm247/EasyForm2/internal/ledger/models"
	"github.com/SmartForm247/EasyForm2/pkg/platform/sentinel"
)

type Store struct {
	db    *sql.DB
	clock func() time.Time
}

// Option configures the store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) { s.clock = clock }
}

func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetAccount returns the user's account; users without a row get the zero
// account.
func (s *Store) GetAccount(ctx context.Context, userID string) (*models.Account, error) {
	query := `
		SELECT user_id, credit_balance, usage_count, updated_at
		FROM ledger_accounts
		WHERE user_id = $1`
	var acc models.Account
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&acc.UserID, &acc.CreditBalance, &acc.UsageCount, &acc.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.Account{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ledger account: %w", err)
	}
	return &acc, nil
}

// Apply atomically adjusts the account and appends the transaction in one
// database transaction. The guarded UPDATE is what enforces the non-negative
// balance invariant under concurrency.
func (s *Store) Apply(ctx context.Context, userID string, balanceDelta float64, usageDelta int, ltx *models.Transaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger apply: %w", err)
	}
	defer tx.Rollback()

	now := s.clock().UTC()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO ledger_accounts (user_id, credit_balance, usage_count, updated_at)
		VALUES ($1, 0, 0, $2)
		ON CONFLICT (user_id) DO NOTHING`, userID, now,
	); err != nil {
		return fmt.Errorf("ensure ledger account: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE ledger_accounts
		SET credit_balance = credit_balance + $2,
		    usage_count = usage_count + $3,
		    updated_at = $4
		WHERE user_id = $1 AND credit_balance + $2 >= 0`,
		userID, balanceDelta, usageDelta, now,
	)
	if err != nil {
		return fmt.Errorf("update ledger account: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update ledger account: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("debit of %.2f for %s: %w", -balanceDelta, userID, sentinel.ErrInsufficientBalance)
	}

	if ltx != nil {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO ledger_transactions (id, user_id, type, amount, description, reference, provider, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			ltx.ID, ltx.UserID, ltx.Type, ltx.Amount, ltx.Description, ltx.Reference, ltx.Provider, ltx.CreatedAt,
		); err != nil {
			return fmt.Errorf("append ledger transaction: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger apply: %w", err)
	}
	return nil
}

// ListTransactions returns the user's transactions, newest first.
func (s *Store) ListTransactions(ctx context.Context, userID string, limit int) ([]*models.Transaction, error) {
	query := `
		SELECT id, user_id, type, amount, description, reference, provider, created_at
		FROM ledger_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ledger transactions: %w", err)
	}
	defer rows.Close()

	var out []*models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Description, &t.Reference, &t.Provider, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger transaction: %w", err)
		}
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger transactions: %w", err)
	}
	return out, nil
}
