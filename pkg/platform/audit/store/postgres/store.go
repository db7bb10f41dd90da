package postgres

import (
	"context"
	"database/sql"
	"fmt"

	audit "github.com/SmartForm247/EasyForm2/pkg/platform/audit"
)

// Store persists audit events in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE audit_events (
//	    id              BIGSERIAL PRIMARY KEY,
//	    occurred_at     TIMESTAMPTZ NOT NULL,
//	    user_id         TEXT NOT NULL DEFAULT '',
//	    registration_id TEXT NOT NULL DEFAULT '',
//	    action          TEXT NOT NULL,
//	    subject         TEXT NOT NULL DEFAULT '',
//	    detail          TEXT NOT NULL DEFAULT '',
//	    request_id      TEXT NOT NULL DEFAULT ''
//	);
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	query := `
		INSERT INTO audit_events (occurred_at, user_id, registration_id, action, subject, detail, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.Timestamp, event.UserID, event.RegistrationID,
		string(event.Action), event.Subject, event.Detail, event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *Store) ListByUser(ctx context.Context, userID string) ([]audit.Event, error) {
	query := `
		SELECT occurred_at, user_id, registration_id, action, subject, detail, request_id
		FROM audit_events
		WHERE user_id = $1
		ORDER BY occurred_at
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []audit.Event
	for rows.Next() {
		var e audit.Event
		var action string
		if err := rows.Scan(&e.Timestamp, &e.UserID, &e.RegistrationID, &action, &e.Subject, &e.Detail, &e.RequestID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Action = audit.Action(action)
		out = append(out, e)
	}
	return out, rows.Err()
}
