// Package postgres persists submitted registration documents. Drafts live in
// the in-memory store; a document row is written on submission and read back
// when a draft is reopened.
//
// Table:
//
//	CREATE TABLE registration_documents (
//	    id            UUID PRIMARY KEY,
//	    owner_user_id TEXT NOT NULL,
//	    form_type     TEXT NOT NULL,
//	    fields        JSONB NOT NULL,
//	    meta          JSONB NOT NULL,
//	    created_at    TIMESTAMPTZ NOT NULL,
//	    updated_at    TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX registration_documents_owner_idx ON registration_documents (owner_user_id);
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/SmartForm247/EasyForm2/internal/registration/models"
	"github.com/SmartForm247/EasyForm2/pkg/platform/sentinel"
)

// DocumentStore stores flattened registration documents in Postgres.
type DocumentStore struct {
	db *sql.DB
}

func NewDocumentStore(db *sql.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// Save upserts the registration's flattened document.
func (s *DocumentStore) Save(ctx context.Context, reg *models.Registration) error {
	fields, err := json.Marshal(reg.Flatten())
	if err != nil {
		return fmt.Errorf("marshal document fields: %w", err)
	}
	meta, err := json.Marshal(reg.Meta())
	if err != nil {
		return fmt.Errorf("marshal document meta: %w", err)
	}

	query := `
		INSERT INTO registration_documents (id, owner_user_id, form_type, fields, meta, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET form_type = EXCLUDED.form_type,
		    fields = EXCLUDED.fields,
		    meta = EXCLUDED.meta,
		    updated_at = EXCLUDED.updated_at`
	if _, err := s.db.ExecContext(ctx, query,
		reg.ID, reg.OwnerUserID, reg.FormType, fields, meta, reg.CreatedAt, reg.UpdatedAt,
	); err != nil {
		return fmt.Errorf("save registration document: %w", err)
	}
	return nil
}

// Load reads one document back into a registration.
func (s *DocumentStore) Load(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	query := `
		SELECT id, owner_user_id, form_type, fields, meta, created_at, updated_at
		FROM registration_documents
		WHERE id = $1`
	reg, err := scanDocument(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("registration document %s: %w", id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("load registration document: %w", err)
	}
	return reg, nil
}

// ListByOwner returns the owner's documents, most recently updated first.
func (s *DocumentStore) ListByOwner(ctx context.Context, ownerUserID string) ([]*models.Registration, error) {
	query := `
		SELECT id, owner_user_id, form_type, fields, meta, created_at, updated_at
		FROM registration_documents
		WHERE owner_user_id = $1
		ORDER BY updated_at DESC`
	rows, err := s.db.QueryContext(ctx, query, ownerUserID)
	if err != nil {
		return nil, fmt.Errorf("list registration documents: %w", err)
	}
	defer rows.Close()

	var out []*models.Registration
	for rows.Next() {
		reg, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration document: %w", err)
		}
		out = append(out, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registration documents: %w", err)
	}
	return out, nil
}

// Delete removes one document.
func (s *DocumentStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM registration_documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete registration document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete registration document: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("registration document %s: %w", id, sentinel.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*models.Registration, error) {
	var (
		id          uuid.UUID
		owner       string
		formType    string
		fieldsJSON  []byte
		metaJSON    []byte
		createdAt   sql.NullTime
		updatedAt   sql.NullTime
	)
	if err := row.Scan(&id, &owner, &formType, &fieldsJSON, &metaJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var flat map[string]string
	if err := json.Unmarshal(fieldsJSON, &flat); err != nil {
		return nil, fmt.Errorf("unmarshal document fields: %w", err)
	}
	var meta models.DocumentMeta
	if err := json.Unmarshal(metaJSON, &meta); err != nil {
		return nil, fmt.Errorf("unmarshal document meta: %w", err)
	}

	reg := models.Unflatten(flat, meta)
	reg.ID = id
	reg.OwnerUserID = owner
	if reg.FormType == "" {
		reg.FormType = formType
	}
	if createdAt.Valid {
		reg.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		reg.UpdatedAt = updatedAt.Time
	}
	return reg, nil
}
