// Package store defines the auth persistence contracts.
package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/SmartForm247/EasyForm2/internal/auth/models"
)

// UserStore persists accounts. CreateUser returns sentinel.ErrConflict
// when the email is taken; lookups return sentinel.ErrNotFound.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// SessionStore persists logins.
type SessionStore interface {
	CreateSession(ctx context.Context, session *models.Session) error
	ListSessions(ctx context.Context, userID uuid.UUID) ([]*models.Session, error)
}
