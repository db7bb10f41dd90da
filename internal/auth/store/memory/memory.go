// Package memory holds users and sessions in process memory, for tests
// and single-node development.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/SmartForm247/EasyForm2/internal/auth/models"
	"github.com/SmartForm247/EasyForm2/pkg/platform/sentinel"
)

type Store struct {
	mu       sync.RWMutex
	byID     map[uuid.UUID]*models.User
	byEmail  map[string]uuid.UUID
	sessions map[uuid.UUID][]*models.Session
}

func New() *Store {
	return &Store{
		byID:     make(map[uuid.UUID]*models.User),
		byEmail:  make(map[string]uuid.UUID),
		sessions: make(map[uuid.UUID][]*models.Session),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := normalizeEmail(user.Email)
	if _, taken := s.byEmail[key]; taken {
		return sentinel.ErrConflict
	}
	clone := *user
	s.byID[user.ID] = &clone
	s.byEmail[key] = user.ID
	return nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *s.byID[id]
	return &clone, nil
}

func (s *Store) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (s *Store) CreateSession(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *session
	s.sessions[session.UserID] = append(s.sessions[session.UserID], &clone)
	return nil
}

func (s *Store) ListSessions(_ context.Context, userID uuid.UUID) ([]*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.sessions[userID]
	out := make([]*models.Session, 0, len(stored))
	for _, sess := range stored {
		clone := *sess
		out = append(out, &clone)
	}
	return out, nil
}
