// Package service implements account signup and login. Passwords are
// bcrypt-hashed; a successful login records a session and issues a bearer
// token.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/SmartForm247/EasyForm2/internal/auth/device"
	"github.com/SmartForm247/EasyForm2/internal/auth/models"
	"github.com/SmartForm247/EasyForm2/internal/auth/store"
	"github.com/SmartForm247/EasyForm2/internal/auth/token"
	dErrors "github.com/SmartForm247/EasyForm2/pkg/domain-errors"
	"github.com/SmartForm247/EasyForm2/pkg/platform/audit"
	"github.com/SmartForm247/EasyForm2/pkg/platform/sentinel"
)

const minPasswordLength = 8

// Service is the auth service.
type Service struct {
	users    store.UserStore
	sessions store.SessionStore
	tokens   *token.Service
	logger   *slog.Logger
	auditor  *audit.Publisher
	clock    func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(p *audit.Publisher) Option {
	return func(s *Service) { s.auditor = p }
}

func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

func New(users store.UserStore, sessions store.SessionStore, tokens *token.Service, opts ...Option) *Service {
	s := &Service{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		logger:   slog.Default(),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoginResult carries the issued token and the authenticated user.
type LoginResult struct {
	User        *models.User    `json:"user"`
	Session     *models.Session `json:"session"`
	AccessToken string          `json:"access_token"`
}

// SignUp creates an account. The email must be unused and the password at
// least eight characters.
func (s *Service) SignUp(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, dErrors.New(dErrors.CodeValidation, "a valid email is required")
	}
	if len(password) < minPasswordLength {
		return nil, dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to hash password", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        strings.ToLower(email),
		PasswordHash: string(hash),
		CreatedAt:    s.clock().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email already registered")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to create user", err)
	}

	s.emit(ctx, audit.Event{
		Timestamp: s.clock().UTC(),
		UserID:    user.ID.String(),
		Action:    audit.ActionUserCreated,
		Subject:   user.Email,
	})
	s.logger.InfoContext(ctx, "user created", "user_id", user.ID)
	return user, nil
}

// Login authenticates the credentials, records a session tagged with the
// caller's device, and returns a bearer token. Wrong email and wrong
// password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password, userAgent, ipAddress string) (*LoginResult, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to look up user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	}

	session := &models.Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		Device:    device.ParseUserAgent(userAgent),
		IPAddress: ipAddress,
		CreatedAt: s.clock().UTC(),
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to record session", err)
	}

	accessToken, err := s.tokens.GenerateAccessToken(user.ID, session.ID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to issue token", err)
	}

	s.emit(ctx, audit.Event{
		Timestamp: s.clock().UTC(),
		UserID:    user.ID.String(),
		Action:    audit.ActionSessionCreated,
		Subject:   session.ID.String(),
		Detail:    session.Device,
	})
	s.logger.InfoContext(ctx, "session created", "user_id", user.ID, "session_id", session.ID, "device", session.Device)

	return &LoginResult{User: user, Session: session, AccessToken: accessToken}, nil
}

// Sessions lists the user's recorded logins, newest first.
func (s *Service) Sessions(ctx context.Context, userID uuid.UUID) ([]*models.Session, error) {
	sessions, err := s.sessions.ListSessions(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list sessions", err)
	}
	return sessions, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}
