// Package memory is the in-memory ledger store, used in tests and when the
// service runs without a database.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/SmartForm247/EasyForm2/internal/ledger/models"
	"github.com/SmartForm247/EasyForm2/pkg/platform/sentinel"
)

type Store struct {
	mu           sync.Mutex
	accounts     map[string]*models.Account
	transactions map[string][]*models.Transaction
	clock        func() time.Time
}

// Option configures the store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) { s.clock = clock }
}

func New(opts ...Option) *Store {
	s := &Store{
		accounts:     make(map[string]*models.Account),
		transactions: make(map[string][]*models.Transaction),
		clock:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetAccount returns the user's account; users without ledger activity get
// the zero account.
func (s *Store) GetAccount(_ context.Context, userID string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc, ok := s.accounts[userID]; ok {
		copied := *acc
		return &copied, nil
	}
	return &models.Account{UserID: userID}, nil
}

// Apply atomically adjusts the balance and usage count and appends the
// transaction. A delta that would drive the balance negative fails without
// any partial application.
func (s *Store) Apply(_ context.Context, userID string, balanceDelta float64, usageDelta int, tx *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[userID]
	if !ok {
		acc = &models.Account{UserID: userID}
		s.accounts[userID] = acc
	}
	if acc.CreditBalance+balanceDelta < 0 {
		return fmt.Errorf("balance %.2f cannot cover %.2f: %w",
			acc.CreditBalance, -balanceDelta, sentinel.ErrInsufficientBalance)
	}
	acc.CreditBalance += balanceDelta
	acc.UsageCount += usageDelta
	acc.UpdatedAt = s.clock().UTC()

	if tx != nil {
		copied := *tx
		s.transactions[userID] = append(s.transactions[userID], &copied)
	}
	return nil
}

// ListTransactions returns the user's transactions, newest first.
func (s *Store) ListTransactions(_ context.Context, userID string, limit int) ([]*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.transactions[userID]
	out := make([]*models.Transaction, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		copied := *all[i]
		out = append(out, &copied)
	}
	return out, nil
}
