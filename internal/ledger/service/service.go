// Package service implements the credit ledger policy: every user gets two
// free submissions, after which a submission debits the per-form cost from
// the credit balance. Credits arrive from verified payments.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/SmartForm247/EasyForm2/internal/ledger/models"
	"github.com/SmartForm247/EasyForm2/internal/platform/metrics"
	dErrors "github.com/SmartForm247/EasyForm2/pkg/domain-errors"
	"github.com/SmartForm247/EasyForm2/pkg/platform/audit"
	"github.com/SmartForm247/EasyForm2/pkg/platform/sentinel"
)

// freeSubmissions is how many submissions each user gets before debits
// start.
const freeSubmissions = 2

// formCosts maps a form type to its submission cost in credits.
var formCosts = map[string]struct {
	Cost        float64
	Description string
}{
	"sole":            {Cost: 10, Description: "Sole Proprietor PDF"},
	"limited-company": {Cost: 20, Description: "Limited Company PDF"},
	"partnership":     {Cost: 20, Description: "Partnership PDF"},
}

// Store is the ledger persistence contract.
type Store interface {
	GetAccount(ctx context.Context, userID string) (*models.Account, error)
	Apply(ctx context.Context, userID string, balanceDelta float64, usageDelta int, tx *models.Transaction) error
	ListTransactions(ctx context.Context, userID string, limit int) ([]*models.Transaction, error)
}

// DebitResult describes what a submission debit did.
type DebitResult struct {
	Free           bool    `json:"free"`
	Cost           float64 `json:"cost"`
	FreeRemaining  int     `json:"free_remaining"`
	CreditBalance  float64 `json:"credit_balance"`
	UsageCount     int     `json:"usage_count"`
	Description    string  `json:"description"`
}

// Service is the ledger service.
type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	auditor *audit.Publisher
	clock   func() time.Time
}

// Option configures the service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(p *audit.Publisher) Option {
	return func(s *Service) { s.auditor = p }
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.Default(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CostFor returns the submission cost and receipt description for a form
// type.
func CostFor(formType string) (float64, string, error) {
	entry, ok := formCosts[formType]
	if !ok {
		return 0, "", dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown form type %q", formType))
	}
	return entry.Cost, entry.Description, nil
}

// Balance returns the account and recent transactions.
func (s *Service) Balance(ctx context.Context, userID string) (*models.Account, []*models.Transaction, error) {
	acc, err := s.store.GetAccount(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("get account: %w", err)
	}
	txs, err := s.store.ListTransactions(ctx, userID, 50)
	if err != nil {
		return nil, nil, fmt.Errorf("list transactions: %w", err)
	}
	return acc, txs, nil
}

// Credit adds funds from a verified payment.
func (s *Service) Credit(ctx context.Context, userID string, amount float64, reference, provider string) error {
	if amount <= 0 {
		return dErrors.New(dErrors.CodeValidation, "credit amount must be positive")
	}
	tx := &models.Transaction{
		ID:          uuid.New(),
		UserID:      userID,
		Type:        models.TransactionCredit,
		Amount:      amount,
		Description: fmt.Sprintf("Credited via %s", provider),
		Reference:   reference,
		Provider:    provider,
		CreatedAt:   s.clock().UTC(),
	}
	if err := s.store.Apply(ctx, userID, amount, 0, tx); err != nil {
		return fmt.Errorf("apply credit: %w", err)
	}
	if s.metrics != nil {
		s.metrics.CreditsApplied.Inc()
	}
	s.logger.InfoContext(ctx, "credits applied",
		"user_id", userID, "amount", amount, "reference", reference)
	s.emit(ctx, audit.Event{
		UserID: userID,
		Action: audit.ActionCreditsApplied,
		Detail: fmt.Sprintf("%.2f via %s (%s)", amount, provider, reference),
	})
	return nil
}

// Debit charges one submission of the given form type. The first two
// submissions are free and recorded as zero-amount debits; afterwards the
// balance must cover the cost or nothing is applied.
func (s *Service) Debit(ctx context.Context, userID, formType string) (*DebitResult, error) {
	cost, description, err := CostFor(formType)
	if err != nil {
		return nil, err
	}
	acc, err := s.store.GetAccount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}

	free := acc.UsageCount < freeSubmissions
	charge := cost
	txDescription := description
	if free {
		charge = 0
		txDescription = "Free submission used"
	}

	tx := &models.Transaction{
		ID:          uuid.New(),
		UserID:      userID,
		Type:        models.TransactionDebit,
		Amount:      charge,
		Description: txDescription,
		CreatedAt:   s.clock().UTC(),
	}
	if err := s.store.Apply(ctx, userID, -charge, 1, tx); err != nil {
		if errors.Is(err, sentinel.ErrInsufficientBalance) {
			return nil, dErrors.Wrap(dErrors.CodeInsufficientFunds,
				"insufficient balance, please top up your account", err)
		}
		return nil, fmt.Errorf("apply debit: %w", err)
	}

	after, err := s.store.GetAccount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}

	if s.metrics != nil {
		s.metrics.DebitsApplied.Inc()
	}
	s.logger.InfoContext(ctx, "submission debited",
		"user_id", userID, "form_type", formType, "amount", charge, "free", free)
	s.emit(ctx, audit.Event{
		UserID: userID,
		Action: audit.ActionCreditsDebited,
		Detail: fmt.Sprintf("%s: %.2f", txDescription, charge),
	})

	remaining := freeSubmissions - after.UsageCount
	if remaining < 0 {
		remaining = 0
	}
	return &DebitResult{
		Free:          free,
		Cost:          charge,
		FreeRemaining: remaining,
		CreditBalance: after.CreditBalance,
		UsageCount:    after.UsageCount,
		Description:   txDescription,
	}, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}
