// Package payment verifies Paystack payments and credits the ledger exactly
// once per transaction reference.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/SmartForm247/EasyForm2/internal/platform/metrics"
	"github.com/SmartForm247/EasyForm2/pkg/platform/audit"
	"github.com/SmartForm247/EasyForm2/pkg/platform/sentinel"
)

// referenceTTL bounds how long a consumed payment reference is remembered.
const referenceTTL = 30 * 24 * time.Hour

// VerifyStatus is the API-visible outcome of a verification.
type VerifyStatus string

const (
	StatusSuccess VerifyStatus = "success"
	StatusFailed  VerifyStatus = "failed"
	StatusError   VerifyStatus = "error"
)

// VerifyRequest is one verification call.
type VerifyRequest struct {
	Reference string
	UserID    string
	Amount    float64
}

// VerifyResult is the outcome. Failed means the gateway declined the
// transaction; Error means the gateway could not be consulted and nothing
// was credited.
type VerifyResult struct {
	Status  VerifyStatus
	Message string
}

// Gateway is the payment provider lookup.
type Gateway interface {
	VerifyTransaction(ctx context.Context, reference string) (*GatewayTransaction, error)
}

// Ledger receives the credit for a verified payment.
type Ledger interface {
	Credit(ctx context.Context, userID string, amount float64, reference, provider string) error
}

// Service verifies payments. The redis reservation around the ledger credit
// is what makes a re-sent reference a no-op instead of a double credit.
type Service struct {
	gateway Gateway
	ledger  Ledger
	redis   *redis.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
	auditor *audit.Publisher
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

// WithRedis enables reference idempotency through the given client.
func WithRedis(client *redis.Client) Option {
	return func(s *Service) { s.redis = client }
}

func New(gateway Gateway, ledger Ledger, opts ...Option) *Service {
	s := &Service{
		gateway: gateway,
		ledger:  ledger,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Verify checks the transaction with the gateway and credits the user's
// ledger. A reference that was already credited reports success without
// touching the ledger again. A gateway-side decline reports failed; gateway
// unavailability reports error. In both of those cases the ledger is
// untouched.
func (s *Service) Verify(ctx context.Context, req VerifyRequest) (*VerifyResult, error) {
	tracer := otel.Tracer("easyform/payment")
	ctx, span := tracer.Start(ctx, "paystack.verify",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("payment.reference", req.Reference)),
	)
	defer span.End()

	tx, err := s.gateway.VerifyTransaction(ctx, req.Reference)
	if err != nil {
		s.count(string(StatusError))
		if errors.Is(err, sentinel.ErrUnavailable) {
			s.logger.ErrorContext(ctx, "payment gateway unavailable",
				"reference", req.Reference, "error", err)
			return &VerifyResult{Status: StatusError, Message: "Payment provider unavailable"}, nil
		}
		return nil, fmt.Errorf("verify transaction: %w", err)
	}

	if tx.Status != "success" {
		s.count(string(StatusFailed))
		s.logger.InfoContext(ctx, "payment not successful",
			"reference", req.Reference, "gateway_status", tx.Status)
		return &VerifyResult{Status: StatusFailed, Message: "Transaction not successful"}, nil
	}

	// The gateway is the source of truth for the amount; a mismatch with the
	// client-reported amount is recorded but the payment still counts.
	if math.Abs(tx.Amount-req.Amount) > 0.001 {
		s.logger.WarnContext(ctx, "payment amount mismatch",
			"reference", req.Reference, "paid", tx.Amount, "requested", req.Amount)
		s.emit(ctx, audit.Event{
			UserID: req.UserID,
			Action: audit.ActionAmountMismatch,
			Detail: fmt.Sprintf("paid %.2f, requested %.2f (%s)", tx.Amount, req.Amount, req.Reference),
		})
	}

	reserved, err := s.reserveReference(ctx, req.Reference, req.UserID)
	if err != nil {
		s.count(string(StatusError))
		return nil, fmt.Errorf("reserve payment reference: %w", err)
	}
	if !reserved {
		s.count(string(StatusSuccess))
		s.logger.InfoContext(ctx, "payment reference already credited", "reference", req.Reference)
		return &VerifyResult{Status: StatusSuccess, Message: "Payment already verified."}, nil
	}

	if err := s.ledger.Credit(ctx, req.UserID, req.Amount, req.Reference, tx.Gateway); err != nil {
		// Give the reference back so a retry can credit after a transient
		// ledger failure.
		s.releaseReference(ctx, req.Reference)
		s.count(string(StatusError))
		return nil, fmt.Errorf("credit ledger: %w", err)
	}

	s.count(string(StatusSuccess))
	s.logger.InfoContext(ctx, "payment verified and credited",
		"reference", req.Reference, "user_id", req.UserID, "amount", req.Amount)
	s.emit(ctx, audit.Event{
		UserID: req.UserID,
		Action: audit.ActionPaymentVerified,
		Detail: fmt.Sprintf("%.2f via %s (%s)", req.Amount, tx.Gateway, req.Reference),
	})
	return &VerifyResult{Status: StatusSuccess, Message: "Payment verified and account credited."}, nil
}

// reserveReference claims the reference, reporting false when someone
// already credited it. Without redis configured every call claims.
func (s *Service) reserveReference(ctx context.Context, reference, userID string) (bool, error) {
	if s.redis == nil {
		return true, nil
	}
	ok, err := s.redis.SetNX(ctx, referenceKey(reference), userID, referenceTTL).Result()
	if err != nil {
		return false, fmt.Errorf("setnx: %v: %w", err, sentinel.ErrUnavailable)
	}
	return ok, nil
}

func (s *Service) releaseReference(ctx context.Context, reference string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, referenceKey(reference)).Err(); err != nil {
		s.logger.WarnContext(ctx, "release payment reference failed",
			"reference", reference, "error", err)
	}
}

func referenceKey(reference string) string {
	return "paystack:ref:" + reference
}

func (s *Service) count(status string) {
	if s.metrics != nil {
		s.metrics.PaymentsVerified.WithLabelValues(status).Inc()
	}
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}
