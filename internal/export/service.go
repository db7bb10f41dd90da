// Package export turns a registration's projected surface into a stored
// PDF document. The debit happens before any rendering: a user who cannot
// pay never triggers a Chrome run, and a render failure after a successful
// debit is surfaced as an error rather than silently refunded.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	ledger "github.com/SmartForm247/EasyForm2/internal/ledger/service"
	"github.com/SmartForm247/EasyForm2/internal/platform/metrics"
	"github.com/SmartForm247/EasyForm2/internal/registration/models"
	"github.com/SmartForm247/EasyForm2/internal/registration/projector"
	"github.com/SmartForm247/EasyForm2/internal/registration/schema"
	dErrors "github.com/SmartForm247/EasyForm2/pkg/domain-errors"
	"github.com/SmartForm247/EasyForm2/pkg/platform/audit"
)

// Registrations is the slice of the registration service the exporter
// needs.
type Registrations interface {
	Get(ctx context.Context, userID string, id uuid.UUID) (*models.Registration, error)
	Projection(ctx context.Context, userID string, id uuid.UUID) (*projector.Projection, error)
}

// Ledger debits the submission cost.
type Ledger interface {
	Debit(ctx context.Context, userID, formType string) (*ledger.DebitResult, error)
}

// Result describes a completed export.
type Result struct {
	ObjectKey string              `json:"object_key"`
	Debit     *ledger.DebitResult `json:"debit"`
}

type Service struct {
	registrations Registrations
	ledger        Ledger
	renderer      PDFRenderer
	objects       ObjectStore
	logger        *slog.Logger
	metrics       *metrics.Metrics
	auditor       *audit.Publisher
}

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

func New(registrations Registrations, ledger Ledger, renderer PDFRenderer, objects ObjectStore, opts ...Option) *Service {
	s := &Service{
		registrations: registrations,
		ledger:        ledger,
		renderer:      renderer,
		objects:       objects,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Export debits the ledger for the registration's form type, renders the
// projected surface to PDF and stores it under <userID>/<registrationID>.pdf.
func (s *Service) Export(ctx context.Context, userID string, id uuid.UUID) (*Result, error) {
	reg, err := s.registrations.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	debit, err := s.ledger.Debit(ctx, userID, reg.FormType)
	if err != nil {
		return nil, err
	}

	projection, err := s.registrations.Projection(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	title := reg.Company[schema.FieldCompanyName]
	if title == "" {
		title = "Business Registration"
	}
	subtitle := fmt.Sprintf("%s registration form", reg.FormType)

	html, err := renderHTML(title, subtitle, projection)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to render document", err)
	}

	pdf, err := s.renderer.Render(ctx, html)
	if err != nil {
		s.logger.ErrorContext(ctx, "pdf render failed", "registration_id", id, "error", err)
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "document rendering unavailable", err)
	}

	key := fmt.Sprintf("%s/%s.pdf", userID, id)
	if err := s.objects.Put(ctx, key, pdf, "application/pdf"); err != nil {
		s.logger.ErrorContext(ctx, "pdf store failed", "key", key, "error", err)
		return nil, dErrors.Wrap(dErrors.CodeUnavailable, "document storage unavailable", err)
	}

	if s.metrics != nil {
		s.metrics.Exports.Inc()
	}
	s.emit(ctx, audit.Event{
		Timestamp:      time.Now().UTC(),
		UserID:         userID,
		RegistrationID: id.String(),
		Action:         audit.ActionDocumentExported,
		Subject:        key,
		Detail:         debit.Description,
	})
	s.logger.InfoContext(ctx, "document exported",
		"registration_id", id, "key", key, "free", debit.Free, "cost", debit.Cost)

	return &Result{ObjectKey: key, Debit: debit}, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}
