// Package service orchestrates the registration core: it owns the live
// store, wires the sync engine to store events, applies role changes through
// the selector and secretary guard, and projects the presentation surface.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/SmartForm247/EasyForm2/internal/platform/metrics"
	"github.com/SmartForm247/EasyForm2/internal/registration/models"
	"github.com/SmartForm247/EasyForm2/internal/registration/projector"
	"github.com/SmartForm247/EasyForm2/internal/registration/roles"
	"github.com/SmartForm247/EasyForm2/internal/registration/schema"
	"github.com/SmartForm247/EasyForm2/internal/registration/secretary"
	"github.com/SmartForm247/EasyForm2/internal/registration/store"
	regsync "github.com/SmartForm247/EasyForm2/internal/registration/sync"
	dErrors "github.com/SmartForm247/EasyForm2/pkg/domain-errors"
	"github.com/SmartForm247/EasyForm2/pkg/platform/audit"
	"github.com/SmartForm247/EasyForm2/pkg/platform/sentinel"
)

// formTypes are the registration forms the service fills.
var formTypes = map[string]bool{
	"sole":            true,
	"limited-company": true,
	"partnership":     true,
}

// DocumentStore persists flattened registration documents.
type DocumentStore interface {
	Save(ctx context.Context, reg *models.Registration) error
	Load(ctx context.Context, id uuid.UUID) (*models.Registration, error)
	ListByOwner(ctx context.Context, ownerUserID string) ([]*models.Registration, error)
}

// Service is the registration orchestrator.
type Service struct {
	store     store.Store
	docs      DocumentStore
	engine    *regsync.Engine
	guard     *secretary.Guard
	selector  *roles.Selector
	projector *projector.Projector

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

// WithDocumentStore enables submission persistence.
func WithDocumentStore(docs DocumentStore) Option {
	return func(s *Service) { s.docs = docs }
}

// WithProjector overrides the projector, mainly to inject a clock in tests.
func WithProjector(p *projector.Projector) Option {
	return func(s *Service) { s.projector = p }
}

// New builds the service and subscribes the sync engine to store events, so
// the ordering per edit is always mutate, then sync, then project on read.
func New(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:     st,
		logger:    slog.Default(),
		projector: projector.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.guard = secretary.New(st, secretary.WithLogger(s.logger), secretary.WithMetrics(s.metrics))
	s.selector = roles.New(st, s.guard, roles.WithLogger(s.logger))
	s.engine = regsync.New(st, regsync.WithLogger(s.logger), regsync.WithMetrics(s.metrics))
	st.Subscribe(s.engine.HandleEvent)
	return s
}

// Engine exposes the sync engine, for tests that assert coalescing.
func (s *Service) Engine() *regsync.Engine { return s.engine }

// Create opens a new draft registration.
func (s *Service) Create(ctx context.Context, userID, formType string) (*models.Registration, error) {
	if !formTypes[formType] {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown form type %q", formType))
	}
	reg, err := s.store.Create(ctx, userID, formType)
	if err != nil {
		return nil, fmt.Errorf("create registration: %w", err)
	}
	s.logger.InfoContext(ctx, "registration created",
		"registration_id", reg.ID, "user_id", userID, "form_type", formType)
	return reg, nil
}

// List returns the user's live draft registrations.
func (s *Service) List(ctx context.Context, userID string) ([]*models.Registration, error) {
	return s.store.ListByOwner(ctx, userID)
}

// Get returns one registration after an ownership check.
func (s *Service) Get(ctx context.Context, userID string, id uuid.UUID) (*models.Registration, error) {
	return s.authorize(ctx, userID, id)
}

// Delete drops a draft.
func (s *Service) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	if _, err := s.authorize(ctx, userID, id); err != nil {
		return err
	}
	return s.translate(s.store.Delete(ctx, id))
}

// AddRecord appends a record of an indexed kind.
func (s *Service) AddRecord(ctx context.Context, userID string, id uuid.UUID, kind schema.RecordKind) (int, error) {
	if !kind.Valid() || !kind.Indexed() {
		return 0, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("cannot add records of kind %q", kind))
	}
	if _, err := s.authorize(ctx, userID, id); err != nil {
		return 0, err
	}
	index, err := s.store.AddRecord(ctx, id, kind)
	if err != nil {
		return 0, s.translate(err)
	}
	if s.metrics != nil {
		s.metrics.RecordsAdded.WithLabelValues(string(kind)).Inc()
	}
	s.emit(ctx, audit.Event{
		UserID:         userID,
		RegistrationID: id.String(),
		Action:         audit.ActionRecordAdded,
		Subject:        fmt.Sprintf("%s %d", kind, index),
	})
	return index, nil
}

// RemoveRecord removes a record and renumbers the survivors.
func (s *Service) RemoveRecord(ctx context.Context, userID string, id uuid.UUID, kind schema.RecordKind, index int) error {
	if _, err := s.authorize(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.RemoveRecord(ctx, id, kind, index); err != nil {
		return s.translate(err)
	}
	if s.metrics != nil {
		s.metrics.RecordsRemoved.WithLabelValues(string(kind)).Inc()
	}
	s.emit(ctx, audit.Event{
		UserID:         userID,
		RegistrationID: id.String(),
		Action:         audit.ActionRecordRemoved,
		Subject:        fmt.Sprintf("%s %d", kind, index),
	})
	return nil
}

// SetFields writes record fields by API name. Each changed value fans out
// through the sync engine before this returns.
func (s *Service) SetFields(ctx context.Context, userID string, id uuid.UUID, kind schema.RecordKind, index int, fields map[string]string) error {
	if !kind.Valid() {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown record kind %q", kind))
	}
	if _, err := s.authorize(ctx, userID, id); err != nil {
		return err
	}
	for name, value := range fields {
		f, ok := schema.ParseField(name)
		if !ok || !schema.HasField(kind, f) {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("field %q not on %s", name, kind))
		}
		if kind == schema.KindSecretary && f == schema.FieldQualification && !roles.ValidQualification(value) {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown qualification %q", value))
		}
		if err := s.store.SetField(ctx, id, kind, index, f, value); err != nil {
			return s.translate(err)
		}
	}
	return nil
}

// SetCompanyFields writes company-level fields by API name.
func (s *Service) SetCompanyFields(ctx context.Context, userID string, id uuid.UUID, fields map[string]string) error {
	if _, err := s.authorize(ctx, userID, id); err != nil {
		return err
	}
	for name, value := range fields {
		f, ok := schema.ParseField(name)
		if !ok {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown field %q", name))
		}
		if err := s.store.SetCompanyField(ctx, id, f, value); err != nil {
			return s.translate(err)
		}
	}
	return nil
}

// SetRole toggles a director role. A rejected secretary claim surfaces as a
// conflict naming the current holder.
func (s *Service) SetRole(ctx context.Context, userID string, id uuid.UUID, dirIndex int, role models.Role, enabled bool) (models.RoleFlags, error) {
	if _, err := s.authorize(ctx, userID, id); err != nil {
		return models.RoleFlags{}, err
	}

	flags, err := s.selector.SetRole(ctx, id, dirIndex, role, enabled)
	if err != nil {
		if errors.Is(err, sentinel.ErrAlreadyHeld) {
			s.emit(ctx, audit.Event{
				UserID:         userID,
				RegistrationID: id.String(),
				Action:         audit.ActionSecretaryRejected,
				Subject:        fmt.Sprintf("director %d", dirIndex),
			})
		}
		return models.RoleFlags{}, s.translate(err)
	}

	s.emit(ctx, audit.Event{
		UserID:         userID,
		RegistrationID: id.String(),
		Action:         audit.ActionRoleChanged,
		Subject:        fmt.Sprintf("director %d", dirIndex),
		Detail:         fmt.Sprintf("%s=%t", role, enabled),
	})
	if role == models.RoleSecretary {
		action := audit.ActionSecretaryReleased
		if enabled {
			action = audit.ActionSecretaryClaimed
		}
		s.emit(ctx, audit.Event{
			UserID:         userID,
			RegistrationID: id.String(),
			Action:         action,
			Subject:        fmt.Sprintf("director %d", dirIndex),
		})
	}
	return flags, nil
}

// SetRoleInput writes a director's role-specific input.
func (s *Service) SetRoleInput(ctx context.Context, userID string, id uuid.UUID, dirIndex int, field, value string) error {
	if _, err := s.authorize(ctx, userID, id); err != nil {
		return err
	}
	f, ok := schema.ParseField(field)
	if !ok {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown field %q", field))
	}
	if f == schema.FieldQualification && !roles.ValidQualification(value) {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown qualification %q", value))
	}
	return s.translate(s.store.SetRoleInput(ctx, id, dirIndex, f, value))
}

// Projection recomputes the presentation surface.
func (s *Service) Projection(ctx context.Context, userID string, id uuid.UUID) (*projector.Projection, error) {
	tracer := otel.Tracer("easyform/registration")
	ctx, span := tracer.Start(ctx, "registration.project",
		trace.WithAttributes(attribute.String("registration.id", id.String())),
	)
	defer span.End()

	reg, err := s.authorize(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	projection := s.projector.Project(reg)
	if s.metrics != nil {
		s.metrics.Projections.Inc()
		s.metrics.ProjectionSeconds.Observe(time.Since(start).Seconds())
	}
	return projection, nil
}

// Submit persists the draft's flattened document.
func (s *Service) Submit(ctx context.Context, userID string, id uuid.UUID) error {
	if s.docs == nil {
		return dErrors.New(dErrors.CodeUnavailable, "document persistence is not configured")
	}
	reg, err := s.authorize(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.docs.Save(ctx, reg); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	s.logger.InfoContext(ctx, "registration submitted",
		"registration_id", id, "user_id", userID)
	return nil
}

// Reopen loads a submitted document back into a live session and re-runs the
// mirror for the secretary holder so derived records are consistent again.
func (s *Service) Reopen(ctx context.Context, userID string, id uuid.UUID) (*models.Registration, error) {
	if s.docs == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "document persistence is not configured")
	}
	reg, err := s.docs.Load(ctx, id)
	if err != nil {
		return nil, s.translate(err)
	}
	if reg.OwnerUserID != userID {
		return nil, dErrors.New(dErrors.CodeForbidden, "registration belongs to another user")
	}
	if err := s.store.Restore(ctx, reg); err != nil {
		return nil, s.translate(err)
	}
	if holder := reg.SecretaryHolder(); holder != 0 {
		if _, err := s.engine.SyncFromDirector(ctx, reg.ID, holder); err != nil {
			s.logger.WarnContext(ctx, "reopen secretary sync failed",
				"registration_id", reg.ID, "director", holder, "error", err)
		}
	}
	return s.store.Get(ctx, reg.ID)
}

// ListSaved returns the user's persisted documents.
func (s *Service) ListSaved(ctx context.Context, userID string) ([]*models.Registration, error) {
	if s.docs == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "document persistence is not configured")
	}
	return s.docs.ListByOwner(ctx, userID)
}

func (s *Service) authorize(ctx context.Context, userID string, id uuid.UUID) (*models.Registration, error) {
	reg, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, s.translate(err)
	}
	if reg.OwnerUserID != userID {
		return nil, dErrors.New(dErrors.CodeForbidden, "registration belongs to another user")
	}
	return reg, nil
}

// translate maps store sentinels to coded domain errors at the service
// boundary.
func (s *Service) translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(dErrors.CodeNotFound, "registration or record not found", err)
	case errors.Is(err, sentinel.ErrAlreadyHeld):
		// The guard already phrased the holder advisory.
		return err
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(dErrors.CodeInvariantViolation, "operation not allowed in current state", err)
	default:
		return err
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
