package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/SmartForm247/EasyForm2/internal/platform/metrics"
	"github.com/SmartForm247/EasyForm2/internal/platform/middleware"
	"github.com/SmartForm247/EasyForm2/internal/registration/models"
	"github.com/SmartForm247/EasyForm2/internal/registration/projector"
	"github.com/SmartForm247/EasyForm2/internal/registration/schema"
	"github.com/SmartForm247/EasyForm2/internal/transport/http/shared"
	dErrors "github.com/SmartForm247/EasyForm2/pkg/domain-errors"
)

// Service defines the registration operations the handler exposes.
type Service interface {
	Create(ctx context.Context, userID, formType string) (*models.Registration, error)
	List(ctx context.Context, userID string) ([]*models.Registration, error)
	Get(ctx context.Context, userID string, id uuid.UUID) (*models.Registration, error)
	Delete(ctx context.Context, userID string, id uuid.UUID) error
	AddRecord(ctx context.Context, userID string, id uuid.UUID, kind schema.RecordKind) (int, error)
	RemoveRecord(ctx context.Context, userID string, id uuid.UUID, kind schema.RecordKind, index int) error
	SetFields(ctx context.Context, userID string, id uuid.UUID, kind schema.RecordKind, index int, fields map[string]string) error
	SetCompanyFields(ctx context.Context, userID string, id uuid.UUID, fields map[string]string) error
	SetRole(ctx context.Context, userID string, id uuid.UUID, dirIndex int, role models.Role, enabled bool) (models.RoleFlags, error)
	SetRoleInput(ctx context.Context, userID string, id uuid.UUID, dirIndex int, field, value string) error
	Projection(ctx context.Context, userID string, id uuid.UUID) (*projector.Projection, error)
	Submit(ctx context.Context, userID string, id uuid.UUID) error
	Reopen(ctx context.Context, userID string, id uuid.UUID) (*models.Registration, error)
	ListSaved(ctx context.Context, userID string) ([]*models.Registration, error)
}

// Handler serves the registration endpoints.
type Handler struct {
	registrations Service
	logger        *slog.Logger
	metrics       *metrics.Metrics
	jwtValidator  middleware.JWTValidator
}

func New(registrations Service, logger *slog.Logger, m *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		registrations: registrations,
		logger:        logger,
		metrics:       m,
		jwtValidator:  jwtValidator,
	}
}

// Register attaches the registration routes with their middleware stack.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(regRouter chi.Router) {
		regRouter.Use(middleware.Recovery(h.logger))
		regRouter.Use(middleware.RequestID)
		regRouter.Use(middleware.Logger(h.logger))
		regRouter.Use(middleware.Timeout(30 * time.Second))
		regRouter.Use(middleware.LatencyMiddleware(h.metrics))
		regRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

		regRouter.Post("/registrations", h.handleCreate)
		regRouter.Get("/registrations", h.handleList)
		regRouter.Get("/registrations/saved", h.handleListSaved)
		regRouter.Get("/registrations/{id}", h.handleGet)
		regRouter.Delete("/registrations/{id}", h.handleDelete)
		regRouter.Post("/registrations/{id}/records", h.handleAddRecord)
		regRouter.Delete("/registrations/{id}/records/{kind}/{index}", h.handleRemoveRecord)
		regRouter.Patch("/registrations/{id}/records/{kind}/{index}", h.handleSetFields)
		regRouter.Patch("/registrations/{id}/secretary", h.handleSetSecretaryFields)
		regRouter.Patch("/registrations/{id}/company", h.handleSetCompanyFields)
		regRouter.Put("/registrations/{id}/directors/{index}/roles", h.handleSetRole)
		regRouter.Put("/registrations/{id}/directors/{index}/role-inputs", h.handleSetRoleInput)
		regRouter.Get("/registrations/{id}/projection", h.handleProjection)
		regRouter.Post("/registrations/{id}/submit", h.handleSubmit)
		regRouter.Post("/registrations/{id}/reopen", h.handleReopen)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	reg, err := h.registrations.Create(ctx, userID, req.FormType)
	if err != nil {
		h.writeServiceError(ctx, w, "create registration", err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, viewOf(reg))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	regs, err := h.registrations.List(ctx, middleware.GetUserID(ctx))
	if err != nil {
		h.writeServiceError(ctx, w, "list registrations", err)
		return
	}
	views := make([]registrationView, 0, len(regs))
	for _, reg := range regs {
		views = append(views, viewOf(reg))
	}
	shared.WriteJSON(w, http.StatusOK, views)
}

func (h *Handler) handleListSaved(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	regs, err := h.registrations.ListSaved(ctx, middleware.GetUserID(ctx))
	if err != nil {
		h.writeServiceError(ctx, w, "list saved registrations", err)
		return
	}
	views := make([]registrationView, 0, len(regs))
	for _, reg := range regs {
		views = append(views, viewOf(reg))
	}
	shared.WriteJSON(w, http.StatusOK, views)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	reg, err := h.registrations.Get(ctx, middleware.GetUserID(ctx), id)
	if err != nil {
		h.writeServiceError(ctx, w, "get registration", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, viewOf(reg))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.registrations.Delete(ctx, middleware.GetUserID(ctx), id); err != nil {
		h.writeServiceError(ctx, w, "delete registration", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAddRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req addRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	index, err := h.registrations.AddRecord(ctx, middleware.GetUserID(ctx), id, schema.RecordKind(req.Kind))
	if err != nil {
		h.writeServiceError(ctx, w, "add record", err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, addRecordResponse{Index: index})
}

func (h *Handler) handleRemoveRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	kind := schema.RecordKind(chi.URLParam(r, "kind"))
	index, ok := h.pathIndex(w, r)
	if !ok {
		return
	}
	if err := h.registrations.RemoveRecord(ctx, middleware.GetUserID(ctx), id, kind, index); err != nil {
		h.writeServiceError(ctx, w, "remove record", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetFields(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	kind := schema.RecordKind(chi.URLParam(r, "kind"))
	index, ok := h.pathIndex(w, r)
	if !ok {
		return
	}
	var req setFieldsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Fields) == 0 {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.registrations.SetFields(ctx, middleware.GetUserID(ctx), id, kind, index, req.Fields); err != nil {
		h.writeServiceError(ctx, w, "set fields", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetSecretaryFields(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req setFieldsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Fields) == 0 {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.registrations.SetFields(ctx, middleware.GetUserID(ctx), id, schema.KindSecretary, 0, req.Fields); err != nil {
		h.writeServiceError(ctx, w, "set secretary fields", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetCompanyFields(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req setFieldsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Fields) == 0 {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.registrations.SetCompanyFields(ctx, middleware.GetUserID(ctx), id, req.Fields); err != nil {
		h.writeServiceError(ctx, w, "set company fields", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	index, ok := h.pathIndex(w, r)
	if !ok {
		return
	}
	var req setRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	role, ok := models.ParseRole(req.Role)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "unknown role"))
		return
	}
	flags, err := h.registrations.SetRole(ctx, middleware.GetUserID(ctx), id, index, role, req.Enabled)
	if err != nil {
		h.writeServiceError(ctx, w, "set role", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, setRoleResponse{Roles: roleFlagsView{
		DirectorOnly:    flags.DirectorOnly,
		Secretary:       flags.Secretary,
		Subscriber:      flags.Subscriber,
		BeneficialOwner: flags.BeneficialOwner,
	}})
}

func (h *Handler) handleSetRoleInput(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	index, ok := h.pathIndex(w, r)
	if !ok {
		return
	}
	var req setRoleInputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Field == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.registrations.SetRoleInput(ctx, middleware.GetUserID(ctx), id, index, req.Field, req.Value); err != nil {
		h.writeServiceError(ctx, w, "set role input", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleProjection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	projection, err := h.registrations.Projection(ctx, middleware.GetUserID(ctx), id)
	if err != nil {
		h.writeServiceError(ctx, w, "project registration", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, projectionViewOf(projection))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.registrations.Submit(ctx, middleware.GetUserID(ctx), id); err != nil {
		h.writeServiceError(ctx, w, "submit registration", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleReopen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	reg, err := h.registrations.Reopen(ctx, middleware.GetUserID(ctx), id)
	if err != nil {
		h.writeServiceError(ctx, w, "reopen registration", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, viewOf(reg))
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid registration id"))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) pathIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid record index"))
		return 0, false
	}
	return index, true
}

// writeServiceError logs with request context and writes the translated
// domain error. Uncoded errors surface as 500 with a generic message.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	requestID := middleware.GetRequestID(ctx)
	code := dErrors.CodeOf(err)
	if code == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "registration operation failed",
			"request_id", requestID,
			"operation", op,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "operation failed"))
		return
	}
	h.logger.WarnContext(ctx, "registration operation rejected",
		"request_id", requestID,
		"operation", op,
		"code", string(code),
		"error", err.Error(),
	)
	shared.WriteError(w, err)
}
