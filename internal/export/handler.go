package export

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/SmartForm247/EasyForm2/internal/platform/metrics"
	"github.com/SmartForm247/EasyForm2/internal/platform/middleware"
	"github.com/SmartForm247/EasyForm2/internal/transport/http/shared"
	dErrors "github.com/SmartForm247/EasyForm2/pkg/domain-errors"
)

// Handler serves the export endpoint.
type Handler struct {
	exporter     *Service
	logger       *slog.Logger
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

func NewHandler(exporter *Service, logger *slog.Logger, m *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		exporter:     exporter,
		logger:       logger,
		metrics:      m,
		jwtValidator: jwtValidator,
	}
}

// Register attaches the export route. The timeout is generous because a
// render spawns a browser.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(exportRouter chi.Router) {
		exportRouter.Use(middleware.Recovery(h.logger))
		exportRouter.Use(middleware.RequestID)
		exportRouter.Use(middleware.Logger(h.logger))
		exportRouter.Use(middleware.Timeout(2 * time.Minute))
		exportRouter.Use(middleware.LatencyMiddleware(h.metrics))
		exportRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

		exportRouter.Post("/registrations/{id}/export", h.handleExport)
	})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid registration id"))
		return
	}

	result, err := h.exporter.Export(ctx, middleware.GetUserID(ctx), id)
	if err != nil {
		code := dErrors.CodeOf(err)
		if code == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "export failed",
				"request_id", middleware.GetRequestID(ctx),
				"registration_id", id,
				"error", err.Error(),
			)
			shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "operation failed"))
			return
		}
		h.logger.WarnContext(ctx, "export rejected",
			"request_id", middleware.GetRequestID(ctx),
			"registration_id", id,
			"code", string(code),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}
