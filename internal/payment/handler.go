package payment

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/SmartForm247/EasyForm2/internal/platform/metrics"
	"github.com/SmartForm247/EasyForm2/internal/platform/middleware"
	"github.com/SmartForm247/EasyForm2/internal/transport/http/shared"
)

// Handler serves the payment verification endpoint. The route is public; it
// is called from the payment page with the gateway reference, and the secret
// needed to actually verify lives server-side.
type Handler struct {
	service *Service
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewHandler(service *Service, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{service: service, logger: logger, metrics: m}
}

// Register attaches the payment routes with their middleware stack.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(paymentRouter chi.Router) {
		paymentRouter.Use(middleware.Recovery(h.logger))
		paymentRouter.Use(middleware.RequestID)
		paymentRouter.Use(middleware.Logger(h.logger))
		paymentRouter.Use(middleware.Timeout(30 * time.Second))
		paymentRouter.Use(middleware.ContentTypeJSON)
		paymentRouter.Use(middleware.LatencyMiddleware(h.metrics))
		paymentRouter.Post("/paystack/verify", h.handleVerify)
	})
}

type verifyRequest struct {
	Reference string  `json:"reference"`
	UserID    string  `json:"userId"`
	Amount    float64 `json:"amount"`
}

type verifyResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid verify request body",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteJSON(w, http.StatusBadRequest, verifyResponse{Status: "error", Message: "Missing fields"})
		return
	}
	if req.Reference == "" || req.UserID == "" || req.Amount == 0 {
		shared.WriteJSON(w, http.StatusBadRequest, verifyResponse{Status: "error", Message: "Missing fields"})
		return
	}

	result, err := h.service.Verify(ctx, VerifyRequest{
		Reference: req.Reference,
		UserID:    req.UserID,
		Amount:    req.Amount,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "payment verification failed",
			"request_id", requestID,
			"reference", req.Reference,
			"error", err.Error(),
		)
		shared.WriteJSON(w, http.StatusInternalServerError, verifyResponse{Status: "error", Message: "Server error"})
		return
	}

	status := http.StatusOK
	switch result.Status {
	case StatusFailed:
		status = http.StatusBadRequest
	case StatusError:
		status = http.StatusBadGateway
	}
	shared.WriteJSON(w, status, verifyResponse{Status: string(result.Status), Message: result.Message})
}
