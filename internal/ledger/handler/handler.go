package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	ledgerModel "github.com/SmartForm247/EasyForm2/internal/ledger/models"
	"github.com/SmartForm247/EasyForm2/internal/platform/metrics"
	"github.com/SmartForm247/EasyForm2/internal/platform/middleware"
	"github.com/SmartForm247/EasyForm2/internal/transport/http/shared"
	dErrors "github.com/SmartForm247/EasyForm2/pkg/domain-errors"
)

// Service defines the ledger operations the handler exposes.
type Service interface {
	Balance(ctx context.Context, userID string) (*ledgerModel.Account, []*ledgerModel.Transaction, error)
}

// Handler serves the credit ledger endpoints.
type Handler struct {
	ledger       Service
	logger       *slog.Logger
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

func New(ledger Service, logger *slog.Logger, m *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		ledger:       ledger,
		logger:       logger,
		metrics:      m,
		jwtValidator: jwtValidator,
	}
}

// Register attaches the ledger routes with their middleware stack.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(ledgerRouter chi.Router) {
		ledgerRouter.Use(middleware.Recovery(h.logger))
		ledgerRouter.Use(middleware.RequestID)
		ledgerRouter.Use(middleware.Logger(h.logger))
		ledgerRouter.Use(middleware.Timeout(15 * time.Second))
		ledgerRouter.Use(middleware.LatencyMiddleware(h.metrics))
		ledgerRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		ledgerRouter.Get("/ledger/balance", h.handleBalance)
	})
}

type balanceResponse struct {
	Account      *ledgerModel.Account       `json:"account"`
	Transactions []*ledgerModel.Transaction `json:"transactions"`
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	userID := middleware.GetUserID(ctx)
	if userID == "" {
		h.logger.ErrorContext(ctx, "userID missing from context despite auth middleware",
			"request_id", requestID,
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	account, transactions, err := h.ledger.Balance(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load ledger balance",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to load balance"))
		return
	}
	if transactions == nil {
		transactions = []*ledgerModel.Transaction{}
	}

	shared.WriteJSON(w, http.StatusOK, balanceResponse{
		Account:      account,
		Transactions: transactions,
	})
}
