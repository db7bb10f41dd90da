// Package handler serves the signup and login endpoints. Both are public;
// the session listing requires a bearer token.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/SmartForm247/EasyForm2/internal/auth/models"
	"github.com/SmartForm247/EasyForm2/internal/auth/service"
	"github.com/SmartForm247/EasyForm2/internal/platform/metrics"
	"github.com/SmartForm247/EasyForm2/internal/platform/middleware"
	"github.com/SmartForm247/EasyForm2/internal/transport/http/shared"
	dErrors "github.com/SmartForm247/EasyForm2/pkg/domain-errors"
)

type Handler struct {
	auth         *service.Service
	logger       *slog.Logger
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

func New(auth *service.Service, logger *slog.Logger, m *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{auth: auth, logger: logger, metrics: m, jwtValidator: jwtValidator}
}

// Register attaches the auth routes with their middleware stack.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(authRouter chi.Router) {
		authRouter.Use(middleware.Recovery(h.logger))
		authRouter.Use(middleware.RequestID)
		authRouter.Use(middleware.Logger(h.logger))
		authRouter.Use(middleware.Timeout(15 * time.Second))
		authRouter.Use(middleware.ContentTypeJSON)
		authRouter.Use(middleware.LatencyMiddleware(h.metrics))

		authRouter.Post("/auth/signup", h.handleSignUp)
		authRouter.Post("/auth/login", h.handleLogin)

		authRouter.Group(func(protected chi.Router) {
			protected.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
			protected.Get("/auth/sessions", h.handleSessions)
		})
	})
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signUpResponse struct {
	User *models.User `json:"user"`
}

type loginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *models.User `json:"user"`
}

type sessionsResponse struct {
	Sessions []*models.Session `json:"sessions"`
}

func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	user, err := h.auth.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		h.writeServiceError(ctx, w, "signup", err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, signUpResponse{User: user})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.auth.Login(ctx, req.Email, req.Password, r.UserAgent(), clientIP(r))
	if err != nil {
		h.writeServiceError(ctx, w, "login", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, loginResponse{
		AccessToken: result.AccessToken,
		TokenType:   "Bearer",
		User:        result.User,
	})
}

func (h *Handler) handleSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := uuid.Parse(middleware.GetUserID(ctx))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject"))
		return
	}

	sessions, err := h.auth.Sessions(ctx, userID)
	if err != nil {
		h.writeServiceError(ctx, w, "list sessions", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, sessionsResponse{Sessions: sessions})
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	requestID := middleware.GetRequestID(ctx)
	code := dErrors.CodeOf(err)
	if code == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "auth operation failed",
			"request_id", requestID,
			"operation", op,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "operation failed"))
		return
	}
	h.logger.WarnContext(ctx, "auth operation rejected",
		"request_id", requestID,
		"operation", op,
		"code", string(code),
		"error", err.Error(),
	)
	shared.WriteError(w, err)
}
