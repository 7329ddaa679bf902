package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"school-health-service/internal/httputil"
	"school-health-service/internal/user"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service  *Service
	validate *validator.Validate
	logger   *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Post("/auth/register", h.Register)
	router.Post("/auth/login", h.Login)
	router.Post("/auth/logout", h.Logout)
	router.Get("/auth/me", h.Me)
}

// Register creates a new staff account
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		h.logger.WarnContext(r.Context(), "registration validation failed", "error", err)
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid registration data")
		return
	}

	resp, err := h.service.Register(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			httputil.RespondWithError(w, http.StatusConflict, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "registration failed", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.InfoContext(r.Context(), "staff account registered", "email", req.Email, "role", req.Role)
	httputil.RespondWithJSON(w, http.StatusCreated, resp)
}

// Login authenticates a staff member and returns a session token
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			httputil.RespondWithError(w, http.StatusUnauthorized, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "login failed", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.InfoContext(r.Context(), "user logged in", "email", req.Email)
	httputil.RespondWithJSON(w, http.StatusOK, resp)
}

// Logout revokes the user's session. Logging out an absent session succeeds.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req LogoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "userId is required")
		return
	}

	if err := h.service.Logout(r.Context(), req.UserID); err != nil {
		h.logger.ErrorContext(r.Context(), "logout failed", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.InfoContext(r.Context(), "user logged out", "user_id", req.UserID)
	httputil.RespondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Me returns the sanitized account for the presented bearer token
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		httputil.RespondWithError(w, http.StatusUnauthorized, "missing token")
		return
	}

	claims, err := h.service.Validate(r.Context(), token)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			httputil.RespondWithError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		h.logger.ErrorContext(r.Context(), "token validation failed", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	u, err := h.service.CurrentUser(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			httputil.RespondWithError(w, http.StatusNotFound, "user not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "current user lookup failed", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, map[string]any{"user": u})
}
