package student

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"school-health-service/internal/auth"
	"school-health-service/internal/authz"
	"school-health-service/internal/httputil"
	"school-health-service/internal/metrics"
	"school-health-service/internal/user"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service  Service
	validate *validator.Validate
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewHandler(service Service, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
		metrics:  m,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/students", h.List)
	router.Post("/students", h.Create)
	router.Get("/students/statistics", h.Statistics)
	router.Get("/students/{id}", h.Get)
	router.Put("/students/{id}", h.Update)
	router.Delete("/students/{id}", h.Deactivate)
	router.Delete("/students/{id}/permanent", h.HardDelete)
}

// List returns the students the caller is allowed to see
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httputil.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	students, err := h.service.List(r.Context(), claims)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.metrics.RecordStudentsListViewed(r.Context())
	httputil.RespondWithJSON(w, http.StatusOK, students)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httputil.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid student ID")
		return
	}

	st, err := h.service.Get(r.Context(), claims, id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.metrics.RecordStudentViewed(r.Context())
	httputil.RespondWithJSON(w, http.StatusOK, st)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httputil.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var st Student
	if err := json.NewDecoder(r.Body).Decode(&st); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(&st); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid student data")
		return
	}

	h.logger.InfoContext(r.Context(), "creating student", "grade", st.Grade, "class", st.ClassNumber)

	created, err := h.service.Create(r.Context(), claims, &st)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusCreated, created)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httputil.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid student ID")
		return
	}

	var st Student
	if err := json.NewDecoder(r.Body).Decode(&st); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(&st); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid student data")
		return
	}
	st.ID = id

	if err := h.service.Update(r.Context(), claims, &st); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, st)
}

// Deactivate soft-deletes: the student drops out of lists but the row and
// its relation history remain.
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httputil.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid student ID")
		return
	}

	if err := h.service.Deactivate(r.Context(), claims, id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HardDelete(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httputil.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid student ID")
		return
	}

	h.logger.InfoContext(r.Context(), "permanently deleting student", "student_id", id, "user_id", claims.UserID)

	if err := h.service.HardDelete(r.Context(), claims, id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httputil.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	schoolType := user.SchoolType(r.URL.Query().Get("schoolType"))
	switch schoolType {
	case "", user.SchoolElementary, user.SchoolMiddle, user.SchoolHigh:
	default:
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid school type")
		return
	}

	stats, err := h.service.Statistics(r.Context(), claims, schoolType)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrStudentNotFound):
		httputil.RespondWithError(w, http.StatusNotFound, "student not found")
	case errors.Is(err, ErrInvalidInput):
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, authz.ErrForbidden):
		httputil.RespondWithError(w, http.StatusForbidden, "forbidden")
	default:
		h.logger.ErrorContext(r.Context(), "student request failed", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
