package growth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"school-health-service/internal/auth"
	"school-health-service/internal/authz"
	"school-health-service/internal/httputil"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	repo     Repository
	resolver *authz.Resolver
	validate *validator.Validate
	logger   *slog.Logger
}

func NewHandler(repo Repository, resolver *authz.Resolver, logger *slog.Logger) *Handler {
	return &Handler{
		repo:     repo,
		resolver: resolver,
		validate: validator.New(),
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/students/{studentID}/growths", h.ListByStudent)
	router.Post("/students/{studentID}/growths", h.Create)
	router.Put("/growths/{id}", h.Update)
	router.Delete("/growths/{id}", h.Delete)
}

func (h *Handler) ListByStudent(w http.ResponseWriter, r *http.Request) {
	studentID, ok := h.authorizeStudent(w, r, chi.URLParam(r, "studentID"))
	if !ok {
		return
	}

	records, err := h.repo.ListByStudent(r.Context(), studentID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list growth records", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, records)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	studentID, ok := h.authorizeStudent(w, r, chi.URLParam(r, "studentID"))
	if !ok {
		return
	}

	var record Growth
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(&record); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid growth data")
		return
	}
	record.StudentID = studentID
	record.ComputeBMI()

	created, err := h.repo.Create(r.Context(), &record)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to create growth record", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httputil.RespondWithJSON(w, http.StatusCreated, created)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.loadAuthorized(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var record Growth
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(&record); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid growth data")
		return
	}
	record.ID = existing.ID
	record.StudentID = existing.StudentID
	record.ComputeBMI()

	if err := h.repo.Update(r.Context(), &record); err != nil {
		h.handleRepoError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, record)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.loadAuthorized(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.repo.Delete(r.Context(), existing.ID); err != nil {
		h.handleRepoError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// authorizeStudent parses a student id and checks the caller may touch that
// student's records.
func (h *Handler) authorizeStudent(w http.ResponseWriter, r *http.Request, rawID string) (int, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httputil.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return 0, false
	}

	studentID, err := strconv.Atoi(rawID)
	if err != nil || studentID <= 0 {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid student ID")
		return 0, false
	}

	allowed, err := h.resolver.Authorize(r.Context(), claims, studentID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "authorization check failed", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return 0, false
	}
	if !allowed {
		httputil.RespondWithError(w, http.StatusForbidden, "forbidden")
		return 0, false
	}

	return studentID, true
}

// loadAuthorized fetches a record by id and authorizes against its student.
func (h *Handler) loadAuthorized(w http.ResponseWriter, r *http.Request, rawID string) (*Growth, bool) {
	id, err := strconv.Atoi(rawID)
	if err != nil || id <= 0 {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid record ID")
		return nil, false
	}

	record, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.handleRepoError(w, r, err)
		return nil, false
	}

	if _, ok := h.authorizeStudent(w, r, strconv.Itoa(record.StudentID)); !ok {
		return nil, false
	}
	return record, true
}

func (h *Handler) handleRepoError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrGrowthNotFound) {
		httputil.RespondWithError(w, http.StatusNotFound, "growth record not found")
		return
	}
	h.logger.ErrorContext(r.Context(), "growth request failed", "error", err)
	httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
}
