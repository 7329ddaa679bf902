package relation

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"school-health-service/internal/auth"
	"school-health-service/internal/httputil"
	"school-health-service/internal/user"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Handler manages teacher-student assignments. Only admins may create or
// retire relations; teachers gain and lose scope through them but never
// edit them.
type Handler struct {
	repo     Repository
	validate *validator.Validate
	logger   *slog.Logger
}

func NewHandler(repo Repository, logger *slog.Logger) *Handler {
	return &Handler{
		repo:     repo,
		validate: validator.New(),
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Post("/relations", h.Assign)
	router.Get("/students/{studentID}/relations", h.ListByStudent)
	router.Delete("/relations/{id}", h.Retire)
}

func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var req AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid relation data")
		return
	}

	created, err := h.repo.Create(r.Context(), &Relation{
		StudentID:    req.StudentID,
		TeacherID:    req.TeacherID,
		RelationType: req.RelationType,
		SchoolYear:   req.SchoolYear,
		Semester:     req.Semester,
		SubjectName:  req.SubjectName,
		IsActive:     true,
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to create relation", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.InfoContext(r.Context(), "relation assigned",
		"teacher_id", created.TeacherID,
		"student_id", created.StudentID,
		"relation_type", created.RelationType,
		"school_year", created.SchoolYear,
	)

	httputil.RespondWithJSON(w, http.StatusCreated, created)
}

func (h *Handler) ListByStudent(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	studentID, err := strconv.Atoi(chi.URLParam(r, "studentID"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid student ID")
		return
	}

	relations, err := h.repo.ListByStudent(r.Context(), studentID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list relations", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, relations)
}

// Retire deactivates a relation. The row stays for the audit trail.
func (h *Handler) Retire(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid relation ID")
		return
	}

	if err := h.repo.Retire(r.Context(), id); err != nil {
		if errors.Is(err, ErrRelationNotFound) {
			httputil.RespondWithError(w, http.StatusNotFound, "relation not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to retire relation", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	role, ok := auth.GetRole(r.Context())
	if !ok {
		httputil.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return false
	}
	if role != user.RoleAdmin {
		httputil.RespondWithError(w, http.StatusForbidden, "forbidden")
		return false
	}
	return true
}
