package relation

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"school-health-service/internal/auth"
	"school-health-service/internal/user"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	relations map[int]*Relation
	nextID    int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{relations: make(map[int]*Relation), nextID: 1}
}

func (f *fakeRepo) Create(_ context.Context, rel *Relation) (*Relation, error) {
	rel.ID = f.nextID
	f.nextID++
	f.relations[rel.ID] = rel
	return rel, nil
}

func (f *fakeRepo) ExistsActiveHomeroom(_ context.Context, teacherID, studentID, schoolYear int) (bool, error) {
	for _, rel := range f.relations {
		if rel.IsActive && rel.RelationType == TypeHomeroom &&
			rel.TeacherID == teacherID && rel.StudentID == studentID && rel.SchoolYear == schoolYear {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) ListActiveHomeroomStudentIDs(_ context.Context, teacherID, schoolYear int) ([]int, error) {
	var ids []int
	for _, rel := range f.relations {
		if rel.IsActive && rel.RelationType == TypeHomeroom &&
			rel.TeacherID == teacherID && rel.SchoolYear == schoolYear {
			ids = append(ids, rel.StudentID)
		}
	}
	return ids, nil
}

func (f *fakeRepo) ListByStudent(_ context.Context, studentID int) ([]Relation, error) {
	var out []Relation
	for _, rel := range f.relations {
		if rel.StudentID == studentID {
			out = append(out, *rel)
		}
	}
	return out, nil
}

func (f *fakeRepo) Retire(_ context.Context, id int) error {
	rel, ok := f.relations[id]
	if !ok || !rel.IsActive {
		return ErrRelationNotFound
	}
	rel.IsActive = false
	return nil
}

func newTestRouter(repo Repository, role user.Role) chi.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(repo, logger)

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := &auth.Claims{UserID: 1, Role: role}
			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	})
	handler.RegisterRoutes(router)
	return router
}

func do(router chi.Router, method, path string, payload any) *httptest.ResponseRecorder {
	var body io.Reader
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandler_Assign(t *testing.T) {
	payload := map[string]any{
		"studentId":    42,
		"teacherId":    7,
		"relationType": "homeroom",
		"schoolYear":   2025,
	}

	t.Run("AdminCreates", func(t *testing.T) {
		repo := newFakeRepo()
		router := newTestRouter(repo, user.RoleAdmin)

		w := do(router, http.MethodPost, "/relations", payload)
		require.Equal(t, http.StatusCreated, w.Code)

		var created Relation
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		assert.True(t, created.IsActive)
		assert.Equal(t, TypeHomeroom, created.RelationType)

		allowed, err := repo.ExistsActiveHomeroom(context.Background(), 7, 42, 2025)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("TeacherForbidden", func(t *testing.T) {
		repo := newFakeRepo()
		router := newTestRouter(repo, user.RoleTeacher)

		w := do(router, http.MethodPost, "/relations", payload)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Empty(t, repo.relations)
	})

	t.Run("UnknownRelationType", func(t *testing.T) {
		repo := newFakeRepo()
		router := newTestRouter(repo, user.RoleAdmin)

		bad := map[string]any{
			"studentId":    42,
			"teacherId":    7,
			"relationType": "mentor",
			"schoolYear":   2025,
		}
		w := do(router, http.MethodPost, "/relations", bad)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandler_Retire(t *testing.T) {
	repo := newFakeRepo()
	rel, err := repo.Create(context.Background(), &Relation{
		StudentID:    42,
		TeacherID:    7,
		RelationType: TypeHomeroom,
		SchoolYear:   2025,
		IsActive:     true,
	})
	require.NoError(t, err)

	router := newTestRouter(repo, user.RoleAdmin)

	w := do(router, http.MethodDelete, "/relations/1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// The row survives but stops granting access
	assert.False(t, rel.IsActive)
	allowed, err := repo.ExistsActiveHomeroom(context.Background(), 7, 42, 2025)
	require.NoError(t, err)
	assert.False(t, allowed)

	// Retiring twice reports not found
	w = do(router, http.MethodDelete, "/relations/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_ListByStudent(t *testing.T) {
	repo := newFakeRepo()
	_, err := repo.Create(context.Background(), &Relation{
		StudentID: 42, TeacherID: 7, RelationType: TypeHomeroom, SchoolYear: 2025, IsActive: true,
	})
	require.NoError(t, err)

	t.Run("Admin", func(t *testing.T) {
		router := newTestRouter(repo, user.RoleAdmin)
		w := do(router, http.MethodGet, "/students/42/relations", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var relations []Relation
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &relations))
		assert.Len(t, relations, 1)
	})

	t.Run("HealthTeacherForbidden", func(t *testing.T) {
		router := newTestRouter(repo, user.RoleHealthTeacher)
		w := do(router, http.MethodGet, "/students/42/relations", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
