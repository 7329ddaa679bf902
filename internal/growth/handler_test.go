package growth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"school-health-service/internal/auth"
	"school-health-service/internal/authz"
	"school-health-service/internal/metrics"
	"school-health-service/internal/user"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	records map[int]*Growth
	nextID  int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: make(map[int]*Growth), nextID: 1}
}

func (f *fakeRepo) Create(_ context.Context, record *Growth) (*Growth, error) {
	record.ID = f.nextID
	f.nextID++
	f.records[record.ID] = record
	return record, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id int) (*Growth, error) {
	record, ok := f.records[id]
	if !ok {
		return nil, ErrGrowthNotFound
	}
	return record, nil
}

func (f *fakeRepo) ListByStudent(_ context.Context, studentID int) ([]Growth, error) {
	var out []Growth
	for _, record := range f.records {
		if record.StudentID == studentID {
			out = append(out, *record)
		}
	}
	return out, nil
}

func (f *fakeRepo) Update(_ context.Context, record *Growth) error {
	if _, ok := f.records[record.ID]; !ok {
		return ErrGrowthNotFound
	}
	f.records[record.ID] = record
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id int) error {
	if _, ok := f.records[id]; !ok {
		return ErrGrowthNotFound
	}
	delete(f.records, id)
	return nil
}

// homeroomOnly grants teacher 7 access to student 42, nothing else.
type homeroomOnly struct{}

func (homeroomOnly) ExistsActiveHomeroom(_ context.Context, teacherID, studentID, _ int) (bool, error) {
	return teacherID == 7 && studentID == 42, nil
}

func (homeroomOnly) ListActiveHomeroomStudentIDs(_ context.Context, teacherID, _ int) ([]int, error) {
	if teacherID == 7 {
		return []int{42}, nil
	}
	return nil, nil
}

type allStudents struct{}

func (allStudents) ListActiveIDs(context.Context) ([]int, error) { return []int{42, 43}, nil }

func (allStudents) FilterActiveIDs(_ context.Context, ids []int) ([]int, error) { return ids, nil }

func newTestRouter(repo Repository, claims *auth.Claims) chi.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	resolver := authz.NewResolver(homeroomOnly{}, allStudents{}, func() int { return 2025 }, logger, metrics.NewMock(), nil)
	handler := NewHandler(repo, resolver, logger)

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
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

func measurement() map[string]any {
	return map[string]any{
		"height":          142.5,
		"weight":          38.2,
		"measurementDate": time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC),
	}
}

func TestHandler_Create(t *testing.T) {
	t.Run("HomeroomTeacher", func(t *testing.T) {
		repo := newFakeRepo()
		router := newTestRouter(repo, &auth.Claims{UserID: 7, Role: user.RoleTeacher})

		w := do(router, http.MethodPost, "/students/42/growths", measurement())
		require.Equal(t, http.StatusCreated, w.Code)

		var created Growth
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		assert.Equal(t, 42, created.StudentID)
		assert.InDelta(t, 18.8, created.BMI, 0.1)
	})

	t.Run("OutOfScopeStudent", func(t *testing.T) {
		repo := newFakeRepo()
		router := newTestRouter(repo, &auth.Claims{UserID: 7, Role: user.RoleTeacher})

		w := do(router, http.MethodPost, "/students/43/growths", measurement())
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Empty(t, repo.records)
	})

	t.Run("HealthTeacherAnyStudent", func(t *testing.T) {
		repo := newFakeRepo()
		router := newTestRouter(repo, &auth.Claims{UserID: 2, Role: user.RoleHealthTeacher})

		w := do(router, http.MethodPost, "/students/43/growths", measurement())
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("InvalidBody", func(t *testing.T) {
		repo := newFakeRepo()
		router := newTestRouter(repo, &auth.Claims{UserID: 7, Role: user.RoleTeacher})

		w := do(router, http.MethodPost, "/students/42/growths", map[string]any{"height": -1})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandler_ListByStudent(t *testing.T) {
	repo := newFakeRepo()
	_, err := repo.Create(context.Background(), &Growth{StudentID: 42, Height: 140, Weight: 35})
	require.NoError(t, err)

	t.Run("Authorized", func(t *testing.T) {
		router := newTestRouter(repo, &auth.Claims{UserID: 7, Role: user.RoleTeacher})
		w := do(router, http.MethodGet, "/students/42/growths", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var records []Growth
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
		assert.Len(t, records, 1)
	})

	t.Run("Forbidden", func(t *testing.T) {
		router := newTestRouter(repo, &auth.Claims{UserID: 8, Role: user.RoleTeacher})
		w := do(router, http.MethodGet, "/students/42/growths", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("BadStudentID", func(t *testing.T) {
		router := newTestRouter(repo, &auth.Claims{UserID: 7, Role: user.RoleTeacher})
		w := do(router, http.MethodGet, "/students/abc/growths", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandler_UpdateDelete(t *testing.T) {
	repo := newFakeRepo()
	record, err := repo.Create(context.Background(), &Growth{StudentID: 42, Height: 140, Weight: 35, MeasurementDate: time.Now()})
	require.NoError(t, err)

	t.Run("UpdateRecomputesBMI", func(t *testing.T) {
		router := newTestRouter(repo, &auth.Claims{UserID: 7, Role: user.RoleTeacher})
		w := do(router, http.MethodPut, "/growths/1", measurement())
		require.Equal(t, http.StatusOK, w.Code)

		var updated Growth
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
		assert.Equal(t, record.ID, updated.ID)
		assert.Equal(t, 42, updated.StudentID)
		assert.InDelta(t, 18.8, updated.BMI, 0.1)
	})

	t.Run("UpdateForbiddenForOutsider", func(t *testing.T) {
		router := newTestRouter(repo, &auth.Claims{UserID: 8, Role: user.RoleTeacher})
		w := do(router, http.MethodPut, "/growths/1", measurement())
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("DeleteMissing", func(t *testing.T) {
		router := newTestRouter(repo, &auth.Claims{UserID: 1, Role: user.RoleAdmin})
		w := do(router, http.MethodDelete, "/growths/999", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Delete", func(t *testing.T) {
		router := newTestRouter(repo, &auth.Claims{UserID: 1, Role: user.RoleAdmin})
		w := do(router, http.MethodDelete, "/growths/1", nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, repo.records)
	})
}

func TestComputeBMI(t *testing.T) {
	g := &Growth{Height: 150, Weight: 45}
	g.ComputeBMI()
	assert.InDelta(t, 20.0, g.BMI, 0.001)

	// Zero height leaves BMI untouched instead of dividing by zero
	z := &Growth{Height: 0, Weight: 45, BMI: 1}
	z.ComputeBMI()
	assert.Equal(t, 1.0, z.BMI)
}
