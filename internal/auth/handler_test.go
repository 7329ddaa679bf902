package auth_test

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

func newTestRouter(t *testing.T) (chi.Router, *auth.Service, *fakeUserRepo) {
	t.Helper()

	service, repo, _ := newTestService(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := auth.NewHandler(service, logger)
	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	return router, service, repo
}

func postJSON(t *testing.T, router chi.Router, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandler_Login(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		router, _, repo := newTestRouter(t)
		seedUser(t, repo, "teacher@school.test", "password123", user.RoleTeacher)

		w := postJSON(t, router, "/auth/login", map[string]string{
			"email":    "teacher@school.test",
			"password": "password123",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var resp auth.AuthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "teacher@school.test", resp.User.Email)

		// The password hash must never appear in the response
		assert.NotContains(t, w.Body.String(), "password")
	})

	t.Run("WrongPassword", func(t *testing.T) {
		router, _, repo := newTestRouter(t)
		seedUser(t, repo, "teacher@school.test", "password123", user.RoleTeacher)

		w := postJSON(t, router, "/auth/login", map[string]string{
			"email":    "teacher@school.test",
			"password": "nope",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("UnknownEmail_SameStatus", func(t *testing.T) {
		router, _, _ := newTestRouter(t)

		w := postJSON(t, router, "/auth/login", map[string]string{
			"email":    "ghost@school.test",
			"password": "password123",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("MissingFields", func(t *testing.T) {
		router, _, _ := newTestRouter(t)

		w := postJSON(t, router, "/auth/login", map[string]string{"email": "teacher@school.test"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		router, _, _ := newTestRouter(t)

		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader([]byte("{not json")))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandler_Register(t *testing.T) {
	payload := map[string]any{
		"name":        "New Teacher",
		"email":       "new@school.test",
		"password":    "password123",
		"role":        "teacher",
		"schoolType":  "elementary",
		"schoolName":  "Central Elementary",
		"phoneNumber": "010-0000-0000",
	}

	t.Run("Success", func(t *testing.T) {
		router, _, _ := newTestRouter(t)

		w := postJSON(t, router, "/auth/register", payload)
		require.Equal(t, http.StatusCreated, w.Code)

		var resp auth.AuthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "new@school.test", resp.User.Email)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		router, _, _ := newTestRouter(t)

		w := postJSON(t, router, "/auth/register", payload)
		require.Equal(t, http.StatusCreated, w.Code)

		w = postJSON(t, router, "/auth/register", payload)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("UnknownRole", func(t *testing.T) {
		router, _, _ := newTestRouter(t)

		bad := map[string]any{}
		for k, v := range payload {
			bad[k] = v
		}
		bad["role"] = "principal"

		w := postJSON(t, router, "/auth/register", bad)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandler_Logout(t *testing.T) {
	router, service, repo := newTestRouter(t)
	u := seedUser(t, repo, "teacher@school.test", "password123", user.RoleTeacher)

	resp, err := service.Login(context.Background(), auth.LoginRequest{
		Email:    "teacher@school.test",
		Password: "password123",
	})
	require.NoError(t, err)

	w := postJSON(t, router, "/auth/logout", map[string]int{"userId": u.ID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success": true}`, w.Body.String())

	_, err = service.Validate(context.Background(), resp.Token)
	assert.ErrorIs(t, err, auth.ErrUnauthorized)

	// Logging out again still reports success
	w = postJSON(t, router, "/auth/logout", map[string]int{"userId": u.ID})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandler_Me(t *testing.T) {
	router, service, repo := newTestRouter(t)
	seedUser(t, repo, "teacher@school.test", "password123", user.RoleTeacher)

	resp, err := service.Login(context.Background(), auth.LoginRequest{
		Email:    "teacher@school.test",
		Password: "password123",
	})
	require.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+resp.Token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "teacher@school.test")
		assert.NotContains(t, w.Body.String(), "password")
	})

	t.Run("MissingToken", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("InvalidToken", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
