package auth_test

import (
	"context"
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

func TestMiddleware(t *testing.T) {
	service, repo, _ := newTestService(t)
	u := seedUser(t, repo, "teacher@school.test", "password123", user.RoleTeacher)

	resp, err := service.Login(context.Background(), auth.LoginRequest{
		Email:    "teacher@school.test",
		Password: "password123",
	})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var gotClaims *auth.Claims
	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware(service, logger))
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			gotClaims, _ = auth.ClaimsFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		})
	})

	call := func(authorization string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("ValidToken", func(t *testing.T) {
		w := call("Bearer " + resp.Token)
		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, gotClaims)
		assert.Equal(t, u.ID, gotClaims.UserID)
		assert.Equal(t, user.RoleTeacher, gotClaims.Role)
	})

	t.Run("NoHeader", func(t *testing.T) {
		w := call("")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("WrongScheme", func(t *testing.T) {
		w := call("Basic dXNlcjpwYXNz")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("EmptyBearer", func(t *testing.T) {
		w := call("Bearer ")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("RevokedSession", func(t *testing.T) {
		require.NoError(t, service.Logout(context.Background(), u.ID))
		w := call("Bearer " + resp.Token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestClaimsFromContext_Absent(t *testing.T) {
	_, ok := auth.ClaimsFromContext(context.Background())
	assert.False(t, ok)

	_, ok = auth.GetUserID(context.Background())
	assert.False(t, ok)

	_, ok = auth.GetRole(context.Background())
	assert.False(t, ok)
}
