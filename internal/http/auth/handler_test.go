package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrJamesThe3rd/billbot/internal/auth"
	authhttp "github.com/MrJamesThe3rd/billbot/internal/http/auth"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	svc := auth.NewService("admin", string(hash), "signing-key", time.Hour)

	r := chi.NewRouter()
	r.Route("/api/auth", authhttp.NewHandler(svc).Routes)

	return r
}

func TestHandler_Login(t *testing.T) {
	type testCase struct {
		name       string
		body       string
		wantStatus int
	}

	tests := []testCase{
		{name: "Success", body: `{"username":"admin","password":"s3cret"}`, wantStatus: http.StatusOK},
		{name: "WrongPassword", body: `{"username":"admin","password":"nope"}`, wantStatus: http.StatusUnauthorized},
		{name: "MissingPassword", body: `{"username":"admin"}`, wantStatus: http.StatusBadRequest},
		{name: "MalformedJSON", body: `{`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(tt.body))

			newRouter(t).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestHandler_Me(t *testing.T) {
	router := newRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"admin","password":"s3cret"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	require.NotEmpty(t, login.Token)

	t.Run("WithToken", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+login.Token)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"username":"admin"}`, rec.Body.String())
	})

	t.Run("WithoutToken", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
