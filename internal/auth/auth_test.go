package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	return NewService("admin", string(hash), "signing-key", time.Hour)
}

func TestService_Login(t *testing.T) {
	type testCase struct {
		name     string
		username string
		password string
		wantErr  error
	}

	tests := []testCase{
		{name: "Success", username: "admin", password: "s3cret"},
		{name: "WrongPassword", username: "admin", password: "nope", wantErr: ErrInvalidCredentials},
		{name: "WrongUser", username: "root", password: "s3cret", wantErr: ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t)

			token, expires, err := svc.Login(tt.username, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, token)

				return
			}

			require.NoError(t, err)
			assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

			claims, err := svc.Verify(token)
			require.NoError(t, err)
			assert.Equal(t, "admin", claims.Subject)
			assert.Equal(t, "admin", claims.Role)
		})
	}
}

func TestService_Login_Unconfigured(t *testing.T) {
	svc := NewService("admin", "", "", time.Hour)

	_, _, err := svc.Login("admin", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_Verify(t *testing.T) {
	svc := newTestService(t)

	token, _, err := svc.Login("admin", "s3cret")
	require.NoError(t, err)

	t.Run("OtherKey", func(t *testing.T) {
		other := NewService("admin", "", "other-key", time.Hour)

		_, err := other.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Expired", func(t *testing.T) {
		svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { svc.now = time.Now }()

		_, err := svc.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := svc.Verify("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestService_Middleware(t *testing.T) {
	svc := newTestService(t)

	token, _, err := svc.Login("admin", "s3cret")
	require.NoError(t, err)

	var seen string

	h := svc.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = Username(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	type testCase struct {
		name       string
		header     string
		wantStatus int
	}

	tests := []testCase{
		{name: "Valid", header: "Bearer " + token, wantStatus: http.StatusNoContent},
		{name: "Missing", header: "", wantStatus: http.StatusUnauthorized},
		{name: "WrongScheme", header: "Basic " + token, wantStatus: http.StatusUnauthorized},
		{name: "Invalid", header: "Bearer abc", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""

			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantStatus == http.StatusNoContent {
				assert.Equal(t, "admin", seen)
			}
		})
	}
}
