package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/server/authctx"
)

const secret = "test-secret"

func signed(t *testing.T, claims jwt.MapClaims, key string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return s
}

func accessClaims(role domain.UserRole) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":        "42",
		"email":      "m@bozor.uz",
		"role":       string(role),
		"token_type": "access",
		"exp":        time.Now().Add(time.Hour).Unix(),
	}
}

func protected(roles ...domain.UserRole) http.Handler {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := authctx.FromContext(r.Context())
		w.Header().Set("X-User", u.Email)
		w.WriteHeader(http.StatusNoContent)
	})
	return AuthMiddleware(secret)(RequireRole(roles...)(ok))
}

func serve(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	expired := accessClaims(domain.RoleAdmin)
	expired["exp"] = time.Now().Add(-time.Minute).Unix()
	refresh := accessClaims(domain.RoleAdmin)
	refresh["token_type"] = "refresh"

	cases := []struct {
		name   string
		token  string
		roles  []domain.UserRole
		status int
	}{
		{"missing", "", nil, http.StatusUnauthorized},
		{"valid any role", signed(t, accessClaims(domain.RoleCashier), secret), nil, http.StatusNoContent},
		{"role allowed", signed(t, accessClaims(domain.RoleManager), secret), []domain.UserRole{domain.RoleAdmin, domain.RoleManager}, http.StatusNoContent},
		{"role denied", signed(t, accessClaims(domain.RoleCashier), secret), []domain.UserRole{domain.RoleAdmin}, http.StatusForbidden},
		{"wrong key", signed(t, accessClaims(domain.RoleAdmin), "other"), nil, http.StatusUnauthorized},
		{"expired", signed(t, expired, secret), nil, http.StatusUnauthorized},
		{"refresh token", signed(t, refresh, secret), nil, http.StatusUnauthorized},
		{"unknown role", signed(t, accessClaims("staff"), secret), nil, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(protected(tc.roles...), tc.token)
			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusNoContent {
				assert.Equal(t, "m@bozor.uz", rec.Header().Get("X-User"))
			} else {
				assert.Contains(t, rec.Body.String(), `"status":"error"`)
			}
		})
	}
}
