package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/server/authctx"
)

var errInvalidToken = errors.New("invalid token")

// AuthMiddleware validates the bearer access token and stores the staff user
// in the request context.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				writeAuthError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			user, err := parseAccessToken(strings.TrimPrefix(auth, "Bearer "), secret)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, err.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(authctx.WithCurrentUser(r.Context(), user)))
		})
	}
}

func parseAccessToken(raw, secret string) (authctx.CurrentUser, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return authctx.CurrentUser{}, errInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["token_type"] != "access" {
		return authctx.CurrentUser{}, errInvalidToken
	}
	sub, _ := claims["sub"].(string)
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return authctx.CurrentUser{}, errors.New("invalid subject")
	}
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	switch domain.UserRole(role) {
	case domain.RoleAdmin, domain.RoleManager, domain.RoleCashier:
	default:
		return authctx.CurrentUser{}, errors.New("unknown role")
	}
	return authctx.CurrentUser{ID: id, Email: email, Role: domain.UserRole(role)}, nil
}

// RequireRole ensures the user has one of the allowed roles. No roles means
// any authenticated user.
func RequireRole(roles ...domain.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := authctx.FromContext(r.Context())
			if u == nil {
				writeAuthError(w, http.StatusForbidden, "forbidden")
				return
			}
			if len(roles) > 0 && !u.HasRole(roles...) {
				writeAuthError(w, http.StatusForbidden, "role "+string(u.Role)+" is not allowed")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "error",
		"message": message,
		"data":    nil,
		"error": map[string]any{
			"code":   status,
			"status": http.StatusText(status),
		},
	})
}
