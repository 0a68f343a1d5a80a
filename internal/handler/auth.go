package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/server/authctx"
	"marketplace-backend/internal/service"
)

type AuthHandler struct {
	Service *service.AuthService
}

func (h AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.login)
	r.Post("/auth/refresh", h.refresh)
}

func (h AuthHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Get("/auth/me", h.me)
}

// RegisterAdminRoutes mounts user management. The caller gates it to admins.
func (h AuthHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/users", h.listUsers)
	r.Post("/users", h.createUser)
}

func (h AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.Service.Login(r.Context(), service.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeAuthResponse(w, res)
}

func (h AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.Service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeAuthResponse(w, res)
}

func (h AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	current := authctx.FromContext(r.Context())
	if current == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	user, err := h.Service.Me(r.Context(), current.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userPayload(*user))
}

func (h AuthHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(users))
	for _, u := range users {
		resp = append(resp, userPayload(u))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h AuthHandler) createUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
		Role     string `json:"role" validate:"omitempty,oneof=admin manager cashier"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.Service.CreateUser(r.Context(), service.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.UserRole(req.Role),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, userPayload(*user))
}

func userPayload(u domain.User) map[string]any {
	return map[string]any{
		"id":    formatID(u.ID),
		"name":  u.Name,
		"email": u.Email,
		"role":  string(u.Role),
	}
}

func writeAuthResponse(w http.ResponseWriter, res *service.AuthResult) {
	writeJSON(w, http.StatusOK, map[string]any{
		"token":        res.AccessToken,
		"refreshToken": res.RefreshToken,
		"expiresAt":    res.ExpiresAt.UTC().Format(time.RFC3339),
		"user":         userPayload(res.User),
	})
}
