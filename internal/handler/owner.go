package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/repository"
)

type OwnerHandler struct {
	Repo repository.OwnerRepository
}

func (h OwnerHandler) RegisterRoutes(r chi.Router) {
	r.Get("/owners", h.list)
	r.Get("/owners/{id}", h.get)
}

// RegisterManageRoutes mounts the write endpoints.
func (h OwnerHandler) RegisterManageRoutes(r chi.Router) {
	r.Post("/owners", h.create)
	r.Put("/owners/{id}", h.update)
	r.Delete("/owners/{id}", h.delete)
}

type ownerRequest struct {
	Name       string `json:"name" validate:"required,max=255"`
	Identifier string `json:"identifier" validate:"required,max=32"`
	Phone      string `json:"phone" validate:"max=32"`
	Address    string `json:"address"`
}

func (req ownerRequest) input() repository.OwnerInput {
	return repository.OwnerInput{
		Name:       strings.TrimSpace(req.Name),
		Identifier: strings.TrimSpace(req.Identifier),
		Phone:      strings.TrimSpace(req.Phone),
		Address:    strings.TrimSpace(req.Address),
	}
}

func (h OwnerHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := 200
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 1000 {
		limit = v
	}
	items, err := h.Repo.List(r.Context(), strings.TrimSpace(r.URL.Query().Get("q")), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, o := range items {
		resp = append(resp, ownerPayload(o))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h OwnerHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	o, err := h.Repo.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ownerPayload(*o))
}

func (h OwnerHandler) create(w http.ResponseWriter, r *http.Request) {
	var req ownerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	o, err := h.Repo.Create(r.Context(), req.input())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ownerPayload(*o))
}

func (h OwnerHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req ownerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	o, err := h.Repo.Update(r.Context(), id, req.input())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ownerPayload(*o))
}

func (h OwnerHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.Repo.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func ownerPayload(o domain.Owner) map[string]any {
	return map[string]any{
		"id":         formatID(o.ID),
		"name":       o.Name,
		"identifier": o.Identifier,
		"phone":      o.Phone,
		"address":    o.Address,
		"createdAt":  o.CreatedAt,
	}
}
