package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"marketplace-backend/internal/repository"
)

// ReferenceHandler serves one lookup table (sections or sale types) under Path.
type ReferenceHandler struct {
	Path string
	Repo repository.ReferenceRepository
}

func (h ReferenceHandler) RegisterRoutes(r chi.Router) {
	r.Get(h.Path, h.list)
	r.Get(h.Path+"/{id}", h.get)
}

func (h ReferenceHandler) RegisterManageRoutes(r chi.Router) {
	r.Post(h.Path, h.create)
	r.Put(h.Path+"/{id}", h.update)
	r.Delete(h.Path+"/{id}", h.delete)
}

type referenceRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
}

func (h ReferenceHandler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.Repo.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, it := range items {
		resp = append(resp, referencePayload(it))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h ReferenceHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	it, err := h.Repo.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, referencePayload(*it))
}

func (h ReferenceHandler) create(w http.ResponseWriter, r *http.Request) {
	var req referenceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	it, err := h.Repo.Create(r.Context(), strings.TrimSpace(req.Name), req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, referencePayload(*it))
}

func (h ReferenceHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req referenceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	it, err := h.Repo.Update(r.Context(), id, strings.TrimSpace(req.Name), req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, referencePayload(*it))
}

func (h ReferenceHandler) delete(w http.ResponseWriter, r *http.Request) {
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

func referencePayload(it repository.Reference) map[string]any {
	return map[string]any{
		"id":          formatID(it.ID),
		"name":        it.Name,
		"description": it.Description,
	}
}
