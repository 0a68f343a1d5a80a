package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/repository"
)

type StoreHandler struct {
	Repo repository.StoreRepository
}

func (h StoreHandler) RegisterRoutes(r chi.Router) {
	r.Get("/stores", h.list)
	r.Get("/stores/{id}", h.get)
}

func (h StoreHandler) RegisterManageRoutes(r chi.Router) {
	r.Post("/stores", h.create)
	r.Put("/stores/{id}", h.update)
	r.Delete("/stores/{id}", h.delete)
}

type storeRequest struct {
	StoreNumber string              `json:"storeNumber" validate:"required,max=32"`
	Area        decimal.NullDecimal `json:"area"`
	SectionID   *int64              `json:"sectionId" validate:"omitempty,gt=0"`
	SaleTypeID  *int64              `json:"saleTypeId" validate:"omitempty,gt=0"`
	Description string              `json:"description"`
}

func (h StoreHandler) list(w http.ResponseWriter, r *http.Request) {
	sectionID, ok := sectionFilter(w, r)
	if !ok {
		return
	}
	items, err := h.Repo.List(r.Context(), sectionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, s := range items {
		resp = append(resp, storePayload(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h StoreHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	s, err := h.Repo.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, storePayload(*s))
}

func (h StoreHandler) create(w http.ResponseWriter, r *http.Request) {
	var req storeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s, err := h.Repo.Create(r.Context(), req.input())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, storePayload(*s))
}

func (h StoreHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req storeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s, err := h.Repo.Update(r.Context(), id, req.input())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, storePayload(*s))
}

func (h StoreHandler) delete(w http.ResponseWriter, r *http.Request) {
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

func (req storeRequest) input() repository.StoreInput {
	return repository.StoreInput{
		StoreNumber: strings.TrimSpace(req.StoreNumber),
		Area:        req.Area,
		SectionID:   req.SectionID,
		SaleTypeID:  req.SaleTypeID,
		Description: req.Description,
	}
}

func storePayload(s domain.Store) map[string]any {
	return map[string]any{
		"id":          formatID(s.ID),
		"storeNumber": s.StoreNumber,
		"area":        s.Area,
		"sectionId":   s.SectionID,
		"saleTypeId":  s.SaleTypeID,
		"description": s.Description,
	}
}

func sectionFilter(w http.ResponseWriter, r *http.Request) (*int64, bool) {
	raw := r.URL.Query().Get("sectionId")
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid sectionId")
		return nil, false
	}
	return &id, true
}
