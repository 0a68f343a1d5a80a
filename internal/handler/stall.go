package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/repository"
)

type StallHandler struct {
	Repo repository.StallRepository
}

func (h StallHandler) RegisterRoutes(r chi.Router) {
	r.Get("/stalls", h.list)
	r.Get("/stalls/{id}", h.get)
}

func (h StallHandler) RegisterManageRoutes(r chi.Router) {
	r.Post("/stalls", h.create)
	r.Put("/stalls/{id}", h.update)
	r.Delete("/stalls/{id}", h.delete)
}

type stallRequest struct {
	StallNumber string              `json:"stallNumber" validate:"required,max=32"`
	Area        decimal.NullDecimal `json:"area"`
	SectionID   *int64              `json:"sectionId" validate:"omitempty,gt=0"`
	SaleTypeID  *int64              `json:"saleTypeId" validate:"omitempty,gt=0"`
	DailyFee    decimal.NullDecimal `json:"dailyFee"`
	Description string              `json:"description"`
}

func (h StallHandler) list(w http.ResponseWriter, r *http.Request) {
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
		resp = append(resp, stallPayload(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h StallHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	s, err := h.Repo.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stallPayload(*s))
}

func (h StallHandler) create(w http.ResponseWriter, r *http.Request) {
	var req stallRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.DailyFee.Valid && req.DailyFee.Decimal.IsNegative() {
		writeError(w, http.StatusBadRequest, "dailyFee must not be negative")
		return
	}
	s, err := h.Repo.Create(r.Context(), req.input())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, stallPayload(*s))
}

func (h StallHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req stallRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.DailyFee.Valid && req.DailyFee.Decimal.IsNegative() {
		writeError(w, http.StatusBadRequest, "dailyFee must not be negative")
		return
	}
	s, err := h.Repo.Update(r.Context(), id, req.input())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stallPayload(*s))
}

func (h StallHandler) delete(w http.ResponseWriter, r *http.Request) {
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

func (req stallRequest) input() repository.StallInput {
	return repository.StallInput{
		StallNumber: strings.TrimSpace(req.StallNumber),
		Area:        req.Area,
		SectionID:   req.SectionID,
		SaleTypeID:  req.SaleTypeID,
		DailyFee:    req.DailyFee,
		Description: req.Description,
	}
}

func stallPayload(s domain.Stall) map[string]any {
	return map[string]any{
		"id":          formatID(s.ID),
		"stallNumber": s.StallNumber,
		"area":        s.Area,
		"sectionId":   s.SectionID,
		"saleTypeId":  s.SaleTypeID,
		"dailyFee":    s.DailyFee,
		"description": s.Description,
	}
}
