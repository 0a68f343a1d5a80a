package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"marketplace-backend/internal/billing"
	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/repository"
	"marketplace-backend/internal/service"
)

type LeaseHandler struct {
	Service *service.LeaseService
}

func (h LeaseHandler) RegisterRoutes(r chi.Router) {
	r.Get("/leases", h.list)
	r.Get("/leases/{id}", h.get)
	r.Get("/leases/{id}/debt", h.debt)
}

func (h LeaseHandler) RegisterManageRoutes(r chi.Router) {
	r.Post("/leases", h.create)
	r.Put("/leases/{id}", h.update)
	r.Post("/leases/{id}/deactivate", h.deactivate)
	r.Post("/leases/{id}/reactivate", h.reactivate)
}

type leaseTermsRequest struct {
	ShopMonthlyFee  decimal.NullDecimal `json:"shopMonthlyFee"`
	StallMonthlyFee decimal.NullDecimal `json:"stallMonthlyFee"`
	GuardFee        decimal.NullDecimal `json:"guardFee"`
	PaymentInterval string              `json:"paymentInterval" validate:"omitempty,oneof=MONTHLY DAILY"`
	IssueDate       string              `json:"issueDate" validate:"required,datetime=2006-01-02"`
	ExpiryDate      string              `json:"expiryDate" validate:"omitempty,datetime=2006-01-02"`
	CertificateNo   string              `json:"certificateNo" validate:"max=64"`
}

type createLeaseRequest struct {
	OwnerID int64  `json:"ownerId" validate:"required,gt=0"`
	StoreID *int64 `json:"storeId" validate:"omitempty,gt=0"`
	StallID *int64 `json:"stallId" validate:"omitempty,gt=0"`
	leaseTermsRequest
}

func (req leaseTermsRequest) input() service.LeaseInput {
	// layouts are checked by the validator
	issue, _ := time.Parse(dateLayout, req.IssueDate)
	in := service.LeaseInput{
		ShopMonthlyFee:  req.ShopMonthlyFee,
		StallMonthlyFee: req.StallMonthlyFee,
		GuardFee:        req.GuardFee,
		PaymentInterval: domain.PaymentInterval(req.PaymentInterval),
		IssueDate:       issue,
		CertificateNo:   req.CertificateNo,
	}
	if req.ExpiryDate != "" {
		expiry, _ := time.Parse(dateLayout, req.ExpiryDate)
		in.ExpiryDate = &expiry
	}
	return in
}

func (h LeaseHandler) list(w http.ResponseWriter, r *http.Request) {
	var f repository.LeaseFilter
	q := r.URL.Query()
	if raw := q.Get("ownerId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid ownerId")
			return
		}
		f.OwnerID = &id
	}
	if raw := q.Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid active")
			return
		}
		f.Active = &active
	}
	items, err := h.Service.List(r.Context(), f)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, l := range items {
		resp = append(resp, leasePayload(l))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h LeaseHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	d, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	payload := leasePayload(d.Current.Lease)
	payload["current"] = monthViewPayload(d.Current)
	payload["debt"] = d.Debt
	writeJSON(w, http.StatusOK, payload)
}

func (h LeaseHandler) debt(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	d, err := h.Service.DebtBreakdown(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, leaseDebtPayload(d))
}

func (h LeaseHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createLeaseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in := req.input()
	in.OwnerID = req.OwnerID
	in.StoreID = req.StoreID
	in.StallID = req.StallID
	l, err := h.Service.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, leasePayload(*l))
}

func (h LeaseHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req leaseTermsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	l, err := h.Service.Update(r.Context(), id, req.input())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, leasePayload(*l))
}

func (h LeaseHandler) deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.Deactivate(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h LeaseHandler) reactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.Reactivate(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func leasePayload(l domain.Lease) map[string]any {
	var expiry *string
	if l.ExpiryDate != nil {
		s := l.ExpiryDate.Format(dateLayout)
		expiry = &s
	}
	return map[string]any{
		"id":              formatID(l.ID),
		"ownerId":         formatID(l.OwnerID),
		"storeId":         l.StoreID,
		"stallId":         l.StallID,
		"shopMonthlyFee":  l.ShopMonthlyFee,
		"stallMonthlyFee": l.StallMonthlyFee,
		"guardFee":        l.GuardFee,
		"totalFee":        l.TotalFee(),
		"paymentInterval": string(l.PaymentInterval),
		"issueDate":       l.IssueDate.Format(dateLayout),
		"expiryDate":      expiry,
		"isActive":        l.IsActive,
		"certificateNo":   l.CertificateNo,
	}
}

func monthViewPayload(v service.LeaseMonthView) map[string]any {
	return map[string]any{
		"month":           v.Month.String(),
		"expected":        v.Expected,
		"paid":            v.Paid,
		"remaining":       v.Remaining,
		"attendanceCount": v.AttendanceCount,
		"status":          string(v.Status),
	}
}

func leaseDebtPayload(d billing.LeaseDebt) map[string]any {
	months := make([]map[string]any, 0, len(d.Months))
	for _, m := range d.Months {
		months = append(months, map[string]any{
			"month":           m.Month.String(),
			"expected":        m.Expected,
			"paid":            m.Paid,
			"attendanceCount": m.AttendanceCount,
			"shortfall":       m.Shortfall,
		})
	}
	return map[string]any{
		"leaseId": formatID(d.Lease.ID),
		"ownerId": formatID(d.Lease.OwnerID),
		"total":   d.Total,
		"months":  months,
	}
}
