package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/repository"
	"marketplace-backend/internal/service"
)

type TransactionHandler struct {
	Service  *service.PaymentService
	Location *time.Location
}

func (h TransactionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/transactions", h.list)
	r.Post("/leases/{id}/payments/cash", h.recordCash)
}

func (h TransactionHandler) recordCash(w http.ResponseWriter, r *http.Request) {
	leaseID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	tx, err := h.Service.RecordCash(r.Context(), leaseID, req.Amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, transactionPayload(*tx))
}

// list filters by leaseId, status and an inclusive from/to date range.
func (h TransactionHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f repository.TransactionFilter
	if raw := q.Get("leaseId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid leaseId")
			return
		}
		f.LeaseID = &id
	}
	if raw := q.Get("status"); raw != "" {
		status := domain.TransactionStatus(raw)
		switch status {
		case domain.TransactionPending, domain.TransactionPaid, domain.TransactionPartialPaid, domain.TransactionFailed:
		default:
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
		f.Status = &status
	}
	loc := locationOrUTC(h.Location)
	if raw := q.Get("from"); raw != "" {
		from, err := parseDateIn(raw, loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
			return
		}
		f.From = &from
	}
	if raw := q.Get("to"); raw != "" {
		to, err := parseDateIn(raw, loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "to must be YYYY-MM-DD")
			return
		}
		to = to.AddDate(0, 0, 1)
		f.To = &to
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		f.Limit = v
	}

	items, err := h.Service.ListTransactions(r.Context(), f)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, t := range items {
		resp = append(resp, transactionPayload(t))
	}
	writeJSON(w, http.StatusOK, resp)
}

func transactionPayload(t domain.Transaction) map[string]any {
	return map[string]any{
		"id":                 formatID(t.ID),
		"leaseId":            formatID(t.LeaseID),
		"amount":             t.Amount,
		"status":             string(t.Status),
		"paymentMethod":      string(t.PaymentMethod),
		"paymentType":        string(t.PaymentType),
		"paymeTransactionId": t.PaymeTransactionID,
		"createdAt":          t.CreatedAt,
	}
}
