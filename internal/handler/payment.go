package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/service"
)

// PaymentHandler is the public lease payment surface. It needs no login.
type PaymentHandler struct {
	Service *service.PaymentService
}

func (h PaymentHandler) RegisterRoutes(r chi.Router) {
	r.Get("/payments/owners/{identifier}/leases", h.findByOwner)
	r.Get("/payments/leases/{id}", h.leaseForPayment)
	r.Post("/payments/initiate", h.initiate)
}

func (h PaymentHandler) findByOwner(w http.ResponseWriter, r *http.Request) {
	res, err := h.Service.FindLeasesByOwner(r.Context(), chi.URLParam(r, "identifier"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	leases := make([]map[string]any, 0, len(res.Leases))
	for _, v := range res.Leases {
		leases = append(leases, paymentViewPayload(v))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"owner": map[string]any{
			"id":         formatID(res.Owner.ID),
			"name":       res.Owner.Name,
			"identifier": res.Owner.Identifier,
		},
		"leases": leases,
	})
}

func (h PaymentHandler) leaseForPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	v, err := h.Service.LeaseForPayment(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentViewPayload(v))
}

func (h PaymentHandler) initiate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LeaseID       int64            `json:"leaseId" validate:"required,gt=0"`
		Amount        *decimal.Decimal `json:"amount"`
		PaymentMethod string           `json:"paymentMethod" validate:"omitempty,oneof=CLICK PAYME"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.Service.Initiate(r.Context(), service.InitiateInput{
		LeaseID: req.LeaseID,
		Amount:  req.Amount,
		Method:  domain.PaymentMethod(req.PaymentMethod),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"checkoutUrl":     res.CheckoutURL,
		"transactionId":   formatID(res.TransactionID),
		"paymentType":     string(res.PaymentType),
		"remainingAmount": res.RemainingAmount,
	})
}

func paymentViewPayload(v service.LeaseMonthView) map[string]any {
	payload := monthViewPayload(v)
	payload["lease"] = leasePayload(v.Lease)
	return payload
}
