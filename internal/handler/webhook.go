package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"marketplace-backend/internal/payment/click"
	"marketplace-backend/internal/payment/payme"
)

const maxWebhookBody = 1 << 20

// WebhookHandler receives gateway callbacks. Neither endpoint uses the API
// envelope: each gateway gets the body shape it expects.
type WebhookHandler struct {
	Click  click.Gateway
	Payme  payme.Service
	Logger *slog.Logger
}

func (h WebhookHandler) RegisterRoutes(r chi.Router) {
	r.Post("/payments/webhook/click", h.click)
	r.Post("/payments/webhook/update-status", h.updateStatus)
}

func (h WebhookHandler) click(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.logger().Warn("click webhook: read body", "err", err)
	}
	forwarded := r.Header.Get(click.ForwardedHeader) != ""
	reply := h.Click.Dispatch(r.Context(), r.Header.Get("Content-Type"), body, forwarded)
	if reply.ContentType != "" {
		w.Header().Set("Content-Type", reply.ContentType)
	}
	w.WriteHeader(reply.Status)
	_, _ = w.Write(reply.Body)
}

func (h WebhookHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req payme.StatusUpdate
	if err := json.NewDecoder(io.LimitReader(r.Body, maxWebhookBody)).Decode(&req); err != nil {
		if h.Payme.Authorize(r.Header.Get(payme.SecretHeader)) != nil {
			writeRawJSON(w, http.StatusForbidden, map[string]string{"error": payme.ErrForbidden.Error()})
			return
		}
		writeRawJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	res, err := h.Payme.Apply(r.Context(), r.Header.Get(payme.SecretHeader), req)
	switch {
	case err == nil:
		writeRawJSON(w, http.StatusOK, res)
	case errors.Is(err, payme.ErrForbidden):
		writeRawJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, payme.ErrInvalid):
		writeRawJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		h.logger().Error("payme webhook failed", "err", err)
		writeRawJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func (h WebhookHandler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}
