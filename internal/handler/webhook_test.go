package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"marketplace-backend/internal/config"
	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/payment/click"
	"marketplace-backend/internal/payment/payme"
	"marketplace-backend/internal/repository"
)

type stubPending struct {
	pending   *domain.Transaction
	settleErr error
	settled   []domain.TransactionStatus
}

func (s *stubPending) LatestPending(_ context.Context, _ int64) (*domain.Transaction, error) {
	if s.pending == nil {
		return nil, repository.ErrNotFound
	}
	return s.pending, nil
}

func (s *stubPending) SettleExternal(_ context.Context, id int64, status domain.TransactionStatus, ref string, method domain.PaymentMethod) (*domain.Transaction, error) {
	if s.settleErr != nil {
		return nil, s.settleErr
	}
	s.settled = append(s.settled, status)
	t := *s.pending
	t.Status = status
	t.PaymeTransactionID = &ref
	t.PaymentMethod = method
	return &t, nil
}

func webhookRouter(t *testing.T, remoteURL string, store payme.Store) http.Handler {
	t.Helper()
	tenants, err := config.NewClickTenants([]config.ClickTenant{
		{TenantID: "bozor-2", ServiceID: "111", SecretKey: "k", WebhookURL: remoteURL, Enabled: true},
	})
	require.NoError(t, err)
	h := WebhookHandler{
		Click: click.Gateway{Tenants: tenants, LocalTenantID: "bozor-1", Client: http.DefaultClient},
		Payme: payme.Service{Store: store, Secret: "s3cret"},
	}
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func postJSON(h http.Handler, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func clickBody(serviceID string) string {
	return `{"click_trans_id":"900","service_id":"` + serviceID + `","merchant_trans_id":"5","amount":"1000","action":0,"sign_time":"2024-04-10 10:00:00","sign_string":"x"}`
}

func TestClickWebhookUnmappedService(t *testing.T) {
	h := webhookRouter(t, "", &stubPending{})
	rec := postJSON(h, "/payments/webhook/click", clickBody("999"), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(-5), resp["error"])
	assert.Equal(t, "900", resp["click_trans_id"])
	assert.NotContains(t, resp, "status", "click replies never use the api envelope")
}

func TestClickWebhookForwardsToOwningTenant(t *testing.T) {
	var hits int
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		assert.NotEmpty(t, r.Header.Get(click.ForwardedHeader))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"click_trans_id":"900","merchant_trans_id":"5","error":0,"error_note":"Success"}`))
	}))
	defer remote.Close()

	h := webhookRouter(t, remote.URL, &stubPending{})
	rec := postJSON(h, "/payments/webhook/click", clickBody("111"), nil)

	assert.Equal(t, 1, hits)
	assert.JSONEq(t, `{"click_trans_id":"900","merchant_trans_id":"5","error":0,"error_note":"Success"}`, rec.Body.String())
}

func TestClickWebhookRefusesSecondHop(t *testing.T) {
	var hits int
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits++ }))
	defer remote.Close()

	h := webhookRouter(t, remote.URL, &stubPending{})
	rec := postJSON(h, "/payments/webhook/click", clickBody("111"), map[string]string{click.ForwardedHeader: "bozor-1"})

	assert.Zero(t, hits)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(-8), resp["error"])
}

func TestPaymeWebhook(t *testing.T) {
	pending := &domain.Transaction{ID: 31, LeaseID: 4, Status: domain.TransactionPending}
	body := `{"contract_id":4,"status":"PAID","payme_transaction_id":"pm-1"}`

	cases := []struct {
		name    string
		store   *stubPending
		secret  string
		body    string
		status  int
		contain string
	}{
		{"bad secret", &stubPending{pending: pending}, "nope", body, http.StatusForbidden, `"error"`},
		{"bad secret with broken body", &stubPending{}, "", "{", http.StatusForbidden, `"error"`},
		{"broken body", &stubPending{}, "s3cret", "{", http.StatusBadRequest, `"error"`},
		{"unsupported status", &stubPending{pending: pending}, "s3cret", `{"contract_id":"4","status":"PENDING"}`, http.StatusBadRequest, `"error"`},
		{"nothing pending", &stubPending{}, "s3cret", body, http.StatusOK, "already processed or not found"},
		{"settled", &stubPending{pending: pending}, "s3cret", body, http.StatusOK, `"transaction_id":31`},
		{"store failure", &stubPending{pending: pending, settleErr: errors.New("db down")}, "s3cret", body, http.StatusInternalServerError, "internal error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := webhookRouter(t, "", tc.store)
			rec := postJSON(h, "/payments/webhook/update-status", tc.body, map[string]string{payme.SecretHeader: tc.secret})
			assert.Equal(t, tc.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.contain)
		})
	}
}

func TestPaymeWebhookSettlesLatestPending(t *testing.T) {
	store := &stubPending{pending: &domain.Transaction{ID: 31, LeaseID: 4, Status: domain.TransactionPending}}
	h := webhookRouter(t, "", store)
	rec := postJSON(h, "/payments/webhook/update-status", `{"contract_id":"4","status":"failed","payme_transaction_id":77}`, map[string]string{payme.SecretHeader: "s3cret"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []domain.TransactionStatus{domain.TransactionFailed}, store.settled)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}
