package click

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"marketplace-backend/internal/config"
)

func newTenants(t *testing.T, remoteURL string) config.ClickTenants {
	t.Helper()
	tenants, err := config.NewClickTenants([]config.ClickTenant{
		testTenant,
		{TenantID: "north", ServiceID: "200", SecretKey: "x", WebhookURL: remoteURL, Enabled: true},
	})
	require.NoError(t, err)
	return tenants
}

func decodeReply(t *testing.T, r Reply) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(r.Body, &resp))
	return resp
}

func TestGatewayUnmappedService(t *testing.T) {
	g := Gateway{Tenants: newTenants(t, ""), LocalTenantID: "bazaar", Store: newMemStore()}
	out := g.Dispatch(context.Background(), "application/json", []byte(`{"click_trans_id":1,"service_id":777,"action":0}`), false)

	assert.Equal(t, http.StatusOK, out.Status)
	resp := decodeReply(t, out)
	assert.Equal(t, CodeNotFound, resp.Error)
	assert.Equal(t, "1", resp.ClickTransID)
	assert.Empty(t, resp.SignString)
}

func TestGatewayHandlesLocalFormRequest(t *testing.T) {
	store := newMemStore(pendingTx(7, "5000"))
	g := Gateway{Tenants: newTenants(t, ""), LocalTenantID: "bazaar", Store: store}

	req := prepareReq(7, "42", "5000")
	form := url.Values{
		"click_trans_id":    {"42"},
		"service_id":        {testService},
		"click_paydoc_id":   {"9001"},
		"merchant_trans_id": {"7"},
		"amount":            {"5000"},
		"action":            {"0"},
		"sign_time":         {testSignAt},
		"sign_string":       {req.SignString},
	}
	out := g.Dispatch(context.Background(), "application/x-www-form-urlencoded", []byte(form.Encode()), false)

	resp := decodeReply(t, out)
	assert.Equal(t, CodeSuccess, resp.Error, resp.ErrorNote)
	assert.NotNil(t, resp.MerchantPrepareID)
}

func TestGatewayForwardsToOwningTenant(t *testing.T) {
	body := []byte(`{"click_trans_id":"9","service_id":"200","action":0}`)
	var gotBody []byte
	var gotHeader string
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotHeader = r.Header.Get(ForwardedHeader)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"error":0,"error_note":"from north"}`))
	}))
	defer remote.Close()

	g := Gateway{Tenants: newTenants(t, remote.URL), LocalTenantID: "bazaar", Store: newMemStore(), Timeout: time.Second}
	out := g.Dispatch(context.Background(), "application/json", body, false)

	assert.Equal(t, http.StatusAccepted, out.Status)
	assert.Equal(t, "application/json; charset=utf-8", out.ContentType)
	assert.JSONEq(t, `{"error":0,"error_note":"from north"}`, string(out.Body))
	assert.Equal(t, body, gotBody)
	assert.Equal(t, "bazaar", gotHeader)
}

func TestGatewayForwardFailureIsSystemError(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	remoteURL := remote.URL
	remote.Close()

	g := Gateway{Tenants: newTenants(t, remoteURL), LocalTenantID: "bazaar", Store: newMemStore(), Timeout: time.Second}
	out := g.Dispatch(context.Background(), "application/json", []byte(`{"click_trans_id":"9","service_id":"200","action":1}`), false)

	assert.Equal(t, http.StatusOK, out.Status)
	assert.Equal(t, CodeSystemError, decodeReply(t, out).Error)
}

func TestGatewayRefusesSecondHop(t *testing.T) {
	called := false
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer remote.Close()

	g := Gateway{Tenants: newTenants(t, remote.URL), LocalTenantID: "bazaar", Store: newMemStore()}
	out := g.Dispatch(context.Background(), "application/json", []byte(`{"click_trans_id":"9","service_id":"200","action":0}`), true)

	assert.Equal(t, CodeSystemError, decodeReply(t, out).Error)
	assert.False(t, called)
}

func TestGatewayMalformedBody(t *testing.T) {
	g := Gateway{Tenants: newTenants(t, ""), LocalTenantID: "bazaar", Store: newMemStore()}
	out := g.Dispatch(context.Background(), "application/json", []byte(`{"click_trans_id":`), false)
	assert.Equal(t, CodeSystemError, decodeReply(t, out).Error)
}
