package click

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"marketplace-backend/internal/config"
	"marketplace-backend/internal/metrics"
)

// ForwardedHeader marks a callback that one tenant backend relayed to another.
const ForwardedHeader = "X-Click-Forwarded"

const maxForwardBody = 1 << 20

// Reply is a raw HTTP answer for the Click gateway.
type Reply struct {
	Status      int
	ContentType string
	Body        []byte
}

// Gateway is the shared Click entry point. It serves callbacks for the local
// tenant and relays the rest to the owning tenant backend.
type Gateway struct {
	Tenants       config.ClickTenants
	LocalTenantID string
	Store         Store
	Client        *http.Client
	Timeout       time.Duration
	Logger        *slog.Logger
	Metrics       *metrics.Metrics
}

// Dispatch never fails: every path ends in a Click-shaped reply.
func (g Gateway) Dispatch(ctx context.Context, contentType string, body []byte, forwarded bool) Reply {
	req, err := ParseRequest(contentType, body)
	if err != nil {
		g.logger().Warn("click request rejected", "err", err)
		return jsonReply(reply(req, CodeSystemError, noteBadRequest))
	}

	tenant, ok := g.Tenants.ByServiceID(req.ServiceID.String())
	if !ok {
		g.logger().Warn("click service_id not mapped", "service_id", req.ServiceID)
		return jsonReply(reply(req, CodeNotFound, noteServiceNotFound))
	}

	if tenant.TenantID == g.LocalTenantID {
		p := Protocol{Store: g.Store, Tenant: tenant, Logger: g.Logger, Metrics: g.Metrics}
		return jsonReply(p.Handle(ctx, req))
	}

	if forwarded {
		g.logger().Error("click callback already forwarded once", "service_id", req.ServiceID, "tenant_id", tenant.TenantID)
		return jsonReply(reply(req, CodeSystemError, noteSystemError))
	}
	if tenant.WebhookURL == "" {
		g.logger().Error("click tenant has no webhook url", "tenant_id", tenant.TenantID)
		return jsonReply(reply(req, CodeSystemError, noteSystemError))
	}

	out, err := g.forward(ctx, tenant, contentType, body)
	if err != nil {
		g.logger().Error("click forward failed", "err", err, "tenant_id", tenant.TenantID, "click_trans_id", req.ClickTransID)
		return jsonReply(reply(req, CodeSystemError, noteSystemError))
	}
	return out
}

func (g Gateway) forward(ctx context.Context, tenant config.ClickTenant, contentType string, body []byte) (Reply, error) {
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tenant.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return Reply{}, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set(ForwardedHeader, g.LocalTenantID)
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := g.client().Do(req)
	if err != nil {
		return Reply{}, fmt.Errorf("post to %s: %w", tenant.TenantID, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxForwardBody))
	if err != nil {
		return Reply{}, fmt.Errorf("read response from %s: %w", tenant.TenantID, err)
	}
	g.logger().Info("click callback forwarded", "tenant_id", tenant.TenantID, "status", resp.StatusCode)
	return Reply{Status: resp.StatusCode, ContentType: resp.Header.Get("Content-Type"), Body: data}, nil
}

func (g Gateway) client() *http.Client {
	if g.Client != nil {
		return g.Client
	}
	return &http.Client{Timeout: 15 * time.Second}
}

func (g Gateway) logger() *slog.Logger {
	if g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}

func jsonReply(resp Response) Reply {
	body, err := json.Marshal(resp)
	if err != nil {
		body = []byte(fmt.Sprintf(`{"error":%d,"error_note":%q}`, CodeSystemError, noteSystemError))
	}
	return Reply{Status: http.StatusOK, ContentType: "application/json", Body: body}
}
