package central

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"marketplace-backend/internal/domain"
)

// ErrNotConfigured is returned when no central payment service URL is set.
var ErrNotConfigured = errors.New("central payment service is not configured")

// Client talks to the central payment service that issues checkout links.
type Client struct {
	baseURL    string
	secret     string
	tenantID   string
	httpClient *http.Client
}

func NewClient(baseURL, secret, tenantID string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		secret:     secret,
		tenantID:   tenantID,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type CreateRequest struct {
	TransactionID int64
	LeaseID       int64
	Amount        decimal.Decimal
	Method        domain.PaymentMethod
}

type createPayload struct {
	TenantID      string      `json:"tenant_id"`
	StorageID     string      `json:"storage_id"`
	LeaseID       int64       `json:"lease_id"`
	Amount        json.Number `json:"amount"`
	PaymentMethod string      `json:"payment_method"`
}

type createResponse struct {
	PaymeLink   string `json:"payme_link"`
	CheckoutURL string `json:"checkout_url"`
	URL         string `json:"url"`
}

// IdempotencyKey is stable per tenant and local transaction, so a repeated
// create for the same transaction is deduplicated upstream.
func IdempotencyKey(tenantID string, transactionID int64) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("%s:%d", tenantID, transactionID))).String()
}

// CreateTransaction registers a local PENDING transaction with the central
// service and returns the checkout URL for the payer.
func (c *Client) CreateTransaction(ctx context.Context, in CreateRequest) (string, error) {
	if c.baseURL == "" {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(createPayload{
		TenantID:      c.tenantID,
		StorageID:     fmt.Sprintf("%d", in.TransactionID),
		LeaseID:       in.LeaseID,
		Amount:        json.Number(in.Amount.String()),
		PaymentMethod: string(in.Method),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal payment payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payment/transactions/create", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Secret", c.secret)
	req.Header.Set("Idempotency-Key", IdempotencyKey(c.tenantID, in.TransactionID))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach central payment service: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read central payment response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("central payment service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out createResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("failed to decode central payment response: %w", err)
	}
	for _, link := range []string{out.PaymeLink, out.CheckoutURL, out.URL} {
		if link != "" {
			return link, nil
		}
	}
	return "", errors.New("central payment response has no checkout link")
}
