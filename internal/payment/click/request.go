package click

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/url"
	"strings"

	"marketplace-backend/internal/payment"
)

// Request is the Prepare/Complete callback body. Click posts it either as a
// form or as JSON.
type Request struct {
	ClickTransID      payment.FlexString `json:"click_trans_id"`
	ServiceID         payment.FlexString `json:"service_id"`
	ClickPaydocID     payment.FlexString `json:"click_paydoc_id"`
	MerchantTransID   payment.FlexString `json:"merchant_trans_id"`
	MerchantPrepareID payment.FlexString `json:"merchant_prepare_id"`
	Amount            payment.FlexString `json:"amount"`
	Action            payment.FlexString `json:"action"`
	Error             payment.FlexString `json:"error"`
	ErrorNote         string             `json:"error_note"`
	SignTime          string             `json:"sign_time"`
	SignString        string             `json:"sign_string"`
}

// ParseRequest decodes a callback body according to its content type.
func ParseRequest(contentType string, body []byte) (Request, error) {
	var req Request
	media, _, _ := mime.ParseMediaType(contentType)
	trimmed := strings.TrimSpace(string(body))
	if media == "application/json" || strings.HasPrefix(trimmed, "{") {
		if err := json.Unmarshal(body, &req); err != nil {
			return req, fmt.Errorf("decode json body: %w", err)
		}
		return req, nil
	}
	form, err := url.ParseQuery(trimmed)
	if err != nil {
		return req, fmt.Errorf("decode form body: %w", err)
	}
	field := func(k string) payment.FlexString { return payment.FlexString(strings.TrimSpace(form.Get(k))) }
	req = Request{
		ClickTransID:      field("click_trans_id"),
		ServiceID:         field("service_id"),
		ClickPaydocID:     field("click_paydoc_id"),
		MerchantTransID:   field("merchant_trans_id"),
		MerchantPrepareID: field("merchant_prepare_id"),
		Amount:            field("amount"),
		Action:            field("action"),
		Error:             field("error"),
		ErrorNote:         form.Get("error_note"),
		SignTime:          form.Get("sign_time"),
		SignString:        form.Get("sign_string"),
	}
	return req, nil
}

// ActionCode returns the action, or -1 when it is missing or not a number.
func (r Request) ActionCode() int {
	n, err := r.Action.Int64()
	if err != nil {
		return -1
	}
	return int(n)
}

// ErrorCode returns the gateway-side error, treating a missing value as 0.
func (r Request) ErrorCode() int {
	if r.Error == "" {
		return 0
	}
	n, err := r.Error.Int64()
	if err != nil {
		return 0
	}
	return int(n)
}

// Response is the reply shape for every Click callback, including failures.
type Response struct {
	ClickTransID      string `json:"click_trans_id"`
	MerchantTransID   string `json:"merchant_trans_id"`
	MerchantPrepareID *int64 `json:"merchant_prepare_id,omitempty"`
	MerchantConfirmID *int64 `json:"merchant_confirm_id,omitempty"`
	Error             int    `json:"error"`
	ErrorNote         string `json:"error_note"`
	SignString        string `json:"sign_string,omitempty"`
}

func reply(req Request, code int, note string) Response {
	return Response{
		ClickTransID:    req.ClickTransID.String(),
		MerchantTransID: req.MerchantTransID.String(),
		Error:           code,
		ErrorNote:       note,
	}
}
