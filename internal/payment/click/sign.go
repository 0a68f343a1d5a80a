package click

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"strconv"
	"strings"
)

func md5Hex(parts ...string) string {
	sum := md5.Sum([]byte(strings.Join(parts, "")))
	return hex.EncodeToString(sum[:])
}

// PrepareSign is the digest Click sends with action 0.
func PrepareSign(r Request, secret string) string {
	return md5Hex(r.ClickTransID.String(), r.ServiceID.String(), secret, r.MerchantTransID.String(),
		r.Amount.String(), r.Action.String(), r.SignTime)
}

// CompleteSign is the digest Click sends with action 1.
func CompleteSign(r Request, secret string) string {
	return md5Hex(r.ClickTransID.String(), r.ServiceID.String(), secret, r.MerchantTransID.String(),
		r.MerchantPrepareID.String(), r.Amount.String(), r.Action.String(), r.SignTime)
}

// ResponseSign signs a reply using the prepare id the merchant hands back.
func ResponseSign(r Request, secret string, prepareID int64) string {
	return md5Hex(r.ClickTransID.String(), r.ServiceID.String(), secret, r.MerchantTransID.String(),
		strconv.FormatInt(prepareID, 10), r.Amount.String(), r.Action.String(), r.SignTime)
}

// VerifySign checks the inbound sign_string for the request's action.
func VerifySign(r Request, secret string) bool {
	var expected string
	switch r.ActionCode() {
	case ActionPrepare:
		expected = PrepareSign(r, secret)
	case ActionComplete:
		expected = CompleteSign(r, secret)
	default:
		return false
	}
	got := strings.ToLower(strings.TrimSpace(r.SignString))
	return subtle.ConstantTimeCompare([]byte(got), []byte(expected)) == 1
}
