// Package webhook verifies HMAC-SHA256 signatures on inbound webhook bodies.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
)

var (
	ErrMissingSignature = errors.New("missing signature")
	ErrInvalidSignature = errors.New("invalid signature")
)

// Sign returns the hex-encoded HMAC-SHA256 of payload under secret.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature is the HMAC-SHA256 of payload.
func Verify(payload []byte, secret, signature string) bool {
	expected := Sign(payload, secret)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature))))
}

// VerifyHeaders accepts payload when any of the named headers carries a
// valid signature.
func VerifyHeaders(h http.Header, payload []byte, secret string, names ...string) error {
	var candidates []string
	for _, name := range names {
		if v := h.Get(name); v != "" {
			candidates = append(candidates, v)
		}
	}
	if len(candidates) == 0 {
		return ErrMissingSignature
	}
	for _, sig := range candidates {
		if Verify(payload, secret, sig) {
			return nil
		}
	}
	return ErrInvalidSignature
}
