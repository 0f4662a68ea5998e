// Package signature verifies provider webhook signatures.
//
// The signature header format is:
//
//	Stripe-Signature: t={timestamp},v1={signature}
//
// Where signature = HMAC-SHA256(secret, "{timestamp}.{payload}"), lowercase hex.
// Verification runs on the raw request bytes, before any JSON parsing.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

var (
	ErrMissingSignature = errors.New("missing signature")
	ErrInvalidSignature = errors.New("invalid signature")
)

// Header is a parsed signature header.
type Header struct {
	Timestamp string
	V1        string
}

// ParseHeader splits a comma-separated k=v signature header. Both the t and v1
// fields are required; anything else is ErrMissingSignature.
func ParseHeader(raw string) (Header, error) {
	var h Header
	if raw == "" {
		return h, ErrMissingSignature
	}
	for _, part := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			h.Timestamp = v
		case "v1":
			h.V1 = v
		}
	}
	if h.Timestamp == "" || h.V1 == "" {
		return h, ErrMissingSignature
	}
	return h, nil
}

// Verify checks that header carries a valid v1 signature over payload.
// The timestamp is used exactly as received; re-encoding it could change the
// signed bytes. All failures reduce to ErrMissingSignature or ErrInvalidSignature.
func Verify(payload []byte, header, secret string) error {
	parsed, err := ParseHeader(header)
	if err != nil {
		return err
	}
	expected := Compute(parsed.Timestamp, payload, secret)
	if !constantTimeEqual(expected, parsed.V1) {
		return ErrInvalidSignature
	}
	return nil
}

// Compute returns the lowercase hex HMAC-SHA256 of "{timestamp}.{payload}".
func Compute(timestamp string, payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// constantTimeEqual compares two strings without leaking where they differ.
// A length mismatch alone is safe to short-circuit; equal-length inputs are
// always scanned in full.
func constantTimeEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return foldDiff(len(a), func(i int) byte { return a[i] ^ b[i] }) == 0
}

// foldDiff ORs diff(i) over [0, n) with no early exit.
func foldDiff(n int, diff func(i int) byte) byte {
	var v byte
	for i := 0; i < n; i++ {
		v |= diff(i)
	}
	return v
}
