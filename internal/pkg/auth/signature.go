package auth

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strings"
)

// SignatureVerifier checks HMAC-SHA512 hex signatures the payment processor
// attaches to webhook bodies.
type SignatureVerifier struct {
	secret []byte
}

// NewSignatureVerifier builds a verifier keyed with the processor secret.
func NewSignatureVerifier(secret string) *SignatureVerifier {
	return &SignatureVerifier{secret: []byte(secret)}
}

// Sign returns the lowercase hex signature of body.
func (v *SignatureVerifier) Sign(body []byte) string {
	mac := hmac.New(sha512.New, v.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches body.
func (v *SignatureVerifier) Verify(body []byte, signature string) bool {
	if len(v.secret) == 0 || signature == "" {
		return false
	}
	return hmac.Equal([]byte(v.Sign(body)), []byte(strings.ToLower(strings.TrimSpace(signature))))
}
