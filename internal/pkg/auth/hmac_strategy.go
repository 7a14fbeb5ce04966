package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid auth token")
	ErrExpiredToken = fmt.Errorf("%w: expired", ErrInvalidToken)
)

var tokenEncoding = base64.RawURLEncoding

// HMACStrategy verifies session tokens signed by the auth service with a
// shared secret. Token layout: base64url("<user>.<expiry>").base64url(sig).
type HMACStrategy struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewHMACStrategy builds HMACStrategy with provided secret and options.
func NewHMACStrategy(secret string, opts Options) *HMACStrategy {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &HMACStrategy{secret: []byte(secret), ttl: ttl, now: now}
}

// IssueToken generates a signed token for the user.
func (s *HMACStrategy) IssueToken(userID int64) (string, error) {
	if userID <= 0 {
		return "", fmt.Errorf("issue token: invalid user id %d", userID)
	}
	claims := fmt.Sprintf("%d.%d", userID, s.now().Add(s.ttl).Unix())
	return tokenEncoding.EncodeToString([]byte(claims)) + "." + s.sign(claims), nil
}

// ParseToken validates token and returns the encoded user id.
func (s *HMACStrategy) ParseToken(token string) (int64, error) {
	encoded, sig, ok := strings.Cut(token, ".")
	if !ok {
		return 0, ErrInvalidToken
	}
	raw, err := tokenEncoding.DecodeString(encoded)
	if err != nil {
		return 0, ErrInvalidToken
	}
	claims := string(raw)
	if !hmac.Equal([]byte(s.sign(claims)), []byte(sig)) {
		return 0, ErrInvalidToken
	}

	subject, expiry, ok := strings.Cut(claims, ".")
	if !ok {
		return 0, ErrInvalidToken
	}
	userID, err := strconv.ParseInt(subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, ErrInvalidToken
	}
	expires, err := strconv.ParseInt(expiry, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	if !s.now().Before(time.Unix(expires, 0)) {
		return 0, ErrExpiredToken
	}

	return userID, nil
}

func (s *HMACStrategy) Name() string {
	return "hmac"
}

func (s *HMACStrategy) sign(claims string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(claims))
	return tokenEncoding.EncodeToString(mac.Sum(nil))
}
