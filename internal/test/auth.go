package test

import (
	"fmt"
	"sync"

	pkgAuth "github.com/polkiloo/storefront/internal/pkg/auth"
)

// SessionStrategy is an in-memory token issuer standing in for the external
// auth service.
type SessionStrategy struct {
	mu       sync.Mutex
	sessions map[string]int64
}

// NewSessionStrategy constructs an empty session table.
func NewSessionStrategy() *SessionStrategy {
	return &SessionStrategy{sessions: make(map[string]int64)}
}

// IssueToken returns a fresh token for userID.
func (s *SessionStrategy) IssueToken(userID int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := fmt.Sprintf("session-%d-%d", userID, len(s.sessions)+1)
	s.sessions[token] = userID
	return token, nil
}

// ParseToken resolves tokens issued by this strategy.
func (s *SessionStrategy) ParseToken(token string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.sessions[token]
	if !ok {
		return 0, pkgAuth.ErrInvalidToken
	}
	return userID, nil
}

// Name identifies the strategy in logs.
func (s *SessionStrategy) Name() string { return "session" }

// TokenParserStub maps every token to ID, or fails with Err.
type TokenParserStub struct {
	ID      int64
	Err     error
	ParseFn func(string) (int64, error)
}

// ParseToken either delegates to override or returns predefined result.
func (s TokenParserStub) ParseToken(token string) (int64, error) {
	if s.ParseFn != nil {
		return s.ParseFn(token)
	}
	if s.Err != nil {
		return 0, s.Err
	}
	return s.ID, nil
}

var _ pkgAuth.Strategy = (*SessionStrategy)(nil)
