package auth

import "time"

// TokenParser resolves a bearer token to the authenticated user id.
type TokenParser interface {
	ParseToken(token string) (int64, error)
}

// Strategy is the full token contract shared with the auth service.
// This service only parses; IssueToken exists for the issuing side and tests.
type Strategy interface {
	TokenParser
	IssueToken(userID int64) (string, error)
	Name() string
}

type Options struct {
	TTL time.Duration
	Now func() time.Time
}
