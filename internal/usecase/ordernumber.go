package usecase

import (
	"crypto/rand"
	"fmt"
	"io"
	"time"
)

const (
	orderNumberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	orderNumberSuffix   = 6
	// Bytes at or above this limit are discarded so every character is
	// equally likely.
	orderNumberByteLimit = 256 - 256%len(orderNumberAlphabet)
)

// OrderNumberGenerator produces ORD-<YYYYMMDD>-<6 alnum> display numbers.
// Uniqueness is enforced by storage; callers retry on collision.
type OrderNumberGenerator struct {
	now    func() time.Time
	random io.Reader
}

// NewOrderNumberGenerator constructs a generator backed by crypto/rand.
func NewOrderNumberGenerator() *OrderNumberGenerator {
	return &OrderNumberGenerator{now: time.Now, random: rand.Reader}
}

// Next returns a fresh order number.
func (g *OrderNumberGenerator) Next() (string, error) {
	suffix := make([]byte, 0, orderNumberSuffix)
	buf := make([]byte, orderNumberSuffix)
	for len(suffix) < orderNumberSuffix {
		if _, err := io.ReadFull(g.random, buf); err != nil {
			return "", fmt.Errorf("generate order number: %w", err)
		}
		for _, b := range buf {
			if int(b) >= orderNumberByteLimit {
				continue
			}
			suffix = append(suffix, orderNumberAlphabet[int(b)%len(orderNumberAlphabet)])
			if len(suffix) == orderNumberSuffix {
				break
			}
		}
	}
	return fmt.Sprintf("ORD-%s-%s", g.now().UTC().Format("20060102"), suffix), nil
}
