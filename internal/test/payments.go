package test

import (
	"context"
	"fmt"
	"sync"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// PaymentInitiatorStub builds predictable payment URLs.
type PaymentInitiatorStub struct {
	Base string
	Err  error
}

// PaymentURL returns Base/<order id>.
func (s PaymentInitiatorStub) PaymentURL(order *model.Order) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	base := s.Base
	if base == "" {
		base = "https://pay.test"
	}
	return base + "/" + order.ID, nil
}

// VerifierStub answers verification calls and counts them.
type VerifierStub struct {
	mu       sync.Mutex
	VerifyFn func(context.Context, string) (*model.PaymentVerification, error)
	Result   *model.PaymentVerification
	Err      error
	Calls    []string
}

// Verify records the reference and returns the configured answer.
func (s *VerifierStub) Verify(ctx context.Context, reference string) (*model.PaymentVerification, error) {
	s.mu.Lock()
	s.Calls = append(s.Calls, reference)
	s.mu.Unlock()
	if s.VerifyFn != nil {
		return s.VerifyFn(ctx, reference)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Result != nil {
		r := *s.Result
		r.Reference = reference
		return &r, nil
	}
	return &model.PaymentVerification{Reference: reference, Success: true, Status: "success"}, nil
}

// CallCount returns how many times Verify ran.
func (s *VerifierStub) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Calls)
}

// IdempotencyStoreStub keeps keys in memory.
type IdempotencyStoreStub struct {
	mu         sync.Mutex
	Keys       map[string]string
	ReserveErr error
}

// NewIdempotencyStoreStub constructs an empty store.
func NewIdempotencyStoreStub() *IdempotencyStoreStub {
	return &IdempotencyStoreStub{Keys: make(map[string]string)}
}

// Reserve claims key unless it is already present.
func (s *IdempotencyStoreStub) Reserve(ctx context.Context, key string) (string, bool, error) {
	if s.ReserveErr != nil {
		return "", false, s.ReserveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.Keys[key]; ok {
		return id, false, nil
	}
	s.Keys[key] = ""
	return "", true, nil
}

// Complete stores the order id for key.
func (s *IdempotencyStoreStub) Complete(ctx context.Context, key, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Keys[key] = orderID
	return nil
}

// Release forgets key.
func (s *IdempotencyStoreStub) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Keys, key)
	return nil
}

// RecorderStub counts observed outcomes.
type RecorderStub struct {
	mu     sync.Mutex
	Counts map[string]int
}

// Observe increments operation/outcome.
func (r *RecorderStub) Observe(operation, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Counts == nil {
		r.Counts = make(map[string]int)
	}
	r.Counts[operation+"/"+outcome]++
}

// Count returns the number of observations for operation/outcome.
func (r *RecorderStub) Count(operation, outcome string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Counts[operation+"/"+outcome]
}

// SequenceNumbers yields the configured numbers in order, then generated ones.
type SequenceNumbers struct {
	mu      sync.Mutex
	Numbers []string
	Err     error
	next    int
}

// Next returns the next number.
func (s *SequenceNumbers) Next() (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	if s.next <= len(s.Numbers) {
		return s.Numbers[s.next-1], nil
	}
	return fmt.Sprintf("ORD-20240101-%06d", s.next), nil
}
