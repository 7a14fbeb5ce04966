package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
)

const (
	verifyPath     = "/transaction/verify/{reference}"
	successStatus  = "success"
	breakerName    = "payment-verify"
	opVerify       = "verify"
	failureTripMin = 5
)

// ErrProcessorUnavailable means the processor gave no usable answer.
var ErrProcessorUnavailable = fmt.Errorf("%w: payment processor unavailable", domainErrors.ErrExternal)

// LatencyObserver receives processor call timings and breaker transitions.
type LatencyObserver interface {
	ObserveProcessor(operation, result string, elapsed time.Duration)
	SetBreakerState(circuit string, state float64)
}

// Verifier asks the payment processor for the outcome of a transaction.
type Verifier struct {
	client   *resty.Client
	breaker  *gobreaker.CircuitBreaker
	tracer   trace.Tracer
	observer LatencyObserver
	logger   *slog.Logger
}

// verifyResponse mirrors the processor's verification payload.
type verifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status    string `json:"status"`
		Reference string `json:"reference"`
		Amount    *int64 `json:"amount"`
		PaidAt    string `json:"paid_at"`
	} `json:"data"`
}

// NewVerifier creates a verifier for the processor at baseURL. Every call is
// bounded by timeout and authenticated with secret as a bearer token.
func NewVerifier(baseURL, secret string, timeout time.Duration, tracer trace.Tracer, observer LatencyObserver, logger *slog.Logger) (*Verifier, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse payment api url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("payment api url must be absolute")
	}
	if secret == "" {
		return nil, fmt.Errorf("payment secret key is required")
	}

	v := &Verifier{
		client: resty.New().
			SetBaseURL(parsed.String()).
			SetTimeout(timeout).
			SetAuthToken(secret).
			SetHeader("Accept", "application/json"),
		tracer:   tracer,
		observer: observer,
		logger:   logger,
	}
	v.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    15 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failureTripMin
		},
		OnStateChange: v.onStateChange,
	})
	observer.SetBreakerState(breakerName, 0)
	return v, nil
}

// Verify returns the processor's answer for reference. Transport failures,
// 5xx, rate limiting and an open breaker are errors; a processor that
// rejects the reference is a definitive unsuccessful answer.
func (v *Verifier) Verify(ctx context.Context, reference string) (*model.PaymentVerification, error) {
	ctx, span := v.tracer.Start(ctx, "payment.verify",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("payment.reference", reference)),
	)
	defer span.End()

	start := time.Now()
	answer, err := v.breaker.Execute(func() (interface{}, error) {
		return v.fetch(ctx, reference)
	})
	if err != nil {
		v.observer.ObserveProcessor(opVerify, "error", time.Since(start))
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("%w: %w", ErrProcessorUnavailable, err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	verification := answer.(*model.PaymentVerification)
	result := "declined"
	if verification.Success {
		result = successStatus
	}
	v.observer.ObserveProcessor(opVerify, result, time.Since(start))
	span.SetAttributes(
		attribute.Bool("payment.success", verification.Success),
		attribute.String("payment.status", verification.Status),
	)
	return verification, nil
}

func (v *Verifier) fetch(ctx context.Context, reference string) (*model.PaymentVerification, error) {
	resp, err := v.client.R().
		SetContext(ctx).
		SetPathParam("reference", reference).
		Get(verifyPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProcessorUnavailable, err)
	}

	switch code := resp.StatusCode(); {
	case resp.IsSuccess():
		var body verifyResponse
		if err := json.Unmarshal(resp.Body(), &body); err != nil {
			return nil, fmt.Errorf("%w: decode verification: %w", ErrProcessorUnavailable, err)
		}
		return toVerification(reference, &body), nil
	case code == http.StatusBadRequest || code == http.StatusNotFound:
		v.logger.Warn("payment reference rejected by processor",
			slog.String("reference", reference),
			slog.Int("status", code),
		)
		return &model.PaymentVerification{Reference: reference, Status: "rejected"}, nil
	default:
		v.logger.Error("payment verification request failed",
			slog.String("reference", reference),
			slog.Int("status", code),
			slog.String("body", truncate(resp.String(), 256)),
		)
		return nil, fmt.Errorf("%w: status %d", ErrProcessorUnavailable, code)
	}
}

func toVerification(reference string, body *verifyResponse) *model.PaymentVerification {
	status := body.Data.Status
	if status == "" {
		status = "unknown"
	}
	verification := &model.PaymentVerification{
		Reference: reference,
		Success:   body.Status && body.Data.Status == successStatus,
		Status:    status,
		Amount:    body.Data.Amount,
	}
	if body.Data.PaidAt != "" {
		if paidAt, err := time.Parse(time.RFC3339, body.Data.PaidAt); err == nil {
			verification.PaidAt = &paidAt
		}
	}
	return verification
}

func (v *Verifier) onStateChange(name string, from, to gobreaker.State) {
	var state float64
	switch to {
	case gobreaker.StateOpen:
		state = 1
	case gobreaker.StateHalfOpen:
		state = 2
	}
	v.observer.SetBreakerState(name, state)
	v.logger.Warn("circuit breaker state changed",
		slog.String("circuit", name),
		slog.String("from", from.String()),
		slog.String("to", to.String()),
	)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
