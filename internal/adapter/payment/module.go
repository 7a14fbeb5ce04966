package payment

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/metrics"
	"github.com/polkiloo/storefront/internal/usecase"
)

// Module exposes the processor verifier and the hosted checkout builder.
var Module = fx.Provide(
	newVerifier,
	newHostedCheckout,
)

type verifierParams struct {
	fx.In

	Config  *config.Config
	Tracer  trace.Tracer
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

func newVerifier(p verifierParams) (usecase.PaymentVerifier, error) {
	return NewVerifier(p.Config.PaymentAPIAddress, p.Config.PaymentSecretKey, p.Config.PaymentTimeout, p.Tracer, p.Metrics, p.Logger)
}

func newHostedCheckout(cfg *config.Config) (usecase.PaymentInitiator, error) {
	return NewHostedCheckout(cfg.PaymentCheckoutURL)
}
