package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/metrics"
)

func TestModuleConstructorsUseConfig(t *testing.T) {
	cfg := &config.Config{
		PaymentAPIAddress:  "http://processor.test",
		PaymentSecretKey:   "sk",
		PaymentTimeout:     time.Second,
		PaymentCheckoutURL: "https://checkout.test",
	}

	verifier, err := newVerifier(verifierParams{
		Config:  cfg,
		Tracer:  noop.NewTracerProvider().Tracer("test"),
		Metrics: metrics.New(),
		Logger:  testLogger(),
	})
	require.NoError(t, err)
	assert.NotNil(t, verifier)

	initiator, err := newHostedCheckout(cfg)
	require.NoError(t, err)
	assert.NotNil(t, initiator)
}
