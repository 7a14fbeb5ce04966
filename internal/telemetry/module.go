package telemetry

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
)

// Module provides the tracer provider, its trace API view and the service tracer.
var Module = fx.Options(
	fx.Provide(newProvider),
	fx.Provide(func(p *Provider) trace.Tracer { return p.Tracer() }),
	fx.Provide(func(p *Provider) trace.TracerProvider { return p.TracerProvider() }),
)

type providerParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
}

func newProvider(p providerParams) (*Provider, error) {
	provider, err := New(context.Background(), p.Config.OTLPEndpoint, p.Logger)
	if err != nil {
		return nil, err
	}
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return provider.Shutdown(ctx)
		},
	})
	return provider, nil
}
