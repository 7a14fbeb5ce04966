package metrics

import (
	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/usecase"
)

// Module provides the Prometheus collectors and exposes them as the outcome recorder.
var Module = fx.Options(
	fx.Provide(New),
	fx.Provide(func(m *Metrics) usecase.OutcomeRecorder { return m }),
)
