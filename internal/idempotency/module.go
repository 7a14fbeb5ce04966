package idempotency

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/usecase"
)

// Module provides the checkout idempotency store.
var Module = fx.Provide(newStore)

type storeParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
}

var newRedisClient = func(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

func newStore(p storeParams) usecase.IdempotencyStore {
	if p.Config.RedisAddress == "" {
		p.Logger.Info("idempotency keys disabled")
		return NoopStore{}
	}

	store := NewRedisStore(newRedisClient(p.Config.RedisAddress), p.Config.IdempotencyTTL)
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := store.Ping(ctx); err != nil {
				p.Logger.Warn("redis unreachable, checkout retries are not deduplicated",
					slog.String("addr", p.Config.RedisAddress),
					slog.String("error", err.Error()),
				)
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return store.Close()
		},
	})
	return store
}
