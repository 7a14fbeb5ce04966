package idempotency

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/fx/fxtest"

	"github.com/polkiloo/storefront/internal/config"
)

func TestNewStoreWithoutRedis(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	store := newStore(storeParams{
		Lifecycle: lc,
		Config:    &config.Config{},
		Logger:    slog.New(slog.NewJSONHandler(io.Discard, nil)),
	})
	assert.IsType(t, NoopStore{}, store)
}

func TestNewStoreWithRedisDegradesWhenUnreachable(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	store := newStore(storeParams{
		Lifecycle: lc,
		Config:    &config.Config{RedisAddress: "127.0.0.1:1", IdempotencyTTL: time.Hour},
		Logger:    slog.New(slog.NewJSONHandler(io.Discard, nil)),
	})
	assert.IsType(t, &RedisStore{}, store)

	lc.RequireStart()
	lc.RequireStop()
}
