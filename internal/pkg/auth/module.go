package auth

import (
	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
)

// Module provides authentication primitives via fx.
var Module = fx.Options(
	fx.Provide(newTokenStrategy),
	fx.Provide(func(s Strategy) TokenParser { return s }),
	fx.Provide(newSignatureVerifier),
)

type strategyParams struct {
	fx.In

	Config *config.Config
}

func newTokenStrategy(p strategyParams) Strategy {
	return NewHMACStrategy(p.Config.AuthSecret, Options{})
}

func newSignatureVerifier(p strategyParams) *SignatureVerifier {
	return NewSignatureVerifier(p.Config.PaymentSecretKey)
}
