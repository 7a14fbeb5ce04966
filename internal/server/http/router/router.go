package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/metrics"
	"github.com/polkiloo/storefront/internal/server/http/handlers"
	"github.com/polkiloo/storefront/internal/server/http/middleware"
	"github.com/polkiloo/storefront/internal/telemetry"
)

// Params are the router dependencies resolved by fx.
type Params struct {
	fx.In

	Facade         handlers.StorefrontFacade
	Config         *config.Config
	Metrics        *metrics.Metrics
	TracerProvider trace.TracerProvider
	Logger         *slog.Logger
}

// Setup configures gin router with handlers and middleware.
func Setup(p Params) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(otelgin.Middleware(telemetry.ServiceName, otelgin.WithTracerProvider(p.TracerProvider)))
	engine.Use(p.Metrics.Middleware())
	engine.Use(middleware.RequestLogger(p.Logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	checkoutHandler := handlers.NewCheckoutHandler(p.Facade, handlers.Redirects{
		Success: p.Config.SuccessRedirectURL,
		Failure: p.Config.FailureRedirectURL,
		Error:   p.Config.ErrorRedirectURL,
	}, p.Logger)
	orderHandler := handlers.NewOrderHandler(p.Facade)
	healthHandler := handlers.NewHealthHandler(p.Facade)

	engine.GET("/healthz", healthHandler.Check)
	engine.GET("/metrics", gin.WrapH(p.Metrics.Handler()))

	api := engine.Group("/api")
	api.GET("/checkout/verify", checkoutHandler.Verify)
	api.POST("/checkout/webhook", checkoutHandler.Webhook)

	authed := api.Group("")
	authed.Use(middleware.AuthRequired(p.Facade))
	authed.POST("/checkout", checkoutHandler.Place)
	authed.GET("/orders", orderHandler.List)
	authed.GET("/orders/:id", orderHandler.Detail)
	authed.PATCH("/orders/:id", orderHandler.UpdateStatus)

	return engine
}
