package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/storefront/internal/adapter/payment"
	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/server/http/dto"
)

// IdempotencyKeyHeader lets clients retry a checkout safely.
const IdempotencyKeyHeader = "Idempotency-Key"

const maxWebhookBody = 1 << 20

// Redirects are the browser targets after payment verification.
type Redirects struct {
	Success string
	Failure string
	Error   string
}

// CheckoutHandler serves order placement and payment callbacks.
type CheckoutHandler struct {
	facade    CheckoutFacade
	redirects Redirects
	logger    *slog.Logger
}

// NewCheckoutHandler constructs CheckoutHandler.
func NewCheckoutHandler(facade CheckoutFacade, redirects Redirects, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{facade: facade, redirects: redirects, logger: logger}
}

// Place handles POST /api/checkout.
func (h *CheckoutHandler) Place(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	key := c.GetHeader(IdempotencyKeyHeader)
	confirmation, err := h.facade.PlaceOrder(c.Request.Context(), req.ToPlaceOrderRequest(CurrentUserID(c), key))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.CheckoutResponse{
		Order:      dto.NewOrderSummary(*confirmation.Order),
		PaymentURL: confirmation.PaymentURL,
	})
}

// Verify handles GET /api/checkout/verify. It only ever redirects.
func (h *CheckoutHandler) Verify(c *gin.Context) {
	reference := c.Query("reference")
	if reference == "" {
		c.Redirect(http.StatusSeeOther, withQuery(h.redirects.Error, "error", "no_reference"))
		return
	}

	outcome, err := h.facade.VerifyPayment(c.Request.Context(), reference)
	switch {
	case errors.Is(err, domainErrors.ErrMissingReference):
		c.Redirect(http.StatusSeeOther, withQuery(h.redirects.Error, "error", "no_reference"))
	case err != nil:
		h.logger.Error("payment verification", slog.String("reference", reference), slog.String("error", err.Error()))
		c.Redirect(http.StatusSeeOther, withQuery(h.redirects.Error, "error", "server_error"))
	case outcome == model.ReconcileSuccess:
		c.Redirect(http.StatusSeeOther, h.redirects.Success)
	default:
		c.Redirect(http.StatusSeeOther, withQuery(h.redirects.Failure, "ref", reference))
	}
}

// Webhook handles POST /api/checkout/webhook.
func (h *CheckoutHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		badRequest(c, "unreadable body")
		return
	}

	if err := h.facade.HandleWebhook(c.Request.Context(), body, c.GetHeader(payment.SignatureHeader)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func withQuery(target, key, value string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
