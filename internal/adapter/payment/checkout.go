package payment

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// HostedCheckout builds links to the processor's hosted payment page.
type HostedCheckout struct {
	base string
}

// NewHostedCheckout validates the hosted checkout base URL.
func NewHostedCheckout(base string) (*HostedCheckout, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse checkout url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("checkout url must be absolute")
	}
	return &HostedCheckout{base: strings.TrimSuffix(base, "/")}, nil
}

// PaymentURL returns <base>/<order id>; the order id is the payment reference.
func (h *HostedCheckout) PaymentURL(order *model.Order) (string, error) {
	if order == nil || order.ID == "" {
		return "", errors.New("order has no reference")
	}
	return h.base + "/" + url.PathEscape(order.ID), nil
}
