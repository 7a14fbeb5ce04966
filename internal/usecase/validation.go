package usecase

import (
	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
)

// NormalizeFilter clamps paging to 1..50 rows and validates the status.
func NormalizeFilter(f model.OrderFilter) (model.OrderFilter, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	switch {
	case f.Limit < 1:
		f.Limit = defaultPageSize
	case f.Limit > maxPageSize:
		f.Limit = maxPageSize
	}
	if f.Status != "" && !f.Status.Valid() {
		return f, domainErrors.ErrInvalidStatusFilter
	}
	return f, nil
}

// NormalizeRequest applies request defaults before checkout.
func NormalizeRequest(req model.PlaceOrderRequest) model.PlaceOrderRequest {
	if req.PaymentMethod == "" {
		req.PaymentMethod = model.DefaultPaymentMethod
	}
	if req.Direct != nil && req.Direct.Quantity == 0 {
		direct := *req.Direct
		direct.Quantity = 1
		req.Direct = &direct
	}
	return req
}
