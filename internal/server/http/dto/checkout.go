package dto

import "github.com/polkiloo/storefront/internal/domain/model"

// CheckoutRequest is the body of POST /api/checkout. ProductID switches the
// checkout to a direct purchase of that product.
type CheckoutRequest struct {
	ShippingAddress model.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                `json:"paymentMethod,omitempty"`
	SaveAddress     bool                  `json:"saveAddress,omitempty"`
	ProductID       string                `json:"productId,omitempty"`
	Quantity        int                   `json:"quantity,omitempty"`
}

// CheckoutResponse is returned with 201 after the order is committed.
type CheckoutResponse struct {
	Order      OrderSummary `json:"order"`
	PaymentURL string       `json:"paymentUrl"`
}

// ToPlaceOrderRequest converts the body into a use case request.
func (r CheckoutRequest) ToPlaceOrderRequest(userID int64, idempotencyKey string) model.PlaceOrderRequest {
	req := model.PlaceOrderRequest{
		UserID:         userID,
		Address:        r.ShippingAddress,
		PaymentMethod:  r.PaymentMethod,
		SaveAddress:    r.SaveAddress,
		IdempotencyKey: idempotencyKey,
	}
	if r.ProductID != "" {
		req.Direct = &model.DirectPurchase{ProductID: r.ProductID, Quantity: r.Quantity}
	}
	return req
}
