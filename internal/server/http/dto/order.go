package dto

import (
	"time"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// OrderSummary is the list and checkout representation of an order.
type OrderSummary struct {
	ID            string     `json:"id"`
	OrderNumber   string     `json:"orderNumber"`
	Subtotal      string     `json:"subtotal"`
	Tax           string     `json:"tax"`
	ShippingCost  string     `json:"shippingCost"`
	Total         string     `json:"total"`
	Status        string     `json:"status"`
	PaymentStatus string     `json:"paymentStatus"`
	PaymentMethod string     `json:"paymentMethod,omitempty"`
	ItemCount     int        `json:"itemCount"`
	CreatedAt     time.Time  `json:"createdAt"`
	PaidAt        *time.Time `json:"paidAt,omitempty"`
}

// OrderItem is a frozen line of an order detail.
type OrderItem struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Price       string `json:"price"`
	Quantity    int    `json:"quantity"`
	LineTotal   string `json:"lineTotal"`
}

// OrderDetail adds the address and items to the summary.
type OrderDetail struct {
	OrderSummary
	ShippingAddress model.ShippingAddress `json:"shippingAddress"`
	ShippedAt       *time.Time            `json:"shippedAt,omitempty"`
	DeliveredAt     *time.Time            `json:"deliveredAt,omitempty"`
	Items           []OrderItem           `json:"items"`
}

// OrderListResponse is one page of orders.
type OrderListResponse struct {
	Orders     []OrderSummary `json:"orders"`
	Pagination Pagination     `json:"pagination"`
}

// Pagination describes the page returned by a list call.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// StatusPatch is the body of PATCH /api/orders/:id.
type StatusPatch struct {
	Status string `json:"status" binding:"required"`
}

// StatusResponse is returned after a cancellation.
type StatusResponse struct {
	ID            string `json:"id"`
	OrderNumber   string `json:"orderNumber"`
	Status        string `json:"status"`
	PaymentStatus string `json:"paymentStatus"`
}

// NewOrderSummary renders amounts with two decimals.
func NewOrderSummary(o model.Order) OrderSummary {
	count := o.ItemCount
	if count == 0 && len(o.Items) > 0 {
		for _, item := range o.Items {
			count += item.Quantity
		}
	}
	return OrderSummary{
		ID:            o.ID,
		OrderNumber:   o.Number,
		Subtotal:      o.Subtotal.StringFixed(2),
		Tax:           o.Tax.StringFixed(2),
		ShippingCost:  o.ShippingCost.StringFixed(2),
		Total:         o.Total.StringFixed(2),
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		PaymentMethod: o.PaymentMethod,
		ItemCount:     count,
		CreatedAt:     o.CreatedAt,
		PaidAt:        o.PaidAt,
	}
}

// NewOrderDetail renders an order with its items.
func NewOrderDetail(o model.Order) OrderDetail {
	items := make([]OrderItem, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Price:       item.Price.StringFixed(2),
			Quantity:    item.Quantity,
			LineTotal:   item.LineTotal().StringFixed(2),
		})
	}
	return OrderDetail{
		OrderSummary:    NewOrderSummary(o),
		ShippingAddress: o.ShippingAddress,
		ShippedAt:       o.ShippedAt,
		DeliveredAt:     o.DeliveredAt,
		Items:           items,
	}
}

// NewOrderList renders a page.
func NewOrderList(page model.OrderPage) OrderListResponse {
	orders := make([]OrderSummary, 0, len(page.Orders))
	for _, o := range page.Orders {
		orders = append(orders, NewOrderSummary(o))
	}
	return OrderListResponse{
		Orders: orders,
		Pagination: Pagination{
			Page:  page.Page,
			Limit: page.Limit,
			Total: page.Total,
			Pages: page.Pages(),
		},
	}
}

// NewStatusResponse renders the state after a transition.
func NewStatusResponse(o model.Order) StatusResponse {
	return StatusResponse{
		ID:            o.ID,
		OrderNumber:   o.Number,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
	}
}
