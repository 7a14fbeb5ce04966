package model

import "github.com/shopspring/decimal"

// ProductStatus describes catalogue availability.
type ProductStatus string

const (
	ProductStatusActive     ProductStatus = "ACTIVE"
	ProductStatusInactive   ProductStatus = "INACTIVE"
	ProductStatusOutOfStock ProductStatus = "OUT_OF_STOCK"
)

// Product is the catalogue view the checkout needs.
type Product struct {
	ID     string
	Name   string
	Price  decimal.Decimal
	Stock  int
	Status ProductStatus
}

// Available reports whether the product may be sold.
func (p *Product) Available() bool {
	return p.Status == ProductStatusActive
}

// CartLine pairs a cart entry with its current product.
type CartLine struct {
	ProductID string
	Quantity  int
	Product   Product
}
