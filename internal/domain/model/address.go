package model

import (
	"strings"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
)

// ShippingAddress is the structured delivery destination.
type ShippingAddress struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// Validate reports the first empty field in declaration order.
func (a ShippingAddress) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"street", a.Street},
		{"city", a.City},
		{"state", a.State},
		{"zipCode", a.ZipCode},
		{"country", a.Country},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return &domainErrors.AddressError{Field: f.name}
		}
	}
	return nil
}
