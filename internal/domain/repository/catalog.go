package repository

import (
	"context"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// ProductRepository reads catalogue products.
type ProductRepository interface {
	Get(ctx context.Context, id string) (*model.Product, error)
}

// CartRepository reads a user's cart with current product data.
type CartRepository interface {
	Lines(ctx context.Context, userID int64) ([]model.CartLine, error)
}
