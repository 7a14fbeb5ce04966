package usecase

import (
	"context"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// CartResolver turns a cart or a direct purchase into priced lines.
// It only reads.
type CartResolver struct {
	products repository.ProductRepository
	carts    repository.CartRepository
}

// NewCartResolver constructs CartResolver.
func NewCartResolver(products repository.ProductRepository, carts repository.CartRepository) *CartResolver {
	return &CartResolver{products: products, carts: carts}
}

// Resolve returns the lines for userID. A non-nil direct selects buy-now mode.
func (r *CartResolver) Resolve(ctx context.Context, userID int64, direct *model.DirectPurchase) (*model.Snapshot, error) {
	if direct != nil {
		return r.resolveDirect(ctx, direct)
	}
	return r.resolveCart(ctx, userID)
}

func (r *CartResolver) resolveDirect(ctx context.Context, direct *model.DirectPurchase) (*model.Snapshot, error) {
	if direct.Quantity < 1 {
		return nil, domainErrors.ErrInvalidQuantity
	}
	product, err := r.products.Get(ctx, direct.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.Available() {
		return nil, &domainErrors.UnavailableError{}
	}
	if product.Stock < direct.Quantity {
		return nil, &domainErrors.StockError{
			ProductID: product.ID,
			Product:   product.Name,
			Requested: direct.Quantity,
			Available: product.Stock,
		}
	}
	return &model.Snapshot{
		Mode:  model.CheckoutModeDirect,
		Lines: []model.Line{lineFor(product, direct.Quantity)},
	}, nil
}

func (r *CartResolver) resolveCart(ctx context.Context, userID int64) (*model.Snapshot, error) {
	items, err := r.carts.Lines(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domainErrors.ErrEmptyCart
	}

	lines := make([]model.Line, 0, len(items))
	for i := range items {
		item := &items[i]
		if !item.Product.Available() {
			return nil, &domainErrors.UnavailableError{Product: item.Product.Name}
		}
		if item.Product.Stock < item.Quantity {
			return nil, &domainErrors.StockError{
				ProductID: item.ProductID,
				Product:   item.Product.Name,
				Requested: item.Quantity,
				Available: item.Product.Stock,
			}
		}
		lines = append(lines, lineFor(&item.Product, item.Quantity))
	}
	return &model.Snapshot{Mode: model.CheckoutModeCart, Lines: lines}, nil
}

func lineFor(p *model.Product, quantity int) model.Line {
	return model.Line{ProductID: p.ID, ProductName: p.Name, Price: p.Price, Quantity: quantity}
}
