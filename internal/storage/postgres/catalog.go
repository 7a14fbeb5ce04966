package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
)

type productRepository struct {
	q querier
}

type cartRepository struct {
	q querier
}

type cartWriter struct {
	q querier
}

type addressBook struct {
	q querier
}

type inventoryLedger struct {
	q      querier
	logger *slog.Logger
}

func (r *productRepository) Get(ctx context.Context, id string) (*model.Product, error) {
	const query = `SELECT id, name, price, stock, status FROM products WHERE id=$1`
	var (
		p     model.Product
		price int64
	)
	err := r.q.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &price, &p.Stock, &p.Status)
	if err != nil {
		return nil, notFound(err, domainErrors.ErrProductNotFound)
	}
	p.Price = model.FromMinor(price)
	return &p, nil
}

func (r *cartRepository) Lines(ctx context.Context, userID int64) ([]model.CartLine, error) {
	const query = `SELECT c.product_id, c.quantity, p.name, p.price, p.stock, p.status
                   FROM cart_items c
                   JOIN products p ON p.id = c.product_id
                   WHERE c.user_id=$1
                   ORDER BY c.created_at, c.id`
	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.CartLine
	for rows.Next() {
		var (
			line  model.CartLine
			price int64
		)
		if err := rows.Scan(&line.ProductID, &line.Quantity, &line.Product.Name, &price, &line.Product.Stock, &line.Product.Status); err != nil {
			return nil, err
		}
		line.Product.ID = line.ProductID
		line.Product.Price = model.FromMinor(price)
		result = append(result, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Remove deletes the cart rows an order consumed. A row is matched on
// product and quantity, so rows added or changed after the cart was read
// stay in the cart.
func (w *cartWriter) Remove(ctx context.Context, userID int64, lines []model.Line) error {
	if len(lines) == 0 {
		return nil
	}
	productIDs := make([]string, len(lines))
	quantities := make([]int32, len(lines))
	for i, line := range lines {
		productIDs[i] = line.ProductID
		quantities[i] = int32(line.Quantity)
	}
	const query = `DELETE FROM cart_items c
                   USING unnest($2::text[], $3::int[]) AS o(product_id, quantity)
                   WHERE c.user_id=$1 AND c.product_id=o.product_id AND c.quantity=o.quantity`
	_, err := w.q.Exec(ctx, query, userID, productIDs, quantities)
	return err
}

func (b *addressBook) SaveAddress(ctx context.Context, userID int64, address model.ShippingAddress) error {
	payload, err := json.Marshal(address)
	if err != nil {
		return fmt.Errorf("encode address: %w", err)
	}
	const query = `INSERT INTO user_addresses (user_id, address) VALUES ($1, $2)
                   ON CONFLICT (user_id) DO UPDATE SET address = EXCLUDED.address, updated_at = NOW()`
	_, err = b.q.Exec(ctx, query, userID, payload)
	return err
}

// Decrement takes quantity units if and only if the product is still ACTIVE
// and enough stock remains. A product reaching zero is marked OUT_OF_STOCK.
func (l *inventoryLedger) Decrement(ctx context.Context, productID string, quantity int) error {
	if quantity < 1 {
		return domainErrors.ErrInvalidQuantity
	}
	const query = `UPDATE products
                   SET stock = stock - $2,
                       status = CASE WHEN stock - $2 = 0 THEN 'OUT_OF_STOCK' ELSE status END,
                       updated_at = NOW()
                   WHERE id=$1 AND stock >= $2 AND status='ACTIVE'
                   RETURNING stock`
	var remaining int
	err := l.q.QueryRow(ctx, query, productID, quantity).Scan(&remaining)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	var (
		name      string
		available int
		status    model.ProductStatus
	)
	err = l.q.QueryRow(ctx, `SELECT name, stock, status FROM products WHERE id=$1`, productID).Scan(&name, &available, &status)
	if err != nil {
		return notFound(err, domainErrors.ErrProductNotFound)
	}
	if available < quantity {
		return &domainErrors.StockError{ProductID: productID, Product: name, Requested: quantity, Available: available}
	}
	return &domainErrors.UnavailableError{Product: name}
}

// Increment returns quantity units and reactivates a sold-out product.
func (l *inventoryLedger) Increment(ctx context.Context, productID string, quantity int) error {
	if quantity < 1 {
		return domainErrors.ErrInvalidQuantity
	}
	const query = `UPDATE products
                   SET stock = stock + $2,
                       status = CASE WHEN status = 'OUT_OF_STOCK' AND stock + $2 > 0 THEN 'ACTIVE' ELSE status END,
                       updated_at = NOW()
                   WHERE id=$1`
	tag, err := l.q.Exec(ctx, query, productID, quantity)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 && l.logger != nil {
		l.logger.Warn("stock restore skipped, product missing", slog.String("product_id", productID), slog.Int("quantity", quantity))
	}
	return nil
}
