package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
)

const orderColumns = `id, order_number, user_id, subtotal, tax, shipping_cost, total,
                      shipping_address, payment_method, status, payment_status,
                      created_at, paid_at, shipped_at, delivered_at`

type orderReader struct {
	q querier
}

type orderWriter struct {
	q querier
}

func scanOrder(row pgx.Row, extra ...any) (*model.Order, error) {
	var (
		o                              model.Order
		subtotal, tax, shipping, total int64
		address                        []byte
	)
	dest := []any{
		&o.ID, &o.Number, &o.UserID, &subtotal, &tax, &shipping, &total,
		&address, &o.PaymentMethod, &o.Status, &o.PaymentStatus,
		&o.CreatedAt, &o.PaidAt, &o.ShippedAt, &o.DeliveredAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if len(address) > 0 {
		if err := json.Unmarshal(address, &o.ShippingAddress); err != nil {
			return nil, fmt.Errorf("decode shipping address: %w", err)
		}
	}
	o.Subtotal = model.FromMinor(subtotal)
	o.Tax = model.FromMinor(tax)
	o.ShippingCost = model.FromMinor(shipping)
	o.Total = model.FromMinor(total)
	return &o, nil
}

func (r *orderReader) Get(ctx context.Context, id string) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	order, err := scanOrder(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err, domainErrors.ErrOrderNotFound)
	}
	items, err := listItems(ctx, r.q, id)
	if err != nil {
		return nil, err
	}
	order.Items = items
	order.ItemCount = len(items)
	return order, nil
}

func (r *orderReader) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, int, error) {
	const countQuery = `SELECT COUNT(*) FROM orders WHERE user_id=$1 AND ($2::text = '' OR status=$2)`
	var total int
	if err := r.q.QueryRow(ctx, countQuery, filter.UserID, string(filter.Status)).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + orderColumns + `,
                     (SELECT COUNT(*) FROM order_items i WHERE i.order_id = orders.id) AS item_count
              FROM orders
              WHERE user_id=$1 AND ($2::text = '' OR status=$2)
              ORDER BY created_at DESC
              LIMIT $3 OFFSET $4`
	rows, err := r.q.Query(ctx, query, filter.UserID, string(filter.Status), filter.Limit, filter.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []model.Order
	for rows.Next() {
		var count int
		o, err := scanOrder(rows, &count)
		if err != nil {
			return nil, 0, err
		}
		o.ItemCount = count
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func listItems(ctx context.Context, q querier, orderID string) ([]model.OrderItem, error) {
	const query = `SELECT id, order_id, product_id, product_name, price, quantity
                   FROM order_items WHERE order_id=$1 ORDER BY id`
	rows, err := q.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.OrderItem
	for rows.Next() {
		var (
			item  model.OrderItem
			price int64
		)
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &price, &item.Quantity); err != nil {
			return nil, err
		}
		item.Price = model.FromMinor(price)
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Create inserts the order and its item snapshots.
func (w *orderWriter) Create(ctx context.Context, order *model.Order) error {
	address, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return fmt.Errorf("encode shipping address: %w", err)
	}

	const insertOrder = `INSERT INTO orders (id, order_number, user_id, subtotal, tax, shipping_cost, total,
                                             shipping_address, payment_method, status, payment_status)
                         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
                         RETURNING created_at`
	err = w.q.QueryRow(ctx, insertOrder,
		order.ID, order.Number, order.UserID,
		model.ToMinor(order.Subtotal), model.ToMinor(order.Tax), model.ToMinor(order.ShippingCost), model.ToMinor(order.Total),
		address, order.PaymentMethod, order.Status, order.PaymentStatus,
	).Scan(&order.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domainErrors.ErrOrderNumberTaken
		}
		return err
	}

	const insertItem = `INSERT INTO order_items (order_id, product_id, product_name, price, quantity)
                        VALUES ($1, $2, $3, $4, $5) RETURNING id`
	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		if err := w.q.QueryRow(ctx, insertItem, order.ID, item.ProductID, item.ProductName, model.ToMinor(item.Price), item.Quantity).Scan(&item.ID); err != nil {
			return err
		}
	}
	order.ItemCount = len(order.Items)
	return nil
}

func (w *orderWriter) MarkPaid(ctx context.Context, orderID string, paidAt time.Time) (bool, error) {
	const query = `UPDATE orders
                   SET status='PROCESSING', payment_status='PAID', paid_at=$2
                   WHERE id=$1 AND status='PENDING'`
	tag, err := w.q.Exec(ctx, query, orderID, paidAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (w *orderWriter) Cancel(ctx context.Context, orderID string) (bool, error) {
	const query = `UPDATE orders
                   SET status='CANCELLED',
                       payment_status = CASE WHEN payment_status='PENDING' THEN 'FAILED' ELSE payment_status END
                   WHERE id=$1 AND status='PENDING'`
	tag, err := w.q.Exec(ctx, query, orderID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (w *orderWriter) Items(ctx context.Context, orderID string) ([]model.OrderItem, error) {
	return listItems(ctx, w.q, orderID)
}

// StalePending claims pending orders created before the cutoff that were not
// checked since. Claimed rows are stamped so concurrent sweepers skip them.
func (w *orderWriter) StalePending(ctx context.Context, createdBefore time.Time, limit int) ([]model.Order, error) {
	const selectQuery = `SELECT id, order_number, user_id, total, created_at
                         FROM orders
                         WHERE status='PENDING' AND created_at < $1 AND (checked_at IS NULL OR checked_at < $1)
                         ORDER BY created_at
                         LIMIT $2
                         FOR UPDATE SKIP LOCKED`
	rows, err := w.q.Query(ctx, selectQuery, createdBefore, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		result []model.Order
		ids    []string
	)
	for rows.Next() {
		var (
			o     model.Order
			total int64
		)
		if err := rows.Scan(&o.ID, &o.Number, &o.UserID, &total, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.Total = model.FromMinor(total)
		o.Status = model.OrderStatusPending
		o.PaymentStatus = model.PaymentStatusPending
		result = append(result, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	if _, err := w.q.Exec(ctx, `UPDATE orders SET checked_at=NOW() WHERE id = ANY($1)`, ids); err != nil {
		return nil, err
	}
	return result, nil
}
