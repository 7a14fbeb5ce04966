package test

import (
	"context"
	"sort"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// CartEntry is one stored cart row.
type CartEntry struct {
	ProductID string
	Quantity  int
}

// MemoryStore is a transactional in-memory repository. Transactions are
// serialized and roll back every change when fn fails.
type MemoryStore struct {
	mu        sync.Mutex
	products  map[string]*model.Product
	carts     map[int64][]CartEntry
	orders    map[string]*model.Order
	Addresses map[int64]model.ShippingAddress
	Checked   map[string]time.Time
	// Fail injects an error for an operation name such as "create",
	// "decrement", "clear", "address", "cancel", "mark_paid", "get" or "begin".
	Fail map[string]error
	// TakenNumbers simulates order numbers already used by other rows.
	TakenNumbers map[string]bool
	Now          func() time.Time

	nextItemID int64
	TxCount    int
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products:     make(map[string]*model.Product),
		carts:        make(map[int64][]CartEntry),
		orders:       make(map[string]*model.Order),
		Addresses:    make(map[int64]model.ShippingAddress),
		Checked:      make(map[string]time.Time),
		Fail:         make(map[string]error),
		TakenNumbers: make(map[string]bool),
		Now:          time.Now,
	}
}

// AddProduct stores a product.
func (s *MemoryStore) AddProduct(p model.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = &p
}

// AddToCart appends a cart row for userID.
func (s *MemoryStore) AddToCart(userID int64, productID string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[userID] = append(s.carts[userID], CartEntry{ProductID: productID, Quantity: quantity})
}

// SetCartQuantity changes the quantity of every cart row for productID.
func (s *MemoryStore) SetCartQuantity(userID int64, productID string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.carts[userID] {
		if s.carts[userID][i].ProductID == productID {
			s.carts[userID][i].Quantity = quantity
		}
	}
}

// CartEntries returns a copy of the user's cart rows.
func (s *MemoryStore) CartEntries(userID int64) []CartEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]CartEntry(nil), s.carts[userID]...)
}

// AddOrder stores an order as if it had been committed earlier.
func (s *MemoryStore) AddOrder(o model.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = cloneOrder(&o)
}

// Stock returns the current stock and status of a product.
func (s *MemoryStore) Stock(productID string) (int, model.ProductStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return 0, ""
	}
	return p.Stock, p.Status
}

// Order returns a copy of the stored order or nil.
func (s *MemoryStore) Order(id string) *model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil
	}
	return cloneOrder(o)
}

// OrderCount returns the number of stored orders.
func (s *MemoryStore) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

// CartSize returns the number of rows in the user's cart.
func (s *MemoryStore) CartSize(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.carts[userID])
}

// WithinTx implements repository.Transactor.
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(context.Context, repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.Fail["begin"]; err != nil {
		return err
	}
	s.TxCount++

	snapshot := s.snapshot()
	if err := fn(ctx, &memTx{s: s}); err != nil {
		s.restore(snapshot)
		return err
	}
	return nil
}

func (s *MemoryStore) Orders() repository.OrderRepository     { return memOrders{s: s} }
func (s *MemoryStore) Products() repository.ProductRepository { return memProducts{s: s} }
func (s *MemoryStore) Carts() repository.CartRepository       { return memCarts{s: s} }

type memState struct {
	products  map[string]*model.Product
	carts     map[int64][]CartEntry
	orders    map[string]*model.Order
	addresses map[int64]model.ShippingAddress
	checked   map[string]time.Time
	nextItem  int64
}

func (s *MemoryStore) snapshot() memState {
	st := memState{
		products:  make(map[string]*model.Product, len(s.products)),
		carts:     make(map[int64][]CartEntry, len(s.carts)),
		orders:    make(map[string]*model.Order, len(s.orders)),
		addresses: make(map[int64]model.ShippingAddress, len(s.Addresses)),
		checked:   make(map[string]time.Time, len(s.Checked)),
		nextItem:  s.nextItemID,
	}
	for k, v := range s.products {
		p := *v
		st.products[k] = &p
	}
	for k, v := range s.carts {
		st.carts[k] = append([]CartEntry(nil), v...)
	}
	for k, v := range s.orders {
		st.orders[k] = cloneOrder(v)
	}
	for k, v := range s.Addresses {
		st.addresses[k] = v
	}
	for k, v := range s.Checked {
		st.checked[k] = v
	}
	return st
}

func (s *MemoryStore) restore(st memState) {
	s.products = st.products
	s.carts = st.carts
	s.orders = st.orders
	s.Addresses = st.addresses
	s.Checked = st.checked
	s.nextItemID = st.nextItem
}

func cloneOrder(o *model.Order) *model.Order {
	c := *o
	c.Items = append([]model.OrderItem(nil), o.Items...)
	c.ItemCount = len(c.Items)
	return &c
}

type memOrders struct{ s *MemoryStore }

func (r memOrders) Get(ctx context.Context, id string) (*model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.Fail["get"]; err != nil {
		return nil, err
	}
	o, ok := r.s.orders[id]
	if !ok {
		return nil, domainErrors.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (r memOrders) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.Fail["list"]; err != nil {
		return nil, 0, err
	}
	var matched []model.Order
	for _, o := range r.s.orders {
		if o.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		c := cloneOrder(o)
		c.Items = nil
		matched = append(matched, *c)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := len(matched)
	start := filter.Offset()
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

type memProducts struct{ s *MemoryStore }

func (r memProducts) Get(ctx context.Context, id string) (*model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, domainErrors.ErrProductNotFound
	}
	c := *p
	return &c, nil
}

type memCarts struct{ s *MemoryStore }

func (r memCarts) Lines(ctx context.Context, userID int64) ([]model.CartLine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var lines []model.CartLine
	for _, entry := range r.s.carts[userID] {
		p, ok := r.s.products[entry.ProductID]
		if !ok {
			continue
		}
		lines = append(lines, model.CartLine{ProductID: entry.ProductID, Quantity: entry.Quantity, Product: *p})
	}
	return lines, nil
}

type memTx struct{ s *MemoryStore }

func (t *memTx) Orders() repository.OrderWriter        { return memOrderWriter{s: t.s} }
func (t *memTx) Inventory() repository.InventoryLedger { return memInventory{s: t.s} }
func (t *memTx) Carts() repository.CartWriter          { return memCartWriter{s: t.s} }
func (t *memTx) Users() repository.AddressBook         { return memAddressBook{s: t.s} }

type memOrderWriter struct{ s *MemoryStore }

func (w memOrderWriter) Create(ctx context.Context, order *model.Order) error {
	if err := w.s.Fail["create"]; err != nil {
		return err
	}
	if w.s.TakenNumbers[order.Number] {
		return domainErrors.ErrOrderNumberTaken
	}
	for _, existing := range w.s.orders {
		if existing.Number == order.Number {
			return domainErrors.ErrOrderNumberTaken
		}
	}
	order.CreatedAt = w.s.Now()
	for i := range order.Items {
		w.s.nextItemID++
		order.Items[i].ID = w.s.nextItemID
		order.Items[i].OrderID = order.ID
	}
	w.s.orders[order.ID] = cloneOrder(order)
	return nil
}

func (w memOrderWriter) MarkPaid(ctx context.Context, orderID string, paidAt time.Time) (bool, error) {
	if err := w.s.Fail["mark_paid"]; err != nil {
		return false, err
	}
	o, ok := w.s.orders[orderID]
	if !ok || o.Status != model.OrderStatusPending {
		return false, nil
	}
	o.Status = model.OrderStatusProcessing
	o.PaymentStatus = model.PaymentStatusPaid
	o.PaidAt = &paidAt
	return true, nil
}

func (w memOrderWriter) Cancel(ctx context.Context, orderID string) (bool, error) {
	if err := w.s.Fail["cancel"]; err != nil {
		return false, err
	}
	o, ok := w.s.orders[orderID]
	if !ok || o.Status != model.OrderStatusPending {
		return false, nil
	}
	o.Status = model.OrderStatusCancelled
	if o.PaymentStatus == model.PaymentStatusPending {
		o.PaymentStatus = model.PaymentStatusFailed
	}
	return true, nil
}

func (w memOrderWriter) Items(ctx context.Context, orderID string) ([]model.OrderItem, error) {
	o, ok := w.s.orders[orderID]
	if !ok {
		return nil, nil
	}
	return append([]model.OrderItem(nil), o.Items...), nil
}

func (w memOrderWriter) StalePending(ctx context.Context, createdBefore time.Time, limit int) ([]model.Order, error) {
	if err := w.s.Fail["stale"]; err != nil {
		return nil, err
	}
	var result []model.Order
	for _, o := range w.s.orders {
		if o.Status != model.OrderStatusPending || !o.CreatedAt.Before(createdBefore) {
			continue
		}
		if checked, ok := w.s.Checked[o.ID]; ok && !checked.Before(createdBefore) {
			continue
		}
		result = append(result, *cloneOrder(o))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	if len(result) > limit {
		result = result[:limit]
	}
	now := w.s.Now()
	for _, o := range result {
		w.s.Checked[o.ID] = now
	}
	return result, nil
}

type memInventory struct{ s *MemoryStore }

func (l memInventory) Decrement(ctx context.Context, productID string, quantity int) error {
	if err := l.s.Fail["decrement"]; err != nil {
		return err
	}
	if quantity < 1 {
		return domainErrors.ErrInvalidQuantity
	}
	p, ok := l.s.products[productID]
	if !ok {
		return domainErrors.ErrProductNotFound
	}
	if p.Stock < quantity {
		return &domainErrors.StockError{ProductID: productID, Product: p.Name, Requested: quantity, Available: p.Stock}
	}
	if !p.Available() {
		return &domainErrors.UnavailableError{Product: p.Name}
	}
	p.Stock -= quantity
	if p.Stock == 0 {
		p.Status = model.ProductStatusOutOfStock
	}
	return nil
}

func (l memInventory) Increment(ctx context.Context, productID string, quantity int) error {
	if err := l.s.Fail["increment"]; err != nil {
		return err
	}
	if quantity < 1 {
		return domainErrors.ErrInvalidQuantity
	}
	p, ok := l.s.products[productID]
	if !ok {
		return nil
	}
	p.Stock += quantity
	if p.Status == model.ProductStatusOutOfStock && p.Stock > 0 {
		p.Status = model.ProductStatusActive
	}
	return nil
}

type memCartWriter struct{ s *MemoryStore }

func (w memCartWriter) Remove(ctx context.Context, userID int64, lines []model.Line) error {
	if err := w.s.Fail["clear"]; err != nil {
		return err
	}
	kept := w.s.carts[userID][:0]
	for _, entry := range w.s.carts[userID] {
		matched := -1
		for i, line := range lines {
			if line.ProductID == entry.ProductID && line.Quantity == entry.Quantity {
				matched = i
				break
			}
		}
		if matched < 0 {
			kept = append(kept, entry)
			continue
		}
		lines = append(lines[:matched:matched], lines[matched+1:]...)
	}
	if len(kept) == 0 {
		delete(w.s.carts, userID)
		return nil
	}
	w.s.carts[userID] = kept
	return nil
}

type memAddressBook struct{ s *MemoryStore }

func (b memAddressBook) SaveAddress(ctx context.Context, userID int64, address model.ShippingAddress) error {
	if err := b.s.Fail["address"]; err != nil {
		return err
	}
	b.s.Addresses[userID] = address
	return nil
}

var _ repository.Factory = (*MemoryStore)(nil)
