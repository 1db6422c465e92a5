package orders

import "context"

// Store is the persistence boundary for the order lifecycle. Every
// status-gated mutation is an atomic check-and-act: the implementation
// verifies the current status and applies the change in one unit of
// work, so a concurrent send cannot interleave with a late add-item.
type Store interface {
	CreateOrder(ctx context.Context, o Order) error
	GetOrder(ctx context.Context, orderID string) (Order, error)

	// AddItem attaches an item to a draft order, freezing the product's
	// current price on the row. Fails with ErrOrderNotEditable when the
	// order has left draft.
	AddItem(ctx context.Context, orderID, productID string, amount int) (Item, error)

	// RemoveItem detaches one item from a draft order.
	RemoveItem(ctx context.Context, orderID, itemID string) error

	// SendOrder moves draft -> sent, rejecting empty orders.
	SendOrder(ctx context.Context, orderID string) (Order, error)

	// FinishOrder moves sent -> finished.
	FinishOrder(ctx context.Context, orderID string) (Order, error)

	// DeleteOrder removes the order and cascades to its items. The prior
	// status is returned so callers can flag anomalous deletions.
	DeleteOrder(ctx context.Context, orderID string) (Status, error)

	// ListOrders returns orders oldest first, totals computed from the
	// frozen item prices. A nil filter returns every order.
	ListOrders(ctx context.Context, filter *Status) ([]Order, error)

	// OrderDetail returns one order with its items, product names
	// resolved at read time.
	OrderDetail(ctx context.Context, orderID string) (Order, error)

	GetProduct(ctx context.Context, productID string) (Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
}
