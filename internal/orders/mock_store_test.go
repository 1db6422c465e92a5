package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

// mockStore mirrors the pgx repo's semantics in memory, including the
// status gates, so service tests run without a database.
type mockStore struct {
	orders   map[string]*Order
	items    map[string][]Item
	products map[string]Product
	inserted []string // creation order, for stable listing

	failNext error // next mutating call fails with this
}

var _ Store = (*mockStore)(nil)

func newMockStore() *mockStore {
	return &mockStore{
		orders:   make(map[string]*Order),
		items:    make(map[string][]Item),
		products: make(map[string]Product),
	}
}

func (m *mockStore) addProduct(id, name string, priceCents int) {
	m.products[id] = Product{ID: id, Name: name, PriceCents: priceCents}
}

func (m *mockStore) takeFailure() error {
	err := m.failNext
	m.failNext = nil
	return err
}

func (m *mockStore) CreateOrder(_ context.Context, o Order) error {
	if err := m.takeFailure(); err != nil {
		return err
	}
	cp := o
	m.orders[o.ID] = &cp
	m.inserted = append(m.inserted, o.ID)
	return nil
}

func (m *mockStore) GetOrder(_ context.Context, orderID string) (Order, error) {
	o, ok := m.orders[orderID]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	return *o, nil
}

func (m *mockStore) AddItem(_ context.Context, orderID, productID string, amount int) (Item, error) {
	if err := m.takeFailure(); err != nil {
		return Item{}, err
	}
	o, ok := m.orders[orderID]
	if !ok {
		return Item{}, ErrOrderNotFound
	}
	if o.Status != StatusDraft {
		return Item{}, fmt.Errorf("%w: status is %s", ErrOrderNotEditable, o.Status)
	}
	p, ok := m.products[productID]
	if !ok {
		return Item{}, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}
	it := Item{
		ID:          uuid.NewString(),
		OrderID:     orderID,
		ProductID:   productID,
		ProductName: p.Name,
		PriceCents:  p.PriceCents,
		Amount:      amount,
	}
	m.items[orderID] = append(m.items[orderID], it)
	return it, nil
}

func (m *mockStore) RemoveItem(_ context.Context, orderID, itemID string) error {
	o, ok := m.orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	if o.Status != StatusDraft {
		return fmt.Errorf("%w: status is %s", ErrOrderNotEditable, o.Status)
	}
	items := m.items[orderID]
	for i, it := range items {
		if it.ID == itemID {
			m.items[orderID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return ErrItemNotFound
}

func (m *mockStore) SendOrder(_ context.Context, orderID string) (Order, error) {
	o, ok := m.orders[orderID]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	if o.Status != StatusDraft {
		return Order{}, fmt.Errorf("%w: cannot send %s order", ErrInvalidTransition, o.Status)
	}
	if len(m.items[orderID]) == 0 {
		return Order{}, ErrEmptyOrder
	}
	o.Status = StatusSent
	return *o, nil
}

func (m *mockStore) FinishOrder(_ context.Context, orderID string) (Order, error) {
	o, ok := m.orders[orderID]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	if o.Status != StatusSent {
		return Order{}, fmt.Errorf("%w: cannot finish %s order", ErrInvalidTransition, o.Status)
	}
	o.Status = StatusFinished
	return *o, nil
}

func (m *mockStore) DeleteOrder(_ context.Context, orderID string) (Status, error) {
	o, ok := m.orders[orderID]
	if !ok {
		return "", ErrOrderNotFound
	}
	status := o.Status
	delete(m.orders, orderID)
	delete(m.items, orderID)
	for i, id := range m.inserted {
		if id == orderID {
			m.inserted = append(m.inserted[:i], m.inserted[i+1:]...)
			break
		}
	}
	return status, nil
}

func (m *mockStore) total(orderID string) int {
	total := 0
	for _, it := range m.items[orderID] {
		total += it.PriceCents * it.Amount
	}
	return total
}

func (m *mockStore) ListOrders(_ context.Context, filter *Status) ([]Order, error) {
	var out []Order
	for _, id := range m.inserted {
		o := m.orders[id]
		if filter != nil && o.Status != *filter {
			continue
		}
		cp := *o
		cp.TotalCents = m.total(id)
		out = append(out, cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *mockStore) OrderDetail(_ context.Context, orderID string) (Order, error) {
	o, ok := m.orders[orderID]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	cp := *o
	for _, it := range m.items[orderID] {
		// like the SQL join: name resolves live, price stays frozen
		it.ProductName = m.products[it.ProductID].Name
		cp.Items = append(cp.Items, it)
	}
	cp.TotalCents = m.total(orderID)
	return cp, nil
}

func (m *mockStore) GetProduct(_ context.Context, productID string) (Product, error) {
	p, ok := m.products[productID]
	if !ok {
		return Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}
	return p, nil
}

func (m *mockStore) ListProducts(_ context.Context) ([]Product, error) {
	out := make([]Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// recordingPublisher captures event envelopes for assertions.
type recordingPublisher struct {
	values [][]byte
}

func (r *recordingPublisher) Publish(_, value []byte, _ ...kafkago.Header) {
	r.values = append(r.values, value)
}

func (r *recordingPublisher) eventTypes() []string {
	var out []string
	for _, v := range r.values {
		var env Envelope
		if err := json.Unmarshal(v, &env); err == nil {
			out = append(out, env.EventType)
		}
	}
	return out
}
