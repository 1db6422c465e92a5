package orders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "pizzaria-orders/internal/kafka"
)

// Publisher is the slice of the kafka producer the service needs. Nil
// disables event publication (tests, local runs without a broker).
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type Service struct {
	store Store
	pub   Publisher
	log   *slog.Logger
	name  string
}

func NewService(store Store, pub Publisher, log *slog.Logger, name string) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, pub: pub, log: log, name: name}
}

func (s *Service) CreateOrder(ctx context.Context, table int, name string) (Order, error) {
	if table < 1 {
		return Order{}, ValidationError{Field: "table", Message: "table must be a positive integer"}
	}
	now := time.Now().UTC()
	o := Order{
		ID:        uuid.NewString(),
		Table:     table,
		Name:      name,
		Status:    StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateOrder(ctx, o); err != nil {
		return Order{}, fmt.Errorf("create order: %w", err)
	}
	s.publish(EventOrderCreated, o.ID, OrderCreatedPayload{OrderID: o.ID, Table: o.Table, Name: o.Name})
	return o, nil
}

func (s *Service) AddItem(ctx context.Context, orderID, productID string, amount int) (Item, error) {
	if orderID == "" {
		return Item{}, ValidationError{Field: "order_id", Message: "order id is required"}
	}
	if productID == "" {
		return Item{}, ValidationError{Field: "product_id", Message: "product id is required"}
	}
	if amount < 1 {
		return Item{}, ValidationError{Field: "amount", Message: "amount must be at least 1"}
	}
	it, err := s.store.AddItem(ctx, orderID, productID, amount)
	if err != nil {
		return Item{}, err
	}
	s.publish(EventOrderItemAdded, orderID, OrderItemAddedPayload{
		OrderID:    orderID,
		ItemID:     it.ID,
		ProductID:  it.ProductID,
		PriceCents: it.PriceCents,
		Amount:     it.Amount,
	})
	return it, nil
}

func (s *Service) RemoveItem(ctx context.Context, orderID, itemID string) error {
	if orderID == "" {
		return ValidationError{Field: "order_id", Message: "order id is required"}
	}
	if itemID == "" {
		return ValidationError{Field: "item_id", Message: "item id is required"}
	}
	if err := s.store.RemoveItem(ctx, orderID, itemID); err != nil {
		return err
	}
	s.publish(EventOrderItemRemoved, orderID, OrderItemRemovedPayload{OrderID: orderID, ItemID: itemID})
	return nil
}

func (s *Service) SendOrder(ctx context.Context, orderID string) (Order, error) {
	if orderID == "" {
		return Order{}, ValidationError{Field: "order_id", Message: "order id is required"}
	}
	o, err := s.store.SendOrder(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	s.publish(EventOrderSent, o.ID, OrderSentPayload{OrderID: o.ID, Table: o.Table})
	return o, nil
}

func (s *Service) FinishOrder(ctx context.Context, orderID string) (Order, error) {
	if orderID == "" {
		return Order{}, ValidationError{Field: "order_id", Message: "order id is required"}
	}
	o, err := s.store.FinishOrder(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	total := 0
	if detail, derr := s.store.OrderDetail(ctx, orderID); derr == nil {
		total = detail.TotalCents
		o.TotalCents = detail.TotalCents
	}
	s.publish(EventOrderFinished, o.ID, OrderFinishedPayload{OrderID: o.ID, Table: o.Table, TotalCents: total})
	return o, nil
}

func (s *Service) RemoveOrder(ctx context.Context, orderID string) error {
	if orderID == "" {
		return ValidationError{Field: "order_id", Message: "order id is required"}
	}
	status, err := s.store.DeleteOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if status == StatusSent {
		// Kitchen already saw this order; deleting it discards visible work.
		s.log.Warn("deleted sent order", "order_id", orderID)
	}
	s.publish(EventOrderRemoved, orderID, OrderRemovedPayload{OrderID: orderID, Status: status})
	return nil
}

func (s *Service) ListOrders(ctx context.Context, statusFilter string) ([]Order, error) {
	var filter *Status
	if statusFilter != "" {
		st := Status(statusFilter)
		if !ValidStatus(st) {
			return nil, ValidationError{Field: "status", Message: "unknown status " + statusFilter}
		}
		filter = &st
	}
	return s.store.ListOrders(ctx, filter)
}

func (s *Service) OrderDetail(ctx context.Context, orderID string) (Order, error) {
	if orderID == "" {
		return Order{}, ValidationError{Field: "order_id", Message: "order id is required"}
	}
	o, err := s.store.OrderDetail(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	for _, it := range o.Items {
		if it.ProductName == "" {
			// Product left the catalog after the item was attached. The
			// frozen price still counts toward the total.
			s.log.Warn("item references missing product", "order_id", o.ID, "item_id", it.ID, "product_id", it.ProductID)
		}
	}
	return o, nil
}

func (s *Service) ListProducts(ctx context.Context) ([]Product, error) {
	return s.store.ListProducts(ctx)
}

// Checkout runs the create -> add items -> send sequence. The sequence
// is not one transaction; if any step after creation fails, the draft
// order is deleted so no half-built order lingers.
func (s *Service) Checkout(ctx context.Context, table int, name string, cart *Cart) (Order, error) {
	if cart == nil || cart.IsEmpty() {
		return Order{}, ValidationError{Field: "items", Message: "cart is empty"}
	}
	o, err := s.CreateOrder(ctx, table, name)
	if err != nil {
		return Order{}, err
	}
	for _, line := range cart.Lines() {
		if _, err := s.AddItem(ctx, o.ID, line.ProductID, line.Amount); err != nil {
			s.compensate(ctx, o.ID)
			return Order{}, fmt.Errorf("checkout add item %s: %w", line.ProductID, err)
		}
	}
	sent, err := s.SendOrder(ctx, o.ID)
	if err != nil {
		s.compensate(ctx, o.ID)
		return Order{}, fmt.Errorf("checkout send: %w", err)
	}
	return sent, nil
}

func (s *Service) compensate(ctx context.Context, orderID string) {
	if err := s.RemoveOrder(ctx, orderID); err != nil {
		s.log.Error("checkout compensation failed", "order_id", orderID, "err", err)
	}
}

func (s *Service) publish(eventType, orderID string, payload any) {
	if s.pub == nil {
		return
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.name,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	s.pub.Publish(PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
