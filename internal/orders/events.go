package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated     = "OrderCreated"
	EventOrderItemAdded   = "OrderItemAdded"
	EventOrderItemRemoved = "OrderItemRemoved"
	EventOrderSent        = "OrderSent"
	EventOrderFinished    = "OrderFinished"
	EventOrderRemoved     = "OrderRemoved"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

// ---- payload per event ----

type OrderCreatedPayload struct {
	OrderID string `json:"order_id"`
	Table   int    `json:"table"`
	Name    string `json:"name,omitempty"`
}

type OrderItemAddedPayload struct {
	OrderID    string `json:"order_id"`
	ItemID     string `json:"item_id"`
	ProductID  string `json:"product_id"`
	PriceCents int    `json:"price_cents"`
	Amount     int    `json:"amount"`
}

type OrderItemRemovedPayload struct {
	OrderID string `json:"order_id"`
	ItemID  string `json:"item_id"`
}

type OrderSentPayload struct {
	OrderID string `json:"order_id"`
	Table   int    `json:"table"`
}

type OrderFinishedPayload struct {
	OrderID    string `json:"order_id"`
	Table      int    `json:"table"`
	TotalCents int    `json:"total_cents"`
}

type OrderRemovedPayload struct {
	OrderID string `json:"order_id"`
	Status  Status `json:"status"` // status at deletion time
}
