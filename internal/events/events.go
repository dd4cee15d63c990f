// Package events publishes order lifecycle events to Kafka. Publishing is
// fire-and-forget: a broker outage must never fail a storefront request.
package events

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated     = "OrderCreated"
	EventPaymentConfirmed = "PaymentConfirmed"
	EventPaymentFailed    = "PaymentFailed"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type OrderLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

type OrderCreatedPayload struct {
	OrderID     string      `json:"order_id"`
	CustomerID  string      `json:"customer_id"`
	Lines       []OrderLine `json:"lines"`
	TotalAmount int64       `json:"total_amount"`
}

type PaymentConfirmedPayload struct {
	OrderID          string `json:"order_id"`
	PaymentReference string `json:"payment_reference"`
	Amount           int64  `json:"amount"`
}

type PaymentFailedPayload struct {
	OrderID string `json:"order_id"`
}

// Publisher is what the order and payment services depend on.
type Publisher interface {
	Publish(eventType, correlationID string, payload any)
}

// NopPublisher drops every event. Used in tests.
type NopPublisher struct{}

func (NopPublisher) Publish(string, string, any) {}
