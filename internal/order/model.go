package order

import (
	"time"

	"github.com/gofrs/uuid"
)

type Status string

const (
	StatusPending       Status = "pending"
	StatusPaid          Status = "paid"
	StatusPaymentFailed Status = "payment_failed"
	StatusConfirmed     Status = "confirmed"
	StatusShipped       Status = "shipped"
	StatusDelivered     Status = "delivered"
	StatusCancelled     Status = "cancelled"
)

func (s Status) String() string {
	return string(s)
}

// allowedTransitions is the single source of truth for the order lifecycle.
// payment_failed -> paid covers an externally retried payment succeeding;
// payment_failed -> payment_failed keeps repeated failure callbacks harmless.
// confirmed/shipped/delivered transitions belong to downstream fulfillment
// tooling; they are listed here so the table stays complete.
var allowedTransitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusPaid:          true,
		StatusPaymentFailed: true,
		StatusCancelled:     true,
	},
	StatusPaymentFailed: {
		StatusPaid:          true,
		StatusPaymentFailed: true,
		StatusCancelled:     true,
	},
	StatusPaid: {
		StatusConfirmed: true,
		StatusCancelled: true,
	},
	StatusConfirmed: {
		StatusShipped:   true,
		StatusCancelled: true,
	},
	StatusShipped: {
		StatusDelivered: true,
	},
	StatusDelivered: {},
	StatusCancelled: {},
}

func CanTransition(from, to Status) bool {
	return allowedTransitions[from][to]
}

type ShippingAddress struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	AddressDetail string `json:"address_detail,omitempty"`
	PostalCode    string `json:"postal_code"`
}

// Line is a frozen snapshot of a product at commit time: ProductName and
// UnitPrice are decoupled from later catalog changes.
type Line struct {
	ID          uuid.UUID `json:"id"`
	OrderID     uuid.UUID `json:"order_id"`
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	UnitPrice   int64     `json:"unit_price"`
	CreatedAt   time.Time `json:"created_at"`
}

// Order is immutable once created except for Status and UpdatedAt.
type Order struct {
	ID          uuid.UUID       `json:"id"`
	CustomerID  string          `json:"customer_id"`
	Status      Status          `json:"status"`
	TotalAmount int64           `json:"total_amount"`
	Shipping    ShippingAddress `json:"shipping_address"`
	OrderNote   string          `json:"order_note,omitempty"`
	Lines       []Line          `json:"lines"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
