package uniform

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Size string

const (
	SizeXS Size = "XS"
	SizeS  Size = "S"
	SizeM  Size = "M"
	SizeL  Size = "L"
	SizeXL Size = "XL"
)

// Uniform is one catalog product with live stock. Stock is mutated only by
// order creation (atomic decrement); restocking is the catalog
// collaborator's concern.
type Uniform struct {
	ID          string          `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Size        Size            `json:"size" db:"size"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Stock       int             `json:"stock" db:"stock"`
	Description string          `json:"description,omitempty" db:"description"`
	ImageURL    string          `json:"image_url,omitempty" db:"image_url"`
}

// PaymentStatus is derived purely from (paid, total); see PaymentStatusFor.
type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "UNPAID"
	PaymentPartial PaymentStatus = "PARTIAL"
	PaymentPaid    PaymentStatus = "PAID"
)

// PaymentStatusFor derives an order's payment status from its totals.
// This is the only way a payment status may be computed.
func PaymentStatusFor(paid, total decimal.Decimal) PaymentStatus {
	switch {
	case paid.Sign() <= 0:
		return PaymentUnpaid
	case paid.GreaterThanOrEqual(total):
		return PaymentPaid
	default:
		return PaymentPartial
	}
}

// OrderStatus is the fulfillment state, advanced by admins.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderConfirmed OrderStatus = "CONFIRMED"
	OrderReady     OrderStatus = "READY"
	OrderCompleted OrderStatus = "COMPLETED"
	OrderCancelled OrderStatus = "CANCELLED"
)

// ValidOrderStatus reports whether s is a known fulfillment state.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderReady, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

// OrderItem is an immutable line snapshot: the price is frozen at order time,
// decoupled from the live catalog price.
type OrderItem struct {
	ID            string          `json:"id" db:"id"`
	OrderID       string          `json:"-" db:"order_id"`
	UniformID     string          `json:"uniform_id" db:"uniform_id"`
	UniformName   string          `json:"uniform_name" db:"uniform_name"`
	Quantity      int             `json:"quantity" db:"quantity"`
	PriceAtMoment decimal.Decimal `json:"price_at_moment" db:"price_at_moment"`
	SubTotal      decimal.Decimal `json:"sub_total" db:"sub_total"`
}

// Order invariants: TotalAmount equals the sum of line subtotals; TotalPaid
// never exceeds TotalAmount; PaymentStatus is PaymentStatusFor(TotalPaid,
// TotalAmount). Items are immutable after creation.
type Order struct {
	ID            string          `json:"id" db:"id"`
	StudentID     string          `json:"student_id" db:"student_id"`
	OrderDate     time.Time       `json:"order_date" db:"order_date"`
	Items         []OrderItem     `json:"items"`
	TotalAmount   decimal.Decimal `json:"total_amount" db:"total_amount"`
	TotalPaid     decimal.Decimal `json:"total_paid" db:"total_paid"`
	PaymentStatus PaymentStatus   `json:"payment_status" db:"payment_status"`
	Status        OrderStatus     `json:"order_status" db:"order_status"`
}

// Remaining is the amount the order can still take.
func (o Order) Remaining() decimal.Decimal {
	return o.TotalAmount.Sub(o.TotalPaid)
}

// NewOrder is the request payload to order uniforms.
type NewOrder struct {
	Items []NewOrderItem `json:"items" validate:"required,min=1,dive"`
}

type NewOrderItem struct {
	UniformID string `json:"uniform_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// StockError reports the first line whose requested quantity exceeded the
// available stock. The whole order is rejected; no stock was touched.
type StockError struct {
	UniformID string
	Name      string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (requested: %d, available: %d)",
		e.Name, e.Requested, e.Available)
}
