package domain

import (
	"fmt"
	"time"
)

// OrderStatus tracks fulfillment progress of an order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
	StatusReturned   OrderStatus = "returned"
)

// statusRank orders the happy-path states; higher rank means further along.
var statusRank = map[OrderStatus]int{
	StatusPending:    0,
	StatusProcessing: 1,
	StatusShipped:    2,
	StatusDelivered:  3,
}

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled, StatusReturned:
		return true
	}
	return false
}

// Cancellable reports whether an order in this status may still be cancelled.
// Once shipped the order can only move forward or be returned after delivery.
func (s OrderStatus) Cancellable() bool {
	return s == StatusPending || s == StatusProcessing
}

// CanProgressTo reports whether an administrator may move an order from s to
// next. Forward moves along pending -> processing -> shipped -> delivered may
// skip intermediate states; delivered may become returned. Cancellation is not
// a progression and is rejected here.
func (s OrderStatus) CanProgressTo(next OrderStatus) bool {
	if s == StatusDelivered && next == StatusReturned {
		return true
	}
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to > from
}

// PaymentStatus tracks the payment side of an order independently of
// fulfillment progress.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// PaymentMethod selects how the buyer intends to pay.
type PaymentMethod string

const (
	PaymentMethodCard           PaymentMethod = "card"
	PaymentMethodCashOnDelivery PaymentMethod = "cod"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCard || m == PaymentMethodCashOnDelivery
}

// Address is the shipping destination snapshotted onto an order at creation.
type Address struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// OrderLine is an immutable snapshot of one purchased product. Catalog edits
// after checkout never alter it.
type OrderLine struct {
	ID             string    `json:"id"`
	OrderID        string    `json:"orderId"`
	ProductID      string    `json:"productId"`
	ProductName    string    `json:"productName"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unitPriceCents"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (l OrderLine) TotalCents() int64 {
	return l.UnitPriceCents * int64(l.Quantity)
}

// Totals holds the financial breakdown of an order in cents.
type Totals struct {
	SubtotalCents int64 `json:"subtotalCents"`
	TaxCents      int64 `json:"taxCents"`
	ShippingCents int64 `json:"shippingCents"`
	DiscountCents int64 `json:"discountCents"`
	TotalCents    int64 `json:"totalCents"`
}

// Check verifies the order financial invariant: every component non-negative
// and total = subtotal + tax + shipping - discount (clamped at zero).
func (t Totals) Check() error {
	if t.SubtotalCents < 0 || t.TaxCents < 0 || t.ShippingCents < 0 || t.DiscountCents < 0 || t.TotalCents < 0 {
		return fmt.Errorf("totals contain a negative component: %+v", t)
	}
	want := t.SubtotalCents + t.TaxCents + t.ShippingCents - t.DiscountCents
	if want < 0 {
		want = 0
	}
	if t.TotalCents != want {
		return fmt.Errorf("total %d does not match components (expected %d)", t.TotalCents, want)
	}
	return nil
}

// Order is the durable, append-only record of a purchase. It is created in a
// single atomic step and never deleted; terminal states are delivered,
// cancelled, and returned.
type Order struct {
	ID          string `json:"id"`
	OrderNumber string `json:"orderNumber"`
	UserID      string `json:"userId"`

	Status        OrderStatus   `json:"status"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	PaymentRef    string        `json:"paymentRef,omitempty"`

	Totals

	ShippingAddress Address `json:"shippingAddress"`
	Notes           string  `json:"notes,omitempty"`
	TrackingNumber  string  `json:"trackingNumber,omitempty"`
	Carrier         string  `json:"carrier,omitempty"`

	CreatedAt    time.Time  `json:"createdAt"`
	PaidAt       *time.Time `json:"paidAt,omitempty"`
	CancelledAt  *time.Time `json:"cancelledAt,omitempty"`
	CancelledBy  string     `json:"cancelledBy,omitempty"`
	CancelReason string     `json:"cancelReason,omitempty"`

	Lines []OrderLine `json:"lines,omitempty"`
}

// Reservation is one product's share of an atomic stock reservation.
type Reservation struct {
	ProductID string
	Quantity  int
}

// Reservations derives the stock movements implied by the order's lines,
// used both to reserve at creation and to release on cancellation.
func (o *Order) Reservations() []Reservation {
	out := make([]Reservation, 0, len(o.Lines))
	for _, l := range o.Lines {
		out = append(out, Reservation{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return out
}

// OrderStats is the admin read-side aggregation.
type OrderStats struct {
	TotalOrders    int64                 `json:"totalOrders"`
	ByStatus       map[OrderStatus]int64 `json:"byStatus"`
	PaidRevenue    int64                 `json:"paidRevenueCents"`
	OrdersToday    int64                 `json:"ordersToday"`
	CancelledCount int64                 `json:"cancelledCount"`
}
