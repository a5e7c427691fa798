package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderExpired   OrderStatus = "expired"
	OrderCancelled OrderStatus = "cancelled"
	OrderWon       OrderStatus = "won"
	OrderLost      OrderStatus = "lost"
)

// Terminal reports whether s is a settled status: everything except pending.
// Once an order reaches a terminal status the synchronizer stops driving
// timers and streams for it.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderPaid, OrderExpired, OrderCancelled, OrderWon, OrderLost:
		return true
	}
	return false
}

// Known reports whether s is a status this client understands.
func (s OrderStatus) Known() bool {
	return s == OrderPending || s.Terminal()
}

type Order struct {
	OrderID          string
	UserID           string
	PoolID           string
	Status           OrderStatus
	PaymentExpiresAt *time.Time
	PaymentURL       string
	Items            []OrderItem
	Total            decimal.Decimal
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type OrderItem struct {
	AnimalOrder int
	Quantity    int64
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
}

// SumItems returns the sum of item subtotals. A well-formed order has
// Total equal to this value.
func SumItems(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal)
	}
	return total
}
