package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Wire shapes for the order endpoints. The backend returns the order and its
// items side by side rather than nested.

type OrderEnvelope struct {
	Order OrderPayload  `json:"order"`
	Items []ItemPayload `json:"items"`
}

type OrderPayload struct {
	OrderID          string          `json:"orderId"`
	UserID           string          `json:"userId,omitempty"`
	PoolID           string          `json:"poolId,omitempty"`
	Status           string          `json:"status"`
	PaymentExpiresAt string          `json:"paymentExpiresAt,omitempty"`
	PaymentURL       string          `json:"paymentUrl,omitempty"`
	Total            decimal.Decimal `json:"total"`
	CreatedAt        string          `json:"createdAt,omitempty"`
	UpdatedAt        string          `json:"updatedAt,omitempty"`
}

type ItemPayload struct {
	AnimalOrder int             `json:"animalOrder"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

func EncodeOrder(order *Order) OrderEnvelope {
	p := OrderPayload{
		OrderID:    order.OrderID,
		UserID:     order.UserID,
		PoolID:     order.PoolID,
		Status:     string(order.Status),
		PaymentURL: order.PaymentURL,
		Total:      order.Total,
	}
	if order.PaymentExpiresAt != nil {
		p.PaymentExpiresAt = order.PaymentExpiresAt.UTC().Format(time.RFC3339)
	}
	if !order.CreatedAt.IsZero() {
		p.CreatedAt = order.CreatedAt.UTC().Format(time.RFC3339)
	}
	if !order.UpdatedAt.IsZero() {
		p.UpdatedAt = order.UpdatedAt.UTC().Format(time.RFC3339)
	}
	items := make([]ItemPayload, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, ItemPayload{
			AnimalOrder: it.AnimalOrder,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Subtotal:    it.Subtotal,
		})
	}
	return OrderEnvelope{Order: p, Items: items}
}

func (e OrderEnvelope) Decode() (*Order, error) {
	order := &Order{
		OrderID:    e.Order.OrderID,
		UserID:     e.Order.UserID,
		PoolID:     e.Order.PoolID,
		Status:     OrderStatus(e.Order.Status),
		PaymentURL: e.Order.PaymentURL,
		Total:      e.Order.Total,
	}
	if order.OrderID == "" {
		return nil, fmt.Errorf("order payload missing orderId")
	}
	if e.Order.PaymentExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, e.Order.PaymentExpiresAt)
		if err != nil {
			return nil, fmt.Errorf("parse paymentExpiresAt: %w", err)
		}
		order.PaymentExpiresAt = &t
	}
	if e.Order.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339, e.Order.CreatedAt); err == nil {
			order.CreatedAt = t
		}
	}
	if e.Order.UpdatedAt != "" {
		if t, err := time.Parse(time.RFC3339, e.Order.UpdatedAt); err == nil {
			order.UpdatedAt = t
		}
	}
	for _, it := range e.Items {
		order.Items = append(order.Items, OrderItem{
			AnimalOrder: it.AnimalOrder,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Subtotal:    it.Subtotal,
		})
	}
	return order, nil
}
