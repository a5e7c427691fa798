package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusTerminal(t *testing.T) {
	assert.False(t, OrderPending.Terminal())
	for _, s := range []OrderStatus{OrderPaid, OrderExpired, OrderCancelled, OrderWon, OrderLost} {
		assert.True(t, s.Terminal(), string(s))
	}
	assert.False(t, OrderStatus("garbled").Terminal())
	assert.False(t, OrderStatus("garbled").Known())
	assert.True(t, OrderPending.Known())
}

func TestSumItems(t *testing.T) {
	items := []OrderItem{
		{Subtotal: decimal.NewFromInt(40)},
		{Subtotal: decimal.NewFromInt(20)},
	}
	assert.True(t, SumItems(items).Equal(decimal.NewFromInt(60)))
	assert.True(t, SumItems(nil).Equal(decimal.Zero))
}

func TestEnvelopeDecode(t *testing.T) {
	expires := time.Date(2024, 3, 1, 12, 15, 0, 0, time.UTC)
	order := &Order{
		OrderID:          "ord-1",
		Status:           OrderPending,
		PaymentExpiresAt: &expires,
		Total:            decimal.NewFromInt(60),
		Items: []OrderItem{
			{AnimalOrder: 7, Quantity: 2, UnitPrice: decimal.NewFromInt(20), Subtotal: decimal.NewFromInt(40)},
		},
	}

	decoded, err := EncodeOrder(order).Decode()
	require.NoError(t, err)
	assert.Equal(t, order.OrderID, decoded.OrderID)
	assert.Equal(t, order.Status, decoded.Status)
	require.NotNil(t, decoded.PaymentExpiresAt)
	assert.True(t, expires.Equal(*decoded.PaymentExpiresAt))
	require.Len(t, decoded.Items, 1)
	assert.True(t, decoded.Total.Equal(order.Total))
}

func TestEnvelopeDecodeRejectsBadPayload(t *testing.T) {
	_, err := OrderEnvelope{}.Decode()
	assert.Error(t, err, "missing orderId")

	env := OrderEnvelope{Order: OrderPayload{OrderID: "x", PaymentExpiresAt: "not-a-time"}}
	_, err = env.Decode()
	assert.Error(t, err)
}
