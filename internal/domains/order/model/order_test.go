package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{OrderStatusPending, OrderStatusConfirmed, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusShipped, false},
		{OrderStatusConfirmed, OrderStatusProcessing, true},
		{OrderStatusConfirmed, OrderStatusCancelled, true},
		{OrderStatusProcessing, OrderStatusPacked, true},
		{OrderStatusProcessing, OrderStatusCancelled, false},
		{OrderStatusPacked, OrderStatusShipped, true},
		{OrderStatusShipped, OrderStatusOutForDelivery, true},
		{OrderStatusShipped, OrderStatusDelivered, false},
		{OrderStatusOutForDelivery, OrderStatusDelivered, true},
		{OrderStatusDelivered, OrderStatusReturned, true},
		{OrderStatusReturned, OrderStatusRefunded, true},
		{OrderStatusRefunded, OrderStatusPending, false},
		{OrderStatusCancelled, OrderStatusConfirmed, false},
		{OrderStatusDelivered, OrderStatusShipped, false},
	}

	for _, tt := range tests {
		got := tt.from.CanTransitionTo(tt.to)
		assert.Equal(t, tt.allowed, got, "%s -> %s", tt.from, tt.to)
	}
}

func TestCanCancelFrom(t *testing.T) {
	assert.True(t, OrderStatusPending.CanCancelFrom())
	assert.True(t, OrderStatusConfirmed.CanCancelFrom())
	assert.False(t, OrderStatusProcessing.CanCancelFrom())
	assert.False(t, OrderStatusShipped.CanCancelFrom())
	assert.False(t, OrderStatusDelivered.CanCancelFrom())
	assert.False(t, OrderStatusCancelled.CanCancelFrom())
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, OrderStatusCancelled.IsTerminal())
	assert.True(t, OrderStatusRefunded.IsTerminal())
	assert.True(t, OrderStatusDelivered.IsTerminal())
	assert.False(t, OrderStatusPending.IsTerminal())
	assert.False(t, OrderStatusReturned.IsTerminal())
}

func TestCanReturnWithinWindow(t *testing.T) {
	now := time.Now()

	deliveredThreeDaysAgo := now.Add(-3 * 24 * time.Hour)
	order := &Order{
		Status:      string(OrderStatusDelivered),
		DeliveredAt: &deliveredThreeDaysAgo,
	}
	assert.True(t, order.CanReturn(now))

	deliveredTenDaysAgo := now.Add(-10 * 24 * time.Hour)
	order.DeliveredAt = &deliveredTenDaysAgo
	assert.False(t, order.CanReturn(now))
}

func TestCanReturnRequiresDelivery(t *testing.T) {
	now := time.Now()

	order := &Order{Status: string(OrderStatusShipped)}
	assert.False(t, order.CanReturn(now))

	// Delivered status without a delivery timestamp is treated as not
	// returnable rather than guessing a window.
	order.Status = string(OrderStatusDelivered)
	assert.False(t, order.CanReturn(now))
}

func TestReservesStockAtCheckout(t *testing.T) {
	assert.True(t, PaymentMethodCOD.ReservesStockAtCheckout())
	assert.False(t, PaymentMethodRazorpay.ReservesStockAtCheckout())
	assert.False(t, PaymentMethodWallet.ReservesStockAtCheckout())
	assert.False(t, PaymentMethodBankTransfer.ReservesStockAtCheckout())
}

func TestIsPaid(t *testing.T) {
	order := &Order{PaymentStatus: string(PaymentStatusPending)}
	assert.False(t, order.IsPaid())

	order.PaymentStatus = string(PaymentStatusCompleted)
	assert.True(t, order.IsPaid())
}
