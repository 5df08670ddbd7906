package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"

	discountservice "elysian-backend/internal/domains/discount/service"
	inventoryservice "elysian-backend/internal/domains/inventory/service"
	"elysian-backend/internal/domains/order/model"
	"elysian-backend/internal/domains/order/repository"
	"elysian-backend/pkg/database"
)

// fakeRepository holds one order row and mirrors the version semantics of
// the postgres repository: payment capture bumps the stored version and
// refreshes the caller's copy, UpdateStatusTx guards on the caller's
// version and conflicts when it is stale.
type fakeRepository struct {
	repository.Repository
	order   *model.Order
	history []model.StatusHistory
}

func (f *fakeRepository) WithTx(ctx context.Context, fn database.TxFunc) error {
	return fn(nil)
}

func (f *fakeRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	if f.order == nil || f.order.ID != id {
		return nil, model.ErrOrderNotFound
	}
	row := *f.order
	return &row, nil
}

func (f *fakeRepository) MarkPaymentCapturedTx(ctx context.Context, tx pgx.Tx, o *model.Order, transactionID string, paidAt time.Time) (bool, error) {
	if f.order.PaymentStatus != string(model.PaymentStatusPending) {
		return false, nil
	}
	f.order.PaymentStatus = string(model.PaymentStatusCompleted)
	f.order.TransactionID = &transactionID
	f.order.PaidAt = &paidAt
	f.order.Version++

	o.PaymentStatus = f.order.PaymentStatus
	o.TransactionID = &transactionID
	o.PaidAt = &paidAt
	o.Version = f.order.Version
	return true, nil
}

func (f *fakeRepository) MarkPaymentFailedTx(ctx context.Context, tx pgx.Tx, o *model.Order, reason string) (bool, error) {
	if f.order.PaymentStatus != string(model.PaymentStatusPending) {
		return false, nil
	}
	f.order.PaymentStatus = string(model.PaymentStatusFailed)
	f.order.FailureReason = &reason
	f.order.Version++

	o.PaymentStatus = f.order.PaymentStatus
	o.FailureReason = &reason
	o.Version = f.order.Version
	return true, nil
}

func (f *fakeRepository) UpdateStatusTx(ctx context.Context, tx pgx.Tx, o *model.Order, newStatus model.OrderStatus, now time.Time) error {
	if o.Version != f.order.Version {
		return model.ErrUpdateConflict
	}
	f.order.Status = string(newStatus)
	f.order.Version++
	o.Status = string(newStatus)
	o.Version++
	return nil
}

func (f *fakeRepository) AppendHistoryTx(ctx context.Context, tx pgx.Tx, h *model.StatusHistory) error {
	f.history = append(f.history, *h)
	return nil
}

type fakeInventory struct {
	inventoryservice.Service
	reserved map[uuid.UUID][]inventoryservice.ReservationItem
}

func (f *fakeInventory) ReserveStockTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, items []inventoryservice.ReservationItem) ([]uuid.UUID, error) {
	if f.reserved == nil {
		f.reserved = make(map[uuid.UUID][]inventoryservice.ReservationItem)
	}
	f.reserved[orderID] = items
	return nil, nil
}

type fakeDiscounts struct {
	discountservice.Service
	redeemed []uuid.UUID
}

func (f *fakeDiscounts) RedeemTx(ctx context.Context, tx pgx.Tx, discountID, customerID uuid.UUID, now time.Time) error {
	f.redeemed = append(f.redeemed, discountID)
	return nil
}

func pendingOnlineOrder() *model.Order {
	return &model.Order{
		ID:            uuid.New(),
		OrderNumber:   "ELY45678901123",
		CustomerID:    uuid.New(),
		PaymentMethod: string(model.PaymentMethodRazorpay),
		PaymentStatus: string(model.PaymentStatusPending),
		Status:        string(model.OrderStatusPending),
		Version:       1,
		Items: []model.OrderItem{
			{ID: uuid.New(), SKU: "ELY-NOIR-50", Quantity: 2},
		},
	}
}

func newTestService(repo *fakeRepository, inv *fakeInventory, discounts *fakeDiscounts) Service {
	return NewService(repo, nil, discounts, nil, inv, nil, nil, PricingConfig{})
}

func TestConfirmPaymentConfirmsPendingOrder(t *testing.T) {
	order := pendingOnlineOrder()
	discountID := uuid.New()
	order.DiscountID = &discountID

	repo := &fakeRepository{order: order}
	inv := &fakeInventory{}
	discounts := &fakeDiscounts{}
	svc := newTestService(repo, inv, discounts)

	paidAt := time.Now()
	err := svc.ConfirmPayment(context.Background(), order.ID, "pay_P1", paidAt)

	assert.NoError(t, err)
	assert.Equal(t, string(model.OrderStatusConfirmed), repo.order.Status)
	assert.Equal(t, string(model.PaymentStatusCompleted), repo.order.PaymentStatus)
	if assert.NotNil(t, repo.order.TransactionID) {
		assert.Equal(t, "pay_P1", *repo.order.TransactionID)
	}

	// Capture and the status transition each bump the version once.
	assert.Equal(t, 3, repo.order.Version)

	assert.Len(t, inv.reserved[order.ID], 1)
	assert.Equal(t, "ELY-NOIR-50", inv.reserved[order.ID][0].SKU)
	assert.Equal(t, 2, inv.reserved[order.ID][0].Quantity)

	assert.Equal(t, []uuid.UUID{discountID}, discounts.redeemed)

	if assert.Len(t, repo.history, 1) {
		assert.Equal(t, string(model.OrderStatusConfirmed), repo.history[0].Status)
	}
}

func TestConfirmPaymentAlreadyCaptured(t *testing.T) {
	order := pendingOnlineOrder()
	order.PaymentStatus = string(model.PaymentStatusCompleted)
	order.Status = string(model.OrderStatusConfirmed)
	order.Version = 3

	repo := &fakeRepository{order: order}
	inv := &fakeInventory{}
	discounts := &fakeDiscounts{}
	svc := newTestService(repo, inv, discounts)

	err := svc.ConfirmPayment(context.Background(), order.ID, "pay_P2", time.Now())

	// A retried webhook finds the guard consumed and changes nothing.
	assert.NoError(t, err)
	assert.Empty(t, inv.reserved)
	assert.Empty(t, discounts.redeemed)
	assert.Equal(t, 3, repo.order.Version)
	assert.Empty(t, repo.history)
}

func TestConfirmPaymentUnknownOrder(t *testing.T) {
	svc := newTestService(&fakeRepository{}, &fakeInventory{}, &fakeDiscounts{})

	err := svc.ConfirmPayment(context.Background(), uuid.New(), "pay_P1", time.Now())
	assert.ErrorIs(t, err, model.ErrOrderNotFound)
}

func TestFailPaymentCancelsPendingOrder(t *testing.T) {
	order := pendingOnlineOrder()
	repo := &fakeRepository{order: order}
	svc := newTestService(repo, &fakeInventory{}, &fakeDiscounts{})

	err := svc.FailPayment(context.Background(), order.ID, "card declined")

	assert.NoError(t, err)
	assert.Equal(t, string(model.OrderStatusCancelled), repo.order.Status)
	assert.Equal(t, string(model.PaymentStatusFailed), repo.order.PaymentStatus)
	if assert.NotNil(t, repo.order.FailureReason) {
		assert.Equal(t, "card declined", *repo.order.FailureReason)
	}
	assert.Equal(t, 3, repo.order.Version)

	if assert.Len(t, repo.history, 1) {
		assert.Equal(t, string(model.OrderStatusCancelled), repo.history[0].Status)
		if assert.NotNil(t, repo.history[0].Note) {
			assert.Equal(t, "payment failed: card declined", *repo.history[0].Note)
		}
	}
}

func TestFailPaymentAlreadyResolved(t *testing.T) {
	order := pendingOnlineOrder()
	order.PaymentStatus = string(model.PaymentStatusCompleted)
	order.Status = string(model.OrderStatusConfirmed)
	order.Version = 3

	repo := &fakeRepository{order: order}
	svc := newTestService(repo, &fakeInventory{}, &fakeDiscounts{})

	err := svc.FailPayment(context.Background(), order.ID, "card declined")

	assert.NoError(t, err)
	assert.Equal(t, string(model.OrderStatusConfirmed), repo.order.Status)
	assert.Equal(t, string(model.PaymentStatusCompleted), repo.order.PaymentStatus)
	assert.Empty(t, repo.history)
}
