package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"elysian-backend/internal/domains/order/model"
	"elysian-backend/pkg/database"
)

// Repository defines order data access. Mutations that participate in the
// checkout/cancellation transaction take the caller's tx; the service owns
// transaction boundaries.
type Repository interface {
	// WithTx runs fn in a transaction, committing on nil error.
	WithTx(ctx context.Context, fn database.TxFunc) error

	// CreateOrderTx inserts the order, its items and the initial history
	// entry. On an order-number collision it regenerates and retries a
	// bounded number of times before failing.
	CreateOrderTx(ctx context.Context, tx pgx.Tx, o *model.Order) error

	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	GetByNumber(ctx context.Context, number string) (*model.Order, error)
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*model.Order, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, page, limit int) ([]model.Order, int64, error)
	List(ctx context.Context, q model.ListOrdersQuery) ([]model.Order, int64, error)

	// CountByCustomer returns how many non-cancelled orders the customer has
	// placed. Used for new-customer discount eligibility.
	CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error)

	// UpdateStatusTx transitions order status guarded by the version column.
	// Zero rows means a concurrent writer won; callers surface a conflict.
	UpdateStatusTx(ctx context.Context, tx pgx.Tx, o *model.Order, newStatus model.OrderStatus, now time.Time) error

	AppendHistoryTx(ctx context.Context, tx pgx.Tx, h *model.StatusHistory) error

	// MarkPaymentCapturedTx flips payment status to completed only while it
	// is still pending, which is the webhook idempotency guard. Returns
	// false when the guard did not match. On success o is refreshed with
	// the bumped version so a subsequent UpdateStatusTx in the same
	// transaction guards on the current row.
	MarkPaymentCapturedTx(ctx context.Context, tx pgx.Tx, o *model.Order, transactionID string, paidAt time.Time) (bool, error)

	// MarkPaymentFailedTx records a failed payment under the same guard,
	// refreshing o the same way.
	MarkPaymentFailedTx(ctx context.Context, tx pgx.Tx, o *model.Order, reason string) (bool, error)

	SetGatewayOrderID(ctx context.Context, orderID uuid.UUID, gatewayOrderID string) error
}
