package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"elysian-backend/internal/domains/discount/model"
)

// Repository defines discount data access
type Repository interface {
	FindByCode(ctx context.Context, code string) (*model.Discount, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Discount, error)
	ListPublicActive(ctx context.Context, now time.Time) ([]model.Discount, error)
	ListAutoApply(ctx context.Context, now time.Time) ([]model.Discount, error)
	List(ctx context.Context, page, limit int) ([]model.Discount, int64, error)

	Create(ctx context.Context, d *model.Discount) error
	Update(ctx context.Context, d *model.Discount) error
	Deactivate(ctx context.Context, id uuid.UUID) error

	// GetCustomerUsage returns how many times a customer has redeemed the
	// discount.
	GetCustomerUsage(ctx context.Context, discountID, customerID uuid.UUID) (int, error)

	// IncrementUsageTx records one redemption inside the order transaction.
	// Both the total counter and the per-customer counter are guarded in the
	// write itself; concurrent redemptions cannot race past either limit.
	IncrementUsageTx(ctx context.Context, tx pgx.Tx, d *model.Discount, customerID uuid.UUID, now time.Time) error

	GetUsageStats(ctx context.Context, discountID uuid.UUID) (*UsageStats, error)
}

// UsageStats aggregates redemption history for admin analytics
type UsageStats struct {
	DiscountID      uuid.UUID  `json:"discount_id"`
	TotalUses       int        `json:"total_uses"`
	UniqueCustomers int        `json:"unique_customers"`
	LastUsedAt      *time.Time `json:"last_used_at,omitempty"`
}
