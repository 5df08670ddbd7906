package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"elysian-backend/internal/domains/inventory/model"
)

// Repository defines stock mutation and movement audit access. All stock
// writes carry the guard in the statement itself; callers never read-check
// stock in application memory before writing.
type Repository interface {
	// DecrementStockTx subtracts quantity from a variant's stock inside the
	// order transaction. Fails with InsufficientStockError when the variant
	// is missing, inactive, or short. The returned movement is unsaved;
	// the caller fills in order linkage and records it.
	DecrementStockTx(ctx context.Context, tx pgx.Tx, sku string, quantity int) (*model.Movement, error)

	// IncrementStockTx adds quantity back to a variant's stock.
	IncrementStockTx(ctx context.Context, tx pgx.Tx, sku string, quantity int) (*model.Movement, error)

	RecordMovementTx(ctx context.Context, tx pgx.Tx, m *model.Movement) error

	// HasReleaseMovementTx reports whether a release was already recorded
	// for the order, making repeated cancellations a no-op.
	HasReleaseMovementTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) (bool, error)

	Restock(ctx context.Context, sku string, quantity int, adminID uuid.UUID, reason *string) (*model.Movement, error)
	ListLowStock(ctx context.Context, threshold int) ([]LowStockVariant, error)
	ListMovements(ctx context.Context, sku string, page, limit int) ([]model.Movement, int64, error)
}

// LowStockVariant is the admin low-stock report row
type LowStockVariant struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	VariantID   uuid.UUID `json:"variant_id"`
	SKU         string    `json:"sku"`
	Size        string    `json:"size"`
	Stock       int       `json:"stock"`
}
