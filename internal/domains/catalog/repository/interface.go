package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"elysian-backend/internal/domains/catalog/model"
)

// Repository defines catalog data access
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	GetBySlug(ctx context.Context, slug string) (*model.Product, error)
	List(ctx context.Context, q model.ListProductsQuery) ([]model.Product, int64, error)

	// GetCheckoutVariantsBySKUs loads the variant+product read models the
	// order pricing path needs, keyed by SKU.
	GetCheckoutVariantsBySKUs(ctx context.Context, skus []string) (map[string]model.CheckoutVariant, error)
	GetCheckoutVariantsBySKUsTx(ctx context.Context, tx pgx.Tx, skus []string) (map[string]model.CheckoutVariant, error)

	// SyncProductAggregates recomputes total_stock and sold from variants.
	// Invoked by the catalog sync worker after inventory movements.
	SyncProductAggregates(ctx context.Context, productID uuid.UUID) error
}
