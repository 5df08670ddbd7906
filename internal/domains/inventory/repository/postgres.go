package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"elysian-backend/internal/domains/inventory/model"
	"elysian-backend/pkg/database"
)

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

// DecrementStockTx expresses the stock guard in the UPDATE itself: two
// concurrent reservations of the last unit cannot both match the WHERE
// clause, so exactly one succeeds.
func (r *postgresRepository) DecrementStockTx(ctx context.Context, tx pgx.Tx, sku string, quantity int) (*model.Movement, error) {
	if quantity <= 0 {
		return nil, model.ErrInvalidQuantity
	}

	var productID, variantID uuid.UUID
	err := tx.QueryRow(ctx, `
		UPDATE product_variants
		SET stock = stock - $2, version = version + 1, updated_at = NOW()
		WHERE sku = $1 AND is_active = true AND stock >= $2
		RETURNING product_id, id`,
		sku, quantity,
	).Scan(&productID, &variantID)

	if err == nil {
		return &model.Movement{
			ID:           uuid.New(),
			SKU:          sku,
			ProductID:    productID,
			VariantID:    variantID,
			MovementType: model.MovementSale,
			Quantity:     quantity,
		}, nil
	}
	if err != pgx.ErrNoRows {
		return nil, fmt.Errorf("decrement stock %s: %w", sku, err)
	}

	// Zero rows: distinguish missing/inactive from short stock for the error.
	var available int
	var isActive bool
	err = tx.QueryRow(ctx,
		`SELECT stock, is_active FROM product_variants WHERE sku = $1`, sku,
	).Scan(&available, &isActive)
	if err == pgx.ErrNoRows {
		return nil, model.ErrVariantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("inspect variant %s: %w", sku, err)
	}
	if !isActive {
		return nil, model.ErrVariantInactive
	}
	return nil, &model.InsufficientStockError{SKU: sku, Requested: quantity, Available: available}
}

func (r *postgresRepository) IncrementStockTx(ctx context.Context, tx pgx.Tx, sku string, quantity int) (*model.Movement, error) {
	if quantity <= 0 {
		return nil, model.ErrInvalidQuantity
	}

	var productID, variantID uuid.UUID
	err := tx.QueryRow(ctx, `
		UPDATE product_variants
		SET stock = stock + $2, version = version + 1, updated_at = NOW()
		WHERE sku = $1
		RETURNING product_id, id`,
		sku, quantity,
	).Scan(&productID, &variantID)
	if err == pgx.ErrNoRows {
		return nil, model.ErrVariantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("increment stock %s: %w", sku, err)
	}

	return &model.Movement{
		ID:           uuid.New(),
		SKU:          sku,
		ProductID:    productID,
		VariantID:    variantID,
		MovementType: model.MovementRelease,
		Quantity:     quantity,
	}, nil
}

func (r *postgresRepository) RecordMovementTx(ctx context.Context, tx pgx.Tx, m *model.Movement) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO inventory_movements (id, sku, product_id, variant_id, order_id, movement_type, quantity, reason, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())`,
		m.ID, m.SKU, m.ProductID, m.VariantID, m.OrderID, m.MovementType, m.Quantity, m.Reason, m.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("record movement: %w", err)
	}
	return nil
}

func (r *postgresRepository) HasReleaseMovementTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM inventory_movements
			WHERE order_id = $1 AND movement_type = $2
		)`,
		orderID, model.MovementRelease,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check release movement: %w", err)
	}
	return exists, nil
}

func (r *postgresRepository) Restock(ctx context.Context, sku string, quantity int, adminID uuid.UUID, reason *string) (*model.Movement, error) {
	if quantity <= 0 {
		return nil, model.ErrInvalidQuantity
	}

	var movement *model.Movement
	err := database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		m, err := r.IncrementStockTx(ctx, tx, sku, quantity)
		if err != nil {
			return err
		}
		m.MovementType = model.MovementRestock
		m.Reason = reason
		m.CreatedBy = &adminID

		if err := r.RecordMovementTx(ctx, tx, m); err != nil {
			return err
		}
		movement = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

func (r *postgresRepository) ListLowStock(ctx context.Context, threshold int) ([]LowStockVariant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name, v.id, v.sku, v.size, v.stock
		FROM product_variants v
		JOIN products p ON p.id = v.product_id
		WHERE v.is_active = true AND p.is_active = true AND v.stock <= $1
		ORDER BY v.stock ASC, p.name ASC`,
		threshold,
	)
	if err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	defer rows.Close()

	variants := make([]LowStockVariant, 0)
	for rows.Next() {
		var v LowStockVariant
		if err := rows.Scan(&v.ProductID, &v.ProductName, &v.VariantID, &v.SKU, &v.Size, &v.Stock); err != nil {
			return nil, fmt.Errorf("scan low stock variant: %w", err)
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

func (r *postgresRepository) ListMovements(ctx context.Context, sku string, page, limit int) ([]model.Movement, int64, error) {
	conditions := ""
	args := []interface{}{}
	if sku != "" {
		conditions = "WHERE sku = $1"
		args = append(args, sku)
	}

	var total int64
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM inventory_movements %s`, conditions)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count movements: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, sku, product_id, variant_id, order_id, movement_type, quantity, reason, created_by, created_at
		FROM inventory_movements %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		conditions, len(args)+1, len(args)+2)
	args = append(args, limit, (page-1)*limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	movements := make([]model.Movement, 0, limit)
	for rows.Next() {
		var m model.Movement
		err := rows.Scan(&m.ID, &m.SKU, &m.ProductID, &m.VariantID, &m.OrderID,
			&m.MovementType, &m.Quantity, &m.Reason, &m.CreatedBy, &m.CreatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("scan movement: %w", err)
		}
		movements = append(movements, m)
	}
	return movements, total, rows.Err()
}
