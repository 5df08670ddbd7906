package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"elysian-backend/internal/domains/inventory/model"
	"elysian-backend/internal/domains/inventory/repository"
	"elysian-backend/pkg/logger"
)

// ReservationItem is one order line to reserve or release
type ReservationItem struct {
	SKU      string
	Quantity int
}

type Service interface {
	// ReserveStockTx decrements stock for every line item inside the
	// caller's transaction. Any failure leaves nothing applied: the caller
	// rolls back on error, which is what makes reservation all-or-nothing.
	// Returns the product ids touched so the caller can enqueue aggregate
	// syncs after commit.
	ReserveStockTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, items []ReservationItem) ([]uuid.UUID, error)

	// ReleaseStockTx restores stock on cancellation. Idempotent: a second
	// release for the same order is a no-op, so repeated cancellation
	// events cannot inflate stock.
	ReleaseStockTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, items []ReservationItem) ([]uuid.UUID, error)

	Restock(ctx context.Context, sku string, quantity int, adminID uuid.UUID, reason *string) (*model.Movement, error)
	ListLowStock(ctx context.Context, threshold int) ([]repository.LowStockVariant, error)
	ListMovements(ctx context.Context, sku string, page, limit int) ([]model.Movement, int64, error)
}

type service struct {
	repo repository.Repository
}

func NewService(repo repository.Repository) Service {
	return &service{repo: repo}
}

func (s *service) ReserveStockTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, items []ReservationItem) ([]uuid.UUID, error) {
	productIDs := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		movement, err := s.repo.DecrementStockTx(ctx, tx, item.SKU, item.Quantity)
		if err != nil {
			return nil, err
		}
		movement.OrderID = &orderID
		if err := s.repo.RecordMovementTx(ctx, tx, movement); err != nil {
			return nil, err
		}
		productIDs = append(productIDs, movement.ProductID)
	}
	return dedupe(productIDs), nil
}

func (s *service) ReleaseStockTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, items []ReservationItem) ([]uuid.UUID, error) {
	released, err := s.repo.HasReleaseMovementTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if released {
		logger.Info("stock already released for order", map[string]interface{}{
			"order_id": orderID.String(),
		})
		return nil, nil
	}

	productIDs := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		movement, err := s.repo.IncrementStockTx(ctx, tx, item.SKU, item.Quantity)
		if err != nil {
			return nil, err
		}
		movement.OrderID = &orderID
		if err := s.repo.RecordMovementTx(ctx, tx, movement); err != nil {
			return nil, err
		}
		productIDs = append(productIDs, movement.ProductID)
	}
	return dedupe(productIDs), nil
}

func (s *service) Restock(ctx context.Context, sku string, quantity int, adminID uuid.UUID, reason *string) (*model.Movement, error) {
	movement, err := s.repo.Restock(ctx, sku, quantity, adminID, reason)
	if err != nil {
		return nil, err
	}

	logger.Info("stock replenished", map[string]interface{}{
		"sku":      sku,
		"quantity": quantity,
		"admin_id": adminID.String(),
	})
	return movement, nil
}

func (s *service) ListLowStock(ctx context.Context, threshold int) ([]repository.LowStockVariant, error) {
	return s.repo.ListLowStock(ctx, threshold)
}

func (s *service) ListMovements(ctx context.Context, sku string, page, limit int) ([]model.Movement, int64, error) {
	return s.repo.ListMovements(ctx, sku, page, limit)
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
