package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"

	"elysian-backend/internal/domains/inventory/model"
	"elysian-backend/internal/domains/inventory/repository"
)

// fakeRepository records stock mutations in memory. Stock is keyed by SKU;
// a decrement past zero returns InsufficientStockError like the real thing.
type fakeRepository struct {
	stock     map[string]int
	products  map[string]uuid.UUID
	movements []model.Movement
	released  map[uuid.UUID]bool
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		stock:    make(map[string]int),
		products: make(map[string]uuid.UUID),
		released: make(map[uuid.UUID]bool),
	}
}

func (f *fakeRepository) addVariant(sku string, productID uuid.UUID, stock int) {
	f.stock[sku] = stock
	f.products[sku] = productID
}

func (f *fakeRepository) DecrementStockTx(ctx context.Context, tx pgx.Tx, sku string, quantity int) (*model.Movement, error) {
	available, ok := f.stock[sku]
	if !ok {
		return nil, model.ErrVariantNotFound
	}
	if available < quantity {
		return nil, &model.InsufficientStockError{SKU: sku, Requested: quantity, Available: available}
	}
	f.stock[sku] = available - quantity
	return &model.Movement{
		ID:           uuid.New(),
		SKU:          sku,
		ProductID:    f.products[sku],
		MovementType: model.MovementSale,
		Quantity:     quantity,
	}, nil
}

func (f *fakeRepository) IncrementStockTx(ctx context.Context, tx pgx.Tx, sku string, quantity int) (*model.Movement, error) {
	if _, ok := f.stock[sku]; !ok {
		return nil, model.ErrVariantNotFound
	}
	f.stock[sku] += quantity
	return &model.Movement{
		ID:           uuid.New(),
		SKU:          sku,
		ProductID:    f.products[sku],
		MovementType: model.MovementRelease,
		Quantity:     quantity,
	}, nil
}

func (f *fakeRepository) RecordMovementTx(ctx context.Context, tx pgx.Tx, m *model.Movement) error {
	f.movements = append(f.movements, *m)
	return nil
}

func (f *fakeRepository) HasReleaseMovementTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) (bool, error) {
	return f.released[orderID], nil
}

func (f *fakeRepository) Restock(ctx context.Context, sku string, quantity int, adminID uuid.UUID, reason *string) (*model.Movement, error) {
	return f.IncrementStockTx(ctx, nil, sku, quantity)
}

func (f *fakeRepository) ListLowStock(ctx context.Context, threshold int) ([]repository.LowStockVariant, error) {
	return nil, nil
}

func (f *fakeRepository) ListMovements(ctx context.Context, sku string, page, limit int) ([]model.Movement, int64, error) {
	return f.movements, int64(len(f.movements)), nil
}

func TestReserveStockDecrementsEveryLine(t *testing.T) {
	repo := newFakeRepository()
	productA := uuid.New()
	productB := uuid.New()
	repo.addVariant("ELY-NOIR-50", productA, 10)
	repo.addVariant("ELY-NOIR-100", productA, 5)
	repo.addVariant("ELY-AURA-50", productB, 3)

	svc := NewService(repo)
	orderID := uuid.New()

	productIDs, err := svc.ReserveStockTx(context.Background(), nil, orderID, []ReservationItem{
		{SKU: "ELY-NOIR-50", Quantity: 2},
		{SKU: "ELY-NOIR-100", Quantity: 1},
		{SKU: "ELY-AURA-50", Quantity: 3},
	})

	assert.NoError(t, err)
	assert.Equal(t, 8, repo.stock["ELY-NOIR-50"])
	assert.Equal(t, 4, repo.stock["ELY-NOIR-100"])
	assert.Equal(t, 0, repo.stock["ELY-AURA-50"])
	assert.Len(t, repo.movements, 3)

	// Two variants of the same product collapse to one sync target.
	assert.Len(t, productIDs, 2)
	assert.Contains(t, productIDs, productA)
	assert.Contains(t, productIDs, productB)
}

func TestReserveStockPropagatesShortage(t *testing.T) {
	repo := newFakeRepository()
	repo.addVariant("ELY-NOIR-50", uuid.New(), 1)

	svc := NewService(repo)

	_, err := svc.ReserveStockTx(context.Background(), nil, uuid.New(), []ReservationItem{
		{SKU: "ELY-NOIR-50", Quantity: 2},
	})

	var shortage *model.InsufficientStockError
	assert.ErrorAs(t, err, &shortage)
	assert.Equal(t, "ELY-NOIR-50", shortage.SKU)
	assert.Equal(t, 1, shortage.Available)
}

func TestReserveStockUnknownSKU(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)

	_, err := svc.ReserveStockTx(context.Background(), nil, uuid.New(), []ReservationItem{
		{SKU: "NO-SUCH-SKU", Quantity: 1},
	})
	assert.ErrorIs(t, err, model.ErrVariantNotFound)
}

func TestReleaseStockRestoresAndRecords(t *testing.T) {
	repo := newFakeRepository()
	product := uuid.New()
	repo.addVariant("ELY-NOIR-50", product, 5)

	svc := NewService(repo)
	orderID := uuid.New()

	productIDs, err := svc.ReleaseStockTx(context.Background(), nil, orderID, []ReservationItem{
		{SKU: "ELY-NOIR-50", Quantity: 2},
	})

	assert.NoError(t, err)
	assert.Equal(t, 7, repo.stock["ELY-NOIR-50"])
	assert.Equal(t, []uuid.UUID{product}, productIDs)
	assert.Len(t, repo.movements, 1)
	assert.Equal(t, model.MovementRelease, repo.movements[0].MovementType)
	assert.Equal(t, orderID, *repo.movements[0].OrderID)
}

func TestReleaseStockIdempotent(t *testing.T) {
	repo := newFakeRepository()
	repo.addVariant("ELY-NOIR-50", uuid.New(), 5)

	svc := NewService(repo)
	orderID := uuid.New()
	repo.released[orderID] = true

	productIDs, err := svc.ReleaseStockTx(context.Background(), nil, orderID, []ReservationItem{
		{SKU: "ELY-NOIR-50", Quantity: 2},
	})

	// A release that already happened must not touch stock again.
	assert.NoError(t, err)
	assert.Nil(t, productIDs)
	assert.Equal(t, 5, repo.stock["ELY-NOIR-50"])
	assert.Empty(t, repo.movements)
}
