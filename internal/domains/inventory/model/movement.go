package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MovementType classifies a stock movement
type MovementType string

const (
	MovementSale       MovementType = "SALE"
	MovementRelease    MovementType = "RELEASE"
	MovementRestock    MovementType = "RESTOCK"
	MovementAdjustment MovementType = "ADJUSTMENT"
)

func (mt MovementType) IsValid() bool {
	switch mt {
	case MovementSale, MovementRelease, MovementRestock, MovementAdjustment:
		return true
	}
	return false
}

func (mt MovementType) String() string {
	return string(mt)
}

// Movement is the append-only audit record for every stock change. A release
// movement keyed by order id doubles as the idempotency marker for repeated
// cancellation events.
type Movement struct {
	ID           uuid.UUID    `json:"id" db:"id"`
	SKU          string       `json:"sku" db:"sku"`
	ProductID    uuid.UUID    `json:"product_id" db:"product_id"`
	VariantID    uuid.UUID    `json:"variant_id" db:"variant_id"`
	OrderID      *uuid.UUID   `json:"order_id,omitempty" db:"order_id"`
	MovementType MovementType `json:"movement_type" db:"movement_type"`
	Quantity     int          `json:"quantity" db:"quantity"`
	Reason       *string      `json:"reason,omitempty" db:"reason"`
	CreatedBy    *uuid.UUID   `json:"created_by,omitempty" db:"created_by"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
}

// InsufficientStockError reports the exact line item that could not be
// reserved.
type InsufficientStockError struct {
	SKU       string `json:"sku"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.SKU, e.Requested, e.Available)
}

// IsInsufficientStock reports whether err carries an InsufficientStockError
func IsInsufficientStock(err error) (*InsufficientStockError, bool) {
	var ise *InsufficientStockError
	if errors.As(err, &ise) {
		return ise, true
	}
	return nil, false
}

var (
	ErrVariantNotFound     = errors.New("variant not found")
	ErrVariantInactive     = errors.New("variant is not active")
	ErrInvalidQuantity     = errors.New("quantity must be positive")
	ErrInvalidMovementType = errors.New("invalid movement type")
)
