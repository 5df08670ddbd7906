package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FragranceFamily represents valid fragrance families
type FragranceFamily string

const (
	FragranceFloral   FragranceFamily = "Floral"
	FragranceOriental FragranceFamily = "Oriental"
	FragranceWoody    FragranceFamily = "Woody"
	FragranceFresh    FragranceFamily = "Fresh"
	FragranceCitrus   FragranceFamily = "Citrus"
	FragranceFruity   FragranceFamily = "Fruity"
	FragranceSpicy    FragranceFamily = "Spicy"
	FragranceAquatic  FragranceFamily = "Aquatic"
	FragranceGourmand FragranceFamily = "Gourmand"
)

func (f FragranceFamily) IsValid() bool {
	switch f {
	case FragranceFloral, FragranceOriental, FragranceWoody, FragranceFresh,
		FragranceCitrus, FragranceFruity, FragranceSpicy, FragranceAquatic, FragranceGourmand:
		return true
	}
	return false
}

// Concentration represents perfume concentration grades
type Concentration string

const (
	ConcentrationParfum Concentration = "Parfum"
	ConcentrationEDP    Concentration = "EDP"
	ConcentrationEDT    Concentration = "EDT"
	ConcentrationEDC    Concentration = "EDC"
	ConcentrationAttar  Concentration = "Attar"
)

func (c Concentration) IsValid() bool {
	switch c {
	case ConcentrationParfum, ConcentrationEDP, ConcentrationEDT, ConcentrationEDC, ConcentrationAttar:
		return true
	}
	return false
}

// Product represents a perfume with its purchasable variants
type Product struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	Description *string   `json:"description" db:"description"`
	Brand       string    `json:"brand" db:"brand"`
	CategoryID  uuid.UUID `json:"category_id" db:"category_id"`

	FragranceFamily string  `json:"fragrance_family" db:"fragrance_family"`
	Concentration   string  `json:"concentration" db:"concentration"`
	Gender          string  `json:"gender" db:"gender"` // Men, Women, Unisex
	TopNotes        *string `json:"top_notes" db:"top_notes"`
	HeartNotes      *string `json:"heart_notes" db:"heart_notes"`
	BaseNotes       *string `json:"base_notes" db:"base_notes"`

	// Aggregates maintained by the catalog sync worker from variants.
	TotalStock int `json:"total_stock" db:"total_stock"`
	Sold       int `json:"sold" db:"sold"`

	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	Variants []Variant `json:"variants,omitempty" db:"-"`
}

// Variant is a purchasable size/SKU configuration of a product, each with
// independent price and stock. Stock is the contended mutable resource; it
// is only ever changed through the inventory repository's conditional
// updates, never by loading and re-saving this struct.
type Variant struct {
	ID            uuid.UUID        `json:"id" db:"id"`
	ProductID     uuid.UUID        `json:"product_id" db:"product_id"`
	Size          string           `json:"size" db:"size"` // e.g. "50ml", "100ml", "Travel Size"
	SKU           string           `json:"sku" db:"sku"`
	Price         decimal.Decimal  `json:"price" db:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price" db:"original_price"`
	Stock         int              `json:"stock" db:"stock"`
	WeightGrams   int              `json:"weight_grams" db:"weight_grams"`
	IsActive      bool             `json:"is_active" db:"is_active"`
	Version       int              `json:"version" db:"version"`
	UpdatedAt     time.Time        `json:"updated_at" db:"updated_at"`
}

// NetSold derives the sold counter from movement history: units sold minus
// units released back by cancellations, floored at zero in case the history
// is partial.
func NetSold(saleQty, releasedQty int) int {
	sold := saleQty - releasedQty
	if sold < 0 {
		return 0
	}
	return sold
}

// CheckoutVariant is the read model handed to order pricing: the variant
// joined with the product fields an order line item snapshots.
type CheckoutVariant struct {
	ProductID   uuid.UUID
	ProductName string
	CategoryID  uuid.UUID
	VariantID   uuid.UUID
	Size        string
	SKU         string
	Price       decimal.Decimal
	Stock       int
	IsActive    bool
}

// Custom errors for catalog operations
var (
	ErrProductNotFound  = errors.New("product not found")
	ErrVariantNotFound  = errors.New("variant not found")
	ErrProductInactive  = errors.New("product is not active")
	ErrVariantInactive  = errors.New("variant is not active")
	ErrDuplicateSKU     = errors.New("variant sku already exists")
	ErrDuplicateSlug    = errors.New("product slug already exists")
	ErrInvalidFragrance = errors.New("invalid fragrance family")
)
