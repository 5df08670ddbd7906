package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ListProductsQuery represents search/filter parameters for the storefront
type ListProductsQuery struct {
	Search          *string `form:"search"`
	CategoryID      *string `form:"category_id"`
	FragranceFamily *string `form:"fragrance_family"`
	Gender          *string `form:"gender"`
	Page            int     `form:"page"`
	Limit           int     `form:"limit"`
	Sort            string  `form:"sort"`
}

func (q *ListProductsQuery) Validate() error {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 20
	}
	return validation.ValidateStruct(q,
		validation.Field(&q.Sort, validation.In("", "created_at_desc", "price_asc", "price_desc", "sold_desc")),
	)
}

// ProductResponse represents a product with variants for the storefront
type ProductResponse struct {
	ID              uuid.UUID         `json:"id"`
	Name            string            `json:"name"`
	Slug            string            `json:"slug"`
	Description     *string           `json:"description,omitempty"`
	Brand           string            `json:"brand"`
	CategoryID      uuid.UUID         `json:"category_id"`
	FragranceFamily string            `json:"fragrance_family"`
	Concentration   string            `json:"concentration"`
	Gender          string            `json:"gender"`
	TotalStock      int               `json:"total_stock"`
	Sold            int               `json:"sold"`
	IsActive        bool              `json:"is_active"`
	Variants        []VariantResponse `json:"variants"`
	CreatedAt       time.Time         `json:"created_at"`
}

// VariantResponse represents a purchasable variant
type VariantResponse struct {
	ID            uuid.UUID        `json:"id"`
	Size          string           `json:"size"`
	SKU           string           `json:"sku"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price,omitempty"`
	InStock       bool             `json:"in_stock"`
	IsActive      bool             `json:"is_active"`
}

// ToResponse converts Product to ProductResponse
func (p *Product) ToResponse() *ProductResponse {
	variants := make([]VariantResponse, len(p.Variants))
	for i, v := range p.Variants {
		variants[i] = VariantResponse{
			ID:            v.ID,
			Size:          v.Size,
			SKU:           v.SKU,
			Price:         v.Price,
			OriginalPrice: v.OriginalPrice,
			InStock:       v.Stock > 0,
			IsActive:      v.IsActive,
		}
	}

	return &ProductResponse{
		ID:              p.ID,
		Name:            p.Name,
		Slug:            p.Slug,
		Description:     p.Description,
		Brand:           p.Brand,
		CategoryID:      p.CategoryID,
		FragranceFamily: p.FragranceFamily,
		Concentration:   p.Concentration,
		Gender:          p.Gender,
		TotalStock:      p.TotalStock,
		Sold:            p.Sold,
		IsActive:        p.IsActive,
		Variants:        variants,
		CreatedAt:       p.CreatedAt,
	}
}
