package service

import (
	"context"

	"github.com/google/uuid"

	"elysian-backend/internal/domains/catalog/model"
	"elysian-backend/internal/domains/catalog/repository"
)

type Service interface {
	GetProduct(ctx context.Context, slug string) (*model.ProductResponse, error)
	ListProducts(ctx context.Context, q model.ListProductsQuery) ([]model.ProductResponse, int64, error)

	// CheckoutVariants resolves SKUs for order pricing. Missing or inactive
	// SKUs are reported through the returned map so the caller can name the
	// exact offending line item.
	CheckoutVariants(ctx context.Context, skus []string) (map[string]model.CheckoutVariant, error)

	SyncProductAggregates(ctx context.Context, productID uuid.UUID) error
}

type service struct {
	repo repository.Repository
}

func NewService(repo repository.Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetProduct(ctx context.Context, slug string) (*model.ProductResponse, error) {
	product, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return product.ToResponse(), nil
}

func (s *service) ListProducts(ctx context.Context, q model.ListProductsQuery) ([]model.ProductResponse, int64, error) {
	products, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]model.ProductResponse, len(products))
	for i := range products {
		responses[i] = *products[i].ToResponse()
	}
	return responses, total, nil
}

func (s *service) CheckoutVariants(ctx context.Context, skus []string) (map[string]model.CheckoutVariant, error) {
	return s.repo.GetCheckoutVariantsBySKUs(ctx, skus)
}

func (s *service) SyncProductAggregates(ctx context.Context, productID uuid.UUID) error {
	return s.repo.SyncProductAggregates(ctx, productID)
}
