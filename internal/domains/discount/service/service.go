package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	catalogmodel "elysian-backend/internal/domains/catalog/model"
	"elysian-backend/internal/domains/discount/model"
	"elysian-backend/internal/domains/discount/repository"
	"elysian-backend/pkg/logger"
)

// VariantResolver resolves cart SKUs to priced variants. Satisfied by the
// catalog service.
type VariantResolver interface {
	CheckoutVariants(ctx context.Context, skus []string) (map[string]catalogmodel.CheckoutVariant, error)
}

// CustomerProfileProvider supplies the customer facts condition evaluation
// needs. Satisfied by the user service.
type CustomerProfileProvider interface {
	CustomerProfile(ctx context.Context, customerID uuid.UUID) (tier string, isNewCustomer bool, err error)
}

type Service interface {
	ListPublic(ctx context.Context) ([]model.DiscountResponse, error)
	Preview(ctx context.Context, customerID uuid.UUID, req model.ApplyDiscountRequest) (*model.Application, error)

	// Evaluate runs the full eligibility chain for a code against an
	// assembled checkout context and returns the rule plus its application.
	// Every rejection is a typed business error.
	Evaluate(ctx context.Context, code string, checkout model.CheckoutContext, subtotal decimal.Decimal, now time.Time) (*model.Discount, *model.Application, error)

	// AutoApply finds the highest-priority qualifying auto-apply rule, or
	// returns nil without error when none qualifies.
	AutoApply(ctx context.Context, checkout model.CheckoutContext, subtotal decimal.Decimal, now time.Time) (*model.Discount, *model.Application, error)

	// RedeemTx records one redemption inside the caller's order transaction.
	// The limit guards live in the write; a failure here rolls back the
	// whole order.
	RedeemTx(ctx context.Context, tx pgx.Tx, discountID, customerID uuid.UUID, now time.Time) error

	// Admin operations
	Create(ctx context.Context, adminID uuid.UUID, req model.CreateDiscountRequest) (*model.AdminDiscountResponse, error)
	Update(ctx context.Context, id uuid.UUID, req model.UpdateDiscountRequest) (*model.AdminDiscountResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, page, limit int) ([]model.AdminDiscountResponse, int64, error)
	GetUsageStats(ctx context.Context, id uuid.UUID) (*repository.UsageStats, error)
}

type service struct {
	repo     repository.Repository
	variants VariantResolver
	profiles CustomerProfileProvider
}

func NewService(repo repository.Repository, variants VariantResolver, profiles CustomerProfileProvider) Service {
	return &service{
		repo:     repo,
		variants: variants,
		profiles: profiles,
	}
}

func (s *service) ListPublic(ctx context.Context) ([]model.DiscountResponse, error) {
	now := time.Now()
	discounts, err := s.repo.ListPublicActive(ctx, now)
	if err != nil {
		return nil, err
	}

	responses := make([]model.DiscountResponse, len(discounts))
	for i := range discounts {
		responses[i] = *discounts[i].ToResponse(now)
	}
	return responses, nil
}

func (s *service) Preview(ctx context.Context, customerID uuid.UUID, req model.ApplyDiscountRequest) (*model.Application, error) {
	checkout, subtotal, err := s.buildCheckout(ctx, customerID, req)
	if err != nil {
		return nil, err
	}

	_, application, err := s.Evaluate(ctx, req.Code, checkout, subtotal, time.Now())
	if err != nil {
		return nil, err
	}
	return application, nil
}

func (s *service) buildCheckout(ctx context.Context, customerID uuid.UUID, req model.ApplyDiscountRequest) (model.CheckoutContext, decimal.Decimal, error) {
	skus := make([]string, len(req.Items))
	for i, item := range req.Items {
		skus[i] = item.SKU
	}

	variants, err := s.variants.CheckoutVariants(ctx, skus)
	if err != nil {
		return model.CheckoutContext{}, decimal.Zero, err
	}

	tier, isNew, err := s.profiles.CustomerProfile(ctx, customerID)
	if err != nil {
		return model.CheckoutContext{}, decimal.Zero, err
	}

	checkout := model.CheckoutContext{
		CustomerID:    customerID,
		CustomerTier:  tier,
		IsNewCustomer: isNew,
		State:         req.State,
		Pincode:       req.Pincode,
	}

	subtotal := decimal.Zero
	for _, item := range req.Items {
		v, ok := variants[item.SKU]
		if !ok || !v.IsActive {
			return model.CheckoutContext{}, decimal.Zero, catalogmodel.ErrVariantNotFound
		}
		checkout.Items = append(checkout.Items, model.CheckoutItem{
			ProductID:  v.ProductID,
			CategoryID: v.CategoryID,
			SKU:        v.SKU,
			UnitPrice:  v.Price,
			Quantity:   item.Quantity,
		})
		subtotal = subtotal.Add(v.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	return checkout, subtotal, nil
}

func (s *service) Evaluate(ctx context.Context, code string, checkout model.CheckoutContext, subtotal decimal.Decimal, now time.Time) (*model.Discount, *model.Application, error) {
	code = model.NormalizeCode(code)
	if !model.IsValidCode(code) {
		return nil, nil, model.ErrInvalidCodeFormat
	}

	d, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, nil, err
	}

	if err := s.checkEligibility(ctx, d, checkout, subtotal, now); err != nil {
		return nil, nil, err
	}

	application := s.apply(d, checkout, subtotal, now)
	return d, application, nil
}

// checkEligibility walks the rejection chain in order of specificity so the
// customer sees the most useful reason.
func (s *service) checkEligibility(ctx context.Context, d *model.Discount, checkout model.CheckoutContext, subtotal decimal.Decimal, now time.Time) error {
	if !d.IsActive {
		return model.ErrDiscountInactive
	}
	if now.Before(d.StartDate) {
		return model.ErrDiscountNotStarted
	}
	if d.IsExpired(now) {
		return model.ErrDiscountExpired
	}
	if d.UsageLimitTotal != nil && d.UsageTotal >= *d.UsageLimitTotal {
		return model.ErrUsageLimitReached
	}

	if err := d.MeetsOrderValueBounds(subtotal); err != nil {
		return err
	}
	if err := d.EvaluateConditions(checkout, now); err != nil {
		return err
	}

	used, err := s.repo.GetCustomerUsage(ctx, d.ID, checkout.CustomerID)
	if err != nil {
		return err
	}
	if used >= d.UsageLimitPerCustomer {
		return model.ErrCustomerLimitReached
	}

	return nil
}

func (s *service) apply(d *model.Discount, checkout model.CheckoutContext, subtotal decimal.Decimal, now time.Time) *model.Application {
	var amount decimal.Decimal
	if model.DiscountType(d.Type) == model.DiscountTypeBuyXGetY {
		amount = d.CalculateBuyXGetY(checkout.Items)
	} else {
		amount = d.CalculateDiscount(subtotal, now)
	}

	return &model.Application{
		DiscountID:   d.ID,
		Code:         d.Code,
		Type:         d.Type,
		Amount:       amount,
		FreeShipping: d.WaivesShipping(),
	}
}

func (s *service) AutoApply(ctx context.Context, checkout model.CheckoutContext, subtotal decimal.Decimal, now time.Time) (*model.Discount, *model.Application, error) {
	candidates, err := s.repo.ListAutoApply(ctx, now)
	if err != nil {
		return nil, nil, err
	}

	// Candidates are ordered by priority descending; the first that passes
	// the eligibility chain wins. Exactly one discount applies per order.
	for i := range candidates {
		d := &candidates[i]
		if err := s.checkEligibility(ctx, d, checkout, subtotal, now); err != nil {
			if model.IsBusinessError(err) {
				continue
			}
			return nil, nil, err
		}
		return d, s.apply(d, checkout, subtotal, now), nil
	}
	return nil, nil, nil
}

func (s *service) RedeemTx(ctx context.Context, tx pgx.Tx, discountID, customerID uuid.UUID, now time.Time) error {
	d, err := s.repo.GetByID(ctx, discountID)
	if err != nil {
		return err
	}
	return s.repo.IncrementUsageTx(ctx, tx, d, customerID, now)
}

func (s *service) Create(ctx context.Context, adminID uuid.UUID, req model.CreateDiscountRequest) (*model.AdminDiscountResponse, error) {
	d := &model.Discount{
		ID:          uuid.New(),
		Code:        model.NormalizeCode(req.Code),
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,

		UsageLimitTotal:       req.UsageLimitTotal,
		UsageLimitPerCustomer: req.UsageLimitPerCustomer,

		StartDate: req.StartDate,
		EndDate:   req.EndDate,

		Conditions: conditionsFromRequest(req.Conditions),

		IsActive:    true,
		IsPublic:    req.IsPublic,
		IsAutoApply: req.IsAutoApply,
		IsStackable: req.IsStackable,
		Priority:    req.Priority,
		CreatedBy:   adminID,
	}
	if d.UsageLimitPerCustomer == 0 {
		d.UsageLimitPerCustomer = 1
	}

	if req.Value != nil {
		d.Value = decimal.NewFromFloat(*req.Value)
	}
	if req.MaxDiscount != nil {
		v := decimal.NewFromFloat(*req.MaxDiscount)
		d.MaxDiscount = &v
	}
	if req.MinOrderValue != nil {
		v := decimal.NewFromFloat(*req.MinOrderValue)
		d.MinOrderValue = &v
	}
	if req.MaxOrderValue != nil {
		v := decimal.NewFromFloat(*req.MaxOrderValue)
		d.MaxOrderValue = &v
	}
	if req.BuyXGetY != nil {
		d.BuyXGetY = &model.BuyXGetY{
			BuyQuantity: req.BuyXGetY.BuyQuantity,
			GetQuantity: req.BuyXGetY.GetQuantity,
			BuyProducts: req.BuyXGetY.BuyProducts,
			GetProducts: req.BuyXGetY.GetProducts,
			GetDiscount: decimal.NewFromFloat(req.BuyXGetY.GetDiscount),
		}
	}

	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}

	logger.Info("discount created", map[string]interface{}{
		"code":     d.Code,
		"type":     d.Type,
		"admin_id": adminID.String(),
	})
	return d.ToAdminResponse(time.Now()), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, req model.UpdateDiscountRequest) (*model.AdminDiscountResponse, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		d.Name = *req.Name
	}
	if req.Description != nil {
		d.Description = req.Description
	}
	if req.Value != nil {
		d.Value = decimal.NewFromFloat(*req.Value)
	}
	if req.MaxDiscount != nil {
		v := decimal.NewFromFloat(*req.MaxDiscount)
		d.MaxDiscount = &v
	}
	if req.MinOrderValue != nil {
		v := decimal.NewFromFloat(*req.MinOrderValue)
		d.MinOrderValue = &v
	}
	if req.MaxOrderValue != nil {
		v := decimal.NewFromFloat(*req.MaxOrderValue)
		d.MaxOrderValue = &v
	}
	if req.UsageLimitTotal != nil {
		d.UsageLimitTotal = req.UsageLimitTotal
	}
	if req.UsageLimitPerCustomer != nil {
		d.UsageLimitPerCustomer = *req.UsageLimitPerCustomer
	}
	if req.StartDate != nil {
		d.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		d.EndDate = *req.EndDate
	}
	if req.Conditions != nil {
		d.Conditions = conditionsFromRequest(*req.Conditions)
	}
	if req.IsActive != nil {
		d.IsActive = *req.IsActive
	}
	if req.IsPublic != nil {
		d.IsPublic = *req.IsPublic
	}
	if req.IsAutoApply != nil {
		d.IsAutoApply = *req.IsAutoApply
	}
	if req.Priority != nil {
		d.Priority = *req.Priority
	}

	if !d.EndDate.After(d.StartDate) {
		return nil, model.ErrInvalidDateRange
	}

	if err := s.repo.Update(ctx, d); err != nil {
		return nil, err
	}
	return d.ToAdminResponse(time.Now()), nil
}

func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.repo.Deactivate(ctx, id)
}

func (s *service) List(ctx context.Context, page, limit int) ([]model.AdminDiscountResponse, int64, error) {
	discounts, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	now := time.Now()
	responses := make([]model.AdminDiscountResponse, len(discounts))
	for i := range discounts {
		responses[i] = *discounts[i].ToAdminResponse(now)
	}
	return responses, total, nil
}

func (s *service) GetUsageStats(ctx context.Context, id uuid.UUID) (*repository.UsageStats, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.GetUsageStats(ctx, id)
}

func conditionsFromRequest(req model.ConditionsRequest) model.Conditions {
	return model.Conditions{
		ApplicableProducts:   req.ApplicableProducts,
		ExcludeProducts:      req.ExcludeProducts,
		ApplicableCategories: req.ApplicableCategories,
		ExcludeCategories:    req.ExcludeCategories,
		ApplicableCustomers:  req.ApplicableCustomers,
		ExcludeCustomers:     req.ExcludeCustomers,
		ApplicableTiers:      req.ApplicableTiers,
		NewCustomersOnly:     req.NewCustomersOnly,
		ApplicableStates:     req.ApplicableStates,
		ExcludeStates:        req.ExcludeStates,
		ApplicablePincodes:   req.ApplicablePincodes,
		ExcludePincodes:      req.ExcludePincodes,
		ValidDays:            req.ValidDays,
		ValidHoursStart:      req.ValidHoursStart,
		ValidHoursEnd:        req.ValidHoursEnd,
	}
}
