package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"elysian-backend/internal/domains/discount/model"
	"elysian-backend/internal/domains/discount/repository"
)

// fakeRepository embeds the interface; only read paths used by evaluation
// are implemented.
type fakeRepository struct {
	repository.Repository
	byCode    map[string]*model.Discount
	autoApply []model.Discount
	usage     map[uuid.UUID]int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		byCode: make(map[string]*model.Discount),
		usage:  make(map[uuid.UUID]int),
	}
}

func (f *fakeRepository) FindByCode(ctx context.Context, code string) (*model.Discount, error) {
	d, ok := f.byCode[code]
	if !ok {
		return nil, model.ErrDiscountNotFound
	}
	return d, nil
}

func (f *fakeRepository) ListAutoApply(ctx context.Context, now time.Time) ([]model.Discount, error) {
	return f.autoApply, nil
}

func (f *fakeRepository) GetCustomerUsage(ctx context.Context, discountID, customerID uuid.UUID) (int, error) {
	return f.usage[discountID], nil
}

func percentageRule(code string, value int64) *model.Discount {
	now := time.Now()
	return &model.Discount{
		ID:                    uuid.New(),
		Code:                  code,
		Type:                  string(model.DiscountTypePercentage),
		Value:                 decimal.NewFromInt(value),
		UsageLimitPerCustomer: 1,
		StartDate:             now.Add(-time.Hour),
		EndDate:               now.Add(24 * time.Hour),
		IsActive:              true,
	}
}

func basicCheckout() model.CheckoutContext {
	return model.CheckoutContext{
		CustomerID:   uuid.New(),
		CustomerTier: string(model.TierBronze),
		State:        "Maharashtra",
		Pincode:      "400001",
	}
}

func TestEvaluateAppliesPercentage(t *testing.T) {
	repo := newFakeRepository()
	rule := percentageRule("WELCOME10", 10)
	repo.byCode[rule.Code] = rule
	svc := NewService(repo, nil, nil)

	d, application, err := svc.Evaluate(context.Background(), "welcome10", basicCheckout(), decimal.NewFromInt(1000), time.Now())

	assert.NoError(t, err)
	assert.Equal(t, rule.ID, d.ID)
	assert.Equal(t, "WELCOME10", application.Code)
	assert.True(t, application.Amount.Equal(decimal.NewFromInt(100)), "amount = %s", application.Amount)
	assert.False(t, application.FreeShipping)
}

func TestEvaluateUnknownCode(t *testing.T) {
	svc := NewService(newFakeRepository(), nil, nil)

	_, _, err := svc.Evaluate(context.Background(), "NOSUCH", basicCheckout(), decimal.NewFromInt(1000), time.Now())
	assert.ErrorIs(t, err, model.ErrDiscountNotFound)
}

func TestEvaluateRejectsBadFormat(t *testing.T) {
	svc := NewService(newFakeRepository(), nil, nil)

	_, _, err := svc.Evaluate(context.Background(), "no spaces allowed", basicCheckout(), decimal.NewFromInt(1000), time.Now())
	assert.ErrorIs(t, err, model.ErrInvalidCodeFormat)
}

func TestEvaluateCustomerLimit(t *testing.T) {
	repo := newFakeRepository()
	rule := percentageRule("ONCEONLY", 10)
	repo.byCode[rule.Code] = rule
	repo.usage[rule.ID] = 1
	svc := NewService(repo, nil, nil)

	_, _, err := svc.Evaluate(context.Background(), "ONCEONLY", basicCheckout(), decimal.NewFromInt(1000), time.Now())
	assert.ErrorIs(t, err, model.ErrCustomerLimitReached)
}

func TestEvaluateTotalUsageCap(t *testing.T) {
	repo := newFakeRepository()
	rule := percentageRule("CAPPED", 10)
	limit := 500
	rule.UsageLimitTotal = &limit
	rule.UsageTotal = 500
	repo.byCode[rule.Code] = rule
	svc := NewService(repo, nil, nil)

	_, _, err := svc.Evaluate(context.Background(), "CAPPED", basicCheckout(), decimal.NewFromInt(1000), time.Now())
	assert.ErrorIs(t, err, model.ErrUsageLimitReached)
}

func TestAutoApplyHighestEligiblePriority(t *testing.T) {
	repo := newFakeRepository()

	// Ordered by priority descending, as the repository returns them. The
	// first rule demands a larger cart, so the second must win.
	first := percentageRule("BIGSPEND", 20)
	first.IsAutoApply = true
	first.Priority = 10
	minOrder := decimal.NewFromInt(5000)
	first.MinOrderValue = &minOrder

	second := percentageRule("EVERYONE", 5)
	second.IsAutoApply = true
	second.Priority = 1

	repo.autoApply = []model.Discount{*first, *second}
	svc := NewService(repo, nil, nil)

	d, application, err := svc.AutoApply(context.Background(), basicCheckout(), decimal.NewFromInt(1000), time.Now())

	assert.NoError(t, err)
	assert.Equal(t, "EVERYONE", d.Code)
	assert.True(t, application.Amount.Equal(decimal.NewFromInt(50)), "amount = %s", application.Amount)
}

func TestAutoApplyNoCandidate(t *testing.T) {
	svc := NewService(newFakeRepository(), nil, nil)

	d, application, err := svc.AutoApply(context.Background(), basicCheckout(), decimal.NewFromInt(1000), time.Now())

	assert.NoError(t, err)
	assert.Nil(t, d)
	assert.Nil(t, application)
}
