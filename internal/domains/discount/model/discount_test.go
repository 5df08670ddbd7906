package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func activeDiscount(dt DiscountType, value int64) *Discount {
	now := time.Now()
	return &Discount{
		ID:        uuid.New(),
		Code:      "TESTCODE",
		Type:      string(dt),
		Value:     decimal.NewFromInt(value),
		StartDate: now.Add(-24 * time.Hour),
		EndDate:   now.Add(24 * time.Hour),
		IsActive:  true,
	}
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func intPtr(n int) *int {
	return &n
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "WELCOME10", NormalizeCode("  welcome10 "))
	assert.Equal(t, "FLAT500", NormalizeCode("flat500"))
}

func TestIsValidCode(t *testing.T) {
	assert.True(t, IsValidCode("WELCOME10"))
	assert.True(t, IsValidCode("ABC"))
	assert.False(t, IsValidCode("AB"))
	assert.False(t, IsValidCode("has space"))
	assert.False(t, IsValidCode("lower"))
	assert.False(t, IsValidCode("WAYTOOLONGCODE123456789"))
}

func TestIsCurrentlyValid(t *testing.T) {
	now := time.Now()

	d := activeDiscount(DiscountTypePercentage, 10)
	assert.True(t, d.IsCurrentlyValid(now))

	d.IsActive = false
	assert.False(t, d.IsCurrentlyValid(now))
	d.IsActive = true

	assert.False(t, d.IsCurrentlyValid(d.StartDate.Add(-time.Hour)))
	assert.False(t, d.IsCurrentlyValid(d.EndDate.Add(time.Hour)))

	d.UsageLimitTotal = intPtr(100)
	d.UsageTotal = 100
	assert.False(t, d.IsCurrentlyValid(now))

	d.UsageTotal = 99
	assert.True(t, d.IsCurrentlyValid(now))
}

func TestCalculatePercentageDiscount(t *testing.T) {
	now := time.Now()
	d := activeDiscount(DiscountTypePercentage, 10)

	got := d.CalculateDiscount(decimal.NewFromInt(1000), now)
	assert.True(t, got.Equal(decimal.NewFromInt(100)), "discount = %s", got)

	d.MaxDiscount = decPtr("50")
	got = d.CalculateDiscount(decimal.NewFromInt(1000), now)
	assert.True(t, got.Equal(decimal.NewFromInt(50)), "capped discount = %s", got)
}

func TestCalculateFixedDiscountClamped(t *testing.T) {
	now := time.Now()
	d := activeDiscount(DiscountTypeFixed, 500)

	got := d.CalculateDiscount(decimal.NewFromInt(1000), now)
	assert.True(t, got.Equal(decimal.NewFromInt(500)))

	// A fixed discount never exceeds the order value.
	got = d.CalculateDiscount(decimal.NewFromInt(300), now)
	assert.True(t, got.Equal(decimal.NewFromInt(300)), "clamped discount = %s", got)
}

func TestCalculateDiscountInvalidRule(t *testing.T) {
	now := time.Now()

	expired := activeDiscount(DiscountTypePercentage, 10)
	expired.EndDate = now.Add(-time.Hour)
	assert.True(t, expired.CalculateDiscount(decimal.NewFromInt(1000), now).IsZero())

	shipping := activeDiscount(DiscountTypeFreeShipping, 0)
	assert.True(t, shipping.CalculateDiscount(decimal.NewFromInt(1000), now).IsZero())
	assert.True(t, shipping.WaivesShipping())

	bxgy := activeDiscount(DiscountTypeBuyXGetY, 0)
	assert.True(t, bxgy.CalculateDiscount(decimal.NewFromInt(1000), now).IsZero())
}

func TestMeetsOrderValueBounds(t *testing.T) {
	d := activeDiscount(DiscountTypePercentage, 10)
	d.MinOrderValue = decPtr("500")
	d.MaxOrderValue = decPtr("5000")

	assert.ErrorIs(t, d.MeetsOrderValueBounds(decimal.NewFromInt(499)), ErrMinOrderNotMet)
	assert.NoError(t, d.MeetsOrderValueBounds(decimal.NewFromInt(500)))
	assert.NoError(t, d.MeetsOrderValueBounds(decimal.NewFromInt(5000)))
	assert.ErrorIs(t, d.MeetsOrderValueBounds(decimal.NewFromInt(5001)), ErrMaxOrderExceeded)
}

func checkoutWith(items ...CheckoutItem) CheckoutContext {
	return CheckoutContext{
		CustomerID:   uuid.New(),
		CustomerTier: string(TierBronze),
		State:        "Maharashtra",
		Pincode:      "400001",
		Items:        items,
	}
}

func TestEvaluateConditionsTier(t *testing.T) {
	now := time.Now()
	d := activeDiscount(DiscountTypePercentage, 10)
	d.Conditions.ApplicableTiers = pq.StringArray{string(TierGold), string(TierPlatinum)}

	checkout := checkoutWith()
	assert.ErrorIs(t, d.EvaluateConditions(checkout, now), ErrTierNotEligible)

	checkout.CustomerTier = string(TierGold)
	assert.NoError(t, d.EvaluateConditions(checkout, now))
}

func TestEvaluateConditionsNewCustomersOnly(t *testing.T) {
	now := time.Now()
	d := activeDiscount(DiscountTypePercentage, 10)
	d.Conditions.NewCustomersOnly = true

	checkout := checkoutWith()
	assert.ErrorIs(t, d.EvaluateConditions(checkout, now), ErrNewCustomersOnly)

	checkout.IsNewCustomer = true
	assert.NoError(t, d.EvaluateConditions(checkout, now))
}

func TestEvaluateConditionsGeography(t *testing.T) {
	now := time.Now()

	d := activeDiscount(DiscountTypePercentage, 10)
	d.Conditions.ApplicableStates = pq.StringArray{"Karnataka"}
	checkout := checkoutWith()
	assert.ErrorIs(t, d.EvaluateConditions(checkout, now), ErrLocationNotEligible)

	d = activeDiscount(DiscountTypePercentage, 10)
	d.Conditions.ExcludeStates = pq.StringArray{"Maharashtra"}
	assert.ErrorIs(t, d.EvaluateConditions(checkout, now), ErrLocationNotEligible)

	d = activeDiscount(DiscountTypePercentage, 10)
	d.Conditions.ApplicablePincodes = pq.StringArray{"400001", "400002"}
	assert.NoError(t, d.EvaluateConditions(checkout, now))

	d.Conditions.ExcludePincodes = pq.StringArray{"400001"}
	assert.ErrorIs(t, d.EvaluateConditions(checkout, now), ErrLocationNotEligible)
}

func TestEvaluateConditionsSchedule(t *testing.T) {
	d := activeDiscount(DiscountTypePercentage, 10)
	d.StartDate = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	d.EndDate = time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	d.Conditions.ValidDays = pq.Int64Array{int64(time.Saturday), int64(time.Sunday)}
	d.Conditions.ValidHoursStart = intPtr(10)
	d.Conditions.ValidHoursEnd = intPtr(18)

	checkout := checkoutWith()

	// Saturday at noon qualifies.
	saturday := time.Date(2026, 6, 6, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Saturday, saturday.Weekday())
	assert.NoError(t, d.EvaluateConditions(checkout, saturday))

	// Wrong day.
	monday := time.Date(2026, 6, 8, 12, 0, 0, 0, time.UTC)
	assert.ErrorIs(t, d.EvaluateConditions(checkout, monday), ErrNotValidNow)

	// Right day, hour outside the window. The end hour is exclusive.
	assert.ErrorIs(t, d.EvaluateConditions(checkout, saturday.Add(6*time.Hour)), ErrNotValidNow)
	assert.ErrorIs(t, d.EvaluateConditions(checkout, time.Date(2026, 6, 6, 9, 59, 0, 0, time.UTC)), ErrNotValidNow)
}

func TestEvaluateConditionsCart(t *testing.T) {
	now := time.Now()
	eligible := uuid.New()
	other := uuid.New()

	d := activeDiscount(DiscountTypePercentage, 10)
	d.Conditions.ApplicableProducts = pq.StringArray{eligible.String()}

	// No line matches the include list.
	checkout := checkoutWith(CheckoutItem{ProductID: other, Quantity: 1})
	assert.ErrorIs(t, d.EvaluateConditions(checkout, now), ErrCartNotEligible)

	// One qualifying line is enough.
	checkout = checkoutWith(
		CheckoutItem{ProductID: other, Quantity: 1},
		CheckoutItem{ProductID: eligible, Quantity: 1},
	)
	assert.NoError(t, d.EvaluateConditions(checkout, now))

	// An excluded line cannot be the qualifying one.
	d.Conditions.ExcludeProducts = pq.StringArray{eligible.String()}
	assert.ErrorIs(t, d.EvaluateConditions(checkout, now), ErrCartNotEligible)
}

func TestCalculateBuyXGetY(t *testing.T) {
	buyProduct := uuid.New()
	getProduct := uuid.New()

	d := activeDiscount(DiscountTypeBuyXGetY, 0)
	d.BuyXGetY = &BuyXGetY{
		BuyQuantity: 2,
		GetQuantity: 1,
		BuyProducts: pq.StringArray{buyProduct.String()},
		GetProducts: pq.StringArray{getProduct.String()},
		GetDiscount: decimal.NewFromInt(100),
	}

	// Two buy units earn one fully free get unit.
	items := []CheckoutItem{
		{ProductID: buyProduct, UnitPrice: decimal.NewFromInt(500), Quantity: 2},
		{ProductID: getProduct, UnitPrice: decimal.NewFromInt(200), Quantity: 1},
	}
	got := d.CalculateBuyXGetY(items)
	assert.True(t, got.Equal(decimal.NewFromInt(200)), "discount = %s", got)

	// An incomplete buy set earns nothing.
	items[0].Quantity = 1
	assert.True(t, d.CalculateBuyXGetY(items).IsZero())
}

func TestCalculateBuyXGetYCheapestFirst(t *testing.T) {
	product := uuid.New()

	// No product lists: every unit counts for both sides. Six units at mixed
	// prices, buy 3 get 1 free, so two slots go to the two cheapest units.
	d := activeDiscount(DiscountTypeBuyXGetY, 0)
	d.BuyXGetY = &BuyXGetY{
		BuyQuantity: 3,
		GetQuantity: 1,
		GetDiscount: decimal.NewFromInt(100),
	}

	items := []CheckoutItem{
		{ProductID: product, UnitPrice: decimal.NewFromInt(900), Quantity: 2},
		{ProductID: product, UnitPrice: decimal.NewFromInt(300), Quantity: 2},
		{ProductID: product, UnitPrice: decimal.NewFromInt(600), Quantity: 2},
	}
	got := d.CalculateBuyXGetY(items)
	assert.True(t, got.Equal(decimal.NewFromInt(600)), "discount = %s", got)
}

func TestCalculateBuyXGetYMaxDiscountCap(t *testing.T) {
	product := uuid.New()

	d := activeDiscount(DiscountTypeBuyXGetY, 0)
	d.MaxDiscount = decPtr("150")
	d.BuyXGetY = &BuyXGetY{
		BuyQuantity: 1,
		GetQuantity: 1,
		GetDiscount: decimal.NewFromInt(50),
	}

	items := []CheckoutItem{
		{ProductID: product, UnitPrice: decimal.NewFromInt(400), Quantity: 2},
	}
	got := d.CalculateBuyXGetY(items)
	assert.True(t, got.Equal(decimal.NewFromInt(150)), "capped discount = %s", got)
}
