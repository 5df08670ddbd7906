package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func testTax() TaxConfig {
	return TaxConfig{
		GSTRatePercent: decimal.NewFromInt(18),
		StoreState:     "Maharashtra",
	}
}

func TestPriceOrderInterState(t *testing.T) {
	result := PriceOrder(PricingInput{
		Items: []PricingItem{
			{UnitPrice: decimal.NewFromInt(500), Quantity: 2},
		},
		ShippingCost:   decimal.NewFromInt(99),
		DiscountAmount: decimal.NewFromInt(100),
		DeliveryState:  "Karnataka",
		Tax:            testTax(),
	})

	assert.True(t, result.Subtotal.Equal(decimal.NewFromInt(1000)), "subtotal = %s", result.Subtotal)
	assert.True(t, result.TotalTax.Equal(decimal.NewFromInt(162)), "tax = %s", result.TotalTax)
	assert.True(t, result.IGST.Equal(decimal.NewFromInt(162)))
	assert.True(t, result.CGST.IsZero())
	assert.True(t, result.SGST.IsZero())
	assert.True(t, result.TotalAmount.Equal(decimal.NewFromInt(1161)), "total = %s", result.TotalAmount)
}

func TestPriceOrderIntraStateSplit(t *testing.T) {
	result := PriceOrder(PricingInput{
		Items: []PricingItem{
			{UnitPrice: decimal.NewFromInt(500), Quantity: 2},
		},
		ShippingCost:   decimal.NewFromInt(99),
		DiscountAmount: decimal.NewFromInt(100),
		DeliveryState:  "Maharashtra",
		Tax:            testTax(),
	})

	assert.True(t, result.CGST.Equal(decimal.NewFromInt(81)), "cgst = %s", result.CGST)
	assert.True(t, result.SGST.Equal(decimal.NewFromInt(81)), "sgst = %s", result.SGST)
	assert.True(t, result.IGST.IsZero())
	// The halves always recompose the full tax, even with rounding.
	assert.True(t, result.CGST.Add(result.SGST).Equal(result.TotalTax))
	assert.True(t, result.TotalAmount.Equal(decimal.NewFromInt(1161)))
}

func TestPriceOrderIntraStateOddTax(t *testing.T) {
	// Taxable 555 yields 99.90 tax; the split must not lose a paisa.
	result := PriceOrder(PricingInput{
		Items: []PricingItem{
			{UnitPrice: decimal.NewFromInt(555), Quantity: 1},
		},
		DeliveryState: "Maharashtra",
		Tax:           testTax(),
	})

	assert.True(t, result.TotalTax.Equal(decimal.RequireFromString("99.90")), "tax = %s", result.TotalTax)
	assert.True(t, result.CGST.Add(result.SGST).Equal(result.TotalTax))
}

func TestPriceOrderShippingNotTaxed(t *testing.T) {
	withShipping := PriceOrder(PricingInput{
		Items:         []PricingItem{{UnitPrice: decimal.NewFromInt(100), Quantity: 1}},
		ShippingCost:  decimal.NewFromInt(99),
		DeliveryState: "Karnataka",
		Tax:           testTax(),
	})
	withoutShipping := PriceOrder(PricingInput{
		Items:         []PricingItem{{UnitPrice: decimal.NewFromInt(100), Quantity: 1}},
		DeliveryState: "Karnataka",
		Tax:           testTax(),
	})

	assert.True(t, withShipping.TotalTax.Equal(withoutShipping.TotalTax))
	assert.True(t, withShipping.TotalAmount.Equal(withoutShipping.TotalAmount.Add(decimal.NewFromInt(99))))
}

func TestPriceOrderFreeShipping(t *testing.T) {
	result := PriceOrder(PricingInput{
		Items:         []PricingItem{{UnitPrice: decimal.NewFromInt(100), Quantity: 1}},
		ShippingCost:  decimal.NewFromInt(99),
		FreeShipping:  true,
		DeliveryState: "Karnataka",
		Tax:           testTax(),
	})

	assert.True(t, result.ShippingCost.IsZero())
	assert.True(t, result.TotalAmount.Equal(decimal.NewFromInt(118)), "total = %s", result.TotalAmount)
}

func TestPriceOrderDiscountClamped(t *testing.T) {
	result := PriceOrder(PricingInput{
		Items:          []PricingItem{{UnitPrice: decimal.NewFromInt(100), Quantity: 1}},
		ShippingCost:   decimal.NewFromInt(50),
		DiscountAmount: decimal.NewFromInt(500),
		DeliveryState:  "Karnataka",
		Tax:            testTax(),
	})

	assert.True(t, result.DiscountAmount.Equal(decimal.NewFromInt(150)), "discount = %s", result.DiscountAmount)
	assert.True(t, result.TotalTax.IsZero())
	assert.True(t, result.TotalAmount.IsZero(), "total = %s", result.TotalAmount)
}

func TestPriceOrderNegativeDiscountIgnored(t *testing.T) {
	result := PriceOrder(PricingInput{
		Items:          []PricingItem{{UnitPrice: decimal.NewFromInt(100), Quantity: 1}},
		DiscountAmount: decimal.NewFromInt(-25),
		DeliveryState:  "Karnataka",
		Tax:            testTax(),
	})

	assert.True(t, result.DiscountAmount.IsZero())
	assert.True(t, result.TotalAmount.Equal(decimal.NewFromInt(118)))
}

func TestPriceOrderDeterministic(t *testing.T) {
	input := PricingInput{
		Items: []PricingItem{
			{UnitPrice: decimal.RequireFromString("349.99"), Quantity: 3},
			{UnitPrice: decimal.RequireFromString("1250.50"), Quantity: 1},
		},
		ShippingCost:   decimal.NewFromInt(99),
		DiscountAmount: decimal.RequireFromString("137.42"),
		DeliveryState:  "Maharashtra",
		Tax:            testTax(),
	}

	first := PriceOrder(input)
	second := PriceOrder(input)

	assert.True(t, first.TotalAmount.Equal(second.TotalAmount))
	assert.True(t, first.TotalTax.Equal(second.TotalTax))
	assert.True(t, first.CGST.Equal(second.CGST))
	assert.True(t, first.SGST.Equal(second.SGST))
}
