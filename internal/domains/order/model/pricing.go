package model

import (
	"github.com/shopspring/decimal"
)

// TaxConfig drives the GST split. Intra-state orders split the rate evenly
// into CGST and SGST; inter-state orders charge the full rate as IGST.
type TaxConfig struct {
	GSTRatePercent decimal.Decimal
	StoreState     string
}

// PricingInput carries everything priceOrder needs; nothing is fetched from
// live catalog data.
type PricingInput struct {
	Items          []PricingItem
	ShippingCost   decimal.Decimal
	DiscountAmount decimal.Decimal
	FreeShipping   bool
	DeliveryState  string
	Tax            TaxConfig
}

// PricingItem is one line with its snapshotted unit price
type PricingItem struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// PricingResult is the full computed breakdown persisted onto the order
type PricingResult struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	ShippingCost   decimal.Decimal `json:"shipping_cost"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	CGST           decimal.Decimal `json:"cgst"`
	SGST           decimal.Decimal `json:"sgst"`
	IGST           decimal.Decimal `json:"igst"`
	TotalTax       decimal.Decimal `json:"total_tax"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
}

var two = decimal.NewFromInt(2)
var hundred = decimal.NewFromInt(100)

// PriceOrder computes the order total from snapshotted components. All
// arithmetic is decimal; repeated calls on identical inputs yield identical
// results. GST applies to the discounted subtotal; shipping is not taxed.
func PriceOrder(in PricingInput) PricingResult {
	subtotal := decimal.Zero
	for _, item := range in.Items {
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	shipping := in.ShippingCost
	if in.FreeShipping {
		shipping = decimal.Zero
	}

	// The discount can never exceed what it discounts.
	discount := in.DiscountAmount
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(subtotal.Add(shipping)) {
		discount = subtotal.Add(shipping)
	}

	taxable := subtotal.Sub(discount)
	if taxable.IsNegative() {
		taxable = decimal.Zero
	}

	totalTax := taxable.Mul(in.Tax.GSTRatePercent).Div(hundred).Round(2)

	var cgst, sgst, igst decimal.Decimal
	if in.DeliveryState == in.Tax.StoreState {
		cgst = totalTax.Div(two).Round(2)
		sgst = totalTax.Sub(cgst)
	} else {
		igst = totalTax
	}

	total := subtotal.Add(shipping).Sub(discount).Add(totalTax)

	return PricingResult{
		Subtotal:       subtotal,
		ShippingCost:   shipping,
		DiscountAmount: discount,
		CGST:           cgst,
		SGST:           sgst,
		IGST:           igst,
		TotalTax:       totalTax,
		TotalAmount:    total,
	}
}
