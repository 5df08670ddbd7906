package model

import (
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// DiscountType represents valid discount types
type DiscountType string

const (
	DiscountTypePercentage   DiscountType = "percentage"
	DiscountTypeFixed        DiscountType = "fixed"
	DiscountTypeFreeShipping DiscountType = "free_shipping"
	DiscountTypeBuyXGetY     DiscountType = "buy_x_get_y"
)

func (dt DiscountType) IsValid() bool {
	switch dt {
	case DiscountTypePercentage, DiscountTypeFixed, DiscountTypeFreeShipping, DiscountTypeBuyXGetY:
		return true
	}
	return false
}

func (dt DiscountType) String() string {
	return string(dt)
}

// CustomerTier represents loyalty tiers a discount can target
type CustomerTier string

const (
	TierBronze   CustomerTier = "bronze"
	TierSilver   CustomerTier = "silver"
	TierGold     CustomerTier = "gold"
	TierPlatinum CustomerTier = "platinum"
)

func (t CustomerTier) IsValid() bool {
	switch t {
	case TierBronze, TierSilver, TierGold, TierPlatinum:
		return true
	}
	return false
}

var codePattern = regexp.MustCompile(`^[A-Z0-9]{3,20}$`)

// NormalizeCode uppercases and trims a discount code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsValidCode reports whether a normalized code matches the accepted format.
func IsValidCode(code string) bool {
	return codePattern.MatchString(code)
}

// Discount represents one promotional rule
type Discount struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Code        string    `json:"code" db:"code"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description" db:"description"`

	// Discount configuration
	Type        string           `json:"type" db:"type"`
	Value       decimal.Decimal  `json:"value" db:"value"`
	MaxDiscount *decimal.Decimal `json:"max_discount" db:"max_discount"`

	// Eligibility bounds on cart subtotal
	MinOrderValue *decimal.Decimal `json:"min_order_value" db:"min_order_value"`
	MaxOrderValue *decimal.Decimal `json:"max_order_value" db:"max_order_value"`

	// Usage limits. UsageTotal is the running counter; it is only ever
	// mutated through the repository's guarded increment, never decremented.
	UsageLimitTotal       *int `json:"usage_limit_total" db:"usage_limit_total"`
	UsageLimitPerCustomer int  `json:"usage_limit_per_customer" db:"usage_limit_per_customer"`
	UsageTotal            int  `json:"usage_total" db:"usage_total"`

	// Validity window
	StartDate time.Time `json:"start_date" db:"start_date"`
	EndDate   time.Time `json:"end_date" db:"end_date"`

	Conditions Conditions `json:"conditions"`
	BuyXGetY   *BuyXGetY  `json:"buy_x_get_y,omitempty"`

	IsActive    bool `json:"is_active" db:"is_active"`
	IsPublic    bool `json:"is_public" db:"is_public"`
	IsAutoApply bool `json:"is_auto_apply" db:"is_auto_apply"`
	IsStackable bool `json:"is_stackable" db:"is_stackable"`
	Priority    int  `json:"priority" db:"priority"`

	CreatedBy uuid.UUID `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Conditions restrict who can redeem a discount and when
type Conditions struct {
	ApplicableProducts   pq.StringArray `json:"applicable_products" db:"applicable_products"`
	ExcludeProducts      pq.StringArray `json:"exclude_products" db:"exclude_products"`
	ApplicableCategories pq.StringArray `json:"applicable_categories" db:"applicable_categories"`
	ExcludeCategories    pq.StringArray `json:"exclude_categories" db:"exclude_categories"`
	ApplicableCustomers  pq.StringArray `json:"applicable_customers" db:"applicable_customers"`
	ExcludeCustomers     pq.StringArray `json:"exclude_customers" db:"exclude_customers"`
	ApplicableTiers      pq.StringArray `json:"applicable_tiers" db:"applicable_tiers"`
	NewCustomersOnly     bool           `json:"new_customers_only" db:"new_customers_only"`

	// Geographic restrictions
	ApplicableStates   pq.StringArray `json:"applicable_states" db:"applicable_states"`
	ExcludeStates      pq.StringArray `json:"exclude_states" db:"exclude_states"`
	ApplicablePincodes pq.StringArray `json:"applicable_pincodes" db:"applicable_pincodes"`
	ExcludePincodes    pq.StringArray `json:"exclude_pincodes" db:"exclude_pincodes"`

	// Time-of-week restrictions. ValidDays uses 0=Sunday..6=Saturday.
	// ValidHours are inclusive start / exclusive end in the store timezone.
	ValidDays       pq.Int64Array `json:"valid_days" db:"valid_days"`
	ValidHoursStart *int          `json:"valid_hours_start" db:"valid_hours_start"`
	ValidHoursEnd   *int          `json:"valid_hours_end" db:"valid_hours_end"`
}

// BuyXGetY configures a buy-X-get-Y discount: buying BuyQuantity units from
// the buy set discounts GetQuantity units from the get set by GetDiscount%.
type BuyXGetY struct {
	BuyQuantity int             `json:"buy_quantity" db:"buy_quantity"`
	GetQuantity int             `json:"get_quantity" db:"get_quantity"`
	BuyProducts pq.StringArray  `json:"buy_products" db:"buy_products"`
	GetProducts pq.StringArray  `json:"get_products" db:"get_products"`
	GetDiscount decimal.Decimal `json:"get_discount" db:"get_discount"`
}

// IsCurrentlyValid checks the rule's active flag, validity window and the
// total usage cap at a given instant.
func (d *Discount) IsCurrentlyValid(now time.Time) bool {
	if !d.IsActive {
		return false
	}
	if now.Before(d.StartDate) || now.After(d.EndDate) {
		return false
	}
	if d.UsageLimitTotal != nil && d.UsageTotal >= *d.UsageLimitTotal {
		return false
	}
	return true
}

// IsExpired checks if the validity window has passed
func (d *Discount) IsExpired(now time.Time) bool {
	return d.EndDate.Before(now)
}

// DaysRemaining returns whole days until expiry, never negative
func (d *Discount) DaysRemaining(now time.Time) int {
	remaining := d.EndDate.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Hours() / 24))
}

// CalculateDiscount computes the discount amount for an order subtotal.
// Returns zero when the rule is not currently valid. free_shipping and
// buy_x_get_y yield zero here; shipping waiver is applied by the pricing
// calculator and buy_x_get_y needs cart line items (see CalculateBuyXGetY).
func (d *Discount) CalculateDiscount(orderValue decimal.Decimal, now time.Time) decimal.Decimal {
	if !d.IsCurrentlyValid(now) {
		return decimal.Zero
	}

	var discount decimal.Decimal

	switch DiscountType(d.Type) {
	case DiscountTypePercentage:
		discount = orderValue.Mul(d.Value).Div(decimal.NewFromInt(100))
		if d.MaxDiscount != nil && discount.GreaterThan(*d.MaxDiscount) {
			discount = *d.MaxDiscount
		}
	case DiscountTypeFixed:
		discount = d.Value
		if discount.GreaterThan(orderValue) {
			discount = orderValue
		}
	case DiscountTypeFreeShipping, DiscountTypeBuyXGetY:
		return decimal.Zero
	}

	if discount.IsNegative() {
		return decimal.Zero
	}
	return discount
}

// MeetsOrderValueBounds checks the min/max subtotal eligibility bounds
func (d *Discount) MeetsOrderValueBounds(orderValue decimal.Decimal) error {
	if d.MinOrderValue != nil && orderValue.LessThan(*d.MinOrderValue) {
		return ErrMinOrderNotMet
	}
	if d.MaxOrderValue != nil && orderValue.GreaterThan(*d.MaxOrderValue) {
		return ErrMaxOrderExceeded
	}
	return nil
}

// WaivesShipping reports whether applying this discount removes shipping cost
func (d *Discount) WaivesShipping() bool {
	return DiscountType(d.Type) == DiscountTypeFreeShipping
}

func contains(list pq.StringArray, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

// CheckoutContext carries the customer and cart facts condition evaluation
// needs. The caller assembles it; this package never reaches into other
// domains' stores.
type CheckoutContext struct {
	CustomerID    uuid.UUID
	CustomerTier  string
	IsNewCustomer bool
	State         string
	Pincode       string
	Items         []CheckoutItem
}

// CheckoutItem is one cart line for condition and buy_x_get_y evaluation
type CheckoutItem struct {
	ProductID  uuid.UUID
	CategoryID uuid.UUID
	SKU        string
	UnitPrice  decimal.Decimal
	Quantity   int
}

// EvaluateConditions checks every restriction the rule carries against the
// checkout context. Returns nil when the customer and cart qualify.
func (d *Discount) EvaluateConditions(checkout CheckoutContext, now time.Time) error {
	c := d.Conditions
	customerID := checkout.CustomerID.String()

	if len(c.ApplicableCustomers) > 0 && !contains(c.ApplicableCustomers, customerID) {
		return ErrNotEligible
	}
	if contains(c.ExcludeCustomers, customerID) {
		return ErrNotEligible
	}
	if len(c.ApplicableTiers) > 0 && !contains(c.ApplicableTiers, checkout.CustomerTier) {
		return ErrTierNotEligible
	}
	if c.NewCustomersOnly && !checkout.IsNewCustomer {
		return ErrNewCustomersOnly
	}

	if len(c.ApplicableStates) > 0 && !contains(c.ApplicableStates, checkout.State) {
		return ErrLocationNotEligible
	}
	if contains(c.ExcludeStates, checkout.State) {
		return ErrLocationNotEligible
	}
	if len(c.ApplicablePincodes) > 0 && !contains(c.ApplicablePincodes, checkout.Pincode) {
		return ErrLocationNotEligible
	}
	if contains(c.ExcludePincodes, checkout.Pincode) {
		return ErrLocationNotEligible
	}

	if len(c.ValidDays) > 0 {
		day := int64(now.Weekday())
		ok := false
		for _, d := range c.ValidDays {
			if d == day {
				ok = true
				break
			}
		}
		if !ok {
			return ErrNotValidNow
		}
	}
	if c.ValidHoursStart != nil && c.ValidHoursEnd != nil {
		hour := now.Hour()
		if hour < *c.ValidHoursStart || hour >= *c.ValidHoursEnd {
			return ErrNotValidNow
		}
	}

	if len(c.ApplicableProducts) > 0 || len(c.ExcludeProducts) > 0 ||
		len(c.ApplicableCategories) > 0 || len(c.ExcludeCategories) > 0 {
		if !d.cartQualifies(checkout.Items) {
			return ErrCartNotEligible
		}
	}

	return nil
}

// cartQualifies requires at least one line item that passes the product and
// category include/exclude lists.
func (d *Discount) cartQualifies(items []CheckoutItem) bool {
	c := d.Conditions
	for _, item := range items {
		productID := item.ProductID.String()
		categoryID := item.CategoryID.String()

		if contains(c.ExcludeProducts, productID) || contains(c.ExcludeCategories, categoryID) {
			continue
		}
		if len(c.ApplicableProducts) > 0 && !contains(c.ApplicableProducts, productID) {
			continue
		}
		if len(c.ApplicableCategories) > 0 && !contains(c.ApplicableCategories, categoryID) {
			continue
		}
		return true
	}
	return false
}

// CalculateBuyXGetY computes the buy_x_get_y discount from cart line items.
// Complete buy sets earn free-unit slots; the cheapest eligible get-set units
// fill the slots and each is discounted by GetDiscount percent.
func (d *Discount) CalculateBuyXGetY(items []CheckoutItem) decimal.Decimal {
	if d.BuyXGetY == nil || d.BuyXGetY.BuyQuantity <= 0 || d.BuyXGetY.GetQuantity <= 0 {
		return decimal.Zero
	}
	cfg := d.BuyXGetY

	buyUnits := 0
	var getUnitPrices []decimal.Decimal
	for _, item := range items {
		productID := item.ProductID.String()
		if len(cfg.BuyProducts) == 0 || contains(cfg.BuyProducts, productID) {
			buyUnits += item.Quantity
		}
		if len(cfg.GetProducts) == 0 || contains(cfg.GetProducts, productID) {
			for i := 0; i < item.Quantity; i++ {
				getUnitPrices = append(getUnitPrices, item.UnitPrice)
			}
		}
	}

	sets := buyUnits / cfg.BuyQuantity
	if sets == 0 {
		return decimal.Zero
	}

	slots := sets * cfg.GetQuantity
	if slots > len(getUnitPrices) {
		slots = len(getUnitPrices)
	}

	// Discount the cheapest eligible units first.
	for i := 0; i < len(getUnitPrices); i++ {
		for j := i + 1; j < len(getUnitPrices); j++ {
			if getUnitPrices[j].LessThan(getUnitPrices[i]) {
				getUnitPrices[i], getUnitPrices[j] = getUnitPrices[j], getUnitPrices[i]
			}
		}
	}

	total := decimal.Zero
	for i := 0; i < slots; i++ {
		total = total.Add(getUnitPrices[i].Mul(cfg.GetDiscount).Div(decimal.NewFromInt(100)))
	}

	if d.MaxDiscount != nil && total.GreaterThan(*d.MaxDiscount) {
		total = *d.MaxDiscount
	}
	return total
}
