package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateDiscountRequest represents admin request to create a discount
type CreateDiscountRequest struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Description *string `json:"description"`

	Type        string   `json:"type"`
	Value       *float64 `json:"value"`
	MaxDiscount *float64 `json:"max_discount"`

	MinOrderValue *float64 `json:"min_order_value"`
	MaxOrderValue *float64 `json:"max_order_value"`

	UsageLimitTotal       *int `json:"usage_limit_total"`
	UsageLimitPerCustomer int  `json:"usage_limit_per_customer"`

	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`

	Conditions ConditionsRequest `json:"conditions"`
	BuyXGetY   *BuyXGetYRequest  `json:"buy_x_get_y"`

	IsPublic    bool `json:"is_public"`
	IsAutoApply bool `json:"is_auto_apply"`
	IsStackable bool `json:"is_stackable"`
	Priority    int  `json:"priority"`
}

// ConditionsRequest mirrors Conditions with plain slices for binding
type ConditionsRequest struct {
	ApplicableProducts   []string `json:"applicable_products"`
	ExcludeProducts      []string `json:"exclude_products"`
	ApplicableCategories []string `json:"applicable_categories"`
	ExcludeCategories    []string `json:"exclude_categories"`
	ApplicableCustomers  []string `json:"applicable_customers"`
	ExcludeCustomers     []string `json:"exclude_customers"`
	ApplicableTiers      []string `json:"applicable_tiers"`
	NewCustomersOnly     bool     `json:"new_customers_only"`
	ApplicableStates     []string `json:"applicable_states"`
	ExcludeStates        []string `json:"exclude_states"`
	ApplicablePincodes   []string `json:"applicable_pincodes"`
	ExcludePincodes      []string `json:"exclude_pincodes"`
	ValidDays            []int64  `json:"valid_days"`
	ValidHoursStart      *int     `json:"valid_hours_start"`
	ValidHoursEnd        *int     `json:"valid_hours_end"`
}

// BuyXGetYRequest configures a buy_x_get_y discount
type BuyXGetYRequest struct {
	BuyQuantity int      `json:"buy_quantity"`
	GetQuantity int      `json:"get_quantity"`
	BuyProducts []string `json:"buy_products"`
	GetProducts []string `json:"get_products"`
	GetDiscount float64  `json:"get_discount"`
}

func (r CreateDiscountRequest) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Code, validation.Required, validation.By(validateCodeFormat)),
		validation.Field(&r.Name, validation.Required, validation.Length(3, 200)),
		validation.Field(&r.Type, validation.Required, validation.By(validateDiscountType)),
		validation.Field(&r.UsageLimitPerCustomer, validation.Min(1)),
		validation.Field(&r.StartDate, validation.Required),
		validation.Field(&r.EndDate, validation.Required),
		validation.Field(&r.Priority, validation.Min(0)),
		validation.Field(&r.Conditions),
	)
	if err != nil {
		return err
	}

	if !r.EndDate.After(r.StartDate) {
		return ErrInvalidDateRange
	}

	switch DiscountType(r.Type) {
	case DiscountTypeFreeShipping:
		// value not required
	case DiscountTypeBuyXGetY:
		if r.BuyXGetY == nil {
			return validation.NewError("validation_buy_x_get_y", "buy_x_get_y configuration is required for this type")
		}
		if err := r.BuyXGetY.Validate(); err != nil {
			return err
		}
	default:
		if r.Value == nil || *r.Value < 0 {
			return validation.NewError("validation_value", "value is required and must be non-negative")
		}
		if DiscountType(r.Type) == DiscountTypePercentage && *r.Value > 100 {
			return validation.NewError("validation_value", "percentage value cannot exceed 100")
		}
	}
	return nil
}

func (c ConditionsRequest) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ApplicableTiers, validation.Each(validation.In("bronze", "silver", "gold", "platinum"))),
		validation.Field(&c.ValidDays, validation.Each(validation.Min(int64(0)), validation.Max(int64(6)))),
		validation.Field(&c.ValidHoursStart, validation.Min(0), validation.Max(23)),
		validation.Field(&c.ValidHoursEnd, validation.Min(1), validation.Max(24)),
	)
}

func (b BuyXGetYRequest) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.BuyQuantity, validation.Required, validation.Min(1)),
		validation.Field(&b.GetQuantity, validation.Required, validation.Min(1)),
		validation.Field(&b.GetDiscount, validation.Required, validation.Min(0.0), validation.Max(100.0)),
	)
}

func validateCodeFormat(value interface{}) error {
	code, _ := value.(string)
	if !IsValidCode(NormalizeCode(code)) {
		return ErrInvalidCodeFormat
	}
	return nil
}

func validateDiscountType(value interface{}) error {
	t, _ := value.(string)
	if !DiscountType(t).IsValid() {
		return ErrInvalidDiscountType
	}
	return nil
}

// UpdateDiscountRequest represents admin request to update a discount.
// The code and type are immutable after creation.
type UpdateDiscountRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`

	Value       *float64 `json:"value"`
	MaxDiscount *float64 `json:"max_discount"`

	MinOrderValue *float64 `json:"min_order_value"`
	MaxOrderValue *float64 `json:"max_order_value"`

	UsageLimitTotal       *int `json:"usage_limit_total"`
	UsageLimitPerCustomer *int `json:"usage_limit_per_customer"`

	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`

	Conditions *ConditionsRequest `json:"conditions"`

	IsActive    *bool `json:"is_active"`
	IsPublic    *bool `json:"is_public"`
	IsAutoApply *bool `json:"is_auto_apply"`
	Priority    *int  `json:"priority"`
}

func (r UpdateDiscountRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Length(3, 200)),
		validation.Field(&r.UsageLimitPerCustomer, validation.Min(1)),
		validation.Field(&r.Priority, validation.Min(0)),
	)
}

// ApplyDiscountRequest represents customer request to preview a code against
// the current cart before checkout
type ApplyDiscountRequest struct {
	Code    string             `json:"code"`
	Items   []ApplyItemRequest `json:"items"`
	State   string             `json:"state"`
	Pincode string             `json:"pincode"`
}

// ApplyItemRequest is one cart line in an apply/preview request
type ApplyItemRequest struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

func (r ApplyDiscountRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Code, validation.Required, validation.By(validateCodeFormat)),
		validation.Field(&r.Items, validation.Required, validation.Length(1, 50)),
	)
}

func (i ApplyItemRequest) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.SKU, validation.Required),
		validation.Field(&i.Quantity, validation.Required, validation.Min(1), validation.Max(50)),
	)
}

// Application is the outcome of evaluating a discount against a cart
type Application struct {
	DiscountID    uuid.UUID       `json:"discount_id"`
	Code          string          `json:"code"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	FreeShipping  bool            `json:"free_shipping"`
}

// DiscountResponse represents a discount for public listing
type DiscountResponse struct {
	ID            uuid.UUID        `json:"id"`
	Code          string           `json:"code"`
	Name          string           `json:"name"`
	Description   *string          `json:"description,omitempty"`
	Type          string           `json:"type"`
	Value         decimal.Decimal  `json:"value"`
	MaxDiscount   *decimal.Decimal `json:"max_discount,omitempty"`
	MinOrderValue *decimal.Decimal `json:"min_order_value,omitempty"`
	EndDate       time.Time        `json:"end_date"`
	DaysRemaining int              `json:"days_remaining"`
}

// AdminDiscountResponse includes usage counters and flags for admin views
type AdminDiscountResponse struct {
	DiscountResponse
	UsageLimitTotal       *int      `json:"usage_limit_total,omitempty"`
	UsageLimitPerCustomer int       `json:"usage_limit_per_customer"`
	UsageTotal            int       `json:"usage_total"`
	StartDate             time.Time `json:"start_date"`
	IsActive              bool      `json:"is_active"`
	IsPublic              bool      `json:"is_public"`
	IsAutoApply           bool      `json:"is_auto_apply"`
	Priority              int       `json:"priority"`
	CreatedAt             time.Time `json:"created_at"`
}

// ToResponse converts Discount to DiscountResponse
func (d *Discount) ToResponse(now time.Time) *DiscountResponse {
	return &DiscountResponse{
		ID:            d.ID,
		Code:          d.Code,
		Name:          d.Name,
		Description:   d.Description,
		Type:          d.Type,
		Value:         d.Value,
		MaxDiscount:   d.MaxDiscount,
		MinOrderValue: d.MinOrderValue,
		EndDate:       d.EndDate,
		DaysRemaining: d.DaysRemaining(now),
	}
}

// ToAdminResponse converts Discount to AdminDiscountResponse
func (d *Discount) ToAdminResponse(now time.Time) *AdminDiscountResponse {
	return &AdminDiscountResponse{
		DiscountResponse:      *d.ToResponse(now),
		UsageLimitTotal:       d.UsageLimitTotal,
		UsageLimitPerCustomer: d.UsageLimitPerCustomer,
		UsageTotal:            d.UsageTotal,
		StartDate:             d.StartDate,
		IsActive:              d.IsActive,
		IsPublic:              d.IsPublic,
		IsAutoApply:           d.IsAutoApply,
		Priority:              d.Priority,
		CreatedAt:             d.CreatedAt,
	}
}
