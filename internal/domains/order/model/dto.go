package model

import (
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var pincodePattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)
var phonePattern = regexp.MustCompile(`^[6-9][0-9]{9}$`)

// CheckoutRequest represents the customer's checkout submission
type CheckoutRequest struct {
	Items           []CheckoutItemRequest `json:"items"`
	ShippingAddress AddressRequest        `json:"shipping_address"`
	PaymentMethod   string                `json:"payment_method"`
	ShippingMethod  string                `json:"shipping_method"`
	DiscountCode    *string               `json:"discount_code"`
	CustomerNote    *string               `json:"customer_note"`
}

// CheckoutItemRequest is one cart line at checkout
type CheckoutItemRequest struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

// AddressRequest is the delivery address submitted at checkout
type AddressRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Line1   string `json:"line1"`
	Line2   string `json:"line2"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
}

func (r CheckoutRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Items, validation.Required, validation.Length(1, 50)),
		validation.Field(&r.ShippingAddress, validation.Required),
		validation.Field(&r.PaymentMethod, validation.Required, validation.By(validatePaymentMethod)),
		validation.Field(&r.ShippingMethod, validation.In("", "standard", "express")),
		validation.Field(&r.CustomerNote, validation.Length(0, 500)),
	)
}

func (i CheckoutItemRequest) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.SKU, validation.Required, validation.Length(1, 64)),
		validation.Field(&i.Quantity, validation.Required, validation.Min(1), validation.Max(50)),
	)
}

func (a AddressRequest) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&a.Phone, validation.Required, validation.Match(phonePattern)),
		validation.Field(&a.Line1, validation.Required, validation.Length(3, 200)),
		validation.Field(&a.Line2, validation.Length(0, 200)),
		validation.Field(&a.City, validation.Required, validation.Length(2, 100)),
		validation.Field(&a.State, validation.Required, validation.Length(2, 50)),
		validation.Field(&a.Pincode, validation.Required, validation.Match(pincodePattern)),
	)
}

func validatePaymentMethod(value interface{}) error {
	m, _ := value.(string)
	if !PaymentMethod(m).IsValid() {
		return ErrInvalidPaymentMethod
	}
	return nil
}

// ToAddress converts the request to the snapshot stored on the order
func (a AddressRequest) ToAddress() Address {
	return Address{
		Name:    a.Name,
		Phone:   a.Phone,
		Line1:   a.Line1,
		Line2:   a.Line2,
		City:    a.City,
		State:   a.State,
		Pincode: a.Pincode,
	}
}

// CancelOrderRequest represents a customer cancellation
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

func (r CancelOrderRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Reason, validation.Required, validation.Length(5, 500)),
	)
}

// ReturnOrderRequest represents a customer return request
type ReturnOrderRequest struct {
	Reason string `json:"reason"`
}

func (r ReturnOrderRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Reason, validation.Required, validation.Length(5, 500)),
	)
}

// UpdateStatusRequest represents an admin fulfillment update
type UpdateStatusRequest struct {
	Status string  `json:"status"`
	Note   *string `json:"note"`
}

func (r UpdateStatusRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.Required, validation.By(validateOrderStatus)),
		validation.Field(&r.Note, validation.Length(0, 1000)),
	)
}

func validateOrderStatus(value interface{}) error {
	s, _ := value.(string)
	if !OrderStatus(s).IsValid() {
		return ErrInvalidStatus
	}
	return nil
}

// ListOrdersQuery filters admin order listings
type ListOrdersQuery struct {
	Status        *string `form:"status"`
	PaymentStatus *string `form:"payment_status"`
	Page          int     `form:"page"`
	Limit         int     `form:"limit"`
}

func (q *ListOrdersQuery) Validate() error {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 20
	}
	if q.Status != nil && *q.Status != "" && !OrderStatus(*q.Status).IsValid() {
		return ErrInvalidStatus
	}
	return nil
}

// ShippingQuote is the shipping cost for a prospective order, quoted before
// checkout so the cart can show it.
type ShippingQuote struct {
	Method                string          `json:"method"`
	Cost                  decimal.Decimal `json:"cost"`
	FreeShipping          bool            `json:"free_shipping"`
	FreeShippingThreshold decimal.Decimal `json:"free_shipping_threshold"`
}

// CheckoutResponse is returned after a successful checkout. For online
// payment methods the gateway order id and key drive the client-side payment
// flow; COD orders are confirmed immediately.
type CheckoutResponse struct {
	Order          *OrderResponse `json:"order"`
	GatewayOrderID *string        `json:"gateway_order_id,omitempty"`
	GatewayKeyID   *string        `json:"gateway_key_id,omitempty"`
	AmountDue      *int64         `json:"amount_due,omitempty"`
	Currency       string         `json:"currency,omitempty"`
}

// OrderResponse represents a full order for API responses
type OrderResponse struct {
	ID          uuid.UUID `json:"id"`
	OrderNumber string    `json:"order_number"`

	Subtotal       decimal.Decimal `json:"subtotal"`
	ShippingCost   decimal.Decimal `json:"shipping_cost"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	DiscountCode   *string         `json:"discount_code,omitempty"`
	CGST           decimal.Decimal `json:"cgst"`
	SGST           decimal.Decimal `json:"sgst"`
	IGST           decimal.Decimal `json:"igst"`
	TotalTax       decimal.Decimal `json:"total_tax"`
	TotalAmount    decimal.Decimal `json:"total_amount"`

	PaymentMethod string     `json:"payment_method"`
	PaymentStatus string     `json:"payment_status"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`

	Status      string     `json:"status"`
	CanCancel   bool       `json:"can_cancel"`
	CanReturn   bool       `json:"can_return"`
	IsPaid      bool       `json:"is_paid"`
	OrderAge    int        `json:"order_age_days"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`

	ShippingMethod  string          `json:"shipping_method"`
	ShippingAddress Address         `json:"shipping_address"`
	Items           []OrderItem     `json:"items"`
	History         []StatusHistory `json:"status_history,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// ToResponse converts Order to OrderResponse, computing the derived flags at
// read time.
func (o *Order) ToResponse(now time.Time) *OrderResponse {
	return &OrderResponse{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,

		Subtotal:       o.Subtotal,
		ShippingCost:   o.ShippingCost,
		DiscountAmount: o.DiscountAmount,
		DiscountCode:   o.DiscountCode,
		CGST:           o.CGST,
		SGST:           o.SGST,
		IGST:           o.IGST,
		TotalTax:       o.TotalTax,
		TotalAmount:    o.TotalAmount,

		PaymentMethod: o.PaymentMethod,
		PaymentStatus: o.PaymentStatus,
		PaidAt:        o.PaidAt,

		Status:      o.Status,
		CanCancel:   o.CanCancel(),
		CanReturn:   o.CanReturn(now),
		IsPaid:      o.IsPaid(),
		OrderAge:    o.OrderAge(now),
		DeliveredAt: o.DeliveredAt,

		ShippingMethod:  o.ShippingMethod,
		ShippingAddress: o.Address,
		Items:           o.Items,
		History:         o.History,

		CreatedAt: o.CreatedAt,
	}
}
