package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod represents valid payment methods
type PaymentMethod string

const (
	PaymentMethodRazorpay     PaymentMethod = "razorpay"
	PaymentMethodCOD          PaymentMethod = "cod"
	PaymentMethodWallet       PaymentMethod = "wallet"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
)

func (pm PaymentMethod) IsValid() bool {
	switch pm {
	case PaymentMethodRazorpay, PaymentMethodCOD, PaymentMethodWallet, PaymentMethodBankTransfer:
		return true
	}
	return false
}

func (pm PaymentMethod) String() string {
	return string(pm)
}

// PaymentStatus represents payment status, tracked independently of order
// status
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
	PaymentStatusRefunded   PaymentStatus = "refunded"
)

func (ps PaymentStatus) IsValid() bool {
	switch ps {
	case PaymentStatusPending, PaymentStatusProcessing, PaymentStatusCompleted,
		PaymentStatusFailed, PaymentStatusCancelled, PaymentStatusRefunded:
		return true
	}
	return false
}

func (ps PaymentStatus) String() string {
	return string(ps)
}

// OrderStatus represents order fulfillment status
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusProcessing     OrderStatus = "processing"
	OrderStatusPacked         OrderStatus = "packed"
	OrderStatusShipped        OrderStatus = "shipped"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
	OrderStatusReturned       OrderStatus = "returned"
	OrderStatusRefunded       OrderStatus = "refunded"
)

func (os OrderStatus) IsValid() bool {
	switch os {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusPacked, OrderStatusShipped, OrderStatusOutForDelivery,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusReturned,
		OrderStatusRefunded:
		return true
	}
	return false
}

func (os OrderStatus) String() string {
	return string(os)
}

// allowedTransitions is the fulfillment state machine. Cancellation from
// pre-delivery states is handled by CanTransitionTo via CanCancelFrom so the
// map stays the forward path plus returns.
var allowedTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:        {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:      {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing:     {OrderStatusPacked},
	OrderStatusPacked:         {OrderStatusShipped},
	OrderStatusShipped:        {OrderStatusOutForDelivery},
	OrderStatusOutForDelivery: {OrderStatusDelivered},
	OrderStatusDelivered:      {OrderStatusReturned},
	OrderStatusReturned:       {OrderStatusRefunded},
}

// CanTransitionTo reports whether the status policy allows moving from the
// current status to the target.
func (os OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, allowed := range allowedTransitions[os] {
		if allowed == target {
			return true
		}
	}
	return false
}

// CanCancelFrom reports whether an order in this status may still be
// cancelled by the customer.
func (os OrderStatus) CanCancelFrom() bool {
	return os == OrderStatusPending || os == OrderStatusConfirmed
}

// IsTerminal reports whether no further transition is expected. Delivered is
// terminal unless a return is requested within the window.
func (os OrderStatus) IsTerminal() bool {
	switch os {
	case OrderStatusCancelled, OrderStatusRefunded, OrderStatusDelivered:
		return true
	}
	return false
}

// ReturnWindow is how long after delivery a return may be requested.
const ReturnWindow = 7 * 24 * time.Hour

// Order represents a customer order with payment and fulfillment tracking
type Order struct {
	ID          uuid.UUID `json:"id" db:"id"`
	OrderNumber string    `json:"order_number" db:"order_number"`
	CustomerID  uuid.UUID `json:"customer_id" db:"customer_id"`

	// Pricing snapshot. TotalAmount is always recomputed from components
	// before persisting, never patched in isolation.
	Subtotal       decimal.Decimal `json:"subtotal" db:"subtotal"`
	ShippingCost   decimal.Decimal `json:"shipping_cost" db:"shipping_cost"`
	DiscountAmount decimal.Decimal `json:"discount_amount" db:"discount_amount"`
	DiscountCode   *string         `json:"discount_code" db:"discount_code"`
	DiscountType   *string         `json:"discount_type" db:"discount_type"`
	DiscountID     *uuid.UUID      `json:"discount_id" db:"discount_id"`
	CGST           decimal.Decimal `json:"cgst" db:"cgst"`
	SGST           decimal.Decimal `json:"sgst" db:"sgst"`
	IGST           decimal.Decimal `json:"igst" db:"igst"`
	TotalTax       decimal.Decimal `json:"total_tax" db:"total_tax"`
	TotalAmount    decimal.Decimal `json:"total_amount" db:"total_amount"`

	// Payment
	PaymentMethod   string     `json:"payment_method" db:"payment_method"`
	PaymentStatus   string     `json:"payment_status" db:"payment_status"`
	GatewayOrderID  *string    `json:"gateway_order_id" db:"gateway_order_id"`
	TransactionID   *string    `json:"transaction_id" db:"transaction_id"`
	PaidAt          *time.Time `json:"paid_at" db:"paid_at"`
	FailureReason   *string    `json:"failure_reason" db:"failure_reason"`

	// Status
	Status  string `json:"status" db:"status"`
	Version int    `json:"version" db:"version"`

	// Shipping
	ShippingMethod string     `json:"shipping_method" db:"shipping_method"`
	DeliveredAt    *time.Time `json:"delivered_at" db:"delivered_at"`

	// Return
	ReturnRequestedAt *time.Time `json:"return_requested_at" db:"return_requested_at"`
	ReturnReason      *string    `json:"return_reason" db:"return_reason"`

	// Notes
	CustomerNote       *string `json:"customer_note" db:"customer_note"`
	CancellationReason *string `json:"cancellation_reason" db:"cancellation_reason"`

	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	CancelledAt *time.Time `json:"cancelled_at" db:"cancelled_at"`

	Address Address     `json:"shipping_address" db:"-"`
	Items   []OrderItem `json:"items,omitempty" db:"-"`
	History []StatusHistory `json:"status_history,omitempty" db:"-"`
}

// OrderItem is a line item snapshotting variant identity and price at time
// of order. Unit prices are never re-read from the catalog after placement.
type OrderItem struct {
	ID      uuid.UUID `json:"id" db:"id"`
	OrderID uuid.UUID `json:"order_id" db:"order_id"`

	ProductID   uuid.UUID `json:"product_id" db:"product_id"`
	ProductName string    `json:"product_name" db:"product_name"`
	VariantID   uuid.UUID `json:"variant_id" db:"variant_id"`
	VariantSize string    `json:"variant_size" db:"variant_size"`
	SKU         string    `json:"sku" db:"sku"`

	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`
	Quantity  int             `json:"quantity" db:"quantity"`
	LineTotal decimal.Decimal `json:"line_total" db:"line_total"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// StatusHistory is an append-only record of one status transition
type StatusHistory struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	OrderID   uuid.UUID  `json:"order_id" db:"order_id"`
	Status    string     `json:"status" db:"status"`
	Note      *string    `json:"note" db:"note"`
	UpdatedBy *uuid.UUID `json:"updated_by" db:"updated_by"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// Address is the delivery address snapshotted onto the order
type Address struct {
	Name    string `json:"name" db:"address_name"`
	Phone   string `json:"phone" db:"address_phone"`
	Line1   string `json:"line1" db:"address_line1"`
	Line2   string `json:"line2" db:"address_line2"`
	City    string `json:"city" db:"address_city"`
	State   string `json:"state" db:"address_state"`
	Pincode string `json:"pincode" db:"address_pincode"`
}

// CanCancel reports whether the customer may still cancel
func (o *Order) CanCancel() bool {
	return OrderStatus(o.Status).CanCancelFrom()
}

// CanReturn reports whether a return may be requested at the given instant
func (o *Order) CanReturn(now time.Time) bool {
	if OrderStatus(o.Status) != OrderStatusDelivered || o.DeliveredAt == nil {
		return false
	}
	return now.Sub(*o.DeliveredAt) <= ReturnWindow
}

// IsPaid reports whether payment has been captured
func (o *Order) IsPaid() bool {
	return PaymentStatus(o.PaymentStatus) == PaymentStatusCompleted
}

// OrderAge returns whole days since the order was created
func (o *Order) OrderAge(now time.Time) int {
	age := now.Sub(o.CreatedAt)
	if age < 0 {
		return 0
	}
	return int(age.Hours() / 24)
}

// ReservesStockAtCheckout reports whether this payment method reserves stock
// immediately. Online methods defer reservation to payment capture.
func (pm PaymentMethod) ReservesStockAtCheckout() bool {
	return pm == PaymentMethodCOD
}
