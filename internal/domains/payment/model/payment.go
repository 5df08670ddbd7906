package model

import (
	"encoding/json"
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// Webhook event names delivered by the gateway
const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
	EventOrderPaid       = "order.paid"
)

// WebhookEvent is the audit record of every webhook delivery, stored before
// processing so replays and signature failures are traceable.
type WebhookEvent struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	EventType   string          `json:"event_type" db:"event_type"`
	GatewayID   string          `json:"gateway_id" db:"gateway_id"`
	Payload     json.RawMessage `json:"payload" db:"payload"`
	Processed   bool            `json:"processed" db:"processed"`
	ProcessedAt *time.Time      `json:"processed_at" db:"processed_at"`
	Error       *string         `json:"error" db:"error"`
	ReceivedAt  time.Time       `json:"received_at" db:"received_at"`
}

// WebhookPayload mirrors the gateway's event envelope, decoded only after
// signature verification.
type WebhookPayload struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity PaymentEntity `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// PaymentEntity is the payment object inside a webhook event
type PaymentEntity struct {
	ID               string `json:"id"`
	OrderID          string `json:"order_id"`
	Amount           int64  `json:"amount"` // paise
	Currency         string `json:"currency"`
	Status           string `json:"status"`
	Method           string `json:"method"`
	ErrorCode        string `json:"error_code"`
	ErrorDescription string `json:"error_description"`
}

// VerifyPaymentRequest is the client-side confirmation after checkout
type VerifyPaymentRequest struct {
	GatewayOrderID   string `json:"razorpay_order_id"`
	GatewayPaymentID string `json:"razorpay_payment_id"`
	Signature        string `json:"razorpay_signature"`
}

func (r VerifyPaymentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.GatewayOrderID, validation.Required),
		validation.Field(&r.GatewayPaymentID, validation.Required),
		validation.Field(&r.Signature, validation.Required),
	)
}

// PaymentMethodInfo describes one payment option for the storefront
type PaymentMethodInfo struct {
	Method      string `json:"method"`
	DisplayName string `json:"display_name"`
	Enabled     bool   `json:"enabled"`
}

var (
	ErrSignatureMismatch = errors.New("payment signature verification failed")
	ErrUnknownGatewayRef = errors.New("no order matches the gateway reference")
	ErrUnhandledEvent    = errors.New("unhandled webhook event type")
)
