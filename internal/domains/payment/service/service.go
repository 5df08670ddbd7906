package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"elysian-backend/internal/config"
	ordermodel "elysian-backend/internal/domains/order/model"
	orderservice "elysian-backend/internal/domains/order/service"
	"elysian-backend/internal/domains/payment/gateway/razorpay"
	"elysian-backend/internal/domains/payment/model"
	"elysian-backend/internal/domains/payment/repository"
	"elysian-backend/pkg/logger"
)

// OrderLookup is the slice of the order repository the payment flow needs
type OrderLookup interface {
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*ordermodel.Order, error)
}

type Service interface {
	// VerifyCheckout confirms a client-reported payment after validating its
	// signature. Idempotent through the order's pending-payment guard.
	VerifyCheckout(ctx context.Context, req model.VerifyPaymentRequest) error

	// HandleWebhook processes a signature-verified gateway event. body must
	// be the raw request bytes.
	HandleWebhook(ctx context.Context, body []byte, signature string) error

	ListMethods() []model.PaymentMethodInfo
}

type service struct {
	orders   orderservice.Service
	lookup   OrderLookup
	webhooks repository.WebhookRepository
	cfg      config.RazorpayConfig
}

func NewService(
	orders orderservice.Service,
	lookup OrderLookup,
	webhooks repository.WebhookRepository,
	cfg config.RazorpayConfig,
) Service {
	return &service{
		orders:   orders,
		lookup:   lookup,
		webhooks: webhooks,
		cfg:      cfg,
	}
}

func (s *service) VerifyCheckout(ctx context.Context, req model.VerifyPaymentRequest) error {
	if !razorpay.VerifyCheckoutSignature(req.GatewayOrderID, req.GatewayPaymentID, req.Signature, s.cfg.KeySecret) {
		logger.Security("checkout signature mismatch", map[string]interface{}{
			"gateway_order_id": req.GatewayOrderID,
		})
		return model.ErrSignatureMismatch
	}

	order, err := s.lookup.GetByGatewayOrderID(ctx, req.GatewayOrderID)
	if err != nil {
		return model.ErrUnknownGatewayRef
	}

	return s.orders.ConfirmPayment(ctx, order.ID, req.GatewayPaymentID, time.Now())
}

func (s *service) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if !razorpay.VerifyWebhookSignature(body, signature, s.cfg.WebhookSecret) {
		logger.Security("webhook signature mismatch", map[string]interface{}{
			"body_length": len(body),
		})
		return model.ErrSignatureMismatch
	}

	var payload model.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return err
	}
	entity := payload.Payload.Payment.Entity

	event := &model.WebhookEvent{
		EventType: payload.Event,
		GatewayID: entity.ID,
		Payload:   json.RawMessage(body),
	}
	if err := s.webhooks.Record(ctx, event); err != nil {
		// Audit failure must not drop the event; processing continues.
		logger.Error("failed to record webhook event", err)
	}

	processErr := s.process(ctx, payload.Event, entity)
	if event.ID != uuid.Nil {
		if err := s.webhooks.MarkProcessed(ctx, event.ID, processErr); err != nil {
			logger.Error("failed to mark webhook processed", err)
		}
	}
	return processErr
}

func (s *service) process(ctx context.Context, eventType string, entity model.PaymentEntity) error {
	order, err := s.lookup.GetByGatewayOrderID(ctx, entity.OrderID)
	if err != nil {
		return model.ErrUnknownGatewayRef
	}

	switch eventType {
	case model.EventPaymentCaptured, model.EventOrderPaid:
		return s.orders.ConfirmPayment(ctx, order.ID, entity.ID, time.Now())
	case model.EventPaymentFailed:
		reason := entity.ErrorDescription
		if reason == "" {
			reason = entity.ErrorCode
		}
		if reason == "" {
			reason = "payment failed"
		}
		return s.orders.FailPayment(ctx, order.ID, reason)
	}

	logger.Warn("ignoring webhook event", map[string]interface{}{"event": eventType})
	return nil
}

func (s *service) ListMethods() []model.PaymentMethodInfo {
	return []model.PaymentMethodInfo{
		{Method: string(ordermodel.PaymentMethodRazorpay), DisplayName: "Pay online (UPI / Card / Netbanking)", Enabled: s.cfg.KeyID != ""},
		{Method: string(ordermodel.PaymentMethodCOD), DisplayName: "Cash on delivery", Enabled: true},
		{Method: string(ordermodel.PaymentMethodWallet), DisplayName: "Store wallet", Enabled: false},
		{Method: string(ordermodel.PaymentMethodBankTransfer), DisplayName: "Bank transfer", Enabled: false},
	}
}
