package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"elysian-backend/internal/config"
	ordermodel "elysian-backend/internal/domains/order/model"
	orderservice "elysian-backend/internal/domains/order/service"
	"elysian-backend/internal/domains/payment/model"
)

// fakeOrders embeds the order service interface; only the payment-facing
// methods are implemented, anything else panics if touched.
type fakeOrders struct {
	orderservice.Service
	confirmed []confirmCall
	failed    []failCall
}

type confirmCall struct {
	orderID       uuid.UUID
	transactionID string
}

type failCall struct {
	orderID uuid.UUID
	reason  string
}

func (f *fakeOrders) ConfirmPayment(ctx context.Context, orderID uuid.UUID, transactionID string, paidAt time.Time) error {
	f.confirmed = append(f.confirmed, confirmCall{orderID: orderID, transactionID: transactionID})
	return nil
}

func (f *fakeOrders) FailPayment(ctx context.Context, orderID uuid.UUID, reason string) error {
	f.failed = append(f.failed, failCall{orderID: orderID, reason: reason})
	return nil
}

type fakeLookup struct {
	orders map[string]*ordermodel.Order
}

func (f *fakeLookup) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*ordermodel.Order, error) {
	o, ok := f.orders[gatewayOrderID]
	if !ok {
		return nil, ordermodel.ErrOrderNotFound
	}
	return o, nil
}

type fakeWebhookRepo struct {
	recorded  []model.WebhookEvent
	processed []uuid.UUID
}

func (f *fakeWebhookRepo) Record(ctx context.Context, event *model.WebhookEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	f.recorded = append(f.recorded, *event)
	return nil
}

func (f *fakeWebhookRepo) MarkProcessed(ctx context.Context, id uuid.UUID, processErr error) error {
	f.processed = append(f.processed, id)
	return nil
}

func (f *fakeWebhookRepo) ListRecent(ctx context.Context, limit int) ([]model.WebhookEvent, error) {
	return f.recorded, nil
}

const (
	testKeySecret     = "key_secret"
	testWebhookSecret = "webhook_secret"
)

func signPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func newTestService(orders *fakeOrders, lookup *fakeLookup, webhooks *fakeWebhookRepo) Service {
	return NewService(orders, lookup, webhooks, config.RazorpayConfig{
		KeyID:         "rzp_test_key",
		KeySecret:     testKeySecret,
		WebhookSecret: testWebhookSecret,
	})
}

func webhookBody(event, gatewayOrderID, paymentID string) []byte {
	return []byte(fmt.Sprintf(
		`{"event":%q,"payload":{"payment":{"entity":{"id":%q,"order_id":%q,"error_description":"card declined"}}}}`,
		event, paymentID, gatewayOrderID,
	))
}

func TestVerifyCheckoutConfirmsOrder(t *testing.T) {
	order := &ordermodel.Order{ID: uuid.New()}
	orders := &fakeOrders{}
	lookup := &fakeLookup{orders: map[string]*ordermodel.Order{"order_Gw1": order}}
	svc := newTestService(orders, lookup, &fakeWebhookRepo{})

	req := model.VerifyPaymentRequest{
		GatewayOrderID:   "order_Gw1",
		GatewayPaymentID: "pay_P1",
	}
	req.Signature = signPayload([]byte("order_Gw1|pay_P1"), testKeySecret)

	err := svc.VerifyCheckout(context.Background(), req)
	assert.NoError(t, err)
	assert.Len(t, orders.confirmed, 1)
	assert.Equal(t, order.ID, orders.confirmed[0].orderID)
	assert.Equal(t, "pay_P1", orders.confirmed[0].transactionID)
}

func TestVerifyCheckoutBadSignature(t *testing.T) {
	orders := &fakeOrders{}
	svc := newTestService(orders, &fakeLookup{orders: map[string]*ordermodel.Order{}}, &fakeWebhookRepo{})

	err := svc.VerifyCheckout(context.Background(), model.VerifyPaymentRequest{
		GatewayOrderID:   "order_Gw1",
		GatewayPaymentID: "pay_P1",
		Signature:        "forged",
	})
	assert.ErrorIs(t, err, model.ErrSignatureMismatch)
	assert.Empty(t, orders.confirmed)
}

func TestHandleWebhookCaptured(t *testing.T) {
	order := &ordermodel.Order{ID: uuid.New()}
	orders := &fakeOrders{}
	lookup := &fakeLookup{orders: map[string]*ordermodel.Order{"order_Gw1": order}}
	webhooks := &fakeWebhookRepo{}
	svc := newTestService(orders, lookup, webhooks)

	body := webhookBody(model.EventPaymentCaptured, "order_Gw1", "pay_P1")
	err := svc.HandleWebhook(context.Background(), body, signPayload(body, testWebhookSecret))

	assert.NoError(t, err)
	assert.Len(t, orders.confirmed, 1)
	assert.Equal(t, order.ID, orders.confirmed[0].orderID)

	// The delivery is recorded and marked processed.
	assert.Len(t, webhooks.recorded, 1)
	assert.Equal(t, model.EventPaymentCaptured, webhooks.recorded[0].EventType)
	assert.Len(t, webhooks.processed, 1)
}

func TestHandleWebhookFailed(t *testing.T) {
	order := &ordermodel.Order{ID: uuid.New()}
	orders := &fakeOrders{}
	lookup := &fakeLookup{orders: map[string]*ordermodel.Order{"order_Gw1": order}}
	svc := newTestService(orders, lookup, &fakeWebhookRepo{})

	body := webhookBody(model.EventPaymentFailed, "order_Gw1", "pay_P1")
	err := svc.HandleWebhook(context.Background(), body, signPayload(body, testWebhookSecret))

	assert.NoError(t, err)
	assert.Empty(t, orders.confirmed)
	assert.Len(t, orders.failed, 1)
	assert.Equal(t, "card declined", orders.failed[0].reason)
}

func TestHandleWebhookBadSignature(t *testing.T) {
	orders := &fakeOrders{}
	webhooks := &fakeWebhookRepo{}
	svc := newTestService(orders, &fakeLookup{orders: map[string]*ordermodel.Order{}}, webhooks)

	body := webhookBody(model.EventPaymentCaptured, "order_Gw1", "pay_P1")
	err := svc.HandleWebhook(context.Background(), body, "forged")

	assert.ErrorIs(t, err, model.ErrSignatureMismatch)
	assert.Empty(t, orders.confirmed)
	// Nothing is recorded for unverified deliveries.
	assert.Empty(t, webhooks.recorded)
}

func TestHandleWebhookUnknownOrder(t *testing.T) {
	orders := &fakeOrders{}
	svc := newTestService(orders, &fakeLookup{orders: map[string]*ordermodel.Order{}}, &fakeWebhookRepo{})

	body := webhookBody(model.EventPaymentCaptured, "order_Missing", "pay_P1")
	err := svc.HandleWebhook(context.Background(), body, signPayload(body, testWebhookSecret))

	assert.ErrorIs(t, err, model.ErrUnknownGatewayRef)
	assert.Empty(t, orders.confirmed)
}

func TestHandleWebhookIgnoredEvent(t *testing.T) {
	order := &ordermodel.Order{ID: uuid.New()}
	orders := &fakeOrders{}
	lookup := &fakeLookup{orders: map[string]*ordermodel.Order{"order_Gw1": order}}
	svc := newTestService(orders, lookup, &fakeWebhookRepo{})

	body := webhookBody("refund.created", "order_Gw1", "pay_P1")
	err := svc.HandleWebhook(context.Background(), body, signPayload(body, testWebhookSecret))

	assert.NoError(t, err)
	assert.Empty(t, orders.confirmed)
	assert.Empty(t, orders.failed)
}
