package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyCheckoutSignature(t *testing.T) {
	secret := "test_key_secret"
	signature := sign([]byte("order_Nxy123|pay_Abc456"), secret)

	assert.True(t, VerifyCheckoutSignature("order_Nxy123", "pay_Abc456", signature, secret))
	assert.False(t, VerifyCheckoutSignature("order_Nxy123", "pay_Abc456", signature, "wrong_secret"))
	assert.False(t, VerifyCheckoutSignature("order_Other99", "pay_Abc456", signature, secret))
	assert.False(t, VerifyCheckoutSignature("order_Nxy123", "pay_Abc456", "deadbeef", secret))
}

func TestVerifyWebhookSignature(t *testing.T) {
	secret := "webhook_secret"
	body := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"order_id":"order_Nxy123"}}}}`)
	signature := sign(body, secret)

	assert.True(t, VerifyWebhookSignature(body, signature, secret))
	assert.False(t, VerifyWebhookSignature(body, signature, "other_secret"))

	// Whitespace-normalized JSON is different bytes, so it must not verify.
	reserialized := []byte(`{"event": "payment.captured", "payload": {"payment": {"entity": {"order_id": "order_Nxy123"}}}}`)
	assert.False(t, VerifyWebhookSignature(reserialized, signature, secret))
}

func TestVerifyRejectsEmptySignature(t *testing.T) {
	assert.False(t, VerifyWebhookSignature([]byte("body"), "", "secret"))
}
