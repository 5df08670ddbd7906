package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifyCheckoutSignature checks the signature the client returns after a
// successful checkout. The signed payload is "<gateway order id>|<payment
// id>" keyed with the API key secret.
func VerifyCheckoutSignature(orderID, paymentID, signature, keySecret string) bool {
	return verify([]byte(orderID+"|"+paymentID), signature, keySecret)
}

// VerifyWebhookSignature checks the X-Razorpay-Signature header against the
// raw webhook body keyed with the webhook secret. The body must be the exact
// bytes received; re-serialized JSON will not match.
func VerifyWebhookSignature(body []byte, signature, webhookSecret string) bool {
	return verify(body, signature, webhookSecret)
}

func verify(payload []byte, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
