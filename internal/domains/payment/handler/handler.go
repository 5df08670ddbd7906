package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	ordermodel "elysian-backend/internal/domains/order/model"
	"elysian-backend/internal/domains/payment/model"
	"elysian-backend/internal/domains/payment/service"
	"elysian-backend/internal/shared/response"
	"elysian-backend/pkg/logger"
)

const webhookSignatureHeader = "X-Razorpay-Signature"

// webhookBodyLimit caps how much of a webhook request is read.
const webhookBodyLimit = 1 << 20

type Handler struct {
	service service.Service
}

func NewHandler(service service.Service) *Handler {
	return &Handler{service: service}
}

// VerifyCheckout handles POST /api/v1/payments/verify — the client reports a
// completed gateway payment with its signature.
func (h *Handler) VerifyCheckout(c *gin.Context) {
	var req model.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.service.VerifyCheckout(c.Request.Context(), req); err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"verified": true})
}

// Webhook handles POST /api/v1/payments/webhook. The raw body is read before
// any decoding; the signature covers the exact bytes sent.
func (h *Handler) Webhook(c *gin.Context) {
	signature := c.GetHeader(webhookSignatureHeader)
	if signature == "" {
		response.BadRequest(c, "Missing signature header")
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, webhookBodyLimit))
	if err != nil {
		response.BadRequest(c, "Unable to read request body")
		return
	}

	if err := h.service.HandleWebhook(c.Request.Context(), body, signature); err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"received": true})
}

// ListMethods handles GET /api/v1/payments/methods
func (h *Handler) ListMethods(c *gin.Context) {
	response.Success(c, http.StatusOK, h.service.ListMethods())
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrSignatureMismatch):
		// Never retried; the security event was already logged.
		response.ErrorResponse(c, http.StatusUnauthorized, "SIGNATURE_MISMATCH", "Signature verification failed")
	case errors.Is(err, model.ErrUnknownGatewayRef), errors.Is(err, ordermodel.ErrOrderNotFound):
		response.NotFound(c, "No order matches this payment reference")
	default:
		logger.Error("payment processing failed", err)
		response.InternalServerError(c)
	}
}
