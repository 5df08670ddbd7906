package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	catalogmodel "elysian-backend/internal/domains/catalog/model"
	discountmodel "elysian-backend/internal/domains/discount/model"
	inventorymodel "elysian-backend/internal/domains/inventory/model"
	"elysian-backend/internal/domains/order/model"
	"elysian-backend/internal/domains/order/service"
	"elysian-backend/internal/shared/response"
	"elysian-backend/internal/shared/utils"
	"elysian-backend/pkg/logger"
)

type Handler struct {
	service service.Service
}

func NewHandler(service service.Service) *Handler {
	return &Handler{service: service}
}

// Checkout handles POST /api/v1/orders
func (h *Handler) Checkout(c *gin.Context) {
	customerID, ok := utils.UserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}

	var req model.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Checkout(c.Request.Context(), customerID, req)
	if err != nil {
		respondOrderError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, result)
}

// GetOrder handles GET /api/v1/orders/:id
func (h *Handler) GetOrder(c *gin.Context) {
	customerID, ok := utils.UserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid order id")
		return
	}

	order, err := h.service.GetOrder(c.Request.Context(), customerID, orderID)
	if err != nil {
		respondOrderError(c, err)
		return
	}

	response.Success(c, http.StatusOK, order)
}

// ListMyOrders handles GET /api/v1/orders
func (h *Handler) ListMyOrders(c *gin.Context) {
	customerID, ok := utils.UserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 10
	}

	orders, total, err := h.service.ListMyOrders(c.Request.Context(), customerID, page, limit)
	if err != nil {
		logger.Error("failed to list customer orders", err)
		response.InternalServerError(c)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, orders, &response.Meta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	})
}

// ShippingQuote handles GET /api/v1/shipping/quote
func (h *Handler) ShippingQuote(c *gin.Context) {
	subtotal, err := decimal.NewFromString(c.DefaultQuery("subtotal", "0"))
	if err != nil || subtotal.IsNegative() {
		response.BadRequest(c, "Invalid subtotal")
		return
	}

	method := c.DefaultQuery("method", "standard")
	if method != "standard" && method != "express" {
		response.BadRequest(c, "Invalid shipping method")
		return
	}

	response.Success(c, http.StatusOK, h.service.ShippingQuote(method, subtotal))
}

// Cancel handles POST /api/v1/orders/:id/cancel
func (h *Handler) Cancel(c *gin.Context) {
	customerID, ok := utils.UserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid order id")
		return
	}

	var req model.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	order, err := h.service.Cancel(c.Request.Context(), customerID, orderID, req.Reason)
	if err != nil {
		respondOrderError(c, err)
		return
	}

	response.Success(c, http.StatusOK, order)
}

// RequestReturn handles POST /api/v1/orders/:id/return
func (h *Handler) RequestReturn(c *gin.Context) {
	customerID, ok := utils.UserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid order id")
		return
	}

	var req model.ReturnOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	order, err := h.service.RequestReturn(c.Request.Context(), customerID, orderID, req.Reason)
	if err != nil {
		respondOrderError(c, err)
		return
	}

	response.Success(c, http.StatusOK, order)
}

func respondOrderError(c *gin.Context, err error) {
	// Catalog lookups during checkout
	switch {
	case errors.Is(err, catalogmodel.ErrVariantNotFound), errors.Is(err, catalogmodel.ErrProductNotFound):
		response.NotFound(c, "One or more items in your order are unavailable")
		return
	case errors.Is(err, catalogmodel.ErrVariantInactive), errors.Is(err, catalogmodel.ErrProductInactive):
		response.UnprocessableEntity(c, "ITEM_UNAVAILABLE", "One or more items in your order are no longer sold")
		return
	}

	// Stock shortage names the exact line item.
	if ise, ok := inventorymodel.IsInsufficientStock(err); ok {
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "INSUFFICIENT_STOCK", ise.Error(), ise)
		return
	}

	// Discount rejections during checkout
	if discountmodel.IsBusinessError(err) {
		code := discountmodel.ClassifyError(err)
		if code == discountmodel.ErrCodeNotFound {
			response.NotFound(c, err.Error())
			return
		}
		response.UnprocessableEntity(c, string(code), err.Error())
		return
	}

	if model.IsBusinessError(err) {
		switch code := model.ClassifyError(err); code {
		case model.ErrCodeNotFound:
			response.NotFound(c, "Order not found")
		case model.ErrCodeForbidden:
			response.Forbidden(c, "You do not have access to this order")
		case model.ErrCodeUpdateConflict:
			response.Conflict(c, err.Error())
		case model.ErrCodeValidation:
			response.BadRequest(c, err.Error())
		default:
			response.UnprocessableEntity(c, string(code), err.Error())
		}
		return
	}

	logger.Error("order operation failed", err)
	response.InternalServerError(c)
}
