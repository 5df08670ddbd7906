package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"elysian-backend/internal/domains/inventory/model"
	"elysian-backend/internal/domains/inventory/service"
	"elysian-backend/internal/shared/response"
	"elysian-backend/internal/shared/utils"
	"elysian-backend/pkg/logger"
)

// Handler exposes admin inventory operations
type Handler struct {
	service service.Service
}

func NewHandler(service service.Service) *Handler {
	return &Handler{service: service}
}

// RestockRequest adds stock to a variant
type RestockRequest struct {
	SKU      string  `json:"sku"`
	Quantity int     `json:"quantity"`
	Reason   *string `json:"reason"`
}

func (r RestockRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.SKU, validation.Required),
		validation.Field(&r.Quantity, validation.Required, validation.Min(1), validation.Max(100000)),
	)
}

// Restock handles POST /api/v1/admin/inventory/restock
func (h *Handler) Restock(c *gin.Context) {
	adminID, ok := utils.UserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}

	var req RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	movement, err := h.service.Restock(c.Request.Context(), req.SKU, req.Quantity, adminID, req.Reason)
	if err != nil {
		if errors.Is(err, model.ErrVariantNotFound) {
			response.NotFound(c, "Variant not found: "+req.SKU)
			return
		}
		logger.Error("failed to restock variant", err)
		response.InternalServerError(c)
		return
	}

	response.Success(c, http.StatusOK, movement)
}

// LowStock handles GET /api/v1/admin/inventory/low-stock
func (h *Handler) LowStock(c *gin.Context) {
	threshold, err := strconv.Atoi(c.DefaultQuery("threshold", "10"))
	if err != nil || threshold < 0 {
		threshold = 10
	}

	variants, err := h.service.ListLowStock(c.Request.Context(), threshold)
	if err != nil {
		logger.Error("failed to list low stock variants", err)
		response.InternalServerError(c)
		return
	}

	response.Success(c, http.StatusOK, variants)
}

// Movements handles GET /api/v1/admin/inventory/movements
func (h *Handler) Movements(c *gin.Context) {
	sku := c.Query("sku")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	movements, total, err := h.service.ListMovements(c.Request.Context(), sku, page, limit)
	if err != nil {
		logger.Error("failed to list inventory movements", err)
		response.InternalServerError(c)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, movements, &response.Meta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	})
}
