package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"elysian-backend/internal/domains/order/model"
	"elysian-backend/internal/domains/order/service"
	"elysian-backend/internal/shared/response"
	"elysian-backend/internal/shared/utils"
	"elysian-backend/pkg/logger"
)

// AdminHandler exposes order fulfillment to admin users
type AdminHandler struct {
	service service.Service
}

func NewAdminHandler(service service.Service) *AdminHandler {
	return &AdminHandler{service: service}
}

// List handles GET /api/v1/admin/orders
func (h *AdminHandler) List(c *gin.Context) {
	var q model.ListOrdersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}
	if err := q.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	orders, total, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		logger.Error("failed to list orders", err)
		response.InternalServerError(c)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, orders, &response.Meta{
		Page:       q.Page,
		Limit:      q.Limit,
		Total:      total,
		TotalPages: int((total + int64(q.Limit) - 1) / int64(q.Limit)),
	})
}

// UpdateStatus handles PATCH /api/v1/admin/orders/:id/status
func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	adminID, ok := utils.UserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid order id")
		return
	}

	var req model.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	order, err := h.service.UpdateStatus(c.Request.Context(), adminID, orderID, req)
	if err != nil {
		respondOrderError(c, err)
		return
	}

	response.Success(c, http.StatusOK, order)
}
