package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"elysian-backend/internal/domains/discount/model"
	"elysian-backend/internal/domains/discount/service"
	"elysian-backend/internal/shared/response"
	"elysian-backend/internal/shared/utils"
	"elysian-backend/pkg/logger"
)

// AdminHandler exposes discount management to admin users
type AdminHandler struct {
	service service.Service
}

func NewAdminHandler(service service.Service) *AdminHandler {
	return &AdminHandler{service: service}
}

// Create handles POST /api/v1/admin/discounts
func (h *AdminHandler) Create(c *gin.Context) {
	adminID, ok := utils.UserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}

	var req model.CreateDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	discount, err := h.service.Create(c.Request.Context(), adminID, req)
	if err != nil {
		if errors.Is(err, model.ErrDuplicateCode) {
			response.Conflict(c, err.Error())
			return
		}
		logger.Error("failed to create discount", err)
		response.InternalServerError(c)
		return
	}

	response.Success(c, http.StatusCreated, discount)
}

// Update handles PUT /api/v1/admin/discounts/:id
func (h *AdminHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid discount id")
		return
	}

	var req model.UpdateDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	discount, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrDiscountNotFound):
			response.NotFound(c, "Discount not found")
		case errors.Is(err, model.ErrInvalidDateRange):
			response.BadRequest(c, err.Error())
		default:
			logger.Error("failed to update discount", err)
			response.InternalServerError(c)
		}
		return
	}

	response.Success(c, http.StatusOK, discount)
}

// Deactivate handles DELETE /api/v1/admin/discounts/:id. Discounts are never
// hard-deleted; redemption history must survive.
func (h *AdminHandler) Deactivate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid discount id")
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), id); err != nil {
		if errors.Is(err, model.ErrDiscountNotFound) {
			response.NotFound(c, "Discount not found")
			return
		}
		logger.Error("failed to deactivate discount", err)
		response.InternalServerError(c)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deactivated": true})
}

// List handles GET /api/v1/admin/discounts
func (h *AdminHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	discounts, total, err := h.service.List(c.Request.Context(), page, limit)
	if err != nil {
		logger.Error("failed to list discounts", err)
		response.InternalServerError(c)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, discounts, &response.Meta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	})
}

// UsageStats handles GET /api/v1/admin/discounts/:id/stats
func (h *AdminHandler) UsageStats(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid discount id")
		return
	}

	stats, err := h.service.GetUsageStats(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, model.ErrDiscountNotFound) {
			response.NotFound(c, "Discount not found")
			return
		}
		logger.Error("failed to load discount stats", err)
		response.InternalServerError(c)
		return
	}

	response.Success(c, http.StatusOK, stats)
}
