package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	catalogmodel "elysian-backend/internal/domains/catalog/model"
	"elysian-backend/internal/domains/discount/model"
	"elysian-backend/internal/domains/discount/service"
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

// ListPublic handles GET /api/v1/discounts
func (h *Handler) ListPublic(c *gin.Context) {
	discounts, err := h.service.ListPublic(c.Request.Context())
	if err != nil {
		logger.Error("failed to list public discounts", err)
		response.InternalServerError(c)
		return
	}
	response.Success(c, http.StatusOK, discounts)
}

// Preview handles POST /api/v1/discounts/apply — evaluates a code against
// the customer's cart without redeeming it.
func (h *Handler) Preview(c *gin.Context) {
	customerID, ok := utils.UserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}

	var req model.ApplyDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	application, err := h.service.Preview(c.Request.Context(), customerID, req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, application)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	if errors.Is(err, catalogmodel.ErrVariantNotFound) {
		response.NotFound(c, "One or more items in your cart are unavailable")
		return
	}
	if model.IsBusinessError(err) {
		code := model.ClassifyError(err)
		if code == model.ErrCodeNotFound {
			response.NotFound(c, err.Error())
			return
		}
		response.UnprocessableEntity(c, string(code), err.Error())
		return
	}

	logger.Error("discount evaluation failed", err)
	response.InternalServerError(c)
}
