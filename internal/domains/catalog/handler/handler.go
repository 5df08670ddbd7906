package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"elysian-backend/internal/domains/catalog/model"
	"elysian-backend/internal/domains/catalog/service"
	"elysian-backend/internal/shared/response"
	"elysian-backend/pkg/logger"
)

type Handler struct {
	service service.Service
}

func NewHandler(service service.Service) *Handler {
	return &Handler{service: service}
}

// ListProducts handles GET /api/v1/products
func (h *Handler) ListProducts(c *gin.Context) {
	var q model.ListProductsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}
	if err := q.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	products, total, err := h.service.ListProducts(c.Request.Context(), q)
	if err != nil {
		logger.Error("failed to list products", err)
		response.InternalServerError(c)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, products, &response.Meta{
		Page:       q.Page,
		Limit:      q.Limit,
		Total:      total,
		TotalPages: int((total + int64(q.Limit) - 1) / int64(q.Limit)),
	})
}

// GetProduct handles GET /api/v1/products/:slug
func (h *Handler) GetProduct(c *gin.Context) {
	slug := c.Param("slug")
	if slug == "" {
		response.BadRequest(c, "Product slug is required")
		return
	}

	product, err := h.service.GetProduct(c.Request.Context(), slug)
	if err != nil {
		if errors.Is(err, model.ErrProductNotFound) {
			response.NotFound(c, "Product not found")
			return
		}
		logger.Error("failed to get product", err)
		response.InternalServerError(c)
		return
	}

	response.Success(c, http.StatusOK, product)
}
