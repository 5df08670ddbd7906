package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"elysian-backend/internal/domains/catalog/service"
	"elysian-backend/internal/shared"
	"elysian-backend/pkg/logger"
)

// StockSyncHandler recomputes a product's aggregate stock counters after an
// inventory movement. The API enqueues one task per affected product once the
// order transaction commits.
type StockSyncHandler struct {
	catalog service.Service
}

func NewStockSyncHandler(catalog service.Service) *StockSyncHandler {
	return &StockSyncHandler{catalog: catalog}
}

// ProcessTask handles shared.TypeCatalogSyncProductStock.
func (h *StockSyncHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.CatalogSyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Error("StockSync: failed to unmarshal payload", err)
		// A corrupt payload never becomes valid on retry.
		return fmt.Errorf("unmarshal CatalogSync payload: %w", err)
	}

	productID, err := uuid.Parse(payload.ProductID)
	if err != nil {
		logger.Error("StockSync: invalid product id in payload", err)
		return fmt.Errorf("parse CatalogSync product id: %w", err)
	}

	// DB errors are transient; let asynq retry.
	if err := h.catalog.SyncProductAggregates(ctx, productID); err != nil {
		logger.Error("StockSync: aggregate recompute failed", err)
		return err
	}

	logger.Info("StockSync: product aggregates updated", map[string]interface{}{
		"product_id": payload.ProductID,
		"source":     payload.Source,
	})
	return nil
}
