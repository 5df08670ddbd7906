package shared

// Task type names shared between the API (producer) and cmd/worker (consumer).
const (
	TypeCatalogSyncProductStock = "catalog:sync_product_stock"

	QueueCatalog = "catalog"
)

// CatalogSyncPayload asks the worker to recompute a product's aggregate
// total_stock and sold counters from its variants after a stock movement.
type CatalogSyncPayload struct {
	ProductID string `json:"productId"`
	Source    string `json:"source"` // "SALE", "RELEASE", "RESTOCK"
}
