package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"elysian-backend/internal/domains/catalog/model"
	"elysian-backend/pkg/cache"
	"elysian-backend/pkg/logger"
)

const productCacheTTL = 10 * time.Minute

type postgresRepository struct {
	pool  *pgxpool.Pool
	cache cache.Cache
}

func NewPostgresRepository(pool *pgxpool.Pool, cache cache.Cache) Repository {
	return &postgresRepository{
		pool:  pool,
		cache: cache,
	}
}

const productColumns = `
	p.id, p.name, p.slug, p.description, p.brand, p.category_id,
	p.fragrance_family, p.concentration, p.gender,
	p.top_notes, p.heart_notes, p.base_notes,
	p.total_stock, p.sold, p.is_active, p.created_at, p.updated_at`

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products p WHERE p.id = $1`, productColumns)

	product, err := r.scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, model.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product by id: %w", err)
	}

	if err := r.loadVariants(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (r *postgresRepository) GetBySlug(ctx context.Context, slug string) (*model.Product, error) {
	cacheKey := "catalog:product:" + slug

	var cached model.Product
	if found, err := r.cache.Get(ctx, cacheKey, &cached); err == nil && found {
		return &cached, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM products p WHERE p.slug = $1 AND p.is_active = true`, productColumns)

	product, err := r.scanProduct(r.pool.QueryRow(ctx, query, slug))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, model.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product by slug: %w", err)
	}

	if err := r.loadVariants(ctx, product); err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, cacheKey, product, productCacheTTL); err != nil {
		logger.Warn("failed to cache product", map[string]interface{}{"slug": slug})
	}
	return product, nil
}

func (r *postgresRepository) List(ctx context.Context, q model.ListProductsQuery) ([]model.Product, int64, error) {
	conditions := []string{"p.is_active = true"}
	args := []interface{}{}
	argIndex := 1

	if q.Search != nil && *q.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(p.name ILIKE $%d OR p.brand ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+*q.Search+"%")
		argIndex++
	}
	if q.CategoryID != nil && *q.CategoryID != "" {
		conditions = append(conditions, fmt.Sprintf("p.category_id = $%d", argIndex))
		args = append(args, *q.CategoryID)
		argIndex++
	}
	if q.FragranceFamily != nil && *q.FragranceFamily != "" {
		conditions = append(conditions, fmt.Sprintf("p.fragrance_family = $%d", argIndex))
		args = append(args, *q.FragranceFamily)
		argIndex++
	}
	if q.Gender != nil && *q.Gender != "" {
		conditions = append(conditions, fmt.Sprintf("p.gender = $%d", argIndex))
		args = append(args, *q.Gender)
		argIndex++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int64
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM products p WHERE %s`, whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	orderBy := "p.created_at DESC"
	switch q.Sort {
	case "price_asc":
		orderBy = "min_price ASC"
	case "price_desc":
		orderBy = "min_price DESC"
	case "sold_desc":
		orderBy = "p.sold DESC"
	}

	query := fmt.Sprintf(`
		SELECT %s, COALESCE((SELECT MIN(v.price) FROM product_variants v WHERE v.product_id = p.id AND v.is_active = true), 0) AS min_price
		FROM products p
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		productColumns, whereClause, orderBy, argIndex, argIndex+1)

	args = append(args, q.Limit, (q.Page-1)*q.Limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]model.Product, 0, q.Limit)
	ids := make([]uuid.UUID, 0, q.Limit)
	for rows.Next() {
		var p model.Product
		var minPrice interface{}
		err := rows.Scan(
			&p.ID, &p.Name, &p.Slug, &p.Description, &p.Brand, &p.CategoryID,
			&p.FragranceFamily, &p.Concentration, &p.Gender,
			&p.TopNotes, &p.HeartNotes, &p.BaseNotes,
			&p.TotalStock, &p.Sold, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
			&minPrice,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
		ids = append(ids, p.ID)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}

	if len(ids) > 0 {
		if err := r.loadVariantsBatch(ctx, products, ids); err != nil {
			return nil, 0, err
		}
	}

	return products, total, nil
}

func (r *postgresRepository) GetCheckoutVariantsBySKUs(ctx context.Context, skus []string) (map[string]model.CheckoutVariant, error) {
	return r.checkoutVariants(ctx, r.pool, skus)
}

func (r *postgresRepository) GetCheckoutVariantsBySKUsTx(ctx context.Context, tx pgx.Tx, skus []string) (map[string]model.CheckoutVariant, error) {
	return r.checkoutVariants(ctx, tx, skus)
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

func (r *postgresRepository) checkoutVariants(ctx context.Context, q queryer, skus []string) (map[string]model.CheckoutVariant, error) {
	query := `
		SELECT p.id, p.name, p.category_id,
		       v.id, v.size, v.sku, v.price, v.stock,
		       (p.is_active AND v.is_active) AS is_active
		FROM product_variants v
		JOIN products p ON p.id = v.product_id
		WHERE v.sku = ANY($1)`

	rows, err := q.Query(ctx, query, pq.StringArray(skus))
	if err != nil {
		return nil, fmt.Errorf("load checkout variants: %w", err)
	}
	defer rows.Close()

	result := make(map[string]model.CheckoutVariant, len(skus))
	for rows.Next() {
		var cv model.CheckoutVariant
		err := rows.Scan(
			&cv.ProductID, &cv.ProductName, &cv.CategoryID,
			&cv.VariantID, &cv.Size, &cv.SKU, &cv.Price, &cv.Stock,
			&cv.IsActive,
		)
		if err != nil {
			return nil, fmt.Errorf("scan checkout variant: %w", err)
		}
		result[cv.SKU] = cv
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

func (r *postgresRepository) SyncProductAggregates(ctx context.Context, productID uuid.UUID) error {
	// Variant stock and movement history are summed independently; joining
	// them row-to-row would repeat each variant's stock once per movement.
	var activeStock, saleQty, releasedQty int
	err := r.pool.QueryRow(ctx, `
		SELECT s.active_stock, m.sale_qty, m.released_qty
		FROM (
			SELECT COALESCE(SUM(stock) FILTER (WHERE is_active), 0) AS active_stock
			FROM product_variants
			WHERE product_id = $1
		) s, (
			SELECT
				COALESCE(SUM(m.quantity) FILTER (WHERE m.movement_type = 'SALE'), 0) AS sale_qty,
				COALESCE(SUM(m.quantity) FILTER (WHERE m.movement_type = 'RELEASE'), 0) AS released_qty
			FROM inventory_movements m
			JOIN product_variants v ON v.sku = m.sku
			WHERE v.product_id = $1
		) m`,
		productID,
	).Scan(&activeStock, &saleQty, &releasedQty)
	if err != nil {
		return fmt.Errorf("sum product aggregates: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		UPDATE products
		SET total_stock = $2, sold = $3, updated_at = NOW()
		WHERE id = $1`,
		productID, activeStock, model.NetSold(saleQty, releasedQty),
	)
	if err != nil {
		return fmt.Errorf("sync product aggregates: %w", err)
	}

	// Product pages cache by slug; drop any cached copy of this product.
	var slug string
	if err := r.pool.QueryRow(ctx, `SELECT slug FROM products WHERE id = $1`, productID).Scan(&slug); err == nil {
		if err := r.cache.Delete(ctx, "catalog:product:"+slug); err != nil {
			logger.Warn("failed to invalidate product cache", map[string]interface{}{"slug": slug})
		}
	}
	return nil
}

func (r *postgresRepository) scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.Brand, &p.CategoryID,
		&p.FragranceFamily, &p.Concentration, &p.Gender,
		&p.TopNotes, &p.HeartNotes, &p.BaseNotes,
		&p.TotalStock, &p.Sold, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const variantColumns = `id, product_id, size, sku, price, original_price, stock, weight_grams, is_active, version, updated_at`

func (r *postgresRepository) loadVariants(ctx context.Context, product *model.Product) error {
	query := fmt.Sprintf(`SELECT %s FROM product_variants WHERE product_id = $1 ORDER BY price ASC`, variantColumns)

	rows, err := r.pool.Query(ctx, query, product.ID)
	if err != nil {
		return fmt.Errorf("load variants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v model.Variant
		err := rows.Scan(
			&v.ID, &v.ProductID, &v.Size, &v.SKU, &v.Price, &v.OriginalPrice,
			&v.Stock, &v.WeightGrams, &v.IsActive, &v.Version, &v.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("scan variant: %w", err)
		}
		product.Variants = append(product.Variants, v)
	}
	return rows.Err()
}

func (r *postgresRepository) loadVariantsBatch(ctx context.Context, products []model.Product, ids []uuid.UUID) error {
	query := fmt.Sprintf(`SELECT %s FROM product_variants WHERE product_id = ANY($1) ORDER BY price ASC`, variantColumns)

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("load variants batch: %w", err)
	}
	defer rows.Close()

	byProduct := make(map[uuid.UUID][]model.Variant)
	for rows.Next() {
		var v model.Variant
		err := rows.Scan(
			&v.ID, &v.ProductID, &v.Size, &v.SKU, &v.Price, &v.OriginalPrice,
			&v.Stock, &v.WeightGrams, &v.IsActive, &v.Version, &v.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("scan variant: %w", err)
		}
		byProduct[v.ProductID] = append(byProduct[v.ProductID], v)
	}
	if err = rows.Err(); err != nil {
		return err
	}

	for i := range products {
		products[i].Variants = byProduct[products[i].ID]
	}
	return nil
}
