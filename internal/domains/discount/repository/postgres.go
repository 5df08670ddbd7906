package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"elysian-backend/internal/domains/discount/model"
	"elysian-backend/pkg/cache"
	"elysian-backend/pkg/logger"
)

const (
	publicDiscountsCacheKey = "discount:public_active"
	publicDiscountsCacheTTL = 5 * time.Minute
)

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

const discountColumns = `
	id, code, name, description, type, value, max_discount,
	min_order_value, max_order_value,
	usage_limit_total, usage_limit_per_customer, usage_total,
	start_date, end_date,
	applicable_products, exclude_products,
	applicable_categories, exclude_categories,
	applicable_customers, exclude_customers,
	applicable_tiers, new_customers_only,
	applicable_states, exclude_states,
	applicable_pincodes, exclude_pincodes,
	valid_days, valid_hours_start, valid_hours_end,
	buy_quantity, get_quantity, buy_products, get_products, get_discount,
	is_active, is_public, is_auto_apply, is_stackable, priority,
	created_by, created_at, updated_at`

func (r *postgresRepository) FindByCode(ctx context.Context, code string) (*model.Discount, error) {
	query := fmt.Sprintf(`SELECT %s FROM discounts WHERE code = $1`, discountColumns)
	d, err := scanDiscount(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, model.ErrDiscountNotFound
		}
		return nil, fmt.Errorf("find discount by code: %w", err)
	}
	return d, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Discount, error) {
	query := fmt.Sprintf(`SELECT %s FROM discounts WHERE id = $1`, discountColumns)
	d, err := scanDiscount(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, model.ErrDiscountNotFound
		}
		return nil, fmt.Errorf("get discount by id: %w", err)
	}
	return d, nil
}

func (r *postgresRepository) ListPublicActive(ctx context.Context, now time.Time) ([]model.Discount, error) {
	var cached []model.Discount
	if found, err := r.cache.Get(ctx, publicDiscountsCacheKey, &cached); err == nil && found {
		return cached, nil
	}

	query := fmt.Sprintf(`
		SELECT %s FROM discounts
		WHERE is_public = true AND is_active = true
		  AND start_date <= $1 AND end_date >= $1
		  AND (usage_limit_total IS NULL OR usage_total < usage_limit_total)
		ORDER BY priority DESC, end_date ASC`, discountColumns)

	discounts, err := r.queryDiscounts(ctx, query, now)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, publicDiscountsCacheKey, discounts, publicDiscountsCacheTTL); err != nil {
		logger.Warn("failed to cache public discounts", nil)
	}
	return discounts, nil
}

func (r *postgresRepository) ListAutoApply(ctx context.Context, now time.Time) ([]model.Discount, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM discounts
		WHERE is_auto_apply = true AND is_active = true
		  AND start_date <= $1 AND end_date >= $1
		  AND (usage_limit_total IS NULL OR usage_total < usage_limit_total)
		ORDER BY priority DESC, created_at ASC`, discountColumns)

	return r.queryDiscounts(ctx, query, now)
}

func (r *postgresRepository) List(ctx context.Context, page, limit int) ([]model.Discount, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM discounts`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count discounts: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM discounts ORDER BY created_at DESC LIMIT $1 OFFSET $2`, discountColumns)
	discounts, err := r.queryDiscounts(ctx, query, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	return discounts, total, nil
}

func (r *postgresRepository) Create(ctx context.Context, d *model.Discount) error {
	query := `
		INSERT INTO discounts (
			id, code, name, description, type, value, max_discount,
			min_order_value, max_order_value,
			usage_limit_total, usage_limit_per_customer, usage_total,
			start_date, end_date,
			applicable_products, exclude_products,
			applicable_categories, exclude_categories,
			applicable_customers, exclude_customers,
			applicable_tiers, new_customers_only,
			applicable_states, exclude_states,
			applicable_pincodes, exclude_pincodes,
			valid_days, valid_hours_start, valid_hours_end,
			buy_quantity, get_quantity, buy_products, get_products, get_discount,
			is_active, is_public, is_auto_apply, is_stackable, priority,
			created_by, created_at, updated_at
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,
			$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,
			$27,$28,$29,$30,$31,$32,$33,$34,$35,$36,$37,$38,$39,$40,
			NOW(), NOW()
		)`

	var buyQty, getQty *int
	var buyProducts, getProducts interface{}
	var getDiscount interface{}
	if d.BuyXGetY != nil {
		buyQty = &d.BuyXGetY.BuyQuantity
		getQty = &d.BuyXGetY.GetQuantity
		buyProducts = d.BuyXGetY.BuyProducts
		getProducts = d.BuyXGetY.GetProducts
		getDiscount = d.BuyXGetY.GetDiscount
	}

	c := d.Conditions
	_, err := r.pool.Exec(ctx, query,
		d.ID, d.Code, d.Name, d.Description, d.Type, d.Value, d.MaxDiscount,
		d.MinOrderValue, d.MaxOrderValue,
		d.UsageLimitTotal, d.UsageLimitPerCustomer, d.UsageTotal,
		d.StartDate, d.EndDate,
		c.ApplicableProducts, c.ExcludeProducts,
		c.ApplicableCategories, c.ExcludeCategories,
		c.ApplicableCustomers, c.ExcludeCustomers,
		c.ApplicableTiers, c.NewCustomersOnly,
		c.ApplicableStates, c.ExcludeStates,
		c.ApplicablePincodes, c.ExcludePincodes,
		c.ValidDays, c.ValidHoursStart, c.ValidHoursEnd,
		buyQty, getQty, buyProducts, getProducts, getDiscount,
		d.IsActive, d.IsPublic, d.IsAutoApply, d.IsStackable, d.Priority,
		d.CreatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return model.ErrDuplicateCode
		}
		return fmt.Errorf("create discount: %w", err)
	}

	r.invalidatePublicCache(ctx)
	return nil
}

func (r *postgresRepository) Update(ctx context.Context, d *model.Discount) error {
	query := `
		UPDATE discounts SET
			name = $2, description = $3, value = $4, max_discount = $5,
			min_order_value = $6, max_order_value = $7,
			usage_limit_total = $8, usage_limit_per_customer = $9,
			start_date = $10, end_date = $11,
			applicable_products = $12, exclude_products = $13,
			applicable_categories = $14, exclude_categories = $15,
			applicable_customers = $16, exclude_customers = $17,
			applicable_tiers = $18, new_customers_only = $19,
			applicable_states = $20, exclude_states = $21,
			applicable_pincodes = $22, exclude_pincodes = $23,
			valid_days = $24, valid_hours_start = $25, valid_hours_end = $26,
			is_active = $27, is_public = $28, is_auto_apply = $29, priority = $30,
			updated_at = NOW()
		WHERE id = $1`

	c := d.Conditions
	tag, err := r.pool.Exec(ctx, query,
		d.ID, d.Name, d.Description, d.Value, d.MaxDiscount,
		d.MinOrderValue, d.MaxOrderValue,
		d.UsageLimitTotal, d.UsageLimitPerCustomer,
		d.StartDate, d.EndDate,
		c.ApplicableProducts, c.ExcludeProducts,
		c.ApplicableCategories, c.ExcludeCategories,
		c.ApplicableCustomers, c.ExcludeCustomers,
		c.ApplicableTiers, c.NewCustomersOnly,
		c.ApplicableStates, c.ExcludeStates,
		c.ApplicablePincodes, c.ExcludePincodes,
		c.ValidDays, c.ValidHoursStart, c.ValidHoursEnd,
		d.IsActive, d.IsPublic, d.IsAutoApply, d.Priority,
	)
	if err != nil {
		return fmt.Errorf("update discount: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrDiscountNotFound
	}

	r.invalidatePublicCache(ctx)
	return nil
}

func (r *postgresRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE discounts SET is_active = false, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate discount: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrDiscountNotFound
	}

	r.invalidatePublicCache(ctx)
	return nil
}

func (r *postgresRepository) GetCustomerUsage(ctx context.Context, discountID, customerID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(count, 0) FROM discount_usages WHERE discount_id = $1 AND customer_id = $2`,
		discountID, customerID,
	).Scan(&count)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("get customer usage: %w", err)
	}
	return count, nil
}

// IncrementUsageTx applies both counters with the limit guards expressed in
// the writes themselves. A zero-rows result means a concurrent redemption won
// the race past a limit; the caller rolls back the order transaction.
func (r *postgresRepository) IncrementUsageTx(ctx context.Context, tx pgx.Tx, d *model.Discount, customerID uuid.UUID, now time.Time) error {
	tag, err := tx.Exec(ctx, `
		UPDATE discounts
		SET usage_total = usage_total + 1, updated_at = NOW()
		WHERE id = $1
		  AND (usage_limit_total IS NULL OR usage_total < usage_limit_total)`,
		d.ID,
	)
	if err != nil {
		return fmt.Errorf("increment usage total: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUsageLimitReached
	}

	tag, err = tx.Exec(ctx, `
		INSERT INTO discount_usages (discount_id, customer_id, count, last_used_at)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (discount_id, customer_id) DO UPDATE
		SET count = discount_usages.count + 1, last_used_at = $3
		WHERE discount_usages.count < $4`,
		d.ID, customerID, now, d.UsageLimitPerCustomer,
	)
	if err != nil {
		return fmt.Errorf("increment customer usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrCustomerLimitReached
	}

	return nil
}

func (r *postgresRepository) GetUsageStats(ctx context.Context, discountID uuid.UUID) (*UsageStats, error) {
	stats := &UsageStats{DiscountID: discountID}
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(count), 0), COUNT(*), MAX(last_used_at)
		FROM discount_usages
		WHERE discount_id = $1`,
		discountID,
	).Scan(&stats.TotalUses, &stats.UniqueCustomers, &stats.LastUsedAt)
	if err != nil {
		return nil, fmt.Errorf("get usage stats: %w", err)
	}
	return stats, nil
}

func (r *postgresRepository) queryDiscounts(ctx context.Context, query string, args ...interface{}) ([]model.Discount, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query discounts: %w", err)
	}
	defer rows.Close()

	discounts := make([]model.Discount, 0)
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan discount: %w", err)
		}
		discounts = append(discounts, *d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return discounts, nil
}

func scanDiscount(row pgx.Row) (*model.Discount, error) {
	var d model.Discount
	var buyQty, getQty *int
	var getDiscount *decimal.Decimal
	var bxgy model.BuyXGetY

	err := row.Scan(
		&d.ID, &d.Code, &d.Name, &d.Description, &d.Type, &d.Value, &d.MaxDiscount,
		&d.MinOrderValue, &d.MaxOrderValue,
		&d.UsageLimitTotal, &d.UsageLimitPerCustomer, &d.UsageTotal,
		&d.StartDate, &d.EndDate,
		&d.Conditions.ApplicableProducts, &d.Conditions.ExcludeProducts,
		&d.Conditions.ApplicableCategories, &d.Conditions.ExcludeCategories,
		&d.Conditions.ApplicableCustomers, &d.Conditions.ExcludeCustomers,
		&d.Conditions.ApplicableTiers, &d.Conditions.NewCustomersOnly,
		&d.Conditions.ApplicableStates, &d.Conditions.ExcludeStates,
		&d.Conditions.ApplicablePincodes, &d.Conditions.ExcludePincodes,
		&d.Conditions.ValidDays, &d.Conditions.ValidHoursStart, &d.Conditions.ValidHoursEnd,
		&buyQty, &getQty, &bxgy.BuyProducts, &bxgy.GetProducts, &getDiscount,
		&d.IsActive, &d.IsPublic, &d.IsAutoApply, &d.IsStackable, &d.Priority,
		&d.CreatedBy, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if buyQty != nil && getQty != nil {
		bxgy.BuyQuantity = *buyQty
		bxgy.GetQuantity = *getQty
		if getDiscount != nil {
			bxgy.GetDiscount = *getDiscount
		}
		d.BuyXGetY = &bxgy
	}
	return &d, nil
}

func (r *postgresRepository) invalidatePublicCache(ctx context.Context) {
	if err := r.cache.Delete(ctx, publicDiscountsCacheKey); err != nil {
		logger.Warn("failed to invalidate public discounts cache", nil)
	}
}
