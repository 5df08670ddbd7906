package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"elysian-backend/internal/domains/order/model"
	"elysian-backend/pkg/database"
	"elysian-backend/pkg/logger"
)

// orderNumberRetries bounds collision retries on the unique constraint.
const orderNumberRetries = 3

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) WithTx(ctx context.Context, fn database.TxFunc) error {
	return database.WithTransaction(ctx, r.pool, fn)
}

const orderColumns = `
	id, order_number, customer_id,
	subtotal, shipping_cost, discount_amount, discount_code, discount_type, discount_id,
	cgst, sgst, igst, total_tax, total_amount,
	payment_method, payment_status, gateway_order_id, transaction_id, paid_at, failure_reason,
	status, version, shipping_method, delivered_at,
	return_requested_at, return_reason,
	customer_note, cancellation_reason,
	address_name, address_phone, address_line1, address_line2, address_city, address_state, address_pincode,
	created_at, updated_at, cancelled_at`

func (r *postgresRepository) CreateOrderTx(ctx context.Context, tx pgx.Tx, o *model.Order) error {
	insert := `
		INSERT INTO orders (
			id, order_number, customer_id,
			subtotal, shipping_cost, discount_amount, discount_code, discount_type, discount_id,
			cgst, sgst, igst, total_tax, total_amount,
			payment_method, payment_status,
			status, version, shipping_method,
			customer_note,
			address_name, address_phone, address_line1, address_line2, address_city, address_state, address_pincode,
			created_at, updated_at
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,
			$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,
			NOW(), NOW()
		)`

	// Each attempt runs under a savepoint (a nested pgx transaction): a
	// unique violation aborts only the savepoint, so the surrounding
	// checkout transaction stays usable for the retry.
	var insertErr error
	for attempt := 0; attempt < orderNumberRetries; attempt++ {
		sp, err := tx.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin order insert savepoint: %w", err)
		}
		_, insertErr = sp.Exec(ctx, insert,
			o.ID, o.OrderNumber, o.CustomerID,
			o.Subtotal, o.ShippingCost, o.DiscountAmount, o.DiscountCode, o.DiscountType, o.DiscountID,
			o.CGST, o.SGST, o.IGST, o.TotalTax, o.TotalAmount,
			o.PaymentMethod, o.PaymentStatus,
			o.Status, o.Version, o.ShippingMethod,
			o.CustomerNote,
			o.Address.Name, o.Address.Phone, o.Address.Line1, o.Address.Line2,
			o.Address.City, o.Address.State, o.Address.Pincode,
		)
		if insertErr == nil {
			if err := sp.Commit(ctx); err != nil {
				return fmt.Errorf("release order insert savepoint: %w", err)
			}
			break
		}
		_ = sp.Rollback(ctx)

		var pgErr *pgconn.PgError
		if errors.As(insertErr, &pgErr) && pgErr.Code == "23505" && strings.Contains(pgErr.ConstraintName, "order_number") {
			logger.Warn("order number collision, regenerating", map[string]interface{}{
				"order_number": o.OrderNumber,
				"attempt":      attempt + 1,
			})
			o.OrderNumber = model.GenerateOrderNumber(time.Now())
			continue
		}
		return fmt.Errorf("insert order: %w", insertErr)
	}
	if insertErr != nil {
		return model.ErrNumberExhausted
	}

	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID
		_, err := tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, product_name, variant_id, variant_size, sku, unit_price, quantity, line_total, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW())`,
			item.ID, item.OrderID, item.ProductID, item.ProductName, item.VariantID,
			item.VariantSize, item.SKU, item.UnitPrice, item.Quantity, item.LineTotal,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	history := &model.StatusHistory{
		ID:      uuid.New(),
		OrderID: o.ID,
		Status:  o.Status,
	}
	return r.AppendHistoryTx(ctx, tx, history)
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *postgresRepository) GetByNumber(ctx context.Context, number string) (*model.Order, error) {
	return r.getOne(ctx, "order_number = $1", number)
}

func (r *postgresRepository) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*model.Order, error) {
	return r.getOne(ctx, "gateway_order_id = $1", gatewayOrderID)
}

func (r *postgresRepository) getOne(ctx context.Context, where string, arg interface{}) (*model.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE %s`, orderColumns, where)

	o, err := scanOrder(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, model.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	if err := r.loadItems(ctx, o); err != nil {
		return nil, err
	}
	if err := r.loadHistory(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *postgresRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID, page, limit int) ([]model.Order, int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE customer_id = $1`, customerID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count customer orders: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM orders
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, orderColumns)

	return r.queryOrders(ctx, query, total, customerID, limit, (page-1)*limit)
}

func (r *postgresRepository) List(ctx context.Context, q model.ListOrdersQuery) ([]model.Order, int64, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	argIndex := 1

	if q.Status != nil && *q.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, *q.Status)
		argIndex++
	}
	if q.PaymentStatus != nil && *q.PaymentStatus != "" {
		conditions = append(conditions, fmt.Sprintf("payment_status = $%d", argIndex))
		args = append(args, *q.PaymentStatus)
		argIndex++
	}
	whereClause := strings.Join(conditions, " AND ")

	var total int64
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM orders WHERE %s`, whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM orders
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, orderColumns, whereClause, argIndex, argIndex+1)
	args = append(args, q.Limit, (q.Page-1)*q.Limit)

	return r.queryOrders(ctx, query, total, args...)
}

func (r *postgresRepository) queryOrders(ctx context.Context, query string, total int64, args ...interface{}) ([]model.Order, int64, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]model.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}

	for i := range orders {
		if err := r.loadItems(ctx, &orders[i]); err != nil {
			return nil, 0, err
		}
	}
	return orders, total, nil
}

func (r *postgresRepository) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE customer_id = $1 AND status != 'cancelled'`,
		customerID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count customer orders: %w", err)
	}
	return count, nil
}

// UpdateStatusTx persists a status transition under the version guard and
// mirrors transition side effects onto the timestamp columns.
func (r *postgresRepository) UpdateStatusTx(ctx context.Context, tx pgx.Tx, o *model.Order, newStatus model.OrderStatus, now time.Time) error {
	tag, err := tx.Exec(ctx, `
		UPDATE orders SET
			status = $3,
			version = version + 1,
			delivered_at = CASE WHEN $3 = 'delivered' THEN $4 ELSE delivered_at END,
			cancelled_at = CASE WHEN $3 = 'cancelled' THEN $4 ELSE cancelled_at END,
			cancellation_reason = COALESCE($5, cancellation_reason),
			return_requested_at = CASE WHEN $3 = 'returned' THEN $4 ELSE return_requested_at END,
			return_reason = COALESCE($6, return_reason),
			updated_at = NOW()
		WHERE id = $1 AND version = $2`,
		o.ID, o.Version, string(newStatus), now, o.CancellationReason, o.ReturnReason,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUpdateConflict
	}

	o.Status = string(newStatus)
	o.Version++
	return nil
}

func (r *postgresRepository) AppendHistoryTx(ctx context.Context, tx pgx.Tx, h *model.StatusHistory) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO order_status_history (id, order_id, status, note, updated_by, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())`,
		h.ID, h.OrderID, h.Status, h.Note, h.UpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("append status history: %w", err)
	}
	return nil
}

// MarkPaymentCapturedTx bumps the version column, so the updated value is
// returned and mirrored onto o. Callers that transition status afterwards in
// the same transaction must guard on the post-capture version.
func (r *postgresRepository) MarkPaymentCapturedTx(ctx context.Context, tx pgx.Tx, o *model.Order, transactionID string, paidAt time.Time) (bool, error) {
	var version int
	err := tx.QueryRow(ctx, `
		UPDATE orders SET
			payment_status = 'completed',
			transaction_id = $2,
			paid_at = $3,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $1 AND payment_status = 'pending'
		RETURNING version`,
		o.ID, transactionID, paidAt,
	).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("mark payment captured: %w", err)
	}

	o.PaymentStatus = string(model.PaymentStatusCompleted)
	o.TransactionID = &transactionID
	o.PaidAt = &paidAt
	o.Version = version
	return true, nil
}

func (r *postgresRepository) MarkPaymentFailedTx(ctx context.Context, tx pgx.Tx, o *model.Order, reason string) (bool, error) {
	var version int
	err := tx.QueryRow(ctx, `
		UPDATE orders SET
			payment_status = 'failed',
			failure_reason = $2,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $1 AND payment_status = 'pending'
		RETURNING version`,
		o.ID, reason,
	).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("mark payment failed: %w", err)
	}

	o.PaymentStatus = string(model.PaymentStatusFailed)
	o.FailureReason = &reason
	o.Version = version
	return true, nil
}

func (r *postgresRepository) SetGatewayOrderID(ctx context.Context, orderID uuid.UUID, gatewayOrderID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET gateway_order_id = $2, updated_at = NOW() WHERE id = $1`,
		orderID, gatewayOrderID,
	)
	if err != nil {
		return fmt.Errorf("set gateway order id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}
	return nil
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID,
		&o.Subtotal, &o.ShippingCost, &o.DiscountAmount, &o.DiscountCode, &o.DiscountType, &o.DiscountID,
		&o.CGST, &o.SGST, &o.IGST, &o.TotalTax, &o.TotalAmount,
		&o.PaymentMethod, &o.PaymentStatus, &o.GatewayOrderID, &o.TransactionID, &o.PaidAt, &o.FailureReason,
		&o.Status, &o.Version, &o.ShippingMethod, &o.DeliveredAt,
		&o.ReturnRequestedAt, &o.ReturnReason,
		&o.CustomerNote, &o.CancellationReason,
		&o.Address.Name, &o.Address.Phone, &o.Address.Line1, &o.Address.Line2,
		&o.Address.City, &o.Address.State, &o.Address.Pincode,
		&o.CreatedAt, &o.UpdatedAt, &o.CancelledAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *postgresRepository) loadItems(ctx context.Context, o *model.Order) error {
	rows, err := r.pool.Query(ctx, `
		SELECT id, order_id, product_id, product_name, variant_id, variant_size, sku, unit_price, quantity, line_total, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at ASC`, o.ID)
	if err != nil {
		return fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.VariantID, &item.VariantSize, &item.SKU, &item.UnitPrice,
			&item.Quantity, &item.LineTotal, &item.CreatedAt)
		if err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		o.Items = append(o.Items, item)
	}
	return rows.Err()
}

func (r *postgresRepository) loadHistory(ctx context.Context, o *model.Order) error {
	rows, err := r.pool.Query(ctx, `
		SELECT id, order_id, status, note, updated_by, created_at
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY created_at ASC`, o.ID)
	if err != nil {
		return fmt.Errorf("load status history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var h model.StatusHistory
		if err := rows.Scan(&h.ID, &h.OrderID, &h.Status, &h.Note, &h.UpdatedBy, &h.CreatedAt); err != nil {
			return fmt.Errorf("scan status history: %w", err)
		}
		o.History = append(o.History, h)
	}
	return rows.Err()
}
