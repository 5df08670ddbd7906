package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"elysian-backend/internal/domains/payment/model"
)

// WebhookRepository persists the webhook audit trail
type WebhookRepository interface {
	Record(ctx context.Context, event *model.WebhookEvent) error
	MarkProcessed(ctx context.Context, id uuid.UUID, processErr error) error
	ListRecent(ctx context.Context, limit int) ([]model.WebhookEvent, error)
}

type postgresWebhookRepository struct {
	pool *pgxpool.Pool
}

func NewWebhookRepository(pool *pgxpool.Pool) WebhookRepository {
	return &postgresWebhookRepository{pool: pool}
}

func (r *postgresWebhookRepository) Record(ctx context.Context, event *model.WebhookEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.ReceivedAt = time.Now()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO payment_webhook_events (id, event_type, gateway_id, payload, processed, received_at)
		VALUES ($1, $2, $3, $4, false, $5)`,
		event.ID, event.EventType, event.GatewayID, event.Payload, event.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("record webhook event: %w", err)
	}
	return nil
}

func (r *postgresWebhookRepository) MarkProcessed(ctx context.Context, id uuid.UUID, processErr error) error {
	var errText *string
	if processErr != nil {
		s := processErr.Error()
		errText = &s
	}

	_, err := r.pool.Exec(ctx, `
		UPDATE payment_webhook_events
		SET processed = $2, processed_at = NOW(), error = $3
		WHERE id = $1`,
		id, processErr == nil, errText,
	)
	if err != nil {
		return fmt.Errorf("mark webhook processed: %w", err)
	}
	return nil
}

func (r *postgresWebhookRepository) ListRecent(ctx context.Context, limit int) ([]model.WebhookEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, event_type, gateway_id, payload, processed, processed_at, error, received_at
		FROM payment_webhook_events
		ORDER BY received_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list webhook events: %w", err)
	}
	defer rows.Close()

	events := make([]model.WebhookEvent, 0, limit)
	for rows.Next() {
		var e model.WebhookEvent
		err := rows.Scan(&e.ID, &e.EventType, &e.GatewayID, &e.Payload,
			&e.Processed, &e.ProcessedAt, &e.Error, &e.ReceivedAt)
		if err != nil {
			return nil, fmt.Errorf("scan webhook event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
