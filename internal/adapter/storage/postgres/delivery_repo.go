package postgres

import (
	"context"
	"fmt"

	"hotspot-fulfillment/internal/core/domain"
)

// DeliveryRepo implements ports.DeliveryRepository. The table is
// append-only: rows are never updated or deleted.
type DeliveryRepo struct {
	pool Pool
}

// NewDeliveryRepo creates a new DeliveryRepo.
func NewDeliveryRepo(pool Pool) *DeliveryRepo {
	return &DeliveryRepo{pool: pool}
}

// Append inserts one delivery attempt record.
func (r *DeliveryRepo) Append(ctx context.Context, a *domain.DeliveryAttempt) error {
	query := `INSERT INTO delivery_attempts (id, transaction_ref, gateway, outcome, provider_message_id, error_detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		a.ID, a.TransactionRef, a.Gateway, a.Outcome, a.ProviderMessageID, a.ErrorDetail, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert delivery attempt: %w", err)
	}
	return nil
}

// ListByRef returns all delivery attempts for a transaction, oldest first.
func (r *DeliveryRepo) ListByRef(ctx context.Context, ref string) ([]domain.DeliveryAttempt, error) {
	query := `SELECT id, transaction_ref, gateway, outcome, provider_message_id, error_detail, created_at
		FROM delivery_attempts WHERE transaction_ref = $1 ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, ref)
	if err != nil {
		return nil, fmt.Errorf("list delivery attempts: %w", err)
	}
	defer rows.Close()

	var attempts []domain.DeliveryAttempt
	for rows.Next() {
		a := domain.DeliveryAttempt{}
		err := rows.Scan(&a.ID, &a.TransactionRef, &a.Gateway, &a.Outcome, &a.ProviderMessageID, &a.ErrorDetail, &a.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan delivery attempt row: %w", err)
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate delivery attempt rows: %w", err)
	}
	return attempts, nil
}
