package postgres

import (
	"context"
	"errors"
	"fmt"

	"hotspot-fulfillment/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

const transactionColumns = `ref, phone, package_id, reseller_id, amount, status, receipt, voucher_id, voucher_code, note, created_at, updated_at`

// GetByRef fetches a transaction by its gateway reference.
func (r *TransactionRepo) GetByRef(ctx context.Context, ref string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ref = $1`

	return scanTransaction(r.pool.QueryRow(ctx, query, ref))
}

// Upsert records a payment notification. The status guard keeps the
// transition monotonic: a completed transaction is never demoted by a
// replayed pending notification.
func (r *TransactionRepo) Upsert(ctx context.Context, n domain.PaymentNotification) error {
	query := `INSERT INTO transactions (ref, phone, package_id, reseller_id, amount, status, receipt, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		ON CONFLICT (ref) DO UPDATE SET
			status = EXCLUDED.status,
			receipt = COALESCE(EXCLUDED.receipt, transactions.receipt),
			updated_at = now()
		WHERE transactions.status <> 'completed'`

	_, err := r.pool.Exec(ctx, query,
		n.Ref, n.Phone, n.PackageID, n.ResellerID, n.Amount, n.Status, n.Receipt,
	)
	if err != nil {
		return fmt.Errorf("upsert transaction: %w", err)
	}
	return nil
}

// BindVoucher writes the claimed voucher onto the transaction only if no
// voucher is currently bound. The conditional update is what guarantees
// a single winner when concurrent runs race on the same reference.
func (r *TransactionRepo) BindVoucher(ctx context.Context, ref string, voucherID int64, code string) (bool, error) {
	query := `UPDATE transactions SET voucher_id = $1, voucher_code = $2, note = NULL, updated_at = now()
		WHERE ref = $3 AND status = 'completed' AND voucher_code IS NULL`

	tag, err := r.pool.Exec(ctx, query, voucherID, code, ref)
	if err != nil {
		return false, fmt.Errorf("bind voucher to transaction: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// SetNote stores an operator-visible marker on the transaction. Only
// unbound transactions are touched: a racer that went on to bind a
// voucher must not end up annotated as starved.
func (r *TransactionRepo) SetNote(ctx context.Context, ref string, note string) error {
	query := `UPDATE transactions SET note = $1, updated_at = now()
		WHERE ref = $2 AND voucher_code IS NULL`

	_, err := r.pool.Exec(ctx, query, note, ref)
	if err != nil {
		return fmt.Errorf("set transaction note: %w", err)
	}
	return nil
}

// ListUnfulfilled returns completed transactions with no voucher bound,
// oldest first.
func (r *TransactionRepo) ListUnfulfilled(ctx context.Context, limit int) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE status = 'completed' AND voucher_code IS NULL
		ORDER BY created_at ASC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list unfulfilled transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		t := domain.Transaction{}
		err := rows.Scan(
			&t.Ref, &t.Phone, &t.PackageID, &t.ResellerID, &t.Amount, &t.Status,
			&t.Receipt, &t.VoucherID, &t.VoucherCode, &t.Note, &t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txns, nil
}

// scanTransaction is a helper to scan a single row into a Transaction.
func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	err := row.Scan(
		&t.Ref, &t.Phone, &t.PackageID, &t.ResellerID, &t.Amount, &t.Status,
		&t.Receipt, &t.VoucherID, &t.VoucherCode, &t.Note, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	return t, nil
}
