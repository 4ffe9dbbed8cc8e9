package postgres

import (
	"context"
	"errors"
	"fmt"

	"hotspot-fulfillment/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// VoucherRepo implements ports.VoucherRepository.
type VoucherRepo struct {
	pool Pool
}

// NewVoucherRepo creates a new VoucherRepo.
func NewVoucherRepo(pool Pool) *VoucherRepo {
	return &VoucherRepo{pool: pool}
}

// Claim atomically claims the oldest active voucher in the partition.
// The inner SELECT uses FOR UPDATE SKIP LOCKED so concurrent claimers
// never pick the same row; the conditional status check makes the
// transition a compare-and-swap rather than a read-then-write.
func (r *VoucherRepo) Claim(ctx context.Context, packageID, resellerID int64) (*domain.Voucher, error) {
	query := `UPDATE vouchers SET status = 'used', used_at = now()
		WHERE id = (
			SELECT id FROM vouchers
			WHERE package_id = $1 AND reseller_id = $2 AND status = 'active'
			ORDER BY created_at ASC, id ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		) AND status = 'active'
		RETURNING id, code, username, password, package_id, reseller_id, status, customer_phone, used_at, created_at`

	v, err := scanVoucher(r.pool.QueryRow(ctx, query, packageID, resellerID))
	if err != nil {
		return nil, fmt.Errorf("claim voucher: %w", err)
	}
	// nil voucher means the partition is exhausted — an expected state.
	return v, nil
}

// Release returns a claimed voucher to the active pool. Only vouchers
// still unbound to a customer can be released.
func (r *VoucherRepo) Release(ctx context.Context, voucherID int64) error {
	query := `UPDATE vouchers SET status = 'active', used_at = NULL
		WHERE id = $1 AND status = 'used' AND customer_phone IS NULL`

	tag, err := r.pool.Exec(ctx, query, voucherID)
	if err != nil {
		return fmt.Errorf("release voucher: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("release voucher: voucher %d not releasable", voucherID)
	}
	return nil
}

// BindCustomer sets the customer phone on a used voucher.
func (r *VoucherRepo) BindCustomer(ctx context.Context, voucherID int64, phone string) error {
	query := `UPDATE vouchers SET customer_phone = $1
		WHERE id = $2 AND status = 'used' AND customer_phone IS NULL`

	tag, err := r.pool.Exec(ctx, query, phone, voucherID)
	if err != nil {
		return fmt.Errorf("bind voucher customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("bind voucher customer: voucher %d not bindable", voucherID)
	}
	return nil
}

// GetByCode fetches a voucher by its unique code.
func (r *VoucherRepo) GetByCode(ctx context.Context, code string) (*domain.Voucher, error) {
	query := `SELECT id, code, username, password, package_id, reseller_id, status, customer_phone, used_at, created_at
		FROM vouchers WHERE code = $1`

	v, err := scanVoucher(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		return nil, fmt.Errorf("get voucher by code: %w", err)
	}
	return v, nil
}

// Insert adds a new active voucher. Duplicate codes are skipped and
// reported via the bool return.
func (r *VoucherRepo) Insert(ctx context.Context, v *domain.Voucher) (bool, error) {
	query := `INSERT INTO vouchers (code, username, password, package_id, reseller_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (code) DO NOTHING`

	tag, err := r.pool.Exec(ctx, query,
		v.Code, v.Username, v.Password, v.PackageID, v.ResellerID, v.Status, v.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert voucher: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// CountActive counts claimable vouchers in a (package, reseller) partition.
func (r *VoucherRepo) CountActive(ctx context.Context, packageID, resellerID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM vouchers
		WHERE package_id = $1 AND reseller_id = $2 AND status = 'active'`

	var count int64
	if err := r.pool.QueryRow(ctx, query, packageID, resellerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active vouchers: %w", err)
	}
	return count, nil
}

// scanVoucher is a helper to scan a single row into a Voucher.
func scanVoucher(row pgx.Row) (*domain.Voucher, error) {
	v := &domain.Voucher{}
	var username, password *string
	err := row.Scan(
		&v.ID, &v.Code, &username, &password, &v.PackageID, &v.ResellerID,
		&v.Status, &v.CustomerPhone, &v.UsedAt, &v.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if username != nil {
		v.Username = *username
	}
	if password != nil {
		v.Password = *password
	}
	return v, nil
}
