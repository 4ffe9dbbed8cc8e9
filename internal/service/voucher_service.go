package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hotspot-fulfillment/internal/core/domain"
	"hotspot-fulfillment/internal/core/ports"
	"hotspot-fulfillment/pkg/apperror"

	"github.com/rs/zerolog"
)

// VoucherServiceImpl implements ports.VoucherService: pool restock and
// stock checks for a (package, reseller) partition.
type VoucherServiceImpl struct {
	voucherRepo ports.VoucherRepository
	log         zerolog.Logger
}

// NewVoucherService creates a new VoucherServiceImpl.
func NewVoucherService(voucherRepo ports.VoucherRepository, log zerolog.Logger) *VoucherServiceImpl {
	return &VoucherServiceImpl{voucherRepo: voucherRepo, log: log}
}

// Import bulk-loads vouchers into a partition. Rows whose code already
// exists anywhere in the pool are skipped, not overwritten, so a re-run
// of the same upload is harmless.
func (s *VoucherServiceImpl) Import(ctx context.Context, packageID, resellerID int64, batch []ports.VoucherImport) (*ports.ImportResult, error) {
	if len(batch) == 0 {
		return nil, apperror.ErrEmptyImportBatch()
	}
	if packageID <= 0 || resellerID <= 0 {
		return nil, apperror.Validation("package id and reseller id are required")
	}

	result := &ports.ImportResult{}
	for i, row := range batch {
		code := strings.TrimSpace(row.Code)
		if code == "" {
			return nil, apperror.Validation(fmt.Sprintf("row %d: voucher code is empty", i))
		}

		inserted, err := s.voucherRepo.Insert(ctx, &domain.Voucher{
			Code:       code,
			Username:   strings.TrimSpace(row.Username),
			Password:   strings.TrimSpace(row.Password),
			PackageID:  packageID,
			ResellerID: resellerID,
			Status:     domain.VoucherStatusActive,
			CreatedAt:  time.Now().UTC(),
		})
		if err != nil {
			return nil, apperror.ErrDatabaseError(fmt.Errorf("inserting voucher %q: %w", code, err))
		}
		if inserted {
			result.Inserted++
		} else {
			result.Skipped++
		}
	}

	s.log.Info().
		Int64("package_id", packageID).
		Int64("reseller_id", resellerID).
		Int("inserted", result.Inserted).
		Int("skipped", result.Skipped).
		Msg("voucher batch imported")
	return result, nil
}

// Availability returns the count of claimable vouchers in a partition.
func (s *VoucherServiceImpl) Availability(ctx context.Context, packageID, resellerID int64) (int64, error) {
	count, err := s.voucherRepo.CountActive(ctx, packageID, resellerID)
	if err != nil {
		return 0, apperror.ErrDatabaseError(fmt.Errorf("counting active vouchers: %w", err))
	}
	return count, nil
}
