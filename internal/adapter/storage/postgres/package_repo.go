package postgres

import (
	"context"
	"errors"
	"fmt"

	"hotspot-fulfillment/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// PackageRepo implements ports.PackageRepository.
type PackageRepo struct {
	pool Pool
}

// NewPackageRepo creates a new PackageRepo.
func NewPackageRepo(pool Pool) *PackageRepo {
	return &PackageRepo{pool: pool}
}

// GetByID fetches a package by id. Returns (nil, nil) when absent.
func (r *PackageRepo) GetByID(ctx context.Context, id int64) (*domain.Package, error) {
	query := `SELECT id, name, duration, price FROM packages WHERE id = $1`

	p := &domain.Package{}
	var duration *string
	err := r.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &duration, &p.Price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get package by id: %w", err)
	}
	if duration != nil {
		p.Duration = *duration
	}
	return p, nil
}
