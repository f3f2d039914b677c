package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"docstore-payments/internal/domain"
	"docstore-payments/internal/domain/model"
	"docstore-payments/internal/domain/ports/repository"
)

var _ repository.DiscountRepository = (*discountRepo)(nil)

type discountRepo struct{ pool *pgxpool.Pool }

func NewDiscountRepo(pool *pgxpool.Pool) *discountRepo {
	return &discountRepo{pool: pool}
}

// Codes are stored uppercase; normalizing here keeps lookups
// case-insensitive without an expression index.
func (r *discountRepo) FindByCode(ctx context.Context, qx repository.Tx, code string, productType model.ProductType) (*model.DiscountCode, error) {
	const q = `
SELECT code, product_type, percent_off, is_active
  FROM discount_codes WHERE code=$1 AND product_type=$2;`

	ex, err := executor(r.pool, qx)
	if err != nil {
		return nil, err
	}
	dc := &model.DiscountCode{}
	err = ex.QueryRow(ctx, q, strings.ToUpper(code), productType).Scan(&dc.Code, &dc.ProductType, &dc.PercentOff, &dc.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return dc, nil
}
