package repository

import (
	"context"

	"docstore-payments/internal/domain/model"
)

type DiscountRepository interface {
	// FindByCode looks a code up case-insensitively within one product type.
	// Missing codes return domain.ErrNotFound.
	FindByCode(ctx context.Context, qx Tx, code string, productType model.ProductType) (*model.DiscountCode, error)
}
