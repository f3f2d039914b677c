// File: internal/usecase/discount_uc.go
package usecase

import (
	"context"
	"errors"
	"strings"

	"docstore-payments/internal/domain"
	"docstore-payments/internal/domain/model"
	"docstore-payments/internal/domain/ports/repository"
)

// Compile-time check
var _ DiscountUseCase = (*discountUC)(nil)

type DiscountUseCase interface {
	// Validate is the advisory pre-checkout check. It never mutates state and
	// the checkout re-validates on its own, since this endpoint is reachable
	// directly by the client.
	Validate(ctx context.Context, code string, productType model.ProductType) (CodeValidation, error)
}

type CodeValidation struct {
	IsValid    bool
	PercentOff int
	Message    string // set when invalid
}

type discountUC struct {
	discounts repository.DiscountRepository
}

func NewDiscountUseCase(discounts repository.DiscountRepository) *discountUC {
	return &discountUC{discounts: discounts}
}

func (u *discountUC) Validate(ctx context.Context, code string, productType model.ProductType) (CodeValidation, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || productType == "" {
		return CodeValidation{}, domain.ErrInvalidArgument
	}

	dc, err := u.discounts.FindByCode(ctx, repository.NoTX, code, productType)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return CodeValidation{IsValid: false, Message: "discount code not found"}, nil
		}
		return CodeValidation{}, err
	}
	if !dc.IsActive {
		return CodeValidation{IsValid: false, Message: "this discount code has expired"}, nil
	}
	return CodeValidation{IsValid: true, PercentOff: dc.PercentOff}, nil
}
