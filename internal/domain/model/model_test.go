//go:build !integration

package model_test

import (
	"testing"

	"docstore-payments/internal/domain/model"
)

func TestDiscountCode_Apply(t *testing.T) {
	t.Run("active code reduces the price", func(t *testing.T) {
		d := &model.DiscountCode{Code: "SPRING", PercentOff: 20, IsActive: true}
		if got := d.Apply(50000); got != 40000 {
			t.Errorf("expected 40000, got %d", got)
		}
	})

	t.Run("inactive code changes nothing", func(t *testing.T) {
		d := &model.DiscountCode{Code: "OLD", PercentOff: 50, IsActive: false}
		if got := d.Apply(50000); got != 50000 {
			t.Errorf("expected 50000, got %d", got)
		}
	})

	t.Run("nil code changes nothing", func(t *testing.T) {
		var d *model.DiscountCode
		if got := d.Apply(50000); got != 50000 {
			t.Errorf("expected 50000, got %d", got)
		}
	})

	t.Run("full discount floors at zero", func(t *testing.T) {
		d := &model.DiscountCode{Code: "FREE", PercentOff: 100, IsActive: true}
		if got := d.Apply(50000); got != 0 {
			t.Errorf("expected 0, got %d", got)
		}
	})

	t.Run("rounding always favors the buyer", func(t *testing.T) {
		d := &model.DiscountCode{Code: "ODD", PercentOff: 33, IsActive: true}
		if got := d.Apply(999); got != 669 {
			t.Errorf("expected 669, got %d", got)
		}
	})
}
