package repository

import (
	"context"

	"docstore-payments/internal/domain/model"
)

type ProfileRepository interface {
	FindByID(ctx context.Context, qx Tx, id string) (*model.Profile, error)

	// UpdateContact refreshes the display info the buyer typed at checkout.
	UpdateContact(ctx context.Context, qx Tx, id, fullName, mobile string) error

	// EnablePremiumCalendar is the calendar entitlement. Setting an already
	// set flag is a no-op, which is what makes duplicate settlements safe.
	EnablePremiumCalendar(ctx context.Context, qx Tx, id string) error
}
