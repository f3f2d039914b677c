package repository

import (
	"context"

	"docstore-payments/internal/domain/model"
)

// -----------------------------
// Entitlements
// -----------------------------

type PurchaseRepository interface {
	// Grant inserts the (user, document type) entitlement row. A uniqueness
	// conflict is swallowed and reported as alreadyOwned=true: two
	// concurrent settlements of the same transaction both call Grant and
	// exactly one insert wins, which is the actual concurrency control.
	Grant(ctx context.Context, qx Tx, userID, documentTypeID string) (alreadyOwned bool, err error)
	ListByUser(ctx context.Context, qx Tx, userID string) ([]*model.Purchase, error)
}
