package repository

import (
	"context"

	"docstore-payments/internal/domain/model"
)

// -----------------------------
// Pending transactions
// -----------------------------

type TransactionRepository interface {
	Save(ctx context.Context, qx Tx, t *model.PendingTransaction) error
	FindByID(ctx context.Context, qx Tx, id string) (*model.PendingTransaction, error)

	// Complete stores the gateway tracking id and flips the row to
	// 'completed'. It must be safe to call on an already-completed row.
	Complete(ctx context.Context, qx Tx, id, trackingID string) error

	// MarkFailedIfPending records a failure reason but only while the row is
	// still pending, so a late duplicate callback can never downgrade a
	// completed transaction. Returns whether a row was actually updated.
	MarkFailedIfPending(ctx context.Context, qx Tx, id, errorMessage string) (bool, error)
}
