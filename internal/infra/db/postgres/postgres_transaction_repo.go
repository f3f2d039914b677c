package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"docstore-payments/internal/domain"
	"docstore-payments/internal/domain/model"
	"docstore-payments/internal/domain/ports/repository"
)

var _ repository.TransactionRepository = (*transactionRepo)(nil)

type transactionRepo struct{ pool *pgxpool.Pool }

func NewTransactionRepo(pool *pgxpool.Pool) *transactionRepo {
	return &transactionRepo{pool: pool}
}

const transactionColumns = `id, user_id, product_type, product_ref, gateway, amount, status, tracking_id, error_message, created_at, updated_at`

func (r *transactionRepo) Save(ctx context.Context, qx repository.Tx, t *model.PendingTransaction) error {
	const q = `
INSERT INTO pending_transactions (
  id, user_id, product_type, product_ref, gateway, amount, status, tracking_id, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11);`

	ex, err := executor(r.pool, qx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, t.ID, t.UserID, t.ProductType, t.ProductRef, t.Gateway, t.Amount, t.Status, t.TrackingID, t.ErrorMessage, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *transactionRepo) FindByID(ctx context.Context, qx repository.Tx, id string) (*model.PendingTransaction, error) {
	const q = `SELECT ` + transactionColumns + ` FROM pending_transactions WHERE id=$1;`

	ex, err := executor(r.pool, qx)
	if err != nil {
		return nil, err
	}
	t := &model.PendingTransaction{}
	err = ex.QueryRow(ctx, q, id).Scan(
		&t.ID, &t.UserID, &t.ProductType, &t.ProductRef, &t.Gateway, &t.Amount,
		&t.Status, &t.TrackingID, &t.ErrorMessage, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return t, nil
}

func (r *transactionRepo) Complete(ctx context.Context, qx repository.Tx, id, trackingID string) error {
	const q = `UPDATE pending_transactions SET status='completed', tracking_id=$2, error_message=NULL, updated_at=NOW() WHERE id=$1;`

	ex, err := executor(r.pool, qx)
	if err != nil {
		return err
	}
	if _, err := ex.Exec(ctx, q, id, trackingID); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

// MarkFailedIfPending only touches rows still in 'pending', so a duplicate
// or late callback can never downgrade a completed transaction.
func (r *transactionRepo) MarkFailedIfPending(ctx context.Context, qx repository.Tx, id, errorMessage string) (bool, error) {
	const q = `
UPDATE pending_transactions
   SET status='failed', error_message=$2, updated_at=NOW()
 WHERE id=$1 AND status='pending';`

	ex, err := executor(r.pool, qx)
	if err != nil {
		return false, err
	}
	cmd, err := ex.Exec(ctx, q, id, errorMessage)
	if err != nil {
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}
