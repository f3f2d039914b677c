package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4/pgxpool"

	"docstore-payments/internal/domain"
	"docstore-payments/internal/domain/model"
	"docstore-payments/internal/domain/ports/repository"
)

// uniqueViolation is the Postgres error code for a unique-constraint hit.
const uniqueViolation = "23505"

var _ repository.PurchaseRepository = (*purchaseRepo)(nil)

type purchaseRepo struct{ pool *pgxpool.Pool }

func NewPurchaseRepo(pool *pgxpool.Pool) *purchaseRepo {
	return &purchaseRepo{pool: pool}
}

// Grant inserts the entitlement row. The unique constraint on
// (user_id, document_type_id) is the real concurrency control: when two
// settlements of the same transaction race, one insert wins and the other
// reports alreadyOwned. Both code paths (DO NOTHING and a raw 23505, in case
// the constraint is hit through a different index) land in the same answer.
func (r *purchaseRepo) Grant(ctx context.Context, qx repository.Tx, userID, documentTypeID string) (bool, error) {
	const q = `
INSERT INTO user_purchases (id, user_id, document_type_id, created_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (user_id, document_type_id) DO NOTHING;`

	ex, err := executor(r.pool, qx)
	if err != nil {
		return false, err
	}
	cmd, err := ex.Exec(ctx, q, uuid.NewString(), userID, documentTypeID, time.Now().UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return true, nil
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() == 0, nil
}

func (r *purchaseRepo) ListByUser(ctx context.Context, qx repository.Tx, userID string) ([]*model.Purchase, error) {
	const q = `
SELECT id, user_id, document_type_id, created_at
  FROM user_purchases WHERE user_id=$1 ORDER BY created_at DESC;`

	ex, err := executor(r.pool, qx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, userID)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Purchase
	for rows.Next() {
		var pu model.Purchase
		if err := rows.Scan(&pu.ID, &pu.UserID, &pu.DocumentTypeID, &pu.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, &pu)
	}
	return out, rows.Err()
}
