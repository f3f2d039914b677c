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

var _ repository.ProfileRepository = (*profileRepo)(nil)

type profileRepo struct{ pool *pgxpool.Pool }

func NewProfileRepo(pool *pgxpool.Pool) *profileRepo {
	return &profileRepo{pool: pool}
}

func (r *profileRepo) FindByID(ctx context.Context, qx repository.Tx, id string) (*model.Profile, error) {
	const q = `SELECT id, full_name, mobile, has_premium_calendar FROM profiles WHERE id=$1;`

	ex, err := executor(r.pool, qx)
	if err != nil {
		return nil, err
	}
	p := &model.Profile{}
	err = ex.QueryRow(ctx, q, id).Scan(&p.ID, &p.FullName, &p.Mobile, &p.HasPremiumCalendar)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func (r *profileRepo) UpdateContact(ctx context.Context, qx repository.Tx, id, fullName, mobile string) error {
	const q = `UPDATE profiles SET full_name=$2, mobile=$3 WHERE id=$1;`

	ex, err := executor(r.pool, qx)
	if err != nil {
		return err
	}
	if _, err := ex.Exec(ctx, q, id, fullName, mobile); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

// EnablePremiumCalendar is idempotent: setting the flag twice is the same
// write, which is what makes duplicate calendar settlements harmless.
func (r *profileRepo) EnablePremiumCalendar(ctx context.Context, qx repository.Tx, id string) error {
	const q = `UPDATE profiles SET has_premium_calendar=TRUE WHERE id=$1;`

	ex, err := executor(r.pool, qx)
	if err != nil {
		return err
	}
	cmd, err := ex.Exec(ctx, q, id)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
