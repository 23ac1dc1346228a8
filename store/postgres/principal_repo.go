package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kestrelsec/authplane"
)

// PrincipalRepo implements authplane.PrincipalDirectory on the
// principals table. Read-only: account lifecycle belongs to the
// user-management service that owns the rows.
type PrincipalRepo struct {
	db Querier
}

func NewPrincipalRepo(db Querier) *PrincipalRepo {
	return &PrincipalRepo{db: db}
}

func (r *PrincipalRepo) FindByID(ctx context.Context, id string) (authplane.Principal, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, email, username, password_hash, active
		FROM principals
		WHERE id = $1
	`, id)
	return r.scan(row)
}

func (r *PrincipalRepo) FindByIdentifier(ctx context.Context, identifier string) (authplane.Principal, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, email, username, password_hash, active
		FROM principals
		WHERE email = $1 OR username = $1
	`, identifier)
	return r.scan(row)
}

func (r *PrincipalRepo) scan(row pgx.Row) (authplane.Principal, error) {
	var p authplane.Principal
	err := row.Scan(&p.ID, &p.Email, &p.Username, &p.PasswordHash, &p.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return authplane.Principal{}, authplane.ErrPrincipalNotFound
	}
	if err != nil {
		return authplane.Principal{}, fmt.Errorf("%w: find principal: %v", authplane.ErrStoreUnavailable, err)
	}
	return p, nil
}

var _ authplane.PrincipalDirectory = (*PrincipalRepo)(nil)
