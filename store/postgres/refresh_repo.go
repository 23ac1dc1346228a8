package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kestrelsec/authplane/token"
)

// RefreshRepo implements token.RefreshStore on the refresh_credentials
// table.
type RefreshRepo struct {
	db Querier
}

func NewRefreshRepo(db Querier) *RefreshRepo {
	return &RefreshRepo{db: db}
}

func (r *RefreshRepo) Create(ctx context.Context, rec *token.RefreshRecord) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO refresh_credentials (token_id, secret_hash, user_id, session_id, expires_at, revoked)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		rec.TokenID,
		rec.SecretHash[:],
		rec.UserID,
		rec.SessionID,
		rec.ExpiresAt,
		rec.Revoked,
	)
	if err != nil {
		return fmt.Errorf("%w: insert refresh record: %v", token.ErrRefreshStoreUnavailable, err)
	}
	return nil
}

func (r *RefreshRepo) FindByTokenID(ctx context.Context, tokenID string) (*token.RefreshRecord, error) {
	row := r.db.QueryRow(ctx, `
		SELECT token_id, secret_hash, user_id, session_id, expires_at, revoked
		FROM refresh_credentials
		WHERE token_id = $1
	`, tokenID)

	var (
		rec  token.RefreshRecord
		hash []byte
	)
	err := row.Scan(&rec.TokenID, &hash, &rec.UserID, &rec.SessionID, &rec.ExpiresAt, &rec.Revoked)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, token.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find refresh record: %v", token.ErrRefreshStoreUnavailable, err)
	}
	if len(hash) != len(rec.SecretHash) {
		return nil, fmt.Errorf("%w: secret hash has %d bytes", token.ErrRefreshStoreUnavailable, len(hash))
	}
	copy(rec.SecretHash[:], hash)
	return &rec, nil
}

// Revoke flips the record to revoked. The guarded UPDATE means only one
// caller ever observes the transition, which is what makes rotation
// single-use under concurrent refreshes.
func (r *RefreshRepo) Revoke(ctx context.Context, tokenID string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE refresh_credentials SET revoked = TRUE
		WHERE token_id = $1 AND NOT revoked
	`, tokenID)
	if err != nil {
		return false, fmt.Errorf("%w: revoke refresh record: %v", token.ErrRefreshStoreUnavailable, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *RefreshRepo) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE refresh_credentials SET revoked = TRUE
		WHERE user_id = $1 AND NOT revoked
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: revoke refresh records: %v", token.ErrRefreshStoreUnavailable, err)
	}
	return tag.RowsAffected(), nil
}

var _ token.RefreshStore = (*RefreshRepo)(nil)
