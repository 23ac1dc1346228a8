package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kestrelsec/authplane/session"
)

// SessionRepo implements session.Store on the auth_sessions table.
type SessionRepo struct {
	db Querier
}

func NewSessionRepo(db Querier) *SessionRepo {
	return &SessionRepo{db: db}
}

func (r *SessionRepo) Create(ctx context.Context, s *session.Session) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO auth_sessions (session_id, user_id, device_info, ip_address, created_at, expires_at, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		s.SessionID,
		s.UserID,
		s.DeviceInfo,
		s.IPAddress,
		s.CreatedAt,
		s.ExpiresAt,
		s.Active,
	)
	if err != nil {
		return fmt.Errorf("%w: insert session: %v", session.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *SessionRepo) FindByID(ctx context.Context, sessionID string) (*session.Session, error) {
	row := r.db.QueryRow(ctx, `
		SELECT session_id, user_id, device_info, ip_address, created_at, expires_at, active
		FROM auth_sessions
		WHERE session_id = $1
	`, sessionID)

	var s session.Session
	err := row.Scan(&s.SessionID, &s.UserID, &s.DeviceInfo, &s.IPAddress, &s.CreatedAt, &s.ExpiresAt, &s.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find session: %v", session.ErrStoreUnavailable, err)
	}
	return &s, nil
}

func (r *SessionRepo) MarkInactive(ctx context.Context, sessionID string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE auth_sessions SET active = FALSE WHERE session_id = $1
	`, sessionID)
	if err != nil {
		return fmt.Errorf("%w: mark session inactive: %v", session.ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return session.ErrNotFound
	}
	return nil
}

func (r *SessionRepo) ActiveIDsForUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT session_id FROM auth_sessions WHERE user_id = $1 AND active
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: list active sessions: %v", session.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: scan session id: %v", session.ErrStoreUnavailable, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate session ids: %v", session.ErrStoreUnavailable, err)
	}
	return ids, nil
}

func (r *SessionRepo) MarkAllInactiveForUser(ctx context.Context, userID, exceptSessionID string) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE auth_sessions SET active = FALSE
		WHERE user_id = $1 AND active AND session_id <> $2
	`, userID, exceptSessionID)
	if err != nil {
		return 0, fmt.Errorf("%w: mark sessions inactive: %v", session.ErrStoreUnavailable, err)
	}
	return tag.RowsAffected(), nil
}

var _ session.Store = (*SessionRepo)(nil)
