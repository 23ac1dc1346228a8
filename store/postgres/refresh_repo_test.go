package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelsec/authplane"
	"github.com/kestrelsec/authplane/token"
)

func newRefreshMock(t *testing.T) (pgxmock.PgxPoolIface, *RefreshRepo) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(mock.Close)
	return mock, NewRefreshRepo(mock)
}

func sampleRecord() token.RefreshRecord {
	rec := token.RefreshRecord{
		TokenID:   "tok-1",
		UserID:    "user-1",
		SessionID: "sess-1",
		ExpiresAt: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}
	for i := range rec.SecretHash {
		rec.SecretHash[i] = byte(i)
	}
	return rec
}

func TestRefreshRepoCreateAndFind(t *testing.T) {
	rec := sampleRecord()

	t.Run("create", func(t *testing.T) {
		mock, repo := newRefreshMock(t)
		mock.ExpectExec(`INSERT INTO refresh_credentials`).
			WithArgs(rec.TokenID, rec.SecretHash[:], rec.UserID, rec.SessionID, rec.ExpiresAt, rec.Revoked).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, repo.Create(context.Background(), &rec))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("find", func(t *testing.T) {
		mock, repo := newRefreshMock(t)
		rows := pgxmock.NewRows([]string{"token_id", "secret_hash", "user_id", "session_id", "expires_at", "revoked"}).
			AddRow(rec.TokenID, rec.SecretHash[:], rec.UserID, rec.SessionID, rec.ExpiresAt, rec.Revoked)
		mock.ExpectQuery(`SELECT token_id, secret_hash`).
			WithArgs(rec.TokenID).
			WillReturnRows(rows)

		got, err := repo.FindByTokenID(context.Background(), rec.TokenID)
		require.NoError(t, err)
		assert.Equal(t, rec, *got)
	})

	t.Run("missing row maps to not found", func(t *testing.T) {
		mock, repo := newRefreshMock(t)
		mock.ExpectQuery(`SELECT token_id, secret_hash`).
			WithArgs("nope").
			WillReturnRows(pgxmock.NewRows([]string{"token_id"}))

		_, err := repo.FindByTokenID(context.Background(), "nope")
		require.ErrorIs(t, err, token.ErrRecordNotFound)
	})

	t.Run("truncated hash is a store fault", func(t *testing.T) {
		mock, repo := newRefreshMock(t)
		rows := pgxmock.NewRows([]string{"token_id", "secret_hash", "user_id", "session_id", "expires_at", "revoked"}).
			AddRow(rec.TokenID, []byte{1, 2, 3}, rec.UserID, rec.SessionID, rec.ExpiresAt, rec.Revoked)
		mock.ExpectQuery(`SELECT token_id, secret_hash`).
			WithArgs(rec.TokenID).
			WillReturnRows(rows)

		_, err := repo.FindByTokenID(context.Background(), rec.TokenID)
		require.ErrorIs(t, err, token.ErrRefreshStoreUnavailable)
	})
}

func TestRefreshRepoRevokeIsSingleUse(t *testing.T) {
	t.Run("first revocation wins", func(t *testing.T) {
		mock, repo := newRefreshMock(t)
		mock.ExpectExec(`UPDATE refresh_credentials SET revoked = TRUE`).
			WithArgs("tok-1").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		ok, err := repo.Revoke(context.Background(), "tok-1")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("second revocation reports replay", func(t *testing.T) {
		mock, repo := newRefreshMock(t)
		mock.ExpectExec(`UPDATE refresh_credentials SET revoked = TRUE`).
			WithArgs("tok-1").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		ok, err := repo.Revoke(context.Background(), "tok-1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("backend failure maps to store unavailable", func(t *testing.T) {
		mock, repo := newRefreshMock(t)
		mock.ExpectExec(`UPDATE refresh_credentials SET revoked = TRUE`).
			WithArgs("tok-1").
			WillReturnError(errors.New("connection refused"))

		_, err := repo.Revoke(context.Background(), "tok-1")
		require.ErrorIs(t, err, token.ErrRefreshStoreUnavailable)
	})
}

func TestRefreshRepoRevokeAllForUser(t *testing.T) {
	mock, repo := newRefreshMock(t)
	mock.ExpectExec(`UPDATE refresh_credentials SET revoked = TRUE`).
		WithArgs("user-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 4))

	n, err := repo.RevokeAllForUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestPrincipalRepoLookups(t *testing.T) {
	cols := []string{"id", "email", "username", "password_hash", "active"}

	t.Run("by identifier", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := NewPrincipalRepo(mock)

		rows := pgxmock.NewRows(cols).
			AddRow("user-1", "alice@example.com", "alice", "$2a$10$hash", true)
		mock.ExpectQuery(`SELECT id, email, username`).
			WithArgs("alice").
			WillReturnRows(rows)

		p, err := repo.FindByIdentifier(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, "user-1", p.ID)
		assert.True(t, p.Active)
	})

	t.Run("missing principal", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := NewPrincipalRepo(mock)

		mock.ExpectQuery(`SELECT id, email, username`).
			WithArgs("ghost").
			WillReturnRows(pgxmock.NewRows(cols))

		_, err = repo.FindByIdentifier(context.Background(), "ghost")
		require.ErrorIs(t, err, authplane.ErrPrincipalNotFound)
	})
}
