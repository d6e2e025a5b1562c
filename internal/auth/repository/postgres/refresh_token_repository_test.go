package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/YmidOrtega/Clinica-sub000/internal/auth/domain"
	repo "github.com/YmidOrtega/Clinica-sub000/internal/auth/repository/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var refreshTokenColumns = []string{
	"id", "account_id", "token_hash", "ip_address", "user_agent",
	"issued_at", "expires_at", "revoked", "revoked_at", "replaced_by",
}

func sampleRecord() *domain.RefreshTokenRecord {
	now := time.Now()
	return &domain.RefreshTokenRecord{
		ID:        "rec-1",
		AccountID: "acc-1",
		TokenHash: "hash-1",
		IPAddress: "10.0.0.1",
		UserAgent: "test-agent",
		IssuedAt:  now,
		ExpiresAt: now.Add(7 * 24 * time.Hour),
	}
}

func TestRefreshTokenRepository_Store(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewRefreshTokenRepository(mock)
	record := sampleRecord()

	mock.ExpectExec("INSERT INTO refresh_tokens").
		WithArgs(record.ID, record.AccountID, record.TokenHash, record.IPAddress,
			record.UserAgent, record.IssuedAt, record.ExpiresAt,
			record.Revoked, record.RevokedAt, record.ReplacedBy).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, r.Store(context.Background(), record))
}

func TestRefreshTokenRepository_GetByHash(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewRefreshTokenRepository(mock)
	ctx := context.Background()
	record := sampleRecord()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, account_id, token_hash").
			WithArgs("hash-1").
			WillReturnRows(pgxmock.NewRows(refreshTokenColumns).
				AddRow(record.ID, record.AccountID, record.TokenHash, record.IPAddress,
					record.UserAgent, record.IssuedAt, record.ExpiresAt,
					false, nil, ""))

		got, err := r.GetByHash(ctx, "hash-1")
		require.NoError(t, err)
		assert.Equal(t, record.ID, got.ID)
		assert.False(t, got.Revoked)
	})

	t.Run("absent", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, account_id, token_hash").
			WithArgs("ghost").
			WillReturnError(pgx.ErrNoRows)

		got, err := r.GetByHash(ctx, "ghost")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestRefreshTokenRepository_Rotate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewRefreshTokenRepository(mock)
	ctx := context.Background()

	t.Run("commits revoke and insert together", func(t *testing.T) {
		newRecord := sampleRecord()
		newRecord.ID = "rec-2"
		newRecord.TokenHash = "hash-2"

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE refresh_tokens").
			WithArgs("rec-1", "hash-2").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectExec("INSERT INTO refresh_tokens").
			WithArgs(newRecord.ID, newRecord.AccountID, newRecord.TokenHash, newRecord.IPAddress,
				newRecord.UserAgent, newRecord.IssuedAt, newRecord.ExpiresAt,
				newRecord.Revoked, newRecord.RevokedAt, newRecord.ReplacedBy).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCommit()

		require.NoError(t, r.Rotate(ctx, "rec-1", newRecord))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already revoked rolls back", func(t *testing.T) {
		newRecord := sampleRecord()
		newRecord.ID = "rec-3"

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE refresh_tokens").
			WithArgs("rec-1", newRecord.TokenHash).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		mock.ExpectRollback()

		err := r.Rotate(ctx, "rec-1", newRecord)
		assert.Error(t, err)
	})
}

func TestRefreshTokenRepository_Revoke(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewRefreshTokenRepository(mock)

	mock.ExpectExec("UPDATE refresh_tokens").
		WithArgs("rec-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(t, r.Revoke(context.Background(), "rec-1"))
}

func TestRefreshTokenRepository_RevokeAllForAccount(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewRefreshTokenRepository(mock)

	mock.ExpectExec("UPDATE refresh_tokens").
		WithArgs("acc-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	assert.NoError(t, r.RevokeAllForAccount(context.Background(), "acc-1"))
}

func TestRefreshTokenRepository_ActiveByAccount(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewRefreshTokenRepository(mock)
	now := time.Now()

	mock.ExpectQuery("SELECT id, account_id, token_hash").
		WithArgs("acc-1").
		WillReturnRows(pgxmock.NewRows(refreshTokenColumns).
			AddRow("rec-2", "acc-1", "hash-2", "10.0.0.1", "agent",
				now, now.Add(24*time.Hour), false, nil, "").
			AddRow("rec-1", "acc-1", "hash-1", "10.0.0.1", "agent",
				now.Add(-time.Hour), now.Add(24*time.Hour), false, nil, ""))

	records, err := r.ActiveByAccount(context.Background(), "acc-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	// Newest first.
	assert.Equal(t, "rec-2", records[0].ID)
	assert.Equal(t, "rec-1", records[1].ID)
}

func TestRefreshTokenRepository_DeleteExpired(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewRefreshTokenRepository(mock)

	mock.ExpectExec("DELETE FROM refresh_tokens").
		WithArgs((24 * time.Hour).String()).
		WillReturnResult(pgxmock.NewResult("DELETE", 7))

	deleted, err := r.DeleteExpired(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(7), deleted)
}
