package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	repo "github.com/YmidOrtega/Clinica-sub000/internal/auth/repository/postgres"
	autherror "github.com/YmidOrtega/Clinica-sub000/internal/errors"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var accountColumns = []string{
	"id", "public_id", "email", "password_hash", "role", "status",
	"failed_attempts", "locked_until", "password_changed_at", "force_password_change",
	"created_at", "updated_at",
}

func accountRow(id, email string) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(accountColumns).
		AddRow(id, "pub-"+id, email, "hash", "doctor", "ACTIVE",
			0, nil, now, false, now, now)
}

func TestAccountRepository_GetByEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewAccountRepository(mock)
	ctx := context.Background()
	email := "doctor@clinic.test"

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, public_id, email").
			WithArgs(email).
			WillReturnRows(accountRow("acc-1", email))

		account, err := r.GetByEmail(ctx, email)
		require.NoError(t, err)
		assert.Equal(t, "acc-1", account.ID)
		assert.Equal(t, email, account.Email)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, public_id, email").
			WithArgs(email).
			WillReturnError(pgx.ErrNoRows)

		account, err := r.GetByEmail(ctx, email)
		require.NoError(t, err) // Should return nil account, nil error
		assert.Nil(t, account)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, public_id, email").
			WithArgs(email).
			WillReturnError(fmt.Errorf("db error"))

		_, err := r.GetByEmail(ctx, email)
		assert.Error(t, err)
	})
}

func TestAccountRepository_GetByPublicID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewAccountRepository(mock)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, public_id, email").
			WithArgs("pub-acc-1").
			WillReturnRows(accountRow("acc-1", "doctor@clinic.test"))

		account, err := r.GetByPublicID(ctx, "pub-acc-1")
		require.NoError(t, err)
		assert.Equal(t, "acc-1", account.ID)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, public_id, email").
			WithArgs("pub-missing").
			WillReturnError(pgx.ErrNoRows)

		_, err := r.GetByPublicID(ctx, "pub-missing")
		assert.ErrorIs(t, err, autherror.ErrAccountNotFound)
	})
}

func TestAccountRepository_IncrementFailedAttempts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewAccountRepository(mock)
	ctx := context.Background()

	t.Run("returns post-increment value", func(t *testing.T) {
		mock.ExpectQuery("UPDATE accounts").
			WithArgs("acc-1").
			WillReturnRows(pgxmock.NewRows([]string{"failed_attempts"}).AddRow(5))

		count, err := r.IncrementFailedAttempts(ctx, "acc-1")
		require.NoError(t, err)
		assert.Equal(t, 5, count)
	})

	t.Run("unknown account", func(t *testing.T) {
		mock.ExpectQuery("UPDATE accounts").
			WithArgs("ghost").
			WillReturnError(pgx.ErrNoRows)

		_, err := r.IncrementFailedAttempts(ctx, "ghost")
		assert.ErrorIs(t, err, autherror.ErrAccountNotFound)
	})
}

func TestAccountRepository_SetLock(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewAccountRepository(mock)
	until := time.Now().Add(30 * time.Minute)

	mock.ExpectExec("UPDATE accounts").
		WithArgs("acc-1", until).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(t, r.SetLock(context.Background(), "acc-1", until))
}

func TestAccountRepository_ClearLock(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewAccountRepository(mock)

	mock.ExpectExec("UPDATE accounts").
		WithArgs("acc-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(t, r.ClearLock(context.Background(), "acc-1"))
}

func TestAccountRepository_UpdatePassword(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewAccountRepository(mock)
	changedAt := time.Now()

	mock.ExpectExec("UPDATE accounts").
		WithArgs("acc-1", "new-hash", changedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(t, r.UpdatePassword(context.Background(), "acc-1", "new-hash", changedAt))
}
