package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/YmidOrtega/Clinica-sub000/internal/auth/domain"
	repo "github.com/YmidOrtega/Clinica-sub000/internal/auth/repository/postgres"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginAttemptRepository_Record(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewLoginAttemptRepository(mock)
	attempt := &domain.LoginAttempt{
		ID:            "att-1",
		Email:         "doctor@clinic.test",
		IPAddress:     "10.0.0.1",
		UserAgent:     "test-agent",
		Successful:    false,
		FailureReason: "bad_password",
		AttemptTime:   time.Now(),
	}

	mock.ExpectExec("INSERT INTO login_attempts").
		WithArgs(attempt.ID, attempt.Email, attempt.IPAddress, attempt.UserAgent,
			attempt.Successful, attempt.FailureReason, attempt.AttemptTime).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, r.Record(context.Background(), attempt))
}

func TestLoginAttemptRepository_CountRecentFailures(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewLoginAttemptRepository(mock)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("doctor@clinic.test", (15 * time.Minute).String()).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(4))

	count, err := r.CountRecentFailures(context.Background(), "doctor@clinic.test", 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestLoginAttemptRepository_DeleteBefore(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewLoginAttemptRepository(mock)
	cutoff := time.Now().Add(-30 * 24 * time.Hour)

	mock.ExpectExec("DELETE FROM login_attempts").
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 120))

	deleted, err := r.DeleteBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(120), deleted)
}
