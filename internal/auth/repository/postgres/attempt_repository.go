package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/YmidOrtega/Clinica-sub000/internal/auth/domain"
)

type LoginAttemptRepository struct {
	db Querier
}

func NewLoginAttemptRepository(db Querier) *LoginAttemptRepository {
	return &LoginAttemptRepository{db: db}
}

func (r *LoginAttemptRepository) Record(ctx context.Context, attempt *domain.LoginAttempt) error {
	query := `INSERT INTO login_attempts (id, email, ip_address, user_agent, successful, failure_reason, attempt_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		attempt.ID, attempt.Email, attempt.IPAddress, attempt.UserAgent,
		attempt.Successful, attempt.FailureReason, attempt.AttemptTime)
	if err != nil {
		return fmt.Errorf("failed to record login attempt: %w", err)
	}

	return nil
}

func (r *LoginAttemptRepository) CountRecentFailures(ctx context.Context, email string, window time.Duration) (int, error) {
	query := `SELECT COUNT(*) FROM login_attempts
		WHERE email = $1 AND successful = FALSE AND attempt_time > now() - $2::interval`

	var count int
	if err := r.db.QueryRow(ctx, query, email, window.String()).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count recent failures: %w", err)
	}

	return count, nil
}

func (r *LoginAttemptRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM login_attempts WHERE attempt_time < $1`

	tag, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge login attempts: %w", err)
	}

	return tag.RowsAffected(), nil
}
