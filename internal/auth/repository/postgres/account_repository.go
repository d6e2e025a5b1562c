package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/YmidOrtega/Clinica-sub000/internal/auth/domain"
	autherror "github.com/YmidOrtega/Clinica-sub000/internal/errors"
	"github.com/jackc/pgx/v5"
)

const accountColumns = `id, public_id, email, password_hash, role, status,
		failed_attempts, locked_until, password_changed_at, force_password_change,
		created_at, updated_at`

type AccountRepository struct {
	db Querier
}

func NewAccountRepository(db Querier) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1 LIMIT 1`

	account, err := r.scanAccount(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}

	return account, nil
}

func (r *AccountRepository) GetByPublicID(ctx context.Context, publicID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE public_id = $1 LIMIT 1`

	account, err := r.scanAccount(r.db.QueryRow(ctx, query, publicID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, autherror.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account by public id: %w", err)
	}

	return account, nil
}

// IncrementFailedAttempts bumps the counter inside the database so two
// concurrent failures can never both observe the same stale value.
func (r *AccountRepository) IncrementFailedAttempts(ctx context.Context, id string) (int, error) {
	query := `UPDATE accounts
		SET failed_attempts = failed_attempts + 1, updated_at = now()
		WHERE id = $1
		RETURNING failed_attempts`

	var count int
	if err := r.db.QueryRow(ctx, query, id).Scan(&count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, autherror.ErrAccountNotFound
		}
		return 0, fmt.Errorf("failed to increment failed attempts: %w", err)
	}

	return count, nil
}

func (r *AccountRepository) SetLock(ctx context.Context, id string, until time.Time) error {
	query := `UPDATE accounts
		SET locked_until = $2, status = 'LOCKED', updated_at = now()
		WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id, until); err != nil {
		return fmt.Errorf("failed to lock account: %w", err)
	}

	return nil
}

func (r *AccountRepository) ClearLock(ctx context.Context, id string) error {
	query := `UPDATE accounts
		SET failed_attempts = 0, locked_until = NULL, status = 'ACTIVE', updated_at = now()
		WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to clear account lock: %w", err)
	}

	return nil
}

func (r *AccountRepository) UpdatePassword(ctx context.Context, id, passwordHash string, changedAt time.Time) error {
	query := `UPDATE accounts
		SET password_hash = $2, password_changed_at = $3, force_password_change = FALSE, updated_at = now()
		WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id, passwordHash, changedAt); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

func (r *AccountRepository) scanAccount(row pgx.Row) (*domain.Account, error) {
	var account domain.Account
	err := row.Scan(
		&account.ID, &account.PublicID, &account.Email, &account.PasswordHash,
		&account.Role, &account.Status, &account.FailedAttempts, &account.LockedUntil,
		&account.PasswordChangedAt, &account.ForcePasswordChange,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &account, nil
}
