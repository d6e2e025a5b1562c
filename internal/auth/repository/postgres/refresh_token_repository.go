package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/YmidOrtega/Clinica-sub000/internal/auth/domain"
	"github.com/jackc/pgx/v5"
)

const refreshTokenColumns = `id, account_id, token_hash, ip_address, user_agent,
		issued_at, expires_at, revoked, revoked_at, replaced_by`

type RefreshTokenRepository struct {
	db Querier
}

func NewRefreshTokenRepository(db Querier) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Store(ctx context.Context, record *domain.RefreshTokenRecord) error {
	query := `INSERT INTO refresh_tokens (` + refreshTokenColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(ctx, query,
		record.ID, record.AccountID, record.TokenHash, record.IPAddress, record.UserAgent,
		record.IssuedAt, record.ExpiresAt, record.Revoked, record.RevokedAt, record.ReplacedBy)
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}

	return nil
}

func (r *RefreshTokenRepository) GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshTokenRecord, error) {
	query := `SELECT ` + refreshTokenColumns + ` FROM refresh_tokens WHERE token_hash = $1 LIMIT 1`

	record, err := scanRefreshToken(r.db.QueryRow(ctx, query, tokenHash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get refresh token by hash: %w", err)
	}

	return record, nil
}

// Rotate revokes the used record, stamps which token replaced it and inserts
// the replacement, all inside one transaction so a concurrent reader never
// sees the old token half-rotated.
func (r *RefreshTokenRepository) Rotate(ctx context.Context, oldID string, newRecord *domain.RefreshTokenRecord) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin rotation: %w", err)
	}
	defer tx.Rollback(ctx)

	revokeQuery := `UPDATE refresh_tokens
		SET revoked = TRUE, revoked_at = now(), replaced_by = $2
		WHERE id = $1 AND revoked = FALSE`

	tag, err := tx.Exec(ctx, revokeQuery, oldID, newRecord.TokenHash)
	if err != nil {
		return fmt.Errorf("failed to revoke rotated token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("refresh token %s already revoked", oldID)
	}

	insertQuery := `INSERT INTO refresh_tokens (` + refreshTokenColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = tx.Exec(ctx, insertQuery,
		newRecord.ID, newRecord.AccountID, newRecord.TokenHash, newRecord.IPAddress,
		newRecord.UserAgent, newRecord.IssuedAt, newRecord.ExpiresAt,
		newRecord.Revoked, newRecord.RevokedAt, newRecord.ReplacedBy)
	if err != nil {
		return fmt.Errorf("failed to insert rotated token: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *RefreshTokenRepository) Revoke(ctx context.Context, id string) error {
	query := `UPDATE refresh_tokens
		SET revoked = TRUE, revoked_at = now()
		WHERE id = $1 AND revoked = FALSE`

	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	return nil
}

func (r *RefreshTokenRepository) RevokeAllForAccount(ctx context.Context, accountID string) error {
	query := `UPDATE refresh_tokens
		SET revoked = TRUE, revoked_at = now()
		WHERE account_id = $1 AND revoked = FALSE`

	if _, err := r.db.Exec(ctx, query, accountID); err != nil {
		return fmt.Errorf("failed to revoke account refresh tokens: %w", err)
	}

	return nil
}

func (r *RefreshTokenRepository) ActiveByAccount(ctx context.Context, accountID string) ([]*domain.RefreshTokenRecord, error) {
	query := `SELECT ` + refreshTokenColumns + ` FROM refresh_tokens
		WHERE account_id = $1 AND revoked = FALSE AND expires_at > now()
		ORDER BY issued_at DESC`

	rows, err := r.db.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active refresh tokens: %w", err)
	}
	defer rows.Close()

	var records []*domain.RefreshTokenRecord
	for rows.Next() {
		record, err := scanRefreshToken(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan refresh token: %w", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// DeleteExpired removes rows whose expiry passed more than grace ago,
// revoked or not.
func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, grace time.Duration) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE expires_at < now() - $1::interval`

	tag, err := r.db.Exec(ctx, query, grace.String())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}

	return tag.RowsAffected(), nil
}

func scanRefreshToken(row pgx.Row) (*domain.RefreshTokenRecord, error) {
	var record domain.RefreshTokenRecord
	err := row.Scan(
		&record.ID, &record.AccountID, &record.TokenHash, &record.IPAddress,
		&record.UserAgent, &record.IssuedAt, &record.ExpiresAt,
		&record.Revoked, &record.RevokedAt, &record.ReplacedBy,
	)
	if err != nil {
		return nil, err
	}

	return &record, nil
}
