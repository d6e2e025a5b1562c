package domain

//go:generate mockgen -source=interface.go -destination=../../mocks/mock_repository.go -package=mocks

import (
	"context"
	"time"
)

type AccountRepository interface {
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByPublicID(ctx context.Context, publicID string) (*Account, error)
	// IncrementFailedAttempts bumps the counter in a single UPDATE and
	// returns the post-increment value.
	IncrementFailedAttempts(ctx context.Context, id string) (int, error)
	SetLock(ctx context.Context, id string, until time.Time) error
	ClearLock(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, passwordHash string, changedAt time.Time) error
}

type RefreshTokenRepository interface {
	Store(ctx context.Context, record *RefreshTokenRecord) error
	GetByHash(ctx context.Context, tokenHash string) (*RefreshTokenRecord, error)
	// Rotate revokes old, stamps its replacement pointer and inserts the new
	// record in one transaction.
	Rotate(ctx context.Context, oldID string, newRecord *RefreshTokenRecord) error
	Revoke(ctx context.Context, id string) error
	RevokeAllForAccount(ctx context.Context, accountID string) error
	ActiveByAccount(ctx context.Context, accountID string) ([]*RefreshTokenRecord, error)
	DeleteExpired(ctx context.Context, grace time.Duration) (int64, error)
}

type LoginAttemptRepository interface {
	Record(ctx context.Context, attempt *LoginAttempt) error
	CountRecentFailures(ctx context.Context, email string, window time.Duration) (int, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type AuditEventRepository interface {
	Store(ctx context.Context, event *AuditEvent) error
}

// RevocationStore marks access tokens invalid before their natural expiry.
// Contains must return an error when the store is unreachable so callers can
// fail closed.
type RevocationStore interface {
	Put(ctx context.Context, tokenHash string, ttl time.Duration) error
	Contains(ctx context.Context, tokenHash string) (bool, error)
}

// PasswordPolicyOutcome is the only piece of the password policy this
// subsystem consumes; the rules live elsewhere.
type PasswordPolicyOutcome int

const (
	PasswordOK PasswordPolicyOutcome = iota
	PasswordExpiredOutcome
	PasswordChangeRequiredOutcome
)

type PasswordPolicy interface {
	Evaluate(account *Account, now time.Time) PasswordPolicyOutcome
}
