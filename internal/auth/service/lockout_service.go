package service

import (
	"context"
	"fmt"
	"time"

	"github.com/YmidOrtega/Clinica-sub000/internal/auth/domain"
	"go.uber.org/zap"
)

// LockoutService drives the per-account failure counter and lock window.
// The counter increment happens inside the database so concurrent failures
// for one account are serialized there, never counted from a stale read.
type LockoutService struct {
	accounts     domain.AccountRepository
	attempts     domain.LoginAttemptRepository
	logger       *zap.Logger
	maxAttempts  int
	lockDuration time.Duration
	recentWindow time.Duration
}

func NewLockoutService(accounts domain.AccountRepository, attempts domain.LoginAttemptRepository,
	logger *zap.Logger, maxAttempts int, lockDuration, recentWindow time.Duration) *LockoutService {
	return &LockoutService{
		accounts:     accounts,
		attempts:     attempts,
		logger:       logger,
		maxAttempts:  maxAttempts,
		lockDuration: lockDuration,
		recentWindow: recentWindow,
	}
}

// IsLocked reports whether the account is currently locked and, if so, for
// how much longer. A lock whose window has passed is cleared here — this
// read deliberately writes, it is the only place auto-unlock happens.
func (s *LockoutService) IsLocked(ctx context.Context, account *domain.Account) (bool, time.Duration, error) {
	if account.LockedUntil == nil {
		return false, 0, nil
	}

	now := time.Now()
	if !now.Before(*account.LockedUntil) {
		if err := s.accounts.ClearLock(ctx, account.ID); err != nil {
			return false, 0, fmt.Errorf("failed to auto-unlock account: %w", err)
		}
		account.LockedUntil = nil
		account.FailedAttempts = 0
		account.Status = "ACTIVE"
		return false, 0, nil
	}

	return true, account.LockedUntil.Sub(now), nil
}

// RecordFailure bumps the counter and locks the account once the
// post-increment value reaches the threshold. Returns whether this failure
// tripped the lock.
func (s *LockoutService) RecordFailure(ctx context.Context, account *domain.Account) (bool, error) {
	count, err := s.accounts.IncrementFailedAttempts(ctx, account.ID)
	if err != nil {
		return false, err
	}

	if count < s.maxAttempts {
		return false, nil
	}

	until := time.Now().Add(s.lockDuration)
	if err := s.accounts.SetLock(ctx, account.ID, until); err != nil {
		return false, err
	}

	s.logger.Warn("account locked after repeated failures",
		zap.String("account_id", account.ID),
		zap.Int("failures", count),
		zap.Time("locked_until", until))

	return true, nil
}

func (s *LockoutService) RecordSuccess(ctx context.Context, account *domain.Account) error {
	return s.accounts.ClearLock(ctx, account.ID)
}

// RecentFailures feeds reporting only; it plays no part in the lock gate.
func (s *LockoutService) RecentFailures(ctx context.Context, email string) (int, error) {
	return s.attempts.CountRecentFailures(ctx, email, s.recentWindow)
}
