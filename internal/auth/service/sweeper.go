package service

import (
	"context"
	"time"

	"github.com/YmidOrtega/Clinica-sub000/internal/auth/domain"
	"go.uber.org/zap"
)

// Sweeper runs the periodic storage cleanups off the request path: expired
// refresh tokens past their grace period and login attempts past retention.
// Both are single DELETE-by-predicate statements, safe to run while traffic
// is live.
type Sweeper struct {
	refreshTokens domain.RefreshTokenRepository
	attempts      domain.LoginAttemptRepository
	logger        *zap.Logger

	tokenInterval    time.Duration
	tokenGrace       time.Duration
	attemptInterval  time.Duration
	attemptRetention time.Duration
}

func NewSweeper(refreshTokens domain.RefreshTokenRepository, attempts domain.LoginAttemptRepository,
	logger *zap.Logger, tokenInterval, tokenGrace, attemptInterval, attemptRetention time.Duration) *Sweeper {
	return &Sweeper{
		refreshTokens:    refreshTokens,
		attempts:         attempts,
		logger:           logger,
		tokenInterval:    tokenInterval,
		tokenGrace:       tokenGrace,
		attemptInterval:  attemptInterval,
		attemptRetention: attemptRetention,
	}
}

// Run blocks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	tokenTicker := time.NewTicker(s.tokenInterval)
	attemptTicker := time.NewTicker(s.attemptInterval)
	defer tokenTicker.Stop()
	defer attemptTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tokenTicker.C:
			s.SweepExpiredTokens(ctx)
		case <-attemptTicker.C:
			s.SweepOldAttempts(ctx)
		}
	}
}

func (s *Sweeper) SweepExpiredTokens(ctx context.Context) {
	deleted, err := s.refreshTokens.DeleteExpired(ctx, s.tokenGrace)
	if err != nil {
		s.logger.Error("expired token sweep failed", zap.Error(err))
		return
	}
	if deleted > 0 {
		s.logger.Info("swept expired refresh tokens", zap.Int64("deleted", deleted))
	}
}

func (s *Sweeper) SweepOldAttempts(ctx context.Context) {
	cutoff := time.Now().Add(-s.attemptRetention)
	deleted, err := s.attempts.DeleteBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("login attempt sweep failed", zap.Error(err))
		return
	}
	if deleted > 0 {
		s.logger.Info("purged old login attempts", zap.Int64("deleted", deleted))
	}
}
