package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/YmidOrtega/Clinica-sub000/internal/auth/service"
	"github.com/YmidOrtega/Clinica-sub000/internal/mocks"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestSweeper_SweepExpiredTokens(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	refresh := mocks.NewMockRefreshTokenRepository(ctrl)
	attempts := mocks.NewMockLoginAttemptRepository(ctrl)

	refresh.EXPECT().DeleteExpired(gomock.Any(), 24*time.Hour).Return(int64(12), nil)

	s := service.NewSweeper(refresh, attempts, zap.NewNop(),
		time.Hour, 24*time.Hour, 24*time.Hour, 30*24*time.Hour)
	s.SweepExpiredTokens(context.Background())
}

func TestSweeper_SweepOldAttempts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	refresh := mocks.NewMockRefreshTokenRepository(ctrl)
	attempts := mocks.NewMockLoginAttemptRepository(ctrl)

	attempts.EXPECT().DeleteBefore(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, cutoff time.Time) (int64, error) {
			assert.WithinDuration(t, time.Now().Add(-30*24*time.Hour), cutoff, 5*time.Second)
			return 40, nil
		})

	s := service.NewSweeper(refresh, attempts, zap.NewNop(),
		time.Hour, 24*time.Hour, 24*time.Hour, 30*24*time.Hour)
	s.SweepOldAttempts(context.Background())
}

// Sweep failures are logged, never raised.
func TestSweeper_SweepErrorsAreSwallowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	refresh := mocks.NewMockRefreshTokenRepository(ctrl)
	attempts := mocks.NewMockLoginAttemptRepository(ctrl)

	refresh.EXPECT().DeleteExpired(gomock.Any(), gomock.Any()).Return(int64(0), assert.AnError)

	s := service.NewSweeper(refresh, attempts, zap.NewNop(),
		time.Hour, 24*time.Hour, 24*time.Hour, 30*24*time.Hour)
	s.SweepExpiredTokens(context.Background())
}
