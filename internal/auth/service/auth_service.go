package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/YmidOrtega/Clinica-sub000/internal/auth/domain"
	"github.com/YmidOrtega/Clinica-sub000/internal/auth/dto"
	autherror "github.com/YmidOrtega/Clinica-sub000/internal/errors"
	"github.com/YmidOrtega/Clinica-sub000/pkg/constant"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthService orchestrates the login, refresh and logout flows. Every gate
// in Login runs before any token is minted; attempt and audit rows are
// recorded best-effort and never mask the primary outcome.
type AuthService struct {
	accounts          domain.AccountRepository
	refreshTokens     domain.RefreshTokenRepository
	attempts          domain.LoginAttemptRepository
	revocations       domain.RevocationStore
	tokenService      TokenGenerator
	lockout           *LockoutService
	policy            domain.PasswordPolicy
	audit             *AuditRecorder
	logger            *zap.Logger
	maxActiveSessions int
}

func NewAuthService(
	accounts domain.AccountRepository,
	refreshTokens domain.RefreshTokenRepository,
	attempts domain.LoginAttemptRepository,
	revocations domain.RevocationStore,
	tokenService TokenGenerator,
	lockout *LockoutService,
	policy domain.PasswordPolicy,
	audit *AuditRecorder,
	logger *zap.Logger,
	maxActiveSessions int,
) *AuthService {
	return &AuthService{
		accounts:          accounts,
		refreshTokens:     refreshTokens,
		attempts:          attempts,
		revocations:       revocations,
		tokenService:      tokenService,
		lockout:           lockout,
		policy:            policy,
		audit:             audit,
		logger:            logger,
		maxActiveSessions: maxActiveSessions,
	}
}

func (s *AuthService) Login(ctx context.Context, input dto.LoginInput) (*dto.TokenResponse, error) {
	account, err := s.accounts.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if account == nil {
		s.recordAttempt(ctx, input.Email, input.IPAddress, input.UserAgent, false, constant.FailureReasonUnknownAccount)
		return nil, autherror.ErrInvalidCredentials
	}

	locked, remaining, err := s.lockout.IsLocked(ctx, account)
	if err != nil {
		// Fail closed: if the lock state cannot be read, nobody logs in.
		return nil, err
	}
	if locked {
		s.recordAttempt(ctx, input.Email, input.IPAddress, input.UserAgent, false, constant.FailureReasonLocked)
		return nil, &autherror.AccountLockedError{RemainingMinutes: ceilMinutes(remaining)}
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(input.Password)) != nil {
		if _, err := s.lockout.RecordFailure(ctx, account); err != nil {
			s.logger.Error("failed to record login failure", zap.Error(err), zap.String("account_id", account.ID))
		}
		s.recordAttempt(ctx, input.Email, input.IPAddress, input.UserAgent, false, constant.FailureReasonBadPassword)
		return nil, autherror.ErrInvalidCredentials
	}

	switch s.policy.Evaluate(account, time.Now()) {
	case domain.PasswordExpiredOutcome:
		s.recordAttempt(ctx, input.Email, input.IPAddress, input.UserAgent, false, constant.FailureReasonPasswordExpired)
		return nil, autherror.ErrPasswordExpired
	case domain.PasswordChangeRequiredOutcome:
		return nil, autherror.ErrPasswordChangeRequired
	}

	if err := s.lockout.RecordSuccess(ctx, account); err != nil {
		s.logger.Error("failed to reset failure counter", zap.Error(err), zap.String("account_id", account.ID))
	}

	pair, err := s.issueSession(ctx, account, input.IPAddress, input.UserAgent)
	if err != nil {
		return nil, err
	}

	s.recordAttempt(ctx, input.Email, input.IPAddress, input.UserAgent, true, "")
	s.audit.Record(&account.ID, account.Email, constant.AuditActionLoginSuccess, "", input.IPAddress, input.UserAgent)

	return pair, nil
}

func (s *AuthService) Refresh(ctx context.Context, input dto.RefreshInput) (*dto.TokenResponse, error) {
	claims, err := s.tokenService.VerifyRefreshToken(input.RefreshToken)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByPublicID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, autherror.ErrAccountNotFound) {
			return nil, autherror.ErrTokenNotRecognized
		}
		return nil, err
	}

	record, err := s.refreshTokens.GetByHash(ctx, HashToken(input.RefreshToken))
	if err != nil {
		return nil, err
	}
	if record == nil || !record.Live(time.Now()) || record.AccountID != account.ID {
		return nil, autherror.ErrTokenNotRecognized
	}

	pair, err := s.tokenService.Generate(account)
	if err != nil {
		return nil, err
	}

	newRecord := s.newRecord(account.ID, pair, input.IPAddress, input.UserAgent)
	if err := s.refreshTokens.Rotate(ctx, record.ID, newRecord); err != nil {
		return nil, err
	}

	s.enforceSessionCap(ctx, account)
	s.audit.Record(&account.ID, account.Email, constant.AuditActionTokenRefresh, "", input.IPAddress, input.UserAgent)

	return s.tokenResponse(pair), nil
}

// Logout blacklists the access token for exactly its remaining lifetime.
// A second logout with the same token finds it already blacklisted and is a
// no-op.
func (s *AuthService) Logout(ctx context.Context, accessToken, ip, userAgent string) error {
	claims, err := s.tokenService.VerifyAccessToken(ctx, accessToken)
	if err != nil {
		var tokenErr *autherror.InvalidTokenError
		if errors.As(err, &tokenErr) && tokenErr.Reason == autherror.ReasonBlacklisted {
			return nil
		}
		return err
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	if err := s.revocations.Put(ctx, HashToken(accessToken), remaining); err != nil {
		return err
	}

	account, err := s.accounts.GetByPublicID(ctx, claims.Subject)
	if err == nil {
		s.audit.Record(&account.ID, account.Email, constant.AuditActionLogout, "", ip, userAgent)
	}

	return nil
}

// LogoutAllDevices additionally revokes every live refresh token the
// account owns.
func (s *AuthService) LogoutAllDevices(ctx context.Context, accessToken, ip, userAgent string) error {
	claims, err := s.tokenService.VerifyAccessToken(ctx, accessToken)
	if err != nil {
		var tokenErr *autherror.InvalidTokenError
		if errors.As(err, &tokenErr) && tokenErr.Reason == autherror.ReasonBlacklisted {
			return nil
		}
		return err
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	if err := s.revocations.Put(ctx, HashToken(accessToken), remaining); err != nil {
		return err
	}

	account, err := s.accounts.GetByPublicID(ctx, claims.Subject)
	if err != nil {
		return err
	}

	if err := s.refreshTokens.RevokeAllForAccount(ctx, account.ID); err != nil {
		return err
	}

	s.audit.Record(&account.ID, account.Email, constant.AuditActionLogoutAll, "", ip, userAgent)

	return nil
}

func (s *AuthService) Validate(ctx context.Context, accessToken string) (*dto.ValidateResponse, error) {
	claims, err := s.tokenService.VerifyAccessToken(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	return &dto.ValidateResponse{
		Subject: claims.Subject,
		Email:   claims.Email,
		Role:    claims.Role,
	}, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, accessToken string, input dto.ChangePasswordInput) error {
	claims, err := s.tokenService.VerifyAccessToken(ctx, accessToken)
	if err != nil {
		return err
	}

	account, err := s.accounts.GetByPublicID(ctx, claims.Subject)
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(input.CurrentPassword)) != nil {
		return autherror.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if err := s.accounts.UpdatePassword(ctx, account.ID, string(hash), time.Now()); err != nil {
		return err
	}

	// Every other session dies with the old password.
	if err := s.refreshTokens.RevokeAllForAccount(ctx, account.ID); err != nil {
		return err
	}

	s.audit.Record(&account.ID, account.Email, constant.AuditActionPasswordChange, "", input.IPAddress, input.UserAgent)

	return nil
}

func (s *AuthService) GetUserActiveSessions(ctx context.Context, publicID string) ([]dto.SessionOutput, error) {
	account, err := s.accounts.GetByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}

	records, err := s.refreshTokens.ActiveByAccount(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	sessions := make([]dto.SessionOutput, 0, len(records))
	for _, record := range records {
		sessions = append(sessions, dto.SessionOutput{
			ID:        record.ID,
			IPAddress: record.IPAddress,
			UserAgent: record.UserAgent,
			IssuedAt:  record.IssuedAt,
			ExpiresAt: record.ExpiresAt,
		})
	}

	return sessions, nil
}

func (s *AuthService) ForceLogout(ctx context.Context, publicID string) error {
	account, err := s.accounts.GetByPublicID(ctx, publicID)
	if err != nil {
		return err
	}

	if err := s.refreshTokens.RevokeAllForAccount(ctx, account.ID); err != nil {
		return err
	}

	s.audit.Record(&account.ID, account.Email, constant.AuditActionForceLogout, "", "", "")

	return nil
}

func (s *AuthService) issueSession(ctx context.Context, account *domain.Account, ip, userAgent string) (*dto.TokenResponse, error) {
	pair, err := s.tokenService.Generate(account)
	if err != nil {
		return nil, err
	}

	if err := s.refreshTokens.Store(ctx, s.newRecord(account.ID, pair, ip, userAgent)); err != nil {
		return nil, err
	}

	s.enforceSessionCap(ctx, account)

	return s.tokenResponse(pair), nil
}

// enforceSessionCap revokes the oldest sessions beyond the configured
// maximum. Two concurrent logins can transiently leave one session above
// the cap; the next login prunes it, which is the documented behavior.
func (s *AuthService) enforceSessionCap(ctx context.Context, account *domain.Account) {
	records, err := s.refreshTokens.ActiveByAccount(ctx, account.ID)
	if err != nil {
		s.logger.Error("failed to list sessions for cap enforcement", zap.Error(err), zap.String("account_id", account.ID))
		return
	}

	if len(records) <= s.maxActiveSessions {
		return
	}

	// Newest-first ordering: everything past maxActiveSessions is excess.
	for _, record := range records[s.maxActiveSessions:] {
		if err := s.refreshTokens.Revoke(ctx, record.ID); err != nil {
			s.logger.Error("failed to revoke excess session", zap.Error(err), zap.String("record_id", record.ID))
		}
	}

	pruned := len(records) - s.maxActiveSessions
	s.logger.Info("pruned excess sessions",
		zap.String("account_id", account.ID),
		zap.Int("revoked", pruned))
	s.audit.Record(&account.ID, account.Email, constant.AuditActionSessionLimit,
		fmt.Sprintf("revoked %d oldest sessions", pruned), "", "")
}

func (s *AuthService) newRecord(accountID string, pair *IssuedPair, ip, userAgent string) *domain.RefreshTokenRecord {
	return &domain.RefreshTokenRecord{
		ID:        uuid.NewString(),
		AccountID: accountID,
		TokenHash: HashToken(pair.RefreshToken),
		IPAddress: ip,
		UserAgent: userAgent,
		IssuedAt:  time.Now(),
		ExpiresAt: pair.RefreshExpiresAt,
	}
}

func (s *AuthService) tokenResponse(pair *IssuedPair) *dto.TokenResponse {
	return &dto.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    constant.BearerScheme,
		ExpiresIn:    int64(s.tokenService.GetAccessTokenExpiry().Seconds()),
	}
}

func (s *AuthService) recordAttempt(ctx context.Context, email, ip, userAgent string, success bool, reason string) {
	attempt := &domain.LoginAttempt{
		ID:            uuid.NewString(),
		Email:         email,
		IPAddress:     ip,
		UserAgent:     userAgent,
		Successful:    success,
		FailureReason: reason,
		AttemptTime:   time.Now(),
	}

	if err := s.attempts.Record(ctx, attempt); err != nil {
		s.logger.Warn("failed to record login attempt", zap.Error(err), zap.String("email", email))
	}
}

func ceilMinutes(d time.Duration) int {
	minutes := int(d / time.Minute)
	if d%time.Minute != 0 {
		minutes++
	}
	return minutes
}
