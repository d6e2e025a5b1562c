package service

import (
	"time"

	"github.com/YmidOrtega/Clinica-sub000/internal/auth/domain"
)

// AgePasswordPolicy is the default policy outcome provider: forced changes
// win over age expiry, and a zero max age disables expiry entirely. The
// actual password rules live outside this subsystem.
type AgePasswordPolicy struct {
	MaxAge time.Duration
}

func NewAgePasswordPolicy(maxAge time.Duration) *AgePasswordPolicy {
	return &AgePasswordPolicy{MaxAge: maxAge}
}

func (p *AgePasswordPolicy) Evaluate(account *domain.Account, now time.Time) domain.PasswordPolicyOutcome {
	if account.ForcePasswordChange {
		return domain.PasswordChangeRequiredOutcome
	}

	if p.MaxAge > 0 && !account.PasswordChangedAt.IsZero() &&
		now.Sub(account.PasswordChangedAt) > p.MaxAge {
		return domain.PasswordExpiredOutcome
	}

	return domain.PasswordOK
}
