package domain

import "time"

// RefreshTokenRecord is one live or terminal session. Once Revoked flips to
// true it never flips back.
type RefreshTokenRecord struct {
	ID         string
	AccountID  string
	TokenHash  string
	IPAddress  string
	UserAgent  string
	IssuedAt   time.Time
	ExpiresAt  time.Time
	Revoked    bool
	RevokedAt  *time.Time
	ReplacedBy string
}

func (r *RefreshTokenRecord) Live(now time.Time) bool {
	return !r.Revoked && now.Before(r.ExpiresAt)
}

type LoginAttempt struct {
	ID            string
	Email         string
	IPAddress     string
	UserAgent     string
	Successful    bool
	FailureReason string
	AttemptTime   time.Time
}
