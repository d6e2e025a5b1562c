package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrPasswordExpired        = errors.New("password expired")
	ErrPasswordChangeRequired = errors.New("password change required")
	ErrTokenNotRecognized     = errors.New("refresh token not recognized")
	ErrAccountNotFound        = errors.New("account not found")
)

// TokenFailureReason discriminates why a token was rejected. Callers branch
// on it; the HTTP boundary maps most variants to 401, store-unavailable
// to 503.
type TokenFailureReason string

const (
	ReasonExpired     TokenFailureReason = "expired"
	ReasonWrongType   TokenFailureReason = "wrong-type"
	ReasonBlacklisted TokenFailureReason = "blacklisted"
	ReasonMalformed   TokenFailureReason = "malformed"
	ReasonSignature   TokenFailureReason = "signature"
	// ReasonStoreUnavailable means the revocation store could not be
	// consulted. The token is rejected, but it is not known to be revoked,
	// so logout must not treat it as already blacklisted.
	ReasonStoreUnavailable TokenFailureReason = "store-unavailable"
)

type InvalidTokenError struct {
	Reason TokenFailureReason
}

func (e *InvalidTokenError) Error() string {
	return fmt.Sprintf("invalid token: %s", e.Reason)
}

func NewInvalidToken(reason TokenFailureReason) *InvalidTokenError {
	return &InvalidTokenError{Reason: reason}
}

// AccountLockedError reports how long the caller has to wait before the
// account unlocks.
type AccountLockedError struct {
	RemainingMinutes int
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked, retry in %d minutes", e.RemainingMinutes)
}
