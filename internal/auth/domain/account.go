package domain

import "time"

type Account struct {
	ID                  string
	PublicID            string
	Email               string
	PasswordHash        string
	Role                string
	Status              string
	FailedAttempts      int
	LockedUntil         *time.Time
	PasswordChangedAt   time.Time
	ForcePasswordChange bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
