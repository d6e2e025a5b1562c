package domain

import "time"

type AuditEvent struct {
	ID        string
	AccountID *string
	Email     string
	Action    string
	Detail    string
	IPAddress string
	UserAgent string
	CreatedAt time.Time
}
