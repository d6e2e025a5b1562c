package postgres

import (
	"context"
	"fmt"

	"github.com/YmidOrtega/Clinica-sub000/internal/auth/domain"
)

type AuditEventRepository struct {
	db Querier
}

func NewAuditEventRepository(db Querier) *AuditEventRepository {
	return &AuditEventRepository{db: db}
}

func (r *AuditEventRepository) Store(ctx context.Context, event *domain.AuditEvent) error {
	query := `INSERT INTO audit_events (id, account_id, email, action, detail, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		event.ID, event.AccountID, event.Email, event.Action,
		event.Detail, event.IPAddress, event.UserAgent, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to store audit event: %w", err)
	}

	return nil
}
