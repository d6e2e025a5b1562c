package service

import (
	"context"
	"sync"
	"time"

	"github.com/YmidOrtega/Clinica-sub000/internal/auth/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const auditBufferSize = 256

// AuditRecorder persists security events off the request path. Record never
// blocks and never returns an error; a full buffer drops the event with a
// warning, which is the accepted trade-off for keeping audit out of the
// login latency budget.
type AuditRecorder struct {
	events chan *domain.AuditEvent
	repo   domain.AuditEventRepository
	logger *zap.Logger
	done   chan struct{}

	mu     sync.Mutex
	closed bool
}

func NewAuditRecorder(repo domain.AuditEventRepository, logger *zap.Logger) *AuditRecorder {
	r := &AuditRecorder{
		events: make(chan *domain.AuditEvent, auditBufferSize),
		repo:   repo,
		logger: logger,
		done:   make(chan struct{}),
	}
	go r.run()

	return r
}

func (r *AuditRecorder) Record(accountID *string, email, action, detail, ip, userAgent string) {
	event := &domain.AuditEvent{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Email:     email,
		Action:    action,
		Detail:    detail,
		IPAddress: ip,
		UserAgent: userAgent,
		CreatedAt: time.Now(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		r.logger.Warn("audit recorder closed, dropping event", zap.String("action", action))
		return
	}

	select {
	case r.events <- event:
	default:
		r.logger.Warn("audit buffer full, dropping event", zap.String("action", action))
	}
}

func (r *AuditRecorder) run() {
	defer close(r.done)
	for event := range r.events {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := r.repo.Store(ctx, event); err != nil {
			r.logger.Error("failed to store audit event",
				zap.Error(err), zap.String("action", event.Action))
		}
		cancel()
	}
}

// Close drains buffered events and stops the worker. Record calls after
// Close drop their event instead of panicking; Close itself is idempotent.
func (r *AuditRecorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.events)
	r.mu.Unlock()

	<-r.done
}
