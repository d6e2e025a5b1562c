package service_test

import (
	"context"
	"testing"

	"github.com/YmidOrtega/Clinica-sub000/internal/auth/domain"
	"github.com/YmidOrtega/Clinica-sub000/internal/auth/service"
	"github.com/YmidOrtega/Clinica-sub000/internal/mocks"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestAuditRecorder_PersistsEvents(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockAuditEventRepository(ctrl)

	var stored []*domain.AuditEvent
	repo.EXPECT().Store(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, event *domain.AuditEvent) error {
			stored = append(stored, event)
			return nil
		}).Times(3)

	recorder := service.NewAuditRecorder(repo, zap.NewNop())

	accountID := "acc-1"
	recorder.Record(&accountID, "doctor@clinic.test", "login_success", "", "10.0.0.1", "agent")
	recorder.Record(nil, "ghost@clinic.test", "login_failure", "unknown account", "10.0.0.2", "agent")
	recorder.Record(&accountID, "doctor@clinic.test", "logout", "", "10.0.0.1", "agent")

	// Close drains the buffer before returning.
	recorder.Close()

	assert.Len(t, stored, 3)
	assert.Equal(t, "login_success", stored[0].Action)
	assert.Nil(t, stored[1].AccountID)
	assert.NotEmpty(t, stored[0].ID)
	assert.False(t, stored[0].CreatedAt.IsZero())
}

// A failing store must not propagate anywhere.
func TestAuditRecorder_SwallowsStoreErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockAuditEventRepository(ctrl)
	repo.EXPECT().Store(gomock.Any(), gomock.Any()).Return(assert.AnError)

	recorder := service.NewAuditRecorder(repo, zap.NewNop())
	recorder.Record(nil, "doctor@clinic.test", "login_failure", "", "10.0.0.1", "agent")
	recorder.Close()
}

// Shutdown ordering must not be able to crash the process: Record after
// Close drops the event, and a second Close returns immediately.
func TestAuditRecorder_SafeAfterClose(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockAuditEventRepository(ctrl)

	recorder := service.NewAuditRecorder(repo, zap.NewNop())
	recorder.Close()

	assert.NotPanics(t, func() {
		recorder.Record(nil, "doctor@clinic.test", "logout", "", "10.0.0.1", "agent")
	})
	assert.NotPanics(t, recorder.Close)
}
