package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/trip-approval/internal/application/port"
	"github.com/garyjia/trip-approval/internal/domain/entity"
	"github.com/garyjia/trip-approval/internal/domain/workflow"
)

func reminderFixture(now time.Time) *mockStore {
	req := func(id int64, status workflow.State, updated time.Time) *entity.TripRequest {
		return &entity.TripRequest{
			ID:                  id,
			EmployeeID:          1,
			TripDetails:         entity.TripDetails{Destination: "Oslo"},
			Status:              status,
			CurrentApproverRole: workflow.ApproverFor(status),
			UpdatedAt:           updated,
		}
	}
	return &mockStore{requests: []*entity.TripRequest{
		req(1, workflow.StateAwaitingManager, now.Add(-72*time.Hour)),
		req(2, workflow.StateAwaitingHR, now.Add(-time.Hour)),
		req(3, workflow.StateCompleted, now.Add(-500*time.Hour)),
		req(4, workflow.StateAwaitingEmployeeAction, now.Add(-49*time.Hour)),
	}}
}

func TestReminderService_RemindsStaleRequestsOnce(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	messenger := &mockMessenger{}
	messenger.On("SendText", mock.Anything, port.Recipient{IDType: ReceiveIDTypeChat, ID: "oc_managers"}, mock.MatchedBy(func(text string) bool {
		return strings.Contains(text, "#1") && strings.Contains(text, "3 day")
	})).Return("om_1", nil).Once()
	messenger.On("SendText", mock.Anything, port.Recipient{IDType: ReceiveIDTypeOpen, ID: "ou_employee_1"}, mock.MatchedBy(func(text string) bool {
		return strings.Contains(text, "#4")
	})).Return("om_2", nil).Once()

	svc := NewReminderService(reminderFixture(now), messenger, testDirectory(), 48*time.Hour, &mockLogger{})
	svc.(*reminderServiceImpl).clock = func() time.Time { return now }

	sent, err := svc.SendReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)

	// A second round within the window sends nothing.
	sent, err = svc.SendReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sent)

	messenger.AssertExpectations(t)
}

func TestReminderService_SkipsUnknownAddresses(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	messenger := &mockMessenger{}

	svc := NewReminderService(reminderFixture(now), messenger, NotificationDirectory{}, 48*time.Hour, &mockLogger{})
	svc.(*reminderServiceImpl).clock = func() time.Time { return now }

	sent, err := svc.SendReminders(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	messenger.AssertNotCalled(t, "SendText", mock.Anything, mock.Anything, mock.Anything)
}

func TestReminderService_FailedSendIsRetriedNextRound(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	store := &mockStore{requests: []*entity.TripRequest{{
		ID:                  7,
		EmployeeID:          1,
		Status:              workflow.StateAwaitingFinance,
		CurrentApproverRole: workflow.RoleFinance,
		UpdatedAt:           now.Add(-100 * time.Hour),
	}}}
	messenger := &mockMessenger{}
	messenger.On("SendText", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("lark down")).Once()
	messenger.On("SendText", mock.Anything, mock.Anything, mock.Anything).Return("om_3", nil).Once()

	logger := &mockLogger{}
	svc := NewReminderService(store, messenger, testDirectory(), 48*time.Hour, logger)
	svc.(*reminderServiceImpl).clock = func() time.Time { return now }

	sent, err := svc.SendReminders(context.Background())
	assert.Error(t, err)
	assert.Zero(t, sent)
	assert.Len(t, logger.errors, 1)

	sent, err = svc.SendReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
}
