package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/garyjia/trip-approval/internal/application/port"
	"github.com/garyjia/trip-approval/internal/domain/event"
	"github.com/garyjia/trip-approval/internal/domain/workflow"
)

func testDirectory() NotificationDirectory {
	return NotificationDirectory{
		RoleChats: map[workflow.Role]string{
			workflow.RoleManager: "oc_managers",
			workflow.RoleHR:      "oc_hr",
			workflow.RoleFinance: "oc_finance",
		},
		EmployeeOpenIDs: map[int64]string{1: "ou_employee_1"},
	}
}

func statusEvent(from, to workflow.State, actor int64, actorRole workflow.Role) *event.Event {
	return event.NewEvent(event.TypeStatusChanged, 3, actor, map[string]interface{}{
		event.KeyFromStatus:   from.String(),
		event.KeyToStatus:     to.String(),
		event.KeyApproverRole: workflow.ApproverFor(to).String(),
		event.KeyEmployeeID:   int64(1),
		event.KeyActorRole:    actorRole.String(),
		event.KeyDestination:  "Berlin",
	})
}

func TestNotificationService_StatusChangeNotifiesApproverAndEmployee(t *testing.T) {
	messenger := &mockMessenger{}
	messenger.On("SendText", mock.Anything, port.Recipient{IDType: ReceiveIDTypeChat, ID: "oc_hr"}, mock.MatchedBy(func(text string) bool {
		return strings.Contains(text, "#3") && strings.Contains(text, "awaiting_hr")
	})).Return("om_1", nil).Once()
	messenger.On("SendText", mock.Anything, port.Recipient{IDType: ReceiveIDTypeOpen, ID: "ou_employee_1"}, mock.Anything).Return("om_2", nil).Once()

	svc := NewNotificationService(messenger, testDirectory(), &mockLogger{})
	err := svc.HandleEvent(context.Background(), statusEvent(workflow.StateAwaitingManager, workflow.StateAwaitingHR, 5, workflow.RoleManager))

	assert.NoError(t, err)
	messenger.AssertExpectations(t)
}

func TestNotificationService_SkipsActorAndUnknownAddresses(t *testing.T) {
	messenger := &mockMessenger{}
	svc := NewNotificationService(messenger, NotificationDirectory{}, &mockLogger{})

	// The employee resubmits: nobody has an address configured.
	err := svc.HandleEvent(context.Background(), statusEvent(workflow.StateCreated, workflow.StateAwaitingManager, 1, workflow.RoleEmployee))

	assert.NoError(t, err)
	messenger.AssertNotCalled(t, "SendText", mock.Anything, mock.Anything, mock.Anything)
}

func TestNotificationService_EmployeeNotNotifiedOfOwnAction(t *testing.T) {
	messenger := &mockMessenger{}
	messenger.On("SendText", mock.Anything, port.Recipient{IDType: ReceiveIDTypeChat, ID: "oc_finance"}, mock.Anything).Return("om_1", nil).Once()

	svc := NewNotificationService(messenger, testDirectory(), &mockLogger{})
	err := svc.HandleEvent(context.Background(), statusEvent(workflow.StateAwaitingEmployeeAction, workflow.StateAwaitingReportApproval, 1, workflow.RoleEmployee))

	assert.NoError(t, err)
	messenger.AssertExpectations(t)
}

func TestNotificationService_SendFailure(t *testing.T) {
	messenger := &mockMessenger{}
	messenger.On("SendText", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("rate limited"))
	logger := &mockLogger{}

	svc := NewNotificationService(messenger, testDirectory(), logger)
	err := svc.HandleEvent(context.Background(), statusEvent(workflow.StateAwaitingHR, workflow.StateAwaitingFinance, 7, workflow.RoleHR))

	assert.Error(t, err)
	assert.Len(t, logger.errors, 2)
}

func TestNotificationService_IgnoresDocumentEvents(t *testing.T) {
	messenger := &mockMessenger{}
	svc := NewNotificationService(messenger, testDirectory(), &mockLogger{})

	evt := event.NewEvent(event.TypeDocumentsUpdated, 3, 7, map[string]interface{}{event.KeyEmployeeID: int64(1)})

	assert.NoError(t, svc.HandleEvent(context.Background(), evt))
	messenger.AssertNotCalled(t, "SendText", mock.Anything, mock.Anything, mock.Anything)
}
