package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/garyjia/trip-approval/internal/application/port"
	"github.com/garyjia/trip-approval/internal/domain/event"
	"github.com/garyjia/trip-approval/internal/domain/workflow"
)

// Receiver ID types understood by the messenger
const (
	ReceiveIDTypeChat = "chat_id"
	ReceiveIDTypeOpen = "open_id"
)

// NotificationDirectory maps roles and employees to chat addresses
type NotificationDirectory struct {
	// RoleChats holds the group chat of each approver role
	RoleChats map[workflow.Role]string
	// EmployeeOpenIDs holds the personal messenger ID of each employee
	EmployeeOpenIDs map[int64]string
}

// NotificationService turns request events into chat messages
type NotificationService interface {
	// HandleEvent is a dispatcher handler
	HandleEvent(ctx context.Context, evt *event.Event) error
}

type notificationServiceImpl struct {
	messenger port.Messenger
	directory NotificationDirectory
	logger    Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(messenger port.Messenger, directory NotificationDirectory, logger Logger) NotificationService {
	return &notificationServiceImpl{
		messenger: messenger,
		directory: directory,
		logger:    logger,
	}
}

// HandleEvent notifies the role that must act next and the employee
func (s *notificationServiceImpl) HandleEvent(ctx context.Context, evt *event.Event) error {
	text := s.buildMessage(evt)
	if text == "" {
		return nil
	}

	var failed []string
	for _, to := range s.recipients(evt) {
		msgID, err := s.messenger.SendText(ctx, to, text)
		if err != nil {
			s.logger.Error("Failed to send notification",
				"error", err,
				"request_id", evt.RequestID,
				"event_type", evt.Type,
				"receive_id", to.ID,
			)
			failed = append(failed, to.ID)
			continue
		}
		s.logger.Info("Notification sent",
			"request_id", evt.RequestID,
			"event_type", evt.Type,
			"message_id", msgID,
		)
	}

	if len(failed) > 0 {
		return fmt.Errorf("send notification to %s failed", strings.Join(failed, ", "))
	}
	return nil
}

// recipients resolves chat addresses, skipping the actor's own role and
// anyone without a configured address.
func (s *notificationServiceImpl) recipients(evt *event.Event) []port.Recipient {
	var out []port.Recipient
	seen := make(map[string]bool)
	add := func(idType, id string) {
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		out = append(out, port.Recipient{IDType: idType, ID: id})
	}

	actorRole := workflow.Role(evt.GetPayloadString(event.KeyActorRole))
	employeeID := evt.GetPayloadInt(event.KeyEmployeeID)

	switch evt.Type {
	case event.TypeRequestCreated, event.TypeStatusChanged:
		approver := workflow.Role(evt.GetPayloadString(event.KeyApproverRole))
		if approver != workflow.RoleEmployee && approver != actorRole {
			add(ReceiveIDTypeChat, s.directory.RoleChats[approver])
		}
	}
	if employeeID != evt.ActorID {
		add(ReceiveIDTypeOpen, s.directory.EmployeeOpenIDs[employeeID])
	}
	return out
}

func (s *notificationServiceImpl) buildMessage(evt *event.Event) string {
	dest := evt.GetPayloadString(event.KeyDestination)
	switch evt.Type {
	case event.TypeRequestCreated:
		return fmt.Sprintf("New trip request #%d to %s is waiting for %s approval.",
			evt.RequestID, dest, evt.GetPayloadString(event.KeyApproverRole))
	case event.TypeStatusChanged:
		return fmt.Sprintf("Trip request #%d to %s moved from %s to %s (%s). Next: %s.",
			evt.RequestID, dest,
			evt.GetPayloadString(event.KeyFromStatus),
			evt.GetPayloadString(event.KeyToStatus),
			evt.GetPayloadString(event.KeyActorRole),
			evt.GetPayloadString(event.KeyApproverRole))
	case event.TypeRequestModified:
		fields, _ := evt.Payload[event.KeyFields].([]string)
		return fmt.Sprintf("Trip request #%d to %s was changed by %s: %s.",
			evt.RequestID, dest, evt.GetPayloadString(event.KeyActorRole), strings.Join(fields, ", "))
	default:
		return ""
	}
}
