package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/garyjia/trip-approval/internal/application/port"
	"github.com/garyjia/trip-approval/internal/domain/entity"
	"github.com/garyjia/trip-approval/internal/domain/workflow"
)

// ReminderService nudges whoever must act on requests that have been idle too long
type ReminderService interface {
	// SendReminders messages the responsible party of every stale request
	SendReminders(ctx context.Context) (int, error)
}

type reminderServiceImpl struct {
	store      port.RequestStore
	messenger  port.Messenger
	directory  NotificationDirectory
	staleAfter time.Duration
	logger     Logger
	clock      func() time.Time

	mu       sync.Mutex
	lastSent map[int64]time.Time
}

// NewReminderService creates a new ReminderService. A request is stale once
// staleAfter has passed since its last update; it is reminded at most once per staleAfter.
func NewReminderService(store port.RequestStore, messenger port.Messenger, directory NotificationDirectory, staleAfter time.Duration, logger Logger) ReminderService {
	return &reminderServiceImpl{
		store:      store,
		messenger:  messenger,
		directory:  directory,
		staleAfter: staleAfter,
		logger:     logger,
		clock:      time.Now,
		lastSent:   make(map[int64]time.Time),
	}
}

func (s *reminderServiceImpl) SendReminders(ctx context.Context) (int, error) {
	var statuses []workflow.State
	for _, st := range workflow.AllStates() {
		if st.IsAwaiting() {
			statuses = append(statuses, st)
		}
	}

	requests, err := s.store.List(ctx, port.RequestFilter{Statuses: statuses})
	if err != nil {
		return 0, fmt.Errorf("list awaiting requests: %w", err)
	}

	now := s.clock()
	sent := 0
	var lastErr error
	for _, req := range requests {
		if !s.due(req, now) {
			continue
		}
		to, ok := s.recipient(req)
		if !ok {
			continue
		}

		days := int(now.Sub(req.UpdatedAt).Hours() / 24)
		text := fmt.Sprintf("Reminder: trip request #%d to %s has been waiting for %s action for %d day(s).",
			req.ID, req.Destination, req.CurrentApproverRole, days)
		if _, err := s.messenger.SendText(ctx, to, text); err != nil {
			s.logger.Error("Failed to send reminder", "error", err, "request_id", req.ID)
			lastErr = err
			continue
		}

		s.mu.Lock()
		s.lastSent[req.ID] = now
		s.mu.Unlock()
		sent++
	}

	if lastErr != nil {
		return sent, fmt.Errorf("send reminders: %w", lastErr)
	}
	return sent, nil
}

func (s *reminderServiceImpl) due(req *entity.TripRequest, now time.Time) bool {
	if now.Sub(req.UpdatedAt) < s.staleAfter {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.lastSent[req.ID]
	return !ok || now.Sub(last) >= s.staleAfter
}

func (s *reminderServiceImpl) recipient(req *entity.TripRequest) (port.Recipient, bool) {
	if req.CurrentApproverRole == workflow.RoleEmployee {
		id := s.directory.EmployeeOpenIDs[req.EmployeeID]
		return port.Recipient{IDType: ReceiveIDTypeOpen, ID: id}, id != ""
	}
	id := s.directory.RoleChats[req.CurrentApproverRole]
	return port.Recipient{IDType: ReceiveIDTypeChat, ID: id}, id != ""
}
