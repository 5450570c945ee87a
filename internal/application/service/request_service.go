package service

import (
	"context"
	"fmt"

	"github.com/garyjia/trip-approval/internal/application/port"
	"github.com/garyjia/trip-approval/internal/domain/entity"
	"github.com/garyjia/trip-approval/internal/domain/ledger"
	"github.com/garyjia/trip-approval/internal/domain/workflow"
)

// Tab selects one of the dashboard lists
type Tab string

const (
	// TabMine lists requests created by the viewer
	TabMine Tab = "mine"
	// TabAwaiting lists requests waiting on the viewer's role
	TabAwaiting Tab = "awaiting"
	// TabArchive lists finished requests
	TabArchive Tab = "archive"
	// TabAll lists every request
	TabAll Tab = ""
)

// ListQuery describes a dashboard listing
type ListQuery struct {
	Tab        Tab
	ViewerID   int64
	ViewerRole workflow.Role
	Limit      int
	Offset     int
}

// RequestView is a request as seen by one viewer
type RequestView struct {
	*entity.TripRequest
	HasUnread bool `json:"has_unread"`
}

// RequestService answers read queries over trip requests
type RequestService interface {
	Get(ctx context.Context, id, viewerID int64) (*RequestView, error)
	List(ctx context.Context, q ListQuery) ([]*RequestView, error)
}

type requestServiceImpl struct {
	store  port.RequestStore
	logger Logger
}

// NewRequestService creates a new RequestService
func NewRequestService(store port.RequestStore, logger Logger) RequestService {
	return &requestServiceImpl{store: store, logger: logger}
}

// Get returns one request with the viewer's unread flag
func (s *requestServiceImpl) Get(ctx context.Context, id, viewerID int64) (*RequestView, error) {
	req, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get request %d: %w", id, err)
	}
	return newView(req, viewerID), nil
}

// List returns the requests of a dashboard tab
func (s *requestServiceImpl) List(ctx context.Context, q ListQuery) ([]*RequestView, error) {
	filter, err := q.filter()
	if err != nil {
		return nil, err
	}

	requests, err := s.store.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list requests", "error", err, "tab", q.Tab)
		return nil, fmt.Errorf("list requests: %w", err)
	}

	views := make([]*RequestView, 0, len(requests))
	for _, req := range requests {
		views = append(views, newView(req, q.ViewerID))
	}
	return views, nil
}

func (q ListQuery) filter() (port.RequestFilter, error) {
	f := port.RequestFilter{Limit: q.Limit, Offset: q.Offset}
	switch q.Tab {
	case TabAll:
	case TabMine:
		if q.ViewerID <= 0 {
			return f, fmt.Errorf("%w: viewer id is required for %s", entity.ErrValidation, q.Tab)
		}
		f.EmployeeID = q.ViewerID
	case TabAwaiting:
		if !q.ViewerRole.IsActor() {
			return f, fmt.Errorf("%w: a valid role is required for %s", entity.ErrValidation, q.Tab)
		}
		f.ApproverRole = q.ViewerRole
		if q.ViewerRole == workflow.RoleEmployee {
			f.EmployeeID = q.ViewerID
		}
		for _, s := range workflow.AllStates() {
			if s.IsAwaiting() {
				f.Statuses = append(f.Statuses, s)
			}
		}
	case TabArchive:
		f.Statuses = []workflow.State{workflow.StateCompleted, workflow.StateRejected}
	default:
		return f, fmt.Errorf("%w: unknown tab %q", entity.ErrValidation, q.Tab)
	}
	return f, nil
}

func newView(req *entity.TripRequest, viewerID int64) *RequestView {
	return &RequestView{
		TripRequest: req,
		HasUnread:   viewerID > 0 && ledger.HasUnread(req, viewerID),
	}
}
