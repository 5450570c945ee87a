package port

import (
	"context"

	"github.com/garyjia/trip-approval/internal/domain/entity"
	"github.com/garyjia/trip-approval/internal/domain/workflow"
)

// Mutator edits a working copy of a request inside a store update.
// Returning an error aborts the update and leaves the stored request unchanged.
type Mutator func(req *entity.TripRequest) error

// RequestFilter narrows a request listing. Zero values do not filter.
type RequestFilter struct {
	EmployeeID   int64
	ApproverRole workflow.Role
	Statuses     []workflow.State
	Limit        int
	Offset       int
}

// Matches reports whether a request passes the filter (limit and offset excluded)
func (f RequestFilter) Matches(r *entity.TripRequest) bool {
	if f.EmployeeID != 0 && r.EmployeeID != f.EmployeeID {
		return false
	}
	if f.ApproverRole != "" && r.CurrentApproverRole != f.ApproverRole {
		return false
	}
	if len(f.Statuses) == 0 {
		return true
	}
	for _, s := range f.Statuses {
		if r.Status == s {
			return true
		}
	}
	return false
}

// RequestStore persists trip requests keyed by ID.
// Implementations return entity.ErrNotFound for unknown IDs.
type RequestStore interface {
	// Get returns a copy of the stored request
	Get(ctx context.Context, id int64) (*entity.TripRequest, error)

	// List returns requests matching the filter ordered by ID
	List(ctx context.Context, filter RequestFilter) ([]*entity.TripRequest, error)

	// Create stores a new request. A zero ID is replaced with the next free ID;
	// a non-zero ID is kept and later allocations continue above it.
	Create(ctx context.Context, req *entity.TripRequest) (*entity.TripRequest, error)

	// Update runs fn on a copy of the request and stores the result atomically
	Update(ctx context.Context, id int64, fn Mutator) (*entity.TripRequest, error)

	// Count returns the number of stored requests
	Count(ctx context.Context) (int, error)
}
