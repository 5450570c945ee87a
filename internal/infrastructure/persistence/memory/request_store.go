package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/garyjia/trip-approval/internal/application/port"
	"github.com/garyjia/trip-approval/internal/domain/entity"
)

// RequestStore keeps requests in a map guarded by a mutex.
// Every read and write goes through Clone so callers never share state with the store.
type RequestStore struct {
	mu       sync.RWMutex
	requests map[int64]*entity.TripRequest
	lastID   int64
}

// NewRequestStore creates an empty in-memory store
func NewRequestStore() *RequestStore {
	return &RequestStore{
		requests: make(map[int64]*entity.TripRequest),
	}
}

// Get returns a copy of the stored request
func (s *RequestStore) Get(ctx context.Context, id int64) (*entity.TripRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.requests[id]
	if !ok {
		return nil, fmt.Errorf("request %d: %w", id, entity.ErrNotFound)
	}
	return req.Clone(), nil
}

// List returns copies of matching requests ordered by ID
func (s *RequestStore) List(ctx context.Context, filter port.RequestFilter) ([]*entity.TripRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.requests))
	for id, req := range s.requests {
		if filter.Matches(req) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if filter.Offset > 0 {
		if filter.Offset >= len(ids) {
			return []*entity.TripRequest{}, nil
		}
		ids = ids[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(ids) {
		ids = ids[:filter.Limit]
	}

	out := make([]*entity.TripRequest, len(ids))
	for i, id := range ids {
		out[i] = s.requests[id].Clone()
	}
	return out, nil
}

// Create stores a copy of req, allocating an ID when it has none
func (s *RequestStore) Create(ctx context.Context, req *entity.TripRequest) (*entity.TripRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := req.Clone()
	if stored.ID == 0 {
		stored.ID = s.lastID + 1
	} else if _, exists := s.requests[stored.ID]; exists {
		return nil, fmt.Errorf("request %d already exists", stored.ID)
	}
	if stored.ID > s.lastID {
		s.lastID = stored.ID
	}

	s.requests[stored.ID] = stored
	return stored.Clone(), nil
}

// Update applies fn to a copy and swaps it in when fn succeeds
func (s *RequestStore) Update(ctx context.Context, id int64, fn port.Mutator) (*entity.TripRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.requests[id]
	if !ok {
		return nil, fmt.Errorf("request %d: %w", id, entity.ErrNotFound)
	}

	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	if len(next.Approvals) < len(current.Approvals) {
		return nil, fmt.Errorf("request %d: approvals are append-only", id)
	}
	next.ID = id

	s.requests[id] = next
	return next.Clone(), nil
}

// Count returns the number of stored requests
func (s *RequestStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.requests), nil
}

// Verify interface compliance
var _ port.RequestStore = (*RequestStore)(nil)
