package service

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/garyjia/trip-approval/internal/application/port"
	"github.com/garyjia/trip-approval/internal/domain/entity"
)

type mockStore struct {
	requests []*entity.TripRequest
	listErr  error
	lastList port.RequestFilter
}

func (m *mockStore) Get(ctx context.Context, id int64) (*entity.TripRequest, error) {
	for _, r := range m.requests {
		if r.ID == id {
			return r.Clone(), nil
		}
	}
	return nil, entity.ErrNotFound
}

func (m *mockStore) List(ctx context.Context, filter port.RequestFilter) ([]*entity.TripRequest, error) {
	m.lastList = filter
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*entity.TripRequest
	for _, r := range m.requests {
		if filter.Matches(r) {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

func (m *mockStore) Create(ctx context.Context, req *entity.TripRequest) (*entity.TripRequest, error) {
	m.requests = append(m.requests, req.Clone())
	return req, nil
}

func (m *mockStore) Update(ctx context.Context, id int64, fn port.Mutator) (*entity.TripRequest, error) {
	return nil, entity.ErrNotFound
}

func (m *mockStore) Count(ctx context.Context) (int, error) {
	return len(m.requests), nil
}

type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (l *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, msg)
}

func (l *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

type mockMessenger struct {
	mock.Mock
}

func (m *mockMessenger) SendText(ctx context.Context, to port.Recipient, text string) (string, error) {
	args := m.Called(ctx, to, text)
	return args.String(0), args.Error(1)
}

type mockAdvisor struct {
	mock.Mock
}

func (m *mockAdvisor) Review(ctx context.Context, req *entity.TripRequest) (*port.TripAdvice, error) {
	args := m.Called(ctx, req)
	advice, _ := args.Get(0).(*port.TripAdvice)
	return advice, args.Error(1)
}
