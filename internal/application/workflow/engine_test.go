package workflow

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/trip-approval/internal/application/dispatcher"
	"github.com/garyjia/trip-approval/internal/application/port"
	"github.com/garyjia/trip-approval/internal/domain/entity"
	"github.com/garyjia/trip-approval/internal/domain/event"
	domainwf "github.com/garyjia/trip-approval/internal/domain/workflow"
)

// mockStore is a map-backed port.RequestStore
type mockStore struct {
	mu        sync.Mutex
	requests  map[int64]*entity.TripRequest
	nextID    int64
	updateErr error
}

func newMockStore() *mockStore {
	return &mockStore{requests: make(map[int64]*entity.TripRequest), nextID: 1}
}

func (m *mockStore) Get(ctx context.Context, id int64) (*entity.TripRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return req.Clone(), nil
}

func (m *mockStore) List(ctx context.Context, filter port.RequestFilter) ([]*entity.TripRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.TripRequest
	for _, req := range m.requests {
		if filter.Matches(req) {
			out = append(out, req.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockStore) Create(ctx context.Context, req *entity.TripRequest) (*entity.TripRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := req.Clone()
	c.ID = m.nextID
	m.nextID++
	m.requests[c.ID] = c
	return c.Clone(), nil
}

func (m *mockStore) Update(ctx context.Context, id int64, fn port.Mutator) (*entity.TripRequest, error) {
	m.mu.Lock()
	req, ok := m.requests[id]
	m.mu.Unlock()
	if !ok {
		return nil, entity.ErrNotFound
	}
	if m.updateErr != nil {
		return nil, m.updateErr
	}

	working := req.Clone()
	// Give concurrent callers a chance to interleave if the engine did not serialize them.
	time.Sleep(time.Millisecond)
	if err := fn(working); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.requests[id] = working
	m.mu.Unlock()
	return working.Clone(), nil
}

func (m *mockStore) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests), nil
}

type recordingLogger struct {
	mu     sync.Mutex
	errors []string
}

func (l *recordingLogger) Info(msg string, keysAndValues ...interface{}) {}

func (l *recordingLogger) Error(msg string, keysAndValues ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func parisInput() CreateInput {
	return CreateInput{
		EmployeeID: employeeID,
		Details: entity.TripDetails{
			Destination:  "Paris",
			Purpose:      "Conf",
			StartDate:    "2025-12-01",
			EndDate:      "2025-12-05",
			CostEstimate: decimal.NewFromInt(80000),
		},
	}
}

func TestEngine_CreateAndGet(t *testing.T) {
	store := newMockStore()
	engine := NewEngine(store, WithClock(func() time.Time { return testNow }))

	created, err := engine.Create(context.Background(), parisInput())
	require.NoError(t, err)

	got, err := store.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domainwf.StateAwaitingManager, got.Status)
	assert.Equal(t, domainwf.RoleManager, got.CurrentApproverRole)
	assert.Len(t, got.Approvals, 1)
	assert.Equal(t, testNow, got.CreatedAt)
}

func TestEngine_CreateValidation(t *testing.T) {
	engine := NewEngine(newMockStore())

	in := parisInput()
	in.Details.Destination = ""
	_, err := engine.Create(context.Background(), in)

	assert.ErrorIs(t, err, entity.ErrValidation)
}

func TestEngine_ExecuteNotFound(t *testing.T) {
	engine := NewEngine(newMockStore())

	_, err := engine.Execute(context.Background(), Action{RequestID: 42, ActorID: managerID, ActorRole: domainwf.RoleManager, Kind: ActionApprove})

	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestEngine_FailedActionLeavesRequestUnchanged(t *testing.T) {
	store := newMockStore()
	engine := NewEngine(store)
	created, err := engine.Create(context.Background(), parisInput())
	require.NoError(t, err)

	_, err = engine.Execute(context.Background(), Action{
		RequestID: created.ID, ActorID: managerID, ActorRole: domainwf.RoleManager, Kind: ActionModify,
		Changes: TripChanges{Purpose: strPtr("Summit"), EndDate: strPtr("2025-01-01")},
	})
	require.ErrorIs(t, err, entity.ErrValidation)

	got, err := store.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Conf", got.Purpose)
	assert.Equal(t, domainwf.StateAwaitingManager, got.Status)
	assert.Empty(t, got.ChangeHistory)
	assert.Len(t, got.Approvals, 1)
}

func TestEngine_StoreErrorIsLogged(t *testing.T) {
	store := newMockStore()
	logger := &recordingLogger{}
	engine := NewEngine(store, WithLogger(logger))
	created, err := engine.Create(context.Background(), parisInput())
	require.NoError(t, err)

	store.updateErr = errors.New("disk full")
	_, err = engine.Execute(context.Background(), Action{RequestID: created.ID, ActorID: managerID, ActorRole: domainwf.RoleManager, Kind: ActionApprove})

	assert.Error(t, err)
	assert.Equal(t, []string{"Failed to execute action"}, logger.errors)
	assert.Zero(t, engine.(*engineImpl).locks.size(), "lock must be released after failure")
}

func TestEngine_ConcurrentApprovalsSerialize(t *testing.T) {
	store := newMockStore()
	engine := NewEngine(store)
	created, err := engine.Create(context.Background(), parisInput())
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = engine.Execute(context.Background(), Action{
				RequestID: created.ID, ActorID: managerID, ActorRole: domainwf.RoleManager, Kind: ActionApprove,
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, entity.ErrForbidden)
	}
	assert.Equal(t, 1, succeeded)

	got, err := store.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domainwf.StateAwaitingHR, got.Status)
	assert.Len(t, got.Approvals, 2)
	assert.Zero(t, engine.(*engineImpl).locks.size())
}

func TestEngine_ConcurrentUploadsAccountForEveryFile(t *testing.T) {
	store := newMockStore()
	engine := NewEngine(store)
	created, err := engine.Create(context.Background(), parisInput())
	require.NoError(t, err)

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		dropped []string
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := engine.Run(context.Background(), Action{
				RequestID: created.ID, ActorID: employeeID, ActorRole: domainwf.RoleEmployee, Kind: ActionUpdateDocuments,
				DocumentType: entity.DocumentPassport,
				Files:        []entity.FileAttachment{{Name: "scan.pdf", URL: fmt.Sprintf("1/passport/%d.pdf", i)}},
				Keep:         []string{},
			})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			for _, f := range out.Dropped {
				dropped = append(dropped, f.URL)
			}
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	got, err := store.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, got.PassportPhotos, 1)

	seen := append(dropped, got.PassportPhotos[0].URL)
	sort.Strings(seen)
	want := make([]string, workers)
	for i := range want {
		want[i] = fmt.Sprintf("1/passport/%d.pdf", i)
	}
	sort.Strings(want)
	assert.Equal(t, want, seen)
}

func TestEngine_PublishesEvents(t *testing.T) {
	d := dispatcher.NewDispatcher()
	var mu sync.Mutex
	var received []*event.Event
	d.Subscribe("recorder", func(ctx context.Context, evt *event.Event) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, evt)
		return nil
	})

	engine := NewEngine(newMockStore(), WithDispatcher(d))
	created, err := engine.Create(context.Background(), parisInput())
	require.NoError(t, err)
	_, err = engine.Execute(context.Background(), Action{
		RequestID: created.ID, ActorID: managerID, ActorRole: domainwf.RoleManager, Kind: ActionModify,
		Changes: TripChanges{CostEstimate: decPtr(75000)},
	})
	require.NoError(t, err)
	_, err = engine.Execute(context.Background(), Action{RequestID: created.ID, ActorID: employeeID, ActorRole: domainwf.RoleEmployee, Kind: ActionMarkSeen})
	require.NoError(t, err)
	require.NoError(t, d.Close())

	types := make(map[event.Type]*event.Event)
	for _, evt := range received {
		types[evt.Type] = evt
	}
	require.Len(t, received, 3)
	require.Contains(t, types, event.TypeRequestCreated)
	require.Contains(t, types, event.TypeStatusChanged)
	require.Contains(t, types, event.TypeRequestModified)

	changed := types[event.TypeStatusChanged]
	assert.Equal(t, "awaiting_manager", changed.GetPayloadString(event.KeyFromStatus))
	assert.Equal(t, "awaiting_hr", changed.GetPayloadString(event.KeyToStatus))
	assert.Equal(t, "hr", changed.GetPayloadString(event.KeyApproverRole))
	assert.Equal(t, changed.CorrelationID, types[event.TypeRequestModified].CorrelationID)
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	k := newKeyedMutex()

	unlockA := k.Lock(1)
	done := make(chan struct{})
	go func() {
		unlockB := k.Lock(2)
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key should not block")
	}
	unlockA()
	assert.Zero(t, k.size())
}
