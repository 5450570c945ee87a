package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/trip-approval/internal/application/dispatcher"
	"github.com/garyjia/trip-approval/internal/application/port"
	"github.com/garyjia/trip-approval/internal/domain/entity"
	"github.com/garyjia/trip-approval/internal/domain/event"
)

// Engine runs trip request actions against the store
type Engine interface {
	// Create validates and stores a new request awaiting manager approval
	Create(ctx context.Context, in CreateInput) (*entity.TripRequest, error)

	// Execute applies one action and returns the updated request
	Execute(ctx context.Context, act Action) (*entity.TripRequest, error)

	// Run is Execute returning the whole outcome, including dropped attachments
	Run(ctx context.Context, act Action) (*Outcome, error)
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type engineImpl struct {
	store      port.RequestStore
	dispatcher dispatcher.Dispatcher
	logger     Logger
	clock      func() time.Time
	locks      *keyedMutex
}

// EngineOption configures the workflow engine
type EngineOption func(*engineImpl)

// WithDispatcher sets the event dispatcher for emitting events
func WithDispatcher(d dispatcher.Dispatcher) EngineOption {
	return func(e *engineImpl) {
		e.dispatcher = d
	}
}

// WithLogger sets the engine logger
func WithLogger(l Logger) EngineOption {
	return func(e *engineImpl) {
		e.logger = l
	}
}

// WithClock overrides the time source
func WithClock(clock func() time.Time) EngineOption {
	return func(e *engineImpl) {
		e.clock = clock
	}
}

// NewEngine creates a new workflow engine
func NewEngine(store port.RequestStore, opts ...EngineOption) Engine {
	e := &engineImpl{
		store: store,
		clock: time.Now,
		locks: newKeyedMutex(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Create validates and stores a new request
func (e *engineImpl) Create(ctx context.Context, in CreateInput) (*entity.TripRequest, error) {
	req, err := NewRequest(in, e.clock())
	if err != nil {
		return nil, err
	}

	created, err := e.store.Create(ctx, req)
	if err != nil {
		e.logError("Failed to create request", err, "employee_id", in.EmployeeID)
		return nil, fmt.Errorf("create request: %w", err)
	}

	if e.logger != nil {
		e.logger.Info("Request created",
			"request_id", created.ID,
			"employee_id", created.EmployeeID,
			"destination", created.Destination,
		)
	}

	e.publish(ctx, event.NewEvent(event.TypeRequestCreated, created.ID, created.EmployeeID, map[string]interface{}{
		event.KeyToStatus:     created.Status.String(),
		event.KeyApproverRole: created.CurrentApproverRole.String(),
		event.KeyEmployeeID:   created.EmployeeID,
		event.KeyDestination:  created.Destination,
	}))

	return created, nil
}

func (e *engineImpl) Execute(ctx context.Context, act Action) (*entity.TripRequest, error) {
	out, err := e.Run(ctx, act)
	if err != nil {
		return nil, err
	}
	return out.Request, nil
}

// Run applies act under the request's lock
func (e *engineImpl) Run(ctx context.Context, act Action) (*Outcome, error) {
	unlock := e.locks.Lock(act.RequestID)
	defer unlock()

	var outcome *Outcome
	updated, err := e.store.Update(ctx, act.RequestID, func(req *entity.TripRequest) error {
		o, err := Apply(req, act, e.clock())
		if err != nil {
			return err
		}
		*req = *o.Request
		outcome = o
		return nil
	})
	if err != nil {
		if !isDomainError(err) {
			e.logError("Failed to execute action", err,
				"request_id", act.RequestID,
				"action", act.Kind,
				"actor_role", act.ActorRole,
			)
		}
		return nil, err
	}

	if e.logger != nil && outcome.Changed && act.Kind != ActionMarkSeen {
		e.logger.Info("Action applied",
			"request_id", updated.ID,
			"action", act.Kind,
			"actor_id", act.ActorID,
			"actor_role", act.ActorRole,
			"from_status", outcome.From,
			"to_status", outcome.To,
		)
	}

	for _, evt := range outcomeEvents(updated, act, outcome) {
		e.publish(ctx, evt)
	}

	outcome.Request = updated
	return outcome, nil
}

func outcomeEvents(req *entity.TripRequest, act Action, o *Outcome) []*event.Event {
	var events []*event.Event
	if o.StatusChanged() {
		events = append(events, event.NewEvent(event.TypeStatusChanged, req.ID, act.ActorID, map[string]interface{}{
			event.KeyFromStatus:   o.From.String(),
			event.KeyToStatus:     o.To.String(),
			event.KeyApproverRole: req.CurrentApproverRole.String(),
			event.KeyEmployeeID:   req.EmployeeID,
			event.KeyActorRole:    act.ActorRole.String(),
			event.KeyDestination:  req.Destination,
		}))
	}
	if act.Kind == ActionUpdateDocuments {
		events = append(events, event.NewEvent(event.TypeDocumentsUpdated, req.ID, act.ActorID, map[string]interface{}{
			event.KeyDocumentType: act.DocumentType.String(),
			event.KeyEmployeeID:   req.EmployeeID,
			event.KeyActorRole:    act.ActorRole.String(),
		}))
	}
	if len(o.Entries) > 0 {
		fields := make([]string, 0, len(o.Entries))
		for _, entry := range o.Entries {
			fields = append(fields, entry.FieldName)
		}
		events = append(events, event.NewEvent(event.TypeRequestModified, req.ID, act.ActorID, map[string]interface{}{
			event.KeyFields:      fields,
			event.KeyEmployeeID:  req.EmployeeID,
			event.KeyActorRole:   act.ActorRole.String(),
			event.KeyDestination: req.Destination,
		}))
	}
	if len(events) > 1 {
		for i := 1; i < len(events); i++ {
			events[i] = events[i].WithCorrelation(events[0].CorrelationID)
		}
	}
	return events
}

func (e *engineImpl) publish(ctx context.Context, evt *event.Event) {
	if e.dispatcher == nil {
		return
	}
	e.dispatcher.PublishAsync(ctx, evt)
}

func (e *engineImpl) logError(msg string, err error, keysAndValues ...interface{}) {
	if e.logger == nil {
		return
	}
	e.logger.Error(msg, append(keysAndValues, "error", err)...)
}

func isDomainError(err error) bool {
	return errors.Is(err, entity.ErrNotFound) ||
		errors.Is(err, entity.ErrForbidden) ||
		errors.Is(err, entity.ErrInvalidTransition) ||
		errors.Is(err, entity.ErrValidation)
}
