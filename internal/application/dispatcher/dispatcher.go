package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/garyjia/trip-approval/internal/domain/event"
)

// ErrClosed is returned when publishing on a closed dispatcher
var ErrClosed = errors.New("dispatcher is closed")

// Dispatcher fans request events out to subscribers in registration order
type Dispatcher interface {
	// Subscribe registers handler under name for the given event types, or
	// for all events when none are given. A second call with the same name
	// replaces the first.
	Subscribe(name string, handler Handler, types ...event.Type)

	// Unsubscribe removes the named handler and reports whether it existed
	Unsubscribe(name string) bool

	// Publish runs the matching handlers one by one and stops at the first error
	Publish(ctx context.Context, evt *event.Event) error

	// PublishAsync runs each matching handler in its own goroutine. Handlers
	// outlive the caller's context; Close waits for them.
	PublishAsync(ctx context.Context, evt *event.Event)

	// Subscriptions lists the registered handlers
	Subscriptions() []Subscription

	// Close rejects further events and waits for running handlers
	Close() error
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type eventDispatcher struct {
	logger  Logger
	timeout time.Duration

	mu          sync.RWMutex
	subscribers []subscriber
	closed      bool
	running     sync.WaitGroup
}

// Option configures the dispatcher
type Option func(*eventDispatcher)

// WithLogger sets a logger for the dispatcher
func WithLogger(logger Logger) Option {
	return func(d *eventDispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithHandlerTimeout bounds each async handler run. Zero disables the bound.
func WithHandlerTimeout(timeout time.Duration) Option {
	return func(d *eventDispatcher) {
		d.timeout = timeout
	}
}

// NewDispatcher creates a new event dispatcher
func NewDispatcher(opts ...Option) Dispatcher {
	d := &eventDispatcher{logger: nopLogger{}}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *eventDispatcher) Subscribe(name string, handler Handler, types ...event.Type) {
	sub := subscriber{
		Subscription: Subscription{Name: name, Types: slices.Clone(types)},
		handle:       handler,
	}

	d.mu.Lock()
	if i := d.indexOf(name); i >= 0 {
		d.subscribers[i] = sub
	} else {
		d.subscribers = append(d.subscribers, sub)
	}
	d.mu.Unlock()

	d.logger.Info("Event handler subscribed", "handler", name, "types", types)
}

func (d *eventDispatcher) Unsubscribe(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	i := d.indexOf(name)
	if i < 0 {
		return false
	}
	d.subscribers = slices.Delete(d.subscribers, i, i+1)
	d.logger.Info("Event handler unsubscribed", "handler", name)
	return true
}

// indexOf must be called with mu held
func (d *eventDispatcher) indexOf(name string) int {
	return slices.IndexFunc(d.subscribers, func(s subscriber) bool { return s.Name == name })
}

// matching must be called with mu held
func (d *eventDispatcher) matching(t event.Type) []subscriber {
	var out []subscriber
	for _, s := range d.subscribers {
		if s.Matches(t) {
			out = append(out, s)
		}
	}
	return out
}

func (d *eventDispatcher) Publish(ctx context.Context, evt *event.Event) error {
	d.mu.RLock()
	closed, subs := d.closed, d.matching(evt.Type)
	d.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	for _, s := range subs {
		if err := d.run(ctx, evt, s); err != nil {
			d.logger.Error("Event handler failed",
				"handler", s.Name,
				"event_type", evt.Type,
				"event_id", evt.ID,
				"request_id", evt.RequestID,
				"error", err,
			)
			return fmt.Errorf("handler %s: %w", s.Name, err)
		}
	}
	return nil
}

func (d *eventDispatcher) PublishAsync(ctx context.Context, evt *event.Event) {
	// The closed check and running.Add share the read lock so Close cannot
	// start waiting between them.
	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		d.logger.Error("Event dropped, dispatcher is closed", "event_type", evt.Type, "event_id", evt.ID)
		return
	}
	subs := d.matching(evt.Type)
	d.running.Add(len(subs))
	d.mu.RUnlock()

	detached := context.WithoutCancel(ctx)
	for _, s := range subs {
		go func() {
			defer d.running.Done()

			hctx, cancel := detached, context.CancelFunc(func() {})
			if d.timeout > 0 {
				hctx, cancel = context.WithTimeout(detached, d.timeout)
			}
			defer cancel()

			if err := d.run(hctx, evt, s); err != nil {
				d.logger.Error("Async event handler failed",
					"handler", s.Name,
					"event_type", evt.Type,
					"event_id", evt.ID,
					"request_id", evt.RequestID,
					"error", err,
				)
			}
		}()
	}
}

func (d *eventDispatcher) Subscriptions() []Subscription {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]Subscription, len(d.subscribers))
	for i, s := range d.subscribers {
		out[i] = Subscription{Name: s.Name, Types: slices.Clone(s.Types)}
	}
	return out
}

func (d *eventDispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.closed = true
	d.mu.Unlock()

	d.running.Wait()
	d.logger.Info("Dispatcher closed")
	return nil
}

// run invokes one handler, turning a panic into an error
func (d *eventDispatcher) run(ctx context.Context, evt *event.Event, s subscriber) (err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Event handler panicked", "handler", s.Name, "event_id", evt.ID, "panic", r)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.handle(ctx, evt)
}
