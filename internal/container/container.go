package container

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/trip-approval/internal/application/dispatcher"
	"github.com/garyjia/trip-approval/internal/application/port"
	"github.com/garyjia/trip-approval/internal/application/workflow"
	"github.com/garyjia/trip-approval/internal/infrastructure/storage"
	"github.com/garyjia/trip-approval/internal/infrastructure/worker"
	"github.com/garyjia/trip-approval/internal/seed"
)

// Container owns every component of the service. Components start in
// dependency order and close in reverse.
type Container struct {
	config *Config
	logger *zap.Logger

	stores      *StoreBundle
	messenger   port.Messenger
	advisor     port.TripAdvisor
	attachments *storage.LocalAttachmentStorage
	dispatcher  dispatcher.Dispatcher
	engine      workflow.Engine
	services    *ServiceBundle
	workers     *worker.Manager

	mu     sync.RWMutex
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// startStep is one stage of Start; later steps may use what earlier ones built
type startStep struct {
	name string
	run  func(ctx context.Context) error
}

// Start builds the components in dependency order: store and seed data,
// external clients, attachment storage, dispatcher and engine, services,
// then the background workers.
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.closed.Load():
		return fmt.Errorf("container has been closed")
	case c.ready.Load():
		return fmt.Errorf("container already started")
	}

	steps := []startStep{
		{"store", c.startStore},
		{"seed", c.applySeed},
		{"clients", c.startClients},
		{"storage", c.startStorage},
		{"engine", c.startEngine},
		{"workers", c.startWorkers},
	}
	for _, step := range steps {
		began := time.Now()
		if err := step.run(ctx); err != nil {
			c.logger.Error("Container start failed", zap.String("step", step.name), zap.Error(err))
			return fmt.Errorf("start %s: %w", step.name, err)
		}
		c.logger.Debug("Container step done", zap.String("step", step.name), zap.Duration("took", time.Since(began)))
	}

	c.ready.Store(true)
	c.logger.Info("Container started",
		zap.String("driver", c.config.Database.Driver),
		zap.Bool("lark", c.messenger != nil),
		zap.Bool("openai", c.advisor != nil),
		zap.Strings("workers", c.workers.Running()))
	return nil
}

func (c *Container) startStore(ctx context.Context) (err error) {
	c.stores, err = ProvideStore(ctx, &c.config.Database, c.logger)
	return err
}

func (c *Container) applySeed(ctx context.Context) error {
	if c.config.Seed.Path == "" {
		return nil
	}
	f, err := seed.Load(c.config.Seed.Path)
	if err != nil {
		return err
	}
	_, err = seed.Apply(ctx, c.stores.Store, f, time.Now(), c.logger)
	return err
}

func (c *Container) startClients(ctx context.Context) (err error) {
	c.messenger = ProvideMessenger(&c.config.Lark, c.logger)
	c.advisor, err = ProvideAdvisor(&c.config.OpenAI, c.logger)
	return err
}

func (c *Container) startStorage(ctx context.Context) (err error) {
	c.attachments, err = ProvideAttachmentStorage(&c.config.Storage, c.logger)
	return err
}

func (c *Container) startEngine(ctx context.Context) error {
	c.dispatcher = ProvideDispatcher(&c.config.Dispatcher, c.logger)
	c.engine = ProvideWorkflowEngine(c.stores.Store, c.dispatcher, c.logger)
	c.services = ProvideServices(&ServiceDeps{
		Store:      c.stores.Store,
		Messenger:  c.messenger,
		Advisor:    c.advisor,
		Lark:       &c.config.Lark,
		Reminder:   &c.config.Reminder,
		Dispatcher: c.dispatcher,
		Logger:     c.logger,
	})
	return nil
}

// startWorkers detaches the workers from ctx; they stop in Close
func (c *Container) startWorkers(ctx context.Context) error {
	c.workers = ProvideWorkers(c.services, &c.config.Reminder, c.logger)
	return c.workers.StartAll(context.WithoutCancel(ctx))
}

// Close stops the workers, drains pending notifications, then closes the
// store. It keeps going past failures and reports all of them.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Swap(true) {
		return fmt.Errorf("container already closed")
	}
	c.ready.Store(false)

	var errs []error
	if c.workers != nil {
		if err := c.workers.StopAll(); err != nil {
			errs = append(errs, fmt.Errorf("stop workers: %w", err))
		}
	}
	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		}
	}
	if c.stores != nil {
		if err := c.stores.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		c.logger.Error("Container closed with errors", zap.Error(err))
		return err
	}
	c.logger.Info("Container closed")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}
	fail := func(name, msg string) {
		status.Components[name] = ComponentHealth{Healthy: false, Message: msg}
		status.Overall = false
	}

	if c.stores == nil {
		fail("database", "not initialized")
	} else if err := c.stores.Ping(ctx); err != nil {
		fail("database", fmt.Sprintf("ping failed: %v", err))
	} else {
		status.Components["database"] = ComponentHealth{Healthy: true, Message: c.config.Database.Driver}
	}

	if c.dispatcher == nil {
		fail("dispatcher", "not initialized")
	} else {
		status.Components["dispatcher"] = ComponentHealth{Healthy: true}
	}

	status.Components["lark"] = optionalHealth(c.messenger != nil)
	status.Components["openai"] = optionalHealth(c.advisor != nil)
	status.Components["reminders"] = optionalHealth(c.services != nil && c.services.Reminder != nil)

	return status
}

func optionalHealth(enabled bool) ComponentHealth {
	if enabled {
		return ComponentHealth{Healthy: true}
	}
	return ComponentHealth{Healthy: true, Message: "disabled"}
}

// Store returns the request store
func (c *Container) Store() port.RequestStore {
	return c.stores.Store
}

// Attachments returns the attachment storage
func (c *Container) Attachments() *storage.LocalAttachmentStorage {
	return c.attachments
}

// Dispatcher returns the event dispatcher
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// WorkflowEngine returns the workflow engine
func (c *Container) WorkflowEngine() workflow.Engine {
	return c.engine
}

// Services returns the application services
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Logger returns the container's logger
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// KVLogger is the key/value logging interface of the application and interface layers
type KVLogger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// KVLogger returns the container's logger as a KVLogger
func (c *Container) KVLogger() KVLogger {
	return &zapLoggerAdapter{logger: c.logger}
}

// Config returns the container's configuration
func (c *Container) Config() *Config {
	return c.config
}
