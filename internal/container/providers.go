package container

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/garyjia/trip-approval/internal/application/dispatcher"
	"github.com/garyjia/trip-approval/internal/application/port"
	"github.com/garyjia/trip-approval/internal/application/service"
	"github.com/garyjia/trip-approval/internal/application/workflow"
	"github.com/garyjia/trip-approval/internal/infrastructure/external/lark"
	"github.com/garyjia/trip-approval/internal/infrastructure/external/openai"
	"github.com/garyjia/trip-approval/internal/infrastructure/persistence/gormstore"
	"github.com/garyjia/trip-approval/internal/infrastructure/persistence/memory"
	"github.com/garyjia/trip-approval/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/trip-approval/internal/infrastructure/storage"
	"github.com/garyjia/trip-approval/internal/infrastructure/worker"
	"github.com/garyjia/trip-approval/pkg/database"
)

// StoreBundle holds the request store and the connection behind it.
type StoreBundle struct {
	Store port.RequestStore

	// SQLite is set for the sqlite driver
	SQLite *database.DB

	// Gorm is set for the postgres driver
	Gorm *gorm.DB
}

// Ping checks the underlying connection, if any.
func (b *StoreBundle) Ping(ctx context.Context) error {
	switch {
	case b.SQLite != nil:
		return b.SQLite.PingContext(ctx)
	case b.Gorm != nil:
		sqlDB, err := b.Gorm.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
	return nil
}

// Close releases the underlying connection, if any.
func (b *StoreBundle) Close() error {
	switch {
	case b.SQLite != nil:
		return b.SQLite.Close()
	case b.Gorm != nil:
		sqlDB, err := b.Gorm.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Requests     service.RequestService
	Export       service.ExportService
	Advice       service.AdviceService
	Notification service.NotificationService
	Reminder     service.ReminderService
}

// ProvideStore opens the configured request store and applies its schema.
func ProvideStore(ctx context.Context, cfg *DatabaseConfig, logger *zap.Logger) (*StoreBundle, error) {
	switch cfg.Driver {
	case DriverMemory:
		return &StoreBundle{Store: memory.NewRequestStore()}, nil

	case DriverPostgres:
		db, err := gormstore.Open(cfg.DSN)
		if err != nil {
			return nil, err
		}
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
			sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		}
		return &StoreBundle{Store: gormstore.NewRequestStore(db, logger), Gorm: db}, nil

	case DriverSQLite:
		db, err := database.New(database.Config{
			Path:            cfg.Path,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
		}, logger)
		if err != nil {
			return nil, err
		}

		migrator := database.NewMigrator(db, logger)
		if cfg.MigrationsDir != "" {
			err = migrator.RunMigrations(ctx, os.DirFS(cfg.MigrationsDir), ".")
		} else {
			err = migrator.RunMigrations(ctx, sqlite.Migrations, sqlite.MigrationsDir)
		}
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		store := sqlite.NewRequestStore(sqlite.NewDB(db), logger)
		return &StoreBundle{Store: store, SQLite: db}, nil
	}

	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}

// ProvideMessenger returns the Lark messenger, or nil when Lark is not configured.
func ProvideMessenger(cfg *LarkConfig, logger *zap.Logger) port.Messenger {
	larkCfg := lark.Config{AppID: cfg.AppID, AppSecret: cfg.AppSecret}
	if !larkCfg.Enabled() {
		logger.Info("Lark credentials not set, notifications disabled")
		return nil
	}
	return lark.NewMessenger(larkCfg, logger)
}

// ProvideAdvisor returns the OpenAI trip advisor, or nil when no API key is set.
func ProvideAdvisor(cfg *OpenAIConfig, logger *zap.Logger) (port.TripAdvisor, error) {
	if cfg.APIKey == "" {
		logger.Info("OpenAI API key not set, trip advisor disabled")
		return nil, nil
	}
	advisor, err := openai.NewAdvisor(openai.Config{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		PromptsPath: cfg.PromptsPath,
		Timeout:     cfg.Timeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create trip advisor: %w", err)
	}
	return advisor, nil
}

// ProvideAttachmentStorage creates the attachment directory and its storage.
func ProvideAttachmentStorage(cfg *StorageConfig, logger *zap.Logger) (*storage.LocalAttachmentStorage, error) {
	if err := os.MkdirAll(cfg.AttachmentDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create attachment dir: %w", err)
	}
	return storage.NewLocalAttachmentStorage(cfg.AttachmentDir, cfg.URLPrefix, logger), nil
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(cfg *DispatcherConfig, logger *zap.Logger) dispatcher.Dispatcher {
	opts := []dispatcher.Option{dispatcher.WithLogger(&zapLoggerAdapter{logger: logger})}
	if cfg.HandlerTimeout > 0 {
		opts = append(opts, dispatcher.WithHandlerTimeout(cfg.HandlerTimeout))
	}
	return dispatcher.NewDispatcher(opts...)
}

// ProvideWorkflowEngine creates the workflow engine publishing to d.
func ProvideWorkflowEngine(store port.RequestStore, d dispatcher.Dispatcher, logger *zap.Logger) workflow.Engine {
	return workflow.NewEngine(store,
		workflow.WithDispatcher(d),
		workflow.WithLogger(&zapLoggerAdapter{logger: logger}),
	)
}

// ServiceDeps holds the dependencies of the application services.
type ServiceDeps struct {
	Store      port.RequestStore
	Messenger  port.Messenger
	Advisor    port.TripAdvisor
	Lark       *LarkConfig
	Reminder   *ReminderConfig
	Dispatcher dispatcher.Dispatcher
	Logger     *zap.Logger
}

// ProvideServices creates the application services. The notification and
// reminder services exist only when a messenger is available.
func ProvideServices(deps *ServiceDeps) *ServiceBundle {
	log := &zapLoggerAdapter{logger: deps.Logger}
	requests := service.NewRequestService(deps.Store, log)

	bundle := &ServiceBundle{
		Requests: requests,
		Export:   service.NewExportService(requests, log),
		Advice:   service.NewAdviceService(deps.Store, deps.Advisor, log),
	}

	if deps.Messenger != nil {
		directory := service.NotificationDirectory{
			RoleChats:       deps.Lark.RoleChats,
			EmployeeOpenIDs: deps.Lark.EmployeeOpenIDs,
		}
		bundle.Notification = service.NewNotificationService(deps.Messenger, directory, log)
		deps.Dispatcher.Subscribe("lark_notifier", bundle.Notification.HandleEvent)

		if deps.Reminder != nil && deps.Reminder.Interval > 0 {
			bundle.Reminder = service.NewReminderService(deps.Store, deps.Messenger, directory, deps.Reminder.StaleAfter, log)
		}
	}

	return bundle
}

// ProvideWorkers registers the background workers backed by bundle.
func ProvideWorkers(bundle *ServiceBundle, cfg *ReminderConfig, logger *zap.Logger) *worker.Manager {
	m := worker.NewManager(logger)
	if bundle.Reminder != nil {
		m.Register(worker.NewReminderWorker(bundle.Reminder, cfg.Interval, logger))
	}
	return m
}
