// Package container wires the trip approval system together and manages the
// lifecycle of its components.
package container

import (
	"fmt"
	"time"

	"github.com/garyjia/trip-approval/internal/domain/workflow"
)

// Storage drivers for trip requests
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all configuration for the Container.
type Config struct {
	Database   DatabaseConfig
	Lark       LarkConfig
	OpenAI     OpenAIConfig
	Storage    StorageConfig
	Seed       SeedConfig
	Dispatcher DispatcherConfig
	Reminder   ReminderConfig
}

// DatabaseConfig selects and configures the request store.
type DatabaseConfig struct {
	// Driver is one of sqlite, postgres or memory
	Driver string

	// Path to SQLite database file
	Path string

	// DSN is the PostgreSQL connection string
	DSN string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// MigrationsDir overrides the embedded SQLite migrations when set
	MigrationsDir string
}

// LarkConfig holds Lark notification settings. Empty credentials disable notifications.
type LarkConfig struct {
	AppID     string
	AppSecret string

	// RoleChats maps an approver role to its group chat ID
	RoleChats map[workflow.Role]string

	// EmployeeOpenIDs maps an employee ID to their open ID
	EmployeeOpenIDs map[int64]string
}

// OpenAIConfig holds trip advisor settings. An empty APIKey disables the advisor.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	PromptsPath string
	Timeout     time.Duration
}

// StorageConfig holds attachment storage settings.
type StorageConfig struct {
	// AttachmentDir is the base directory for uploaded documents
	AttachmentDir string

	// URLPrefix is prepended to storage keys to form download URLs
	URLPrefix string
}

// SeedConfig points at demo data loaded into an empty store.
type SeedConfig struct {
	Path string
}

// DispatcherConfig holds event dispatcher settings.
type DispatcherConfig struct {
	HandlerTimeout time.Duration
}

// ReminderConfig controls reminders about idle requests. A zero Interval
// disables them; they also need Lark to be configured.
type ReminderConfig struct {
	Interval   time.Duration
	StaleAfter time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:          DriverSQLite,
			Path:            "data/trips.db",
			MaxOpenConns:    1,
			MaxIdleConns:    1,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Storage: StorageConfig{
			AttachmentDir: "attachments",
			URLPrefix:     "/api/files/",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Dispatcher: DispatcherConfig{
			HandlerTimeout: 30 * time.Second,
		},
		Reminder: ReminderConfig{
			StaleAfter: 48 * time.Hour,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for postgres")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}

	if (c.Lark.AppID == "") != (c.Lark.AppSecret == "") {
		return fmt.Errorf("lark.app_id and lark.app_secret must be set together")
	}
	for role := range c.Lark.RoleChats {
		if !role.IsActor() {
			return fmt.Errorf("lark.role_chats: unknown role %q", role)
		}
	}

	if c.Storage.AttachmentDir == "" {
		return fmt.Errorf("storage.attachment_dir is required")
	}

	if c.Reminder.Interval > 0 && c.Reminder.StaleAfter <= 0 {
		return fmt.Errorf("reminder.stale_after must be positive when reminders are enabled")
	}

	return nil
}
