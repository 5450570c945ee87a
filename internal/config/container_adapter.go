package config

import (
	"strconv"

	"github.com/garyjia/trip-approval/internal/container"
	"github.com/garyjia/trip-approval/internal/domain/workflow"
)

// ToContainerConfig converts the file-based Config into the container's
// configuration. Call Validate first; invalid employee IDs are skipped.
func (c *Config) ToContainerConfig() *container.Config {
	roleChats := make(map[workflow.Role]string, len(c.Lark.RoleChats))
	for role, chatID := range c.Lark.RoleChats {
		roleChats[workflow.Role(role)] = chatID
	}

	openIDs := make(map[int64]string, len(c.Lark.EmployeeOpenIDs))
	for id, openID := range c.Lark.EmployeeOpenIDs {
		if n, err := strconv.ParseInt(id, 10, 64); err == nil {
			openIDs[n] = openID
		}
	}

	return &container.Config{
		Database: container.DatabaseConfig{
			Driver:          c.Database.Driver,
			Path:            c.Database.Path,
			DSN:             c.Database.DSN,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
			MigrationsDir:   c.Database.MigrationsDir,
		},
		Lark: container.LarkConfig{
			AppID:           c.Lark.AppID,
			AppSecret:       c.Lark.AppSecret,
			RoleChats:       roleChats,
			EmployeeOpenIDs: openIDs,
		},
		OpenAI: container.OpenAIConfig{
			APIKey:      c.OpenAI.APIKey,
			BaseURL:     c.OpenAI.BaseURL,
			Model:       c.OpenAI.Model,
			PromptsPath: c.OpenAI.PromptsPath,
			Timeout:     c.OpenAI.Timeout,
		},
		Storage: container.StorageConfig{
			AttachmentDir: c.Storage.AttachmentDir,
			URLPrefix:     c.Storage.URLPrefix,
		},
		Seed: container.SeedConfig{
			Path: c.Seed.Path,
		},
		Dispatcher: container.DispatcherConfig{
			HandlerTimeout: c.Dispatcher.HandlerTimeout,
		},
		Reminder: container.ReminderConfig{
			Interval:   c.Reminder.Interval,
			StaleAfter: c.Reminder.StaleAfter,
		},
	}
}
