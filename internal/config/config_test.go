package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/trip-approval/internal/domain/workflow"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_DefaultsAndFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
database:
  driver: memory
lark:
  role_chats:
    manager: oc_managers
    hr: oc_hr
  employee_open_ids:
    "1": ou_anna
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "attachments", cfg.Storage.AttachmentDir)
	assert.Equal(t, int64(20), cfg.Storage.MaxUploadMB)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, "oc_hr", cfg.Lark.RoleChats["hr"])
	assert.Equal(t, time.Hour, cfg.Reminder.Interval)
	assert.Equal(t, 48*time.Hour, cfg.Reminder.StaleAfter)

	cc := cfg.ToContainerConfig()
	assert.Equal(t, "oc_managers", cc.Lark.RoleChats[workflow.RoleManager])
	assert.Equal(t, "ou_anna", cc.Lark.EmployeeOpenIDs[1])
	assert.Equal(t, "memory", cc.Database.Driver)
	assert.Equal(t, 48*time.Hour, cc.Reminder.StaleAfter)
	assert.NoError(t, cc.Validate())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LARK_APP_ID", "cli_env")
	t.Setenv("LARK_APP_SECRET", "secret_env")
	t.Setenv("SERVER_PORT", "7070")

	cfg, err := Load(writeConfig(t, "database:\n  driver: memory\n"))
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "cli_env", cfg.Lark.AppID)
	assert.Equal(t, "secret_env", cfg.Lark.AppSecret)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "server:\n  mode: turbo\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "lark:\n  employee_open_ids:\n    anna: ou_1\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "reminder:\n  interval: -1h\n"))
	assert.Error(t, err)
}
