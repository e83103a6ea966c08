package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const minimalYAML = `
discord:
  token: tok-123
  primary_channel_id: "111"
order:
  ticker: ES1!
  webhook_url: https://example.com/hook
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	assert.NoError(t, err)

	assert.Equal(t, "dev", cfg.App.Env)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, ":9981", cfg.App.HTTPAddr)
	assert.Equal(t, "https://discord.com/api/v10", cfg.Discord.APIBase)
	assert.Equal(t, time.Second, cfg.Discord.PollInterval())
	assert.Equal(t, 4, cfg.Order.GlobalQuantity)
	assert.Equal(t, 3.0, cfg.Order.StopOffset)
	assert.Equal(t, 12*time.Hour, cfg.Position.Expiry())
	assert.Equal(t, "data/position.db", cfg.Position.DBPath)
	assert.Equal(t, "data/ledger.db", cfg.Ledger.DBPath)
}

func TestLoadExplicitValuesWin(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML+`
app:
  log_level: debug
position:
  expiry_minutes: 60
`))
	assert.NoError(t, err)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, time.Hour, cfg.Position.Expiry())
}

func TestLoadEnvTokenOverride(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "env-token")
	cfg, err := Load(writeConfig(t, minimalYAML))
	assert.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Discord.Token)
}

func TestLoadValidation(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		t.Setenv("DISCORD_TOKEN", "")
		_, err := Load(writeConfig(t, `
discord:
  primary_channel_id: "111"
order:
  ticker: ES1!
  webhook_url: https://example.com/hook
`))
		assert.ErrorContains(t, err, "discord.token")
	})

	t.Run("missing channels", func(t *testing.T) {
		_, err := Load(writeConfig(t, `
discord:
  token: tok
order:
  ticker: ES1!
  webhook_url: https://example.com/hook
`))
		assert.ErrorContains(t, err, "channel_id")
	})

	t.Run("missing webhook", func(t *testing.T) {
		_, err := Load(writeConfig(t, `
discord:
  token: tok
  primary_channel_id: "111"
order:
  ticker: ES1!
`))
		assert.ErrorContains(t, err, "webhook_url")
	})

	t.Run("telegram enabled but incomplete", func(t *testing.T) {
		_, err := Load(writeConfig(t, minimalYAML+`
notify:
  telegram:
    enabled: true
`))
		assert.ErrorContains(t, err, "telegram")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}
