package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Load reads the YAML config at path, applies defaults and the DISCORD_TOKEN
// environment override, and validates the result.
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	cfg.applyDefaults()
	if token := strings.TrimSpace(os.Getenv("DISCORD_TOKEN")); token != "" {
		cfg.Discord.Token = token
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

const (
	defaultAppEnv          = "dev"
	defaultAppLogLevel     = "info"
	defaultAppHTTPAddr     = ":9981"
	defaultDiscordAPIBase  = "https://discord.com/api/v10"
	defaultDiscordPollSec  = 1
	defaultDiscordTimeout  = 10
	defaultOrderQuantity   = 4
	defaultOrderStopOffset = 3.0
	defaultOrderTimeout    = 15
	defaultPositionDB      = "data/position.db"
	defaultPositionExpiry  = 720
	defaultLedgerDB        = "data/ledger.db"
)

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = defaultAppEnv
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = defaultAppLogLevel
	}
	if c.App.HTTPAddr == "" {
		c.App.HTTPAddr = defaultAppHTTPAddr
	}
	if c.Discord.APIBase == "" {
		c.Discord.APIBase = defaultDiscordAPIBase
	}
	if c.Discord.PollIntervalSeconds <= 0 {
		c.Discord.PollIntervalSeconds = defaultDiscordPollSec
	}
	if c.Discord.TimeoutSeconds <= 0 {
		c.Discord.TimeoutSeconds = defaultDiscordTimeout
	}
	if c.Order.GlobalQuantity <= 0 {
		c.Order.GlobalQuantity = defaultOrderQuantity
	}
	if c.Order.StopOffset <= 0 {
		c.Order.StopOffset = defaultOrderStopOffset
	}
	if c.Order.TimeoutSeconds <= 0 {
		c.Order.TimeoutSeconds = defaultOrderTimeout
	}
	if c.Position.DBPath == "" {
		c.Position.DBPath = defaultPositionDB
	}
	if c.Position.ExpiryMinutes <= 0 {
		c.Position.ExpiryMinutes = defaultPositionExpiry
	}
	if c.Ledger.DBPath == "" {
		c.Ledger.DBPath = defaultLedgerDB
	}
}
