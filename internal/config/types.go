package config

import "time"

// Config is the root configuration carrier for signalrelay.
type Config struct {
	App      AppConfig      `yaml:"app"`
	Discord  DiscordConfig  `yaml:"discord"`
	Order    OrderConfig    `yaml:"order"`
	Position PositionConfig `yaml:"position"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Notify   NotifyConfig   `yaml:"notify"`
}

type AppConfig struct {
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`
	HTTPAddr string `yaml:"http_addr"`
	LogPath  string `yaml:"log_path"`
}

// DiscordConfig describes the upstream alert channels.
type DiscordConfig struct {
	Token               string `yaml:"token"`
	APIBase             string `yaml:"api_base"`
	PrimaryChannelID    string `yaml:"primary_channel_id"`
	SecondaryChannelID  string `yaml:"secondary_channel_id"`
	PollIntervalSeconds int    `yaml:"poll_interval_seconds"`
	TimeoutSeconds      int    `yaml:"timeout_seconds"`
}

func (d DiscordConfig) PollInterval() time.Duration {
	return time.Duration(d.PollIntervalSeconds) * time.Second
}

// OrderConfig controls the downstream order webhook and sizing defaults.
type OrderConfig struct {
	Ticker         string  `yaml:"ticker"`
	GlobalQuantity int     `yaml:"global_quantity"`
	WebhookURL     string  `yaml:"webhook_url"`
	StopOffset     float64 `yaml:"stop_offset"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

type PositionConfig struct {
	DBPath        string `yaml:"db_path"`
	ExpiryMinutes int    `yaml:"expiry_minutes"`
}

// Expiry returns the staleness window after which an open position is swept.
func (p PositionConfig) Expiry() time.Duration {
	return time.Duration(p.ExpiryMinutes) * time.Minute
}

type LedgerConfig struct {
	DBPath string `yaml:"db_path"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}
