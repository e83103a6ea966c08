package config

import (
	"fmt"
	"strings"
)

func validate(c *Config) error {
	if err := c.Discord.validate(); err != nil {
		return err
	}
	if err := c.Order.validate(); err != nil {
		return err
	}
	if err := c.Notify.validate(); err != nil {
		return err
	}
	return nil
}

func (d DiscordConfig) validate() error {
	if strings.TrimSpace(d.Token) == "" {
		return fmt.Errorf("discord.token cannot be empty (set DISCORD_TOKEN to inject it)")
	}
	if strings.TrimSpace(d.PrimaryChannelID) == "" && strings.TrimSpace(d.SecondaryChannelID) == "" {
		return fmt.Errorf("discord requires at least one of primary_channel_id / secondary_channel_id")
	}
	return nil
}

func (o OrderConfig) validate() error {
	if strings.TrimSpace(o.Ticker) == "" {
		return fmt.Errorf("order.ticker cannot be empty")
	}
	if strings.TrimSpace(o.WebhookURL) == "" {
		return fmt.Errorf("order.webhook_url cannot be empty")
	}
	if o.GlobalQuantity < 1 {
		return fmt.Errorf("order.global_quantity must be >= 1")
	}
	return nil
}

func (n NotifyConfig) validate() error {
	t := n.Telegram
	if !t.Enabled {
		return nil
	}
	if strings.TrimSpace(t.BotToken) == "" || strings.TrimSpace(t.ChatID) == "" {
		return fmt.Errorf("notify.telegram requires bot_token and chat_id when enabled")
	}
	return nil
}
