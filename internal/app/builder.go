package app

import (
	"context"
	"fmt"
	"time"

	"signalrelay/internal/config"
	"signalrelay/internal/emitter"
	"signalrelay/internal/gateway/notifier"
	"signalrelay/internal/ledger"
	"signalrelay/internal/position"
	"signalrelay/internal/source/discord"
	"signalrelay/internal/trader"
	livehttp "signalrelay/internal/transport/http/live"

	"github.com/shopspring/decimal"
)

// AppBuilder assembles the application graph from configuration.
type AppBuilder struct {
	cfg *config.Config
}

func NewAppBuilder(cfg *config.Config) *AppBuilder {
	return &AppBuilder{cfg: cfg}
}

// Build constructs the stores, gateways, trader, and HTTP surface. Stores are
// opened here; the LiveService owns closing them.
func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	cfg := b.cfg
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}

	led, err := ledger.Open(cfg.Ledger.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	store, err := position.NewStore(cfg.Position.DBPath)
	if err != nil {
		led.Close()
		return nil, fmt.Errorf("open position store: %w", err)
	}

	client, err := discord.NewClient(cfg.Discord.APIBase, cfg.Discord.Token, time.Duration(cfg.Discord.TimeoutSeconds)*time.Second)
	if err != nil {
		led.Close()
		store.Close()
		return nil, fmt.Errorf("discord client: %w", err)
	}

	webhook, err := emitter.NewWebhook(cfg.Order.WebhookURL, time.Duration(cfg.Order.TimeoutSeconds)*time.Second)
	if err != nil {
		led.Close()
		store.Close()
		return nil, fmt.Errorf("order webhook: %w", err)
	}
	guarded := emitter.NewGuarded(webhook)

	var notify notifier.TextNotifier = notifier.Noop{}
	if cfg.Notify.Telegram.Enabled {
		notify = notifier.NewTelegram(cfg.Notify.Telegram.BotToken, cfg.Notify.Telegram.ChatID)
	}

	params := trader.Params{
		Ticker:     cfg.Order.Ticker,
		GlobalQty:  cfg.Order.GlobalQuantity,
		StopOffset: decimal.NewFromFloat(cfg.Order.StopOffset),
	}
	td := trader.New(params, store, led, guarded, notify)

	live := &LiveService{
		cfg:    cfg,
		client: client,
		trader: td,
		store:  store,
		ledger: led,
		now:    time.Now,
	}

	srv, err := livehttp.NewServer(livehttp.ServerConfig{Addr: cfg.App.HTTPAddr, Status: live})
	if err != nil {
		live.Close()
		return nil, fmt.Errorf("live http server: %w", err)
	}

	return &App{cfg: cfg, live: live, liveHTTP: srv}, nil
}
