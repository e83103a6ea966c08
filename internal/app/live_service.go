package app

import (
	"context"
	"time"

	"signalrelay/internal/config"
	"signalrelay/internal/ledger"
	"signalrelay/internal/logger"
	"signalrelay/internal/position"
	"signalrelay/internal/scheduler"
	"signalrelay/internal/signal"
	"signalrelay/internal/source/discord"
	"signalrelay/internal/trader"
)

// LiveService owns the poll loop: every tick it sweeps expired state, pulls
// the newest message from each channel, and feeds them to the trader.
type LiveService struct {
	cfg    *config.Config
	client *discord.Client
	trader *trader.Trader
	store  *position.Store
	ledger *ledger.Ledger

	now func() time.Time
}

// Run blocks until ctx is cancelled.
func (s *LiveService) Run(ctx context.Context) error {
	logger.Infof("live: polling primary=%s secondary=%s every %s",
		s.cfg.Discord.PrimaryChannelID, s.cfg.Discord.SecondaryChannelID, s.cfg.Discord.PollInterval())
	sched := scheduler.NewIntervalScheduler(ctx, s.cfg.Discord.PollInterval())
	sched.Start(func() { s.cycle(ctx) })
	return ctx.Err()
}

// cycle is one poll pass. A panic in any stage is confined to the cycle so a
// single bad message cannot take the loop down.
func (s *LiveService) cycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("live: cycle panic recovered: %v", r)
		}
	}()

	switch s.now().Weekday() {
	case time.Saturday, time.Sunday:
		return
	}

	s.trader.SweepExpired(ctx, s.cfg.Position.Expiry())
	s.pollPrimary(ctx)
	s.pollSecondary(ctx)
}

func (s *LiveService) pollPrimary(ctx context.Context) {
	msg, err := s.client.LatestMessage(ctx, s.cfg.Discord.PrimaryChannelID)
	if err != nil {
		logger.Warnf("live: primary channel fetch failed: %v", err)
		return
	}
	if msg == nil {
		return
	}
	if err := s.trader.ProcessMessage(ctx, signal.SourcePrimary, msg.ID, msg.Content, msg.Timestamp, msg.MentionsEveryone); err != nil {
		logger.Errorf("live: primary message %s: %v", msg.ID, err)
	}
}

func (s *LiveService) pollSecondary(ctx context.Context) {
	if s.cfg.Discord.SecondaryChannelID == "" {
		return
	}
	msgs, err := s.client.RecentMessages(ctx, s.cfg.Discord.SecondaryChannelID, 1)
	if err != nil {
		logger.Warnf("live: secondary channel fetch failed: %v", err)
		return
	}
	if len(msgs) == 0 {
		return
	}
	msg := msgs[0]
	// Secondary alerts arrive as embeds; Text falls back to content.
	if err := s.trader.ProcessMessage(ctx, signal.SourceSecondary, msg.ID, msg.Text(), msg.Timestamp, msg.MentionsEveryone); err != nil {
		logger.Errorf("live: secondary message %s: %v", msg.ID, err)
	}
}

// Position implements livehttp.StatusProvider.
func (s *LiveService) Position(ctx context.Context) (*position.Record, error) {
	return s.trader.Position(ctx)
}

// LedgerCounts implements livehttp.StatusProvider.
func (s *LiveService) LedgerCounts(ctx context.Context) (map[string]int, error) {
	counts := s.ledger.Counts()
	out := make(map[string]int, len(counts))
	for ns, n := range counts {
		out[string(ns)] = n
	}
	return out, nil
}

// Close releases the persistent stores.
func (s *LiveService) Close() {
	if s.ledger != nil {
		if err := s.ledger.Close(); err != nil {
			logger.Warnf("live: ledger close failed: %v", err)
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			logger.Warnf("live: position store close failed: %v", err)
		}
	}
}
