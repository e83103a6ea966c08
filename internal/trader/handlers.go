package trader

import (
	"context"

	"signalrelay/internal/signal"
)

type EntryHandler struct{}

func (h *EntryHandler) Kind() signal.Kind { return signal.KindEntry }

func (h *EntryHandler) Handle(ctx context.Context, t *Trader, ev signal.Event, meta MessageMeta, traceID string) error {
	return t.step(ctx, ev, traceID)
}

type EntryTriggeredHandler struct{}

func (h *EntryTriggeredHandler) Kind() signal.Kind { return signal.KindEntryTriggered }

func (h *EntryTriggeredHandler) Handle(ctx context.Context, t *Trader, ev signal.Event, meta MessageMeta, traceID string) error {
	return t.step(ctx, ev, traceID)
}

type TrimHandler struct{}

func (h *TrimHandler) Kind() signal.Kind { return signal.KindTrim }

func (h *TrimHandler) Handle(ctx context.Context, t *Trader, ev signal.Event, meta MessageMeta, traceID string) error {
	// Trims carry no time field of their own; the transport timestamp
	// completes the semantic fingerprint.
	trim := ev.(signal.Trim)
	trim.Timestamp = meta.Timestamp
	return t.step(ctx, trim, traceID)
}

type TargetHitHandler struct{}

func (h *TargetHitHandler) Kind() signal.Kind { return signal.KindTargetHit }

func (h *TargetHitHandler) Handle(ctx context.Context, t *Trader, ev signal.Event, meta MessageMeta, traceID string) error {
	return t.step(ctx, ev, traceID)
}

type Target2HitHandler struct{}

func (h *Target2HitHandler) Kind() signal.Kind { return signal.KindTarget2Hit }

func (h *Target2HitHandler) Handle(ctx context.Context, t *Trader, ev signal.Event, meta MessageMeta, traceID string) error {
	return t.step(ctx, ev, traceID)
}

type StopLossHandler struct{}

func (h *StopLossHandler) Kind() signal.Kind { return signal.KindStopLoss }

func (h *StopLossHandler) Handle(ctx context.Context, t *Trader, ev signal.Event, meta MessageMeta, traceID string) error {
	sl := ev.(signal.StopLoss)
	if sl.Simple && sl.Time == "" {
		// The simple form has no time field; stamp it so redelivery within
		// the same second still collapses to one fingerprint.
		sl.Time = t.now().Format("2006-01-02T15:04:05")
	}
	return t.step(ctx, sl, traceID)
}

type StoppedOutHandler struct{}

func (h *StoppedOutHandler) Kind() signal.Kind { return signal.KindStoppedOut }

func (h *StoppedOutHandler) Handle(ctx context.Context, t *Trader, ev signal.Event, meta MessageMeta, traceID string) error {
	return t.step(ctx, ev, traceID)
}
