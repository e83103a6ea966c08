package trader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"signalrelay/internal/emitter"
	"signalrelay/internal/gateway/notifier"
	"signalrelay/internal/ledger"
	"signalrelay/internal/logger"
	"signalrelay/internal/position"
	"signalrelay/internal/signal"

	"github.com/google/uuid"
)

// Trader drives the position lifecycle: classify an inbound message, dedup it
// against both ledger keyspaces, step the state machine, emit the intents,
// persist the result, and commit the ledger.
//
// All calls run on the single poll goroutine; no internal locking.
type Trader struct {
	params   Params
	store    *position.Store
	ledger   *ledger.Ledger
	emitter  emitter.Emitter
	registry *HandlerRegistry
	notify   notifier.TextNotifier
	now      func() time.Time
}

func New(params Params, store *position.Store, led *ledger.Ledger, em emitter.Emitter, notify notifier.TextNotifier) *Trader {
	reg := NewHandlerRegistry()
	reg.RegisterDefaultHandlers()
	if notify == nil {
		notify = notifier.Noop{}
	}
	return &Trader{
		params:   params,
		store:    store,
		ledger:   led,
		emitter:  em,
		registry: reg,
		notify:   notify,
		now:      time.Now,
	}
}

// SweepExpired clears an open position older than maxAge so an orphaned
// record cannot block new entries indefinitely.
func (t *Trader) SweepExpired(ctx context.Context, maxAge time.Duration) {
	if maxAge <= 0 {
		return
	}
	cleared, err := t.store.ClearIfOlder(ctx, t.now().Add(-maxAge))
	if err != nil {
		logger.Warnf("trader: expiry sweep failed: %v", err)
		return
	}
	if cleared {
		logger.Infof("trader: cleared position older than %s", maxAge)
	}
}

// ProcessMessage runs one message through classification, dedup, and the
// state machine. Expected outcomes (duplicates, misses, guard failures) are
// logged and absorbed; only infrastructure failures surface as errors.
func (t *Trader) ProcessMessage(ctx context.Context, src signal.Source, id, text, timestamp string, mentionsEveryone bool) error {
	if text == "" {
		return nil
	}
	if id != "" && t.ledger.IsProcessed(ledger.NamespaceMessage, id) {
		return nil
	}
	traceID := uuid.NewString()

	ev, err := signal.Classify(text, mentionsEveryone, src)
	var parseErr *signal.ParseError
	if errors.As(err, &parseErr) {
		// Matched a pattern with a malformed field: drop, never retry.
		logger.Warnf("trader[%s]: %v", traceID, parseErr)
		return t.markMessage(id)
	}
	if err != nil {
		return err
	}
	if ev == nil {
		t.logUnrecognized(id, text)
		return nil
	}

	handler, ok := t.registry.Get(ev.Kind())
	if !ok {
		logger.Warnf("trader[%s]: no handler for event kind %s", traceID, ev.Kind())
		return t.markMessage(id)
	}

	logger.Debugf("trader[%s]: %s event from %s channel (msg=%s)", traceID, ev.Kind(), src, id)
	err = handler.Handle(ctx, t, ev, MessageMeta{ID: id, Timestamp: timestamp}, traceID)
	switch {
	case err == nil:
		return t.markMessage(id)
	case errors.Is(err, ErrDuplicateEvent):
		logger.Debugf("trader[%s]: %s already processed, skipping", traceID, ev.Kind())
		return t.markMessage(id)
	case errors.Is(err, ErrNoOpenPosition):
		logger.Infof("trader[%s]: %s ignored, no open position", traceID, ev.Kind())
		return t.markMessage(id)
	case errors.Is(err, ErrPositionOpen):
		logger.Infof("trader[%s]: %s ignored, position already open", traceID, ev.Kind())
		return t.markMessage(id)
	case errors.Is(err, ErrSourceMismatch):
		logger.Infof("trader[%s]: %s from %s channel ignored, position owned by another source", traceID, ev.Kind(), src)
		return t.markMessage(id)
	case errors.Is(err, ErrEntryRejected):
		logger.Infof("trader[%s]: %v", traceID, err)
		return t.markMessage(id)
	default:
		var emitErr *emitter.EmissionError
		if errors.As(err, &emitErr) {
			// Leave both keyspaces unmarked so the next poll re-attempts:
			// at-least-once emission, at-most-once ledger commit.
			logger.Errorf("trader[%s]: %v (will re-attempt next cycle)", traceID, emitErr)
			return nil
		}
		return fmt.Errorf("handle %s: %w", ev.Kind(), err)
	}
}

// step is the shared handler body: fingerprint dedup, transition, emit,
// persist, commit.
func (t *Trader) step(ctx context.Context, ev signal.Event, traceID string) error {
	key, hasKey := ev.Fingerprint()
	if hasKey && t.ledger.IsProcessed(ledger.NamespaceEvent, string(key)) {
		return ErrDuplicateEvent
	}

	st, err := t.store.Get(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoOpenPosition, err)
	}

	res, err := Transition(t.params, st, ev, t.now())
	if err != nil {
		return err
	}
	for _, n := range res.Notes {
		logger.Infof("trader[%s]: %s", traceID, n)
	}

	// Emit before persisting: a failed emission leaves the stored position
	// untouched, so the re-attempt on the next poll recomputes the identical
	// transition instead of trimming an already-reduced record again.
	for _, oi := range res.Intents {
		if err := t.emitter.Emit(ctx, oi); err != nil {
			return err
		}
	}

	if res.Next != nil {
		if err := t.store.Save(ctx, res.Next); err != nil {
			return fmt.Errorf("persist position: %w", err)
		}
	} else if st != nil {
		if err := t.store.Clear(ctx); err != nil {
			return fmt.Errorf("clear position: %w", err)
		}
	}

	if res.Commit && hasKey {
		if err := t.ledger.MarkProcessed(ledger.NamespaceEvent, string(key)); err != nil {
			return err
		}
	}

	if len(res.Notes) > 0 {
		if err := t.notify.SendText(fmt.Sprintf("*%s*\n%s", ev.Kind(), strings.Join(res.Notes, "\n"))); err != nil {
			logger.Warnf("trader[%s]: notify failed: %v", traceID, err)
		}
	}
	return nil
}

func (t *Trader) markMessage(id string) error {
	if id == "" {
		return nil
	}
	return t.ledger.MarkProcessed(ledger.NamespaceMessage, id)
}

// logUnrecognized prints an unmatched message verbatim exactly once per
// message id.
func (t *Trader) logUnrecognized(id, text string) {
	if id != "" && t.ledger.IsProcessed(ledger.NamespaceInvalid, id) {
		return
	}
	logger.Infof("trader: unrecognized message: %s", text)
	if id != "" {
		if err := t.ledger.MarkProcessed(ledger.NamespaceInvalid, id); err != nil {
			logger.Warnf("trader: marking unrecognized message failed: %v", err)
		}
	}
}

// Position returns the current open position for status reporting.
func (t *Trader) Position(ctx context.Context) (*position.Record, error) {
	return t.store.Get(ctx)
}
