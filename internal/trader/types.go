package trader

import (
	"errors"
	"fmt"

	"signalrelay/internal/intent"
	"signalrelay/internal/position"

	"github.com/shopspring/decimal"
)

// Expected non-error outcomes of dispatching an event. The cycle driver
// matches on these instead of treating them as failures.
var (
	// ErrDuplicateEvent: the semantic fingerprint was already processed.
	ErrDuplicateEvent = errors.New("duplicate event")
	// ErrNoOpenPosition: a lifecycle event arrived against a flat book.
	ErrNoOpenPosition = errors.New("no open position")
	// ErrPositionOpen: an entry arrived while a position is already open.
	ErrPositionOpen = errors.New("position already open")
	// ErrSourceMismatch: the event's channel differs from the channel that
	// opened the position.
	ErrSourceMismatch = errors.New("event source does not match position source")
	// ErrEntryRejected: the entry failed its sizing rule (score/letter).
	ErrEntryRejected = errors.New("entry rejected")
)

// Params are the fixed per-process inputs of the transition function.
type Params struct {
	Ticker     string
	GlobalQty  int
	StopOffset decimal.Decimal
}

// Result is one state-machine step: the next persisted position (nil means
// flat), the intents to emit, and whether the event's fingerprint should be
// committed to the ledger once emission has been attempted.
type Result struct {
	Next    *position.Record
	Intents []intent.OrderIntent
	Commit  bool
	Notes   []string
}

func (r *Result) note(format string, args ...any) {
	r.Notes = append(r.Notes, fmt.Sprintf(format, args...))
}

// MessageMeta carries the transport identity of the message an event came
// from; the state machine itself never sees it.
type MessageMeta struct {
	ID        string
	Timestamp string
}
