package trader

import (
	"context"

	"signalrelay/internal/signal"
)

// EventHandler processes one event kind. Implementations encapsulate the
// guard/action pairing for their kind and delegate shared plumbing to the
// Trader.
type EventHandler interface {
	// Kind returns the event kind this handler processes.
	Kind() signal.Kind

	// Handle processes the event. The traceID correlates log lines across
	// one message's dispatch.
	Handle(ctx context.Context, t *Trader, ev signal.Event, meta MessageMeta, traceID string) error
}

// HandlerRegistry maps event kinds to their handlers.
type HandlerRegistry struct {
	handlers map[signal.Kind]EventHandler
}

func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: make(map[signal.Kind]EventHandler)}
}

// Register adds a handler, replacing any existing one for the same kind.
func (r *HandlerRegistry) Register(h EventHandler) {
	if h == nil {
		return
	}
	r.handlers[h.Kind()] = h
}

func (r *HandlerRegistry) Get(k signal.Kind) (EventHandler, bool) {
	h, ok := r.handlers[k]
	return h, ok
}

// RegisterDefaultHandlers registers the built-in handlers for every
// recognized event kind.
func (r *HandlerRegistry) RegisterDefaultHandlers() {
	r.Register(&EntryHandler{})
	r.Register(&EntryTriggeredHandler{})
	r.Register(&TrimHandler{})
	r.Register(&TargetHitHandler{})
	r.Register(&Target2HitHandler{})
	r.Register(&StopLossHandler{})
	r.Register(&StoppedOutHandler{})
}
