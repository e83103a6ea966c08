package notifier

// TextNotifier is a minimal text notification interface so components can
// depend on it without importing concrete implementations.
type TextNotifier interface {
	SendText(text string) error
}

// Noop discards notifications; used when no channel is configured.
type Noop struct{}

func (Noop) SendText(string) error { return nil }
