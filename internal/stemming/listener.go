package stemming

import "log/slog"

// Listener receives fire-and-forget progress and status notifications.
// Implementations must return promptly; the pass calls them inline.
type Listener interface {
	OnProgress(percent int)
	OnStatus(message string)
}

// ListenerFuncs adapts plain functions to Listener. Nil fields are skipped.
type ListenerFuncs struct {
	Progress func(percent int)
	Status   func(message string)
}

func (l ListenerFuncs) OnProgress(percent int) {
	if l.Progress != nil {
		l.Progress(percent)
	}
}

func (l ListenerFuncs) OnStatus(message string) {
	if l.Status != nil {
		l.Status(message)
	}
}

// NopListener discards every notification.
type NopListener struct{}

func (NopListener) OnProgress(int)  {}
func (NopListener) OnStatus(string) {}

// LogListener forwards notifications to a structured logger at debug level.
type LogListener struct {
	Logger *slog.Logger
}

func (l LogListener) OnProgress(percent int) {
	l.logger().Debug("stem_progress", slog.Int("percent", percent))
}

func (l LogListener) OnStatus(message string) {
	l.logger().Debug("stem_status", slog.String("status", message))
}

func (l LogListener) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}

// MultiListener fans notifications out to several listeners in order.
type MultiListener []Listener

func (m MultiListener) OnProgress(percent int) {
	for _, l := range m {
		l.OnProgress(percent)
	}
}

func (m MultiListener) OnStatus(message string) {
	for _, l := range m {
		l.OnStatus(message)
	}
}
