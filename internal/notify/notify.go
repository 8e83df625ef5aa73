// Package notify is the toast surface: every user-visible outcome of a data
// call is delivered as one Toast to a Notifier.
package notify

import (
	"log/slog"
	"sync"
	"time"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

type Toast struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

type Notifier interface {
	Notify(t Toast)
}

func Success(n Notifier, message string) {
	send(n, LevelSuccess, message)
}

func Error(n Notifier, message string) {
	send(n, LevelError, message)
}

func Info(n Notifier, message string) {
	send(n, LevelInfo, message)
}

func send(n Notifier, level Level, message string) {
	if n == nil {
		return
	}
	n.Notify(Toast{Level: level, Message: message, At: time.Now().UTC()})
}

// LogNotifier records toasts in the debug log, next to the calls that
// produced them.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(t Toast) {
	n.logger.Debug("toast", "level", string(t.Level), "message", t.Message)
}

// Multi fans a toast out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(t Toast) {
	for _, n := range m {
		if n != nil {
			n.Notify(t)
		}
	}
}

// Recorder keeps every toast it receives.
type Recorder struct {
	mu     sync.Mutex
	toasts []Toast
}

func (r *Recorder) Notify(t Toast) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, t)
}

func (r *Recorder) Toasts() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Toast, len(r.toasts))
	copy(out, r.toasts)
	return out
}

func (r *Recorder) Count(level Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, t := range r.toasts {
		if t.Level == level {
			count++
		}
	}
	return count
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = nil
}
