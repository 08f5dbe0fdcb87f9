// Package notify carries user-visible confirmation and error messages
// ("toasts") from view-models to whatever surface renders them.
package notify

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

type Toast struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Logger writes toasts to a zap logger.
type Logger struct {
	logger *zap.Logger
}

func NewLogger(logger *zap.Logger) *Logger {
	return &Logger{logger: logger.Named("toast")}
}

func (l *Logger) Success(msg string) {
	l.logger.Info(msg, zap.String("level", string(LevelSuccess)))
}

func (l *Logger) Error(msg string) {
	l.logger.Warn(msg, zap.String("level", string(LevelError)))
}

// Recorder queues toasts until the surface drains them.
type Recorder struct {
	mu     sync.Mutex
	toasts []Toast
	limit  int
	now    func() time.Time
}

// NewRecorder keeps at most limit undrained toasts, dropping the oldest.
func NewRecorder(limit int) *Recorder {
	if limit <= 0 {
		limit = 20
	}
	return &Recorder{limit: limit, now: time.Now}
}

func (r *Recorder) Success(msg string) { r.add(LevelSuccess, msg) }

func (r *Recorder) Error(msg string) { r.add(LevelError, msg) }

func (r *Recorder) add(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, Toast{Level: level, Message: msg, At: r.now()})
	if over := len(r.toasts) - r.limit; over > 0 {
		r.toasts = append(r.toasts[:0], r.toasts[over:]...)
	}
}

// Drain returns queued toasts oldest first and empties the queue.
func (r *Recorder) Drain() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.toasts
	r.toasts = nil
	return out
}

type multi []Notifier

// Multi fans each toast out to every notifier.
func Multi(ns ...Notifier) Notifier {
	return multi(ns)
}

func (m multi) Success(msg string) {
	for _, n := range m {
		n.Success(msg)
	}
}

func (m multi) Error(msg string) {
	for _, n := range m {
		n.Error(msg)
	}
}

// Nop discards everything.
type Nop struct{}

func (Nop) Success(string) {}
func (Nop) Error(string)   {}
