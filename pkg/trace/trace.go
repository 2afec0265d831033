// Package trace provides an injectable sink for extraction decisions. The
// engine emits structured events while it works; the caller decides whether
// and where those events are recorded.
package trace

import (
	"sync"

	"github.com/rs/zerolog"
)

// Level indicates the severity of an extraction event.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
)

// Event is one extraction decision: a field populated, a section located or
// skipped, a count disagreement, and so on.
type Event struct {
	Level   Level
	Stage   string // pipeline stage, e.g. "field", "section", "claims", "convictions"
	Field   string // logical field or section name, when applicable
	Value   string // extracted value, when applicable
	Message string
}

// Sink receives extraction events. Implementations must be safe for
// concurrent use; one parser may be shared across parse calls.
type Sink interface {
	Emit(Event)
}

// Nop discards all events. It is the default sink.
var Nop Sink = nopSink{}

type nopSink struct{}

func (nopSink) Emit(Event) {}

// Collector retains events in memory so tests can assert on extraction
// decisions without parsing console output.
type Collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *Collector) Emit(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

// Events returns a copy of everything emitted so far.
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// Warnings returns only the warning-level events.
func (c *Collector) Warnings() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Event
	for _, e := range c.events {
		if e.Level == LevelWarning {
			out = append(out, e)
		}
	}
	return out
}

// Logger adapts a zerolog logger into a Sink.
type Logger struct {
	log zerolog.Logger
}

// NewLogger wraps a zerolog logger as an event sink.
func NewLogger(log zerolog.Logger) *Logger {
	return &Logger{log: log}
}

func (l *Logger) Emit(e Event) {
	var ev *zerolog.Event
	if e.Level == LevelWarning {
		ev = l.log.Warn()
	} else {
		ev = l.log.Debug()
	}
	if e.Stage != "" {
		ev = ev.Str("stage", e.Stage)
	}
	if e.Field != "" {
		ev = ev.Str("field", e.Field)
	}
	if e.Value != "" {
		ev = ev.Str("value", e.Value)
	}
	ev.Msg(e.Message)
}
