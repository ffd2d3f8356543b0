package notify

import "log/slog"

// Severity of a user-facing event.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// Event is an advisory outcome report. Nothing blocks on it and nothing
// depends on it for correctness.
type Event struct {
	Severity Severity
	Message  string
}

// Sink receives outcome events from the sync engines.
type Sink interface {
	Publish(event Event)
}

// SlogSink writes events to a structured logger. The storefront UI replaces
// this with its toast surface; the daemon keeps the log.
type SlogSink struct {
	log *slog.Logger
}

func NewSlogSink(log *slog.Logger) *SlogSink {
	return &SlogSink{log: log}
}

func (s *SlogSink) Publish(event Event) {
	switch event.Severity {
	case SeverityError:
		s.log.Error(event.Message)
	case SeverityWarn:
		s.log.Warn(event.Message)
	default:
		s.log.Info(event.Message)
	}
}
