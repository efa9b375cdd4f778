package helper

import (
	"context"
	"log/slog"
	"sync"
)

// LogHandlerSpy is a slog.Handler that captures log records for testing.
type LogHandlerSpy struct {
	mu      sync.Mutex
	records []slog.Record
}

func NewLogHandlerSpy() *LogHandlerSpy {
	return &LogHandlerSpy{}
}

// Logger returns a *slog.Logger writing into the spy.
func (s *LogHandlerSpy) Logger() *slog.Logger {
	return slog.New(s)
}

func (s *LogHandlerSpy) Handle(_ context.Context, record slog.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, record.Clone())

	return nil
}

func (s *LogHandlerSpy) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

func (s *LogHandlerSpy) WithAttrs(_ []slog.Attr) slog.Handler {
	return s
}

func (s *LogHandlerSpy) WithGroup(_ string) slog.Handler {
	return s
}

// HasRecord reports whether a record with the message and level was logged.
func (s *LogHandlerSpy) HasRecord(level slog.Level, message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.records {
		if record.Level == level && record.Message == message {
			return true
		}
	}

	return false
}

// AttrOf returns the value of the attribute of the first record with the message.
func (s *LogHandlerSpy) AttrOf(message string, key string) (slog.Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.records {
		if record.Message != message {
			continue
		}

		var value slog.Value
		found := false
		record.Attrs(func(attr slog.Attr) bool {
			if attr.Key == key {
				value = attr.Value
				found = true
				return false
			}
			return true
		})

		return value, found
	}

	return slog.Value{}, false
}
