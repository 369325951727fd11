package logger

import (
	"github.com/amirhossein-jamali/credit-ledger/internal/domain/port/core"
)

// NoopLogger discards everything. Used by tests and the contention script.
type NoopLogger struct {
	level core.LogLevel
}

// NewNoopLogger creates a new no-op logger
func NewNoopLogger() core.Logger {
	return &NoopLogger{level: core.LogLevelInfo}
}

func (l *NoopLogger) SetLevel(level core.LogLevel) { l.level = level }
func (l *NoopLogger) GetLevel() core.LogLevel { return l.level }
func (l *NoopLogger) Debug(message string, fields map[string]any) {}
func (l *NoopLogger) Info(message string, fields map[string]any) {}
func (l *NoopLogger) Warn(message string, fields map[string]any) {}
func (l *NoopLogger) Error(message string, fields map[string]any) {}
func (l *NoopLogger) Flush() error { return nil }
