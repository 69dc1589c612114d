package notify

import "log/slog"

// Logger writes diagnostic messages through slog.
type Logger struct {
	logger *slog.Logger
}

// NewLogger wraps logger; nil means slog.Default().
func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger.With("source", "deploy")}
}

// WriteError records message at error level.
func (l *Logger) WriteError(message string) {
	l.logger.Error(message)
}
