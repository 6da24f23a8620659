package badgeradapter

import (
	"fmt"
	"log/slog"
	"strings"
)

// badgerLogger routes badger's printf-style logging into slog.
type badgerLogger struct {
	logger *slog.Logger
}

func newBadgerLogger(logger *slog.Logger) *badgerLogger {
	return &badgerLogger{logger: logger.With("component", "badger")}
}

func (b *badgerLogger) Errorf(format string, args ...any) {
	b.logger.Error(formatBadger(format, args...))
}

func (b *badgerLogger) Warningf(format string, args ...any) {
	b.logger.Warn(formatBadger(format, args...))
}

func (b *badgerLogger) Infof(format string, args ...any) {
	b.logger.Info(formatBadger(format, args...))
}

func (b *badgerLogger) Debugf(format string, args ...any) {
	b.logger.Debug(formatBadger(format, args...))
}

func formatBadger(format string, args ...any) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}
