//go:build wasip1

package log

import "log/slog"

func newInner(handlerConfig) slog.Handler {
	return slog.DiscardHandler
}

// init installs the discarding handler as the module's default logger.
func init() {
	slog.SetDefault(slog.New(NewHandler()))
}
