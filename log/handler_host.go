//go:build !wasip1

package log

import "log/slog"

func newInner(cfg handlerConfig) slog.Handler {
	return slog.NewTextHandler(cfg.writer, &slog.HandlerOptions{
		Level:     cfg.level,
		AddSource: cfg.addSource,
	})
}
