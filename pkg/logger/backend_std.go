package logger

import "log/slog"

// В dev человекочитаемый текст, в остальных средах JSON с теми же ключами, что у zap.
func newStdHandler(cfg Config) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:     effectiveLevel(cfg),
		AddSource: cfg.AddSource,
	}
	if cfg.Env.IsDev() {
		return slog.NewTextHandler(cfg.Output, opts)
	}
	opts.ReplaceAttr = zapKeys
	return slog.NewJSONHandler(cfg.Output, opts)
}

// zapKeys переименовывает time в ts, чтобы std и zap писали одинаковый JSON.
func zapKeys(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.TimeKey {
		a.Key = "ts"
	}
	return a
}
