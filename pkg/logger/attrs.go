package logger

import (
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
)

// hostname плюс короткий uuid, чтобы различать реплики релея на одном хосте
func ensureInstanceID(v string) string {
	if v != "" {
		return v
	}

	hn, err := os.Hostname()
	if err != nil || hn == "" {
		hn = "relay"
	}
	return hn + "-" + uuid.NewString()[:8]
}

// commonAttr: метаданные процесса, затем Config.Attrs (адреса, политика join и т.п.).
func commonAttr(cfg Config) []slog.Attr {
	attrs := make([]slog.Attr, 0, 6+len(cfg.Attrs))
	attrs = append(attrs,
		slog.String("service", cfg.Service),
		slog.String("env", string(cfg.Env)),
		slog.String("version", cfg.Version),
		slog.String("instance_id", cfg.InstanceID),
		slog.Int("pid", os.Getpid()),
		slog.Time("started_at", time.Now().UTC()),
	)
	return append(attrs, cfg.Attrs...)
}
