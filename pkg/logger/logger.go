package logger

import (
	"log/slog"
	"os"
)

const DefaultService = "live-relay"

var def *slog.Logger

// Init собирает slog-логгер под среду и делает его slog.Default.
// Бэкенд по умолчанию: std в dev, zap в stage/prod.
func Init(cfg Config) *slog.Logger {
	cfg = withDefaults(cfg)

	var h slog.Handler
	if cfg.Backend == BackendZap {
		h = newZapHandler(cfg)
	} else {
		h = newStdHandler(cfg)
	}

	def = slog.New(h.WithAttrs(commonAttr(cfg)))
	slog.SetDefault(def)
	return def
}

// L — текущий логгер; если Init не вызывали, инициализирует дефолтами.
func L() *slog.Logger {
	if def == nil {
		return Init(Config{})
	}
	return def
}

func withDefaults(cfg Config) Config {
	if cfg.Env == "" {
		cfg.Env = DetectEnv()
	}
	if cfg.Service == "" {
		cfg.Service = DefaultService
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	if cfg.Backend == "" {
		cfg.Backend = BackendZap
		if cfg.Env.IsDev() {
			cfg.Backend = BackendStd
		}
	}
	cfg.InstanceID = ensureInstanceID(cfg.InstanceID)
	return cfg
}

func effectiveLevel(cfg Config) slog.Level {
	if cfg.Debug && cfg.Level == 0 {
		return slog.LevelDebug
	}
	return cfg.Level
}
