package logger

import (
	"log/slog"
	"time"

	slogzap "github.com/samber/slog-zap/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	defaultSampleInitial    = 100
	defaultSampleThereafter = 10
)

// последний созданный zap-логгер, для Sync при остановке
var zl *zap.Logger

func newZapHandler(cfg Config) slog.Handler {
	lvl := effectiveLevel(cfg)

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zapEncoderConfig(cfg.AddSource)),
		zapcore.AddSync(cfg.Output),
		zapLevel(lvl),
	)
	// релей пишет строку на каждую доставку на debug, на всплесках режем
	core = zapcore.NewSamplerWithOptions(core, time.Second,
		positiveOr(cfg.SampleInitial, defaultSampleInitial),
		positiveOr(cfg.SampleThereafter, defaultSampleThereafter))

	zl = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	return slogzap.Option{Level: lvl, Logger: zl}.NewZapHandler()
}

// Sync сбрасывает буферы zap, если он используется. Для std-бэкенда ничего не делает.
func Sync() error {
	if zl == nil {
		return nil
	}
	return zl.Sync()
}

func zapEncoderConfig(withCaller bool) zapcore.EncoderConfig {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "ts"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	if withCaller {
		enc.EncodeCaller = zapcore.ShortCallerEncoder
	}
	return enc
}

func zapLevel(lvl slog.Level) zapcore.Level {
	switch {
	case lvl <= slog.LevelDebug:
		return zapcore.DebugLevel
	case lvl <= slog.LevelInfo:
		return zapcore.InfoLevel
	case lvl <= slog.LevelWarn:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

func positiveOr(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
