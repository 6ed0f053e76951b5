package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const defaultPath = "./config/config.yaml"

type HTTP struct {
	Addr           string        `yaml:"addr" validate:"required"`
	ReadTimeout    time.Duration `yaml:"readTimeout" validate:"gt=0"`
	WriteTimeout   time.Duration `yaml:"writeTimeout" validate:"gt=0"`
	IdleTimeout    time.Duration `yaml:"idleTimeout" validate:"gt=0"`
	RequestTimeout time.Duration `yaml:"requestTimeout" validate:"gt=0"` // для admin REST, не для /ws
	AllowedOrigins []string      `yaml:"allowedOrigins" validate:"dive,required"`
}

type GRPC struct {
	Addr        string        `yaml:"addr" validate:"required"`
	CallTimeout time.Duration `yaml:"callTimeout" validate:"gte=0"`
}

type Relay struct {
	HistoryLimit  int           `yaml:"historyLimit" validate:"gt=0"`
	JoinPolicy    string        `yaml:"joinPolicy" validate:"oneof=leave_previous additive"`
	SendBuffer    int           `yaml:"sendBuffer" validate:"gt=0"`
	PingInterval  time.Duration `yaml:"pingInterval" validate:"gt=0"`
	WriteTimeout  time.Duration `yaml:"writeTimeout" validate:"gt=0"`
	MaxFrameBytes int64         `yaml:"maxFrameBytes" validate:"gte=1024"`

	// 0 — комнаты живут до рестарта процесса
	RoomTTL       time.Duration `yaml:"roomTTL" validate:"gte=0"`
	SweepInterval time.Duration `yaml:"sweepInterval" validate:"gte=0"`
}

type Logging struct {
	Env       string `yaml:"env" validate:"oneof=dev stage prod"`
	Service   string `yaml:"service"`
	Version   string `yaml:"version"`
	Backend   string `yaml:"backend" validate:"oneof=std zap"`
	Level     string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	AddSource bool   `yaml:"addSource"`
	Debug     bool   `yaml:"debug"`
}

type Config struct {
	HTTP    HTTP    `yaml:"http"`
	GRPC    GRPC    `yaml:"grpc"`
	Relay   Relay   `yaml:"relay"`
	Logging Logging `yaml:"logging"`

	// сколько ждём штатной остановки каждого сервера
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" validate:"gt=0"`
}

// LoadConfig читает yaml из CONFIG_PATH. Если путь не задан и дефолтного файла нет,
// работаем на дефолтах. PORT перекрывает http.addr.
func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	explicit := path != ""
	if !explicit {
		path = defaultPath
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.HTTP.Addr = ":" + port
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.setDefaults()
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// установка дефолтов, если значения не указаны
func (c *Config) setDefaults() {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":4000"
	}
	c.HTTP.ReadTimeout = durationOr(c.HTTP.ReadTimeout, 10*time.Second)
	c.HTTP.WriteTimeout = durationOr(c.HTTP.WriteTimeout, 15*time.Second)
	c.HTTP.IdleTimeout = durationOr(c.HTTP.IdleTimeout, 60*time.Second)
	c.HTTP.RequestTimeout = durationOr(c.HTTP.RequestTimeout, 5*time.Second)
	if len(c.HTTP.AllowedOrigins) == 0 {
		c.HTTP.AllowedOrigins = []string{"*"}
	}

	if c.GRPC.Addr == "" {
		c.GRPC.Addr = ":9090"
	}
	c.ShutdownTimeout = durationOr(c.ShutdownTimeout, 10*time.Second)

	if c.Relay.HistoryLimit == 0 {
		c.Relay.HistoryLimit = 100
	}
	if c.Relay.JoinPolicy == "" {
		c.Relay.JoinPolicy = "leave_previous"
	}
	if c.Relay.SendBuffer == 0 {
		c.Relay.SendBuffer = 64
	}
	c.Relay.PingInterval = durationOr(c.Relay.PingInterval, 15*time.Second)
	c.Relay.WriteTimeout = durationOr(c.Relay.WriteTimeout, 5*time.Second)
	if c.Relay.MaxFrameBytes == 0 {
		c.Relay.MaxFrameBytes = 1 << 20
	}
	if c.Relay.RoomTTL > 0 && c.Relay.SweepInterval == 0 {
		c.Relay.SweepInterval = time.Minute
	}

	if c.Logging.Service == "" {
		c.Logging.Service = "live-relay"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}
}

func durationOr(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return def
}
