package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	IrisBaseURL string
	IrisWSURL   string

	BotPrefix string

	XUserID    string
	XUserEmail string
	XSessionID string

	// EgressMode is http, ws or auto.
	EgressMode   string
	EgressDryRun bool

	WSReconnectAttempts int
	WSReconnectDelay    time.Duration

	AllowedRooms []string

	PredictBaseURL  string
	PredictPath     string
	PredictMaxConns int

	RedisURL    string
	InflightTTL time.Duration

	MessagesDir string
	OpsAddr     string

	Log LogConfig
}

// LogConfig mirrors the LOG_* variables.
type LogConfig struct {
	Level   string
	Format  string
	Console bool
	ToFile  bool
	File    string
	Caller  bool
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		EgressMode:          "http",
		WSReconnectAttempts: 5,
		WSReconnectDelay:    time.Second,
		PredictPath:         "/predict",
		PredictMaxConns:     16,
		InflightTTL:         2 * time.Minute,
		OpsAddr:             ":9090",
		Log: LogConfig{
			Level:   "info",
			Format:  "legacy",
			Console: true,
			ToFile:  true,
			File:    "logs/bot.log",
		},
	}

	cfg.IrisBaseURL = env("IRIS_BASE_URL")
	cfg.IrisWSURL = env("IRIS_WS_URL")
	cfg.BotPrefix = env("BOT_PREFIX")

	cfg.XUserID = env("X_USER_ID")
	cfg.XUserEmail = env("X_USER_EMAIL")
	cfg.XSessionID = env("X_SESSION_ID")

	if v := strings.ToLower(env("IRIS_EGRESS")); v == "http" || v == "ws" || v == "auto" {
		cfg.EgressMode = v
	}
	cfg.EgressDryRun = envBool("IRIS_EGRESS_DRYRUN", false)
	cfg.WSReconnectAttempts = envInt("IRIS_WS_RECONNECT_ATTEMPTS", cfg.WSReconnectAttempts)
	cfg.WSReconnectDelay = envDuration("IRIS_WS_RECONNECT_DELAY", cfg.WSReconnectDelay)

	cfg.AllowedRooms = envList("ALLOWED_ROOMS")
	if len(cfg.AllowedRooms) == 0 {
		cfg.AllowedRooms = envList("PREDICT_ALLOWED_ROOMS")
	}

	cfg.PredictBaseURL = env("PREDICT_BASE_URL")
	// set but empty means "post to the base URL itself"
	if v, ok := os.LookupEnv("PREDICT_PATH"); ok {
		cfg.PredictPath = strings.TrimSpace(v)
	}
	cfg.PredictMaxConns = envInt("PREDICT_MAX_CONNS", cfg.PredictMaxConns)

	cfg.RedisURL = env("REDIS_URL")
	cfg.InflightTTL = envDuration("INFLIGHT_TTL", cfg.InflightTTL)

	cfg.MessagesDir = env("MESSAGES_DIR")
	if v, ok := os.LookupEnv("OPS_ADDR"); ok {
		cfg.OpsAddr = strings.TrimSpace(v)
	}

	cfg.Log = LoadLog(cfg.Log)

	if cfg.IrisBaseURL == "" {
		return nil, errors.New("IRIS_BASE_URL is required")
	}
	if cfg.IrisWSURL == "" {
		return nil, errors.New("IRIS_WS_URL is required")
	}
	if cfg.BotPrefix == "" {
		return nil, errors.New("BOT_PREFIX is required")
	}
	if cfg.PredictBaseURL == "" {
		return nil, errors.New("PREDICT_BASE_URL is required")
	}
	return cfg, nil
}

// LoadLog overlays the LOG_* variables on def.
func LoadLog(def LogConfig) LogConfig {
	l := def
	if v := env("LOG_LEVEL"); v != "" {
		l.Level = v
	}
	if v := strings.ToLower(env("LOG_FORMAT")); v == "legacy" || v == "json" || v == "console" {
		l.Format = v
	}
	l.Console = envBool("LOG_TO_CONSOLE", l.Console)
	l.ToFile = envBool("LOG_TO_FILE", l.ToFile)
	if v := env("LOG_FILE"); v != "" {
		l.File = v
	}
	l.Caller = envBool("LOG_CALLER", l.Caller)
	return l
}

// Headers returns the X-User-* headers sent to Iris.
func (c *AppConfig) Headers() map[string]string {
	h := map[string]string{}
	if c.XUserID != "" {
		h["X-User-Id"] = c.XUserID
	}
	if c.XUserEmail != "" {
		h["X-User-Email"] = c.XUserEmail
	}
	if c.XSessionID != "" {
		h["X-Session-Id"] = c.XSessionID
	}
	return h
}

func env(k string) string { return strings.TrimSpace(os.Getenv(k)) }

func envList(k string) []string {
	v := env(k)
	if v == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func envBool(k string, def bool) bool {
	if v := env(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envInt(k string, def int) int {
	if v := env(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// envDuration accepts "90s" style durations or plain seconds.
func envDuration(k string, def time.Duration) time.Duration {
	v := env(k)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return def
}
