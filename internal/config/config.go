package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
)

const (
	// DefaultPredictionBaseURL is used when neither the flag nor the override is set.
	DefaultPredictionBaseURL = "http://localhost:8001"

	// PredictionURLOverrideEnv wins over every other base URL source when non-blank.
	PredictionURLOverrideEnv = "PREDICTION_SERVICE_URL"
)

type Config struct {
	Prediction PredictionConfig
	HTTP       HTTPConfig
	Log        LogConfig
}

type PredictionConfig struct {
	BaseURL string
	Timeout time.Duration // single outbound call
}

type HTTPConfig struct {
	ListenAddr      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string // empty = any origin
}

type LogConfig struct {
	Level  string // debug|info|warn|error
	Format string // json|text
}

func Default() Config {
	return Config{
		Prediction: PredictionConfig{
			BaseURL: DefaultPredictionBaseURL,
			Timeout: 10 * time.Second,
		},
		HTTP: HTTPConfig{
			ListenAddr:      ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// GlobalFlags are shared by every command.
func GlobalFlags() []cli.Flag {
	def := Default()
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Value:   def.Log.Level,
			Usage:   "Log level (debug, info, warn, error)",
			EnvVars: []string{"GATEWAY_LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   def.Log.Format,
			Usage:   "Log format (json, text)",
			EnvVars: []string{"GATEWAY_LOG_FORMAT"},
		},
	}
}

// PredictionFlags configure the downstream prediction service.
func PredictionFlags() []cli.Flag {
	def := Default()
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "prediction-base-url",
			Value:   def.Prediction.BaseURL,
			Usage:   "Prediction service base URL (prediction.service.base-url); " + PredictionURLOverrideEnv + " takes precedence",
			EnvVars: []string{"PREDICTION_SERVICE_BASE_URL"},
		},
		&cli.DurationFlag{
			Name:    "prediction-timeout",
			Value:   def.Prediction.Timeout,
			Usage:   "Timeout for a single call to the prediction service",
			EnvVars: []string{"PREDICTION_SERVICE_TIMEOUT"},
		},
	}
}

// ServeFlags configure the inbound HTTP server.
func ServeFlags() []cli.Flag {
	def := Default()
	return append(PredictionFlags(),
		&cli.StringFlag{
			Name:    "listen",
			Value:   def.HTTP.ListenAddr,
			Usage:   "HTTP listen address",
			EnvVars: []string{"GATEWAY_LISTEN_ADDR"},
		},
		&cli.StringFlag{
			Name:    "cors-origins",
			Usage:   "Comma-separated allowed CORS origins (empty allows any)",
			EnvVars: []string{"GATEWAY_CORS_ORIGINS"},
		},
		&cli.DurationFlag{
			Name:    "shutdown-timeout",
			Value:   def.HTTP.ShutdownTimeout,
			Usage:   "Grace period for in-flight requests on shutdown",
			EnvVars: []string{"GATEWAY_SHUTDOWN_TIMEOUT"},
		},
	)
}

// Load builds the process configuration from parsed flags. getenv is consulted for the
// base URL override only; pass os.Getenv outside of tests.
func Load(c *cli.Context, getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := Default()

	cfg.Log.Level = strings.TrimSpace(c.String("log-level"))
	cfg.Log.Format = strings.TrimSpace(c.String("log-format"))

	if c.IsSet("prediction-timeout") {
		cfg.Prediction.Timeout = c.Duration("prediction-timeout")
	}
	configured := DefaultPredictionBaseURL
	if v := c.String("prediction-base-url"); v != "" {
		configured = v
	}
	cfg.Prediction.BaseURL = ResolveBaseURL(getenv(PredictionURLOverrideEnv), configured)

	if v := strings.TrimSpace(c.String("listen")); v != "" {
		cfg.HTTP.ListenAddr = v
	}
	if c.IsSet("shutdown-timeout") {
		cfg.HTTP.ShutdownTimeout = c.Duration("shutdown-timeout")
	}
	cfg.HTTP.AllowedOrigins = splitCSV(c.String("cors-origins"))

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ResolveBaseURL returns override when it is non-blank, configured otherwise.
func ResolveBaseURL(override, configured string) string {
	if v := strings.TrimSpace(override); v != "" {
		return v
	}
	return strings.TrimSpace(configured)
}

func Validate(cfg Config) error {
	u, err := url.Parse(cfg.Prediction.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid prediction base url %q: %w", cfg.Prediction.BaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("prediction base url must be an absolute http(s) url, got %q", cfg.Prediction.BaseURL)
	}
	if cfg.Prediction.Timeout <= 0 {
		return fmt.Errorf("prediction timeout must be positive, got %s", cfg.Prediction.Timeout)
	}
	if cfg.HTTP.ListenAddr == "" {
		return errors.New("listen address must not be empty")
	}
	if cfg.HTTP.ShutdownTimeout < 0 {
		return fmt.Errorf("shutdown timeout must not be negative, got %s", cfg.HTTP.ShutdownTimeout)
	}
	for _, o := range cfg.HTTP.AllowedOrigins {
		if o != "*" && !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			return fmt.Errorf("invalid cors origin %q: must be \"*\" or start with http:// or https://", o)
		}
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level: %q", cfg.Log.Level)
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %q", cfg.Log.Format)
	}
	return nil
}

func splitCSV(s string) []string {
	raw := strings.Split(s, ",")
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if t := strings.TrimSpace(r); t != "" {
			out = append(out, t)
		}
	}
	return out
}
