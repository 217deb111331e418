package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port           string        `yaml:"port"`
	ReportBaseURL  string        `yaml:"report_base_url"`
	DBPath         string        `yaml:"db_path"`
	HTTPTimeout    time.Duration `yaml:"http_timeout"`
	RateLimit      RateLimit     `yaml:"rate_limit"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	LogLevel       string        `yaml:"log_level"`
}

// RateLimit bounds outbound lookups; RPS <= 0 disables it.
type RateLimit struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

func defaults() Config {
	return Config{
		Port:           "8080",
		ReportBaseURL:  "http://localhost:8000",
		DBPath:         "wxlookup.db",
		HTTPTimeout:    10 * time.Second,
		RateLimit:      RateLimit{RPS: 5, Burst: 10},
		SessionTTL:     30 * time.Minute,
		AllowedOrigins: []string{"http://localhost:3000"},
		LogLevel:       "info",
	}
}

// Load reads .env, then the optional YAML file named by WXLOOKUP_CONFIG
// (default wxlookup.yaml), then applies environment overrides.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	configFile := os.Getenv("WXLOOKUP_CONFIG")
	explicit := configFile != ""
	if !explicit {
		configFile = "wxlookup.yaml"
	}
	if err := loadFile(&cfg, configFile); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("WXLOOKUP_REPORT_BASE_URL"); v != "" {
		cfg.ReportBaseURL = v
	}
	if v := os.Getenv("WXLOOKUP_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("WXLOOKUP_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return fmt.Errorf("invalid WXLOOKUP_HTTP_TIMEOUT %q", v)
		}
		cfg.HTTPTimeout = d
	}
	if v := os.Getenv("WXLOOKUP_RATE_LIMIT_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid WXLOOKUP_RATE_LIMIT_RPS %q: %w", v, err)
		}
		cfg.RateLimit.RPS = rps
	}
	if v := os.Getenv("WXLOOKUP_RATE_LIMIT_BURST"); v != "" {
		burst, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid WXLOOKUP_RATE_LIMIT_BURST %q: %w", v, err)
		}
		cfg.RateLimit.Burst = burst
	}
	if v := os.Getenv("WXLOOKUP_SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid WXLOOKUP_SESSION_TTL %q: %w", v, err)
		}
		cfg.SessionTTL = d
	}
	if v := os.Getenv("WXLOOKUP_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.AllowedOrigins = origins
	}
	if v := os.Getenv("WXLOOKUP_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	return nil
}

// SlogLevel maps LogLevel onto slog; unknown values fall back to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
