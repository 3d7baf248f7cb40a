// Package config loads the atlas server settings and builds its logger.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the server settings. An empty DBPath keeps claims in
// memory; a zero Seed seeds random games from the clock. ClaimRate is
// claims per second per player; zero disables throttling.
type Config struct {
	Addr       string        `yaml:"addr"`
	DBPath     string        `yaml:"db_path"`
	LogLevel   string        `yaml:"log_level"`
	LogFormat  string        `yaml:"log_format"`
	Seed       int64         `yaml:"seed"`
	Heartbeat  time.Duration `yaml:"heartbeat"`
	ClaimRate  float64       `yaml:"claim_rate"`
	ClaimBurst int           `yaml:"claim_burst"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Addr:       ":8080",
		LogLevel:   "info",
		LogFormat:  "text",
		Heartbeat:  15 * time.Second,
		ClaimRate:  2,
		ClaimBurst: 5,
	}
}

// Load starts from Default, applies the YAML file at path if it exists and
// then ATLAS_* environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}
	if err := loadEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func loadEnv(cfg *Config) error {
	if v := os.Getenv("ATLAS_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("ATLAS_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("ATLAS_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("ATLAS_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("ATLAS_SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("ATLAS_SEED: %w", err)
		}
		cfg.Seed = n
	}
	if v := os.Getenv("ATLAS_HEARTBEAT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("ATLAS_HEARTBEAT: %w", err)
		}
		cfg.Heartbeat = d
	}
	if v := os.Getenv("ATLAS_CLAIM_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("ATLAS_CLAIM_RATE: %w", err)
		}
		cfg.ClaimRate = f
	}
	if v := os.Getenv("ATLAS_CLAIM_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ATLAS_CLAIM_BURST: %w", err)
		}
		cfg.ClaimBurst = n
	}
	return nil
}

// Save writes cfg as YAML to path.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks the settings for values the server cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format must be text or json, got %q", c.LogFormat))
	}
	if c.Heartbeat <= 0 {
		errs = append(errs, fmt.Errorf("heartbeat must be positive, got %s", c.Heartbeat))
	}
	if c.ClaimRate < 0 {
		errs = append(errs, fmt.Errorf("claim_rate must not be negative, got %g", c.ClaimRate))
	}
	if c.ClaimRate > 0 && c.ClaimBurst < 1 {
		errs = append(errs, fmt.Errorf("claim_burst must be at least 1, got %d", c.ClaimBurst))
	}
	return errors.Join(errs...)
}

// ParseLevel maps debug, info, warn or error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return l, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}

// NewLogger builds the structured logger described by c, writing to w.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
