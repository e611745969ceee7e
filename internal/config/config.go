package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config is the resolved agent configuration.
type Config struct {
	Source       string
	APIKey       string
	CacheDir     string
	StatePath    string
	CycleTimeout time.Duration
	LogFile      string
	LogLevel     string
	LogFormat    string
	HTTPRetries  int
}

// Source kinds accepted by the source key.
const (
	SourceAPI    = "api"
	SourceScrape = "scrape"
)

// APIKeyEnv overrides an empty api_key.
const APIKeyEnv = "NASA_API_KEY"

const (
	defaultConfigPath   = "~/.config/apodwall/config.toml"
	defaultCacheDir     = "~/.cache/apodwall"
	defaultStatePath    = "~/.local/state/apodwall/state.toml"
	defaultLogFile      = "~/.local/state/apodwall/apodwall.log"
	defaultAPIKey       = "DEMO_KEY"
	defaultCycleTimeout = 15 * time.Minute
	defaultLogLevel     = "info"
	defaultLogFormat    = "text"
	maxHTTPRetries      = 5
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Source:       SourceAPI,
		APIKey:       apiKeyFromEnv(),
		CacheDir:     mustExpand(defaultCacheDir),
		StatePath:    mustExpand(defaultStatePath),
		CycleTimeout: defaultCycleTimeout,
		LogFile:      mustExpand(defaultLogFile),
		LogLevel:     defaultLogLevel,
		LogFormat:    defaultLogFormat,
	}
}

// Load locates and parses the config file, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		Source       string `toml:"source"`
		APIKey       string `toml:"api_key"`
		CacheDir     string `toml:"cache_dir"`
		StatePath    string `toml:"state_path"`
		CycleTimeout string `toml:"cycle_timeout"`
		LogFile      string `toml:"log_file"`
		LogLevel     string `toml:"log_level"`
		LogFormat    string `toml:"log_format"`
		HTTPRetries  *int   `toml:"http_retries"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.ToLower(strings.TrimSpace(raw.Source)); v != "" {
		cfg.Source = v
	}
	if v := strings.TrimSpace(raw.APIKey); v != "" {
		cfg.APIKey = v
	}
	if v := strings.TrimSpace(raw.CacheDir); v != "" {
		cfg.CacheDir = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.StatePath); v != "" {
		cfg.StatePath = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.LogFormat); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.CycleTimeout); v != "" {
		timeout, err := parseTimeout(v)
		if err != nil {
			return Config{}, err
		}
		cfg.CycleTimeout = timeout
	}
	if raw.HTTPRetries != nil {
		cfg.HTTPRetries = *raw.HTTPRetries
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch c.Source {
	case SourceAPI, SourceScrape:
	default:
		return fmt.Errorf("invalid source %q: want %q or %q", c.Source, SourceAPI, SourceScrape)
	}
	if c.CycleTimeout < 0 {
		return fmt.Errorf("invalid cycle_timeout %s", c.CycleTimeout)
	}
	if c.HTTPRetries < 0 || c.HTTPRetries > maxHTTPRetries {
		return fmt.Errorf("invalid http_retries %d: want 0-%d", c.HTTPRetries, maxHTTPRetries)
	}
	if strings.TrimSpace(c.CacheDir) == "" {
		return fmt.Errorf("cache_dir is empty")
	}
	if strings.TrimSpace(c.StatePath) == "" {
		return fmt.Errorf("state_path is empty")
	}
	return nil
}

// parseTimeout accepts Go durations; a bare "0" disables the per-cycle bound.
func parseTimeout(v string) (time.Duration, error) {
	if v == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse cycle_timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid cycle_timeout %s", v)
	}
	return d, nil
}

func apiKeyFromEnv() string {
	if v := strings.TrimSpace(os.Getenv(APIKeyEnv)); v != "" {
		return v
	}
	return defaultAPIKey
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
