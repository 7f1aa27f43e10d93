package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"brevio/web/internal/network"
)

const (
	AppName    = "Brevio"
	AppVersion = "1.0.0"
)

// BrevioUserAgent is sent on every request to the summarization service.
var BrevioUserAgent = AppName + "/" + AppVersion

// DefaultAPIURL is the local summarization service used when none is configured.
const DefaultAPIURL = "http://127.0.0.1:5000/summarize"

// Slot backends.
const (
	SlotBackendSession = "session"
	SlotBackendCookie  = "cookie"
)

type Config struct {
	Addr          string        `yaml:"addr"`
	APIURL        string        `yaml:"api_url"`
	APITimeout    time.Duration `yaml:"api_timeout"`
	APIRateLimit  int           `yaml:"api_rate_limit"`
	ProxyURL      string        `yaml:"proxy_url"`
	DataDir       string        `yaml:"data_dir"`
	DBPath        string        `yaml:"db_path"`
	StaticDir     string        `yaml:"static_dir"`
	SlotBackend   string        `yaml:"slot_backend"`
	CookieSecure  bool          `yaml:"cookie_secure"`
	PurgeInterval time.Duration `yaml:"purge_interval"`
	NodeID        int64         `yaml:"node_id"`
	LogLevel      string        `yaml:"log_level"`
	LogFormat     string        `yaml:"log_format"`
}

func defaults() Config {
	return Config{
		Addr:          ":8080",
		APIURL:        DefaultAPIURL,
		APIRateLimit:  10,
		DataDir:       "./data",
		SlotBackend:   SlotBackendSession,
		PurgeInterval: 10 * time.Minute,
		NodeID:        1,
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// Load builds the configuration from defaults, the optional YAML file named by
// BREVIO_CONFIG, and BREVIO_* environment variables, in that order.
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("BREVIO_CONFIG"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "brevio.db")
	}
	cfg.DataDir = filepath.Clean(cfg.DataDir)
	cfg.DBPath = filepath.Clean(cfg.DBPath)
	if cfg.StaticDir != "" {
		cfg.StaticDir = filepath.Clean(cfg.StaticDir)
	}
	cfg.SlotBackend = strings.ToLower(cfg.SlotBackend)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString("BREVIO_ADDR", &cfg.Addr)
	setString("BREVIO_API_URL", &cfg.APIURL)
	setString("BREVIO_PROXY_URL", &cfg.ProxyURL)
	setString("BREVIO_DATA_DIR", &cfg.DataDir)
	setString("BREVIO_DB_PATH", &cfg.DBPath)
	setString("BREVIO_STATIC_DIR", &cfg.StaticDir)
	setString("BREVIO_SLOT_BACKEND", &cfg.SlotBackend)
	setString("BREVIO_LOG_LEVEL", &cfg.LogLevel)
	setString("BREVIO_LOG_FORMAT", &cfg.LogFormat)

	if err := setDuration("BREVIO_API_TIMEOUT", &cfg.APITimeout); err != nil {
		return err
	}
	if err := setDuration("BREVIO_PURGE_INTERVAL", &cfg.PurgeInterval); err != nil {
		return err
	}
	if v := os.Getenv("BREVIO_API_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BREVIO_API_RATE_LIMIT: %w", err)
		}
		cfg.APIRateLimit = n
	}
	if v := os.Getenv("BREVIO_NODE_ID"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("BREVIO_NODE_ID: %w", err)
		}
		cfg.NodeID = n
	}
	if v := os.Getenv("BREVIO_COOKIE_SECURE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("BREVIO_COOKIE_SECURE: %w", err)
		}
		cfg.CookieSecure = b
	}
	return nil
}

func (c Config) validate() error {
	switch c.SlotBackend {
	case SlotBackendSession, SlotBackendCookie:
	default:
		return fmt.Errorf("unknown slot backend %q", c.SlotBackend)
	}
	if c.APIURL == "" {
		return fmt.Errorf("api url is empty")
	}
	if c.PurgeInterval <= 0 {
		return fmt.Errorf("purge interval must be positive")
	}
	if c.ProxyURL != "" {
		if _, err := network.ParseProxyURL(c.ProxyURL); err != nil {
			return fmt.Errorf("BREVIO_PROXY_URL: %w", err)
		}
	}
	return nil
}

func setString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
