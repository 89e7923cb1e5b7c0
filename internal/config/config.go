// Package config loads the udhaari client configuration.
//
// Values are layered, later layers winning:
//
//  1. built-in defaults
//  2. a YAML file (UDHAARI_CONFIG, or <user config dir>/udhaari/config.yaml)
//  3. a .env file in the working directory
//  4. environment variables
//
//  5. command-line flags, through LoadWithFlags
package config

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL    = "http://localhost:8080/api/v1"
	DefaultTimeout    = 30 * time.Second
	DefaultPageSize   = 9
	DefaultListenAddr = ":3000"
	DefaultRedisAddr  = "localhost:6379"

	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config holds everything the CLI and the local web surface need.
type Config struct {
	// BaseURL is the backend API root every request path is resolved against.
	BaseURL string `yaml:"base_url"`

	// Timeout bounds a single backend request. Zero disables the bound.
	Timeout time.Duration `yaml:"timeout"`

	// StateDir holds the durable state database and the sealing key file.
	StateDir string `yaml:"state_dir"`

	// StateBackend selects the durable tier: "sqlite" or "redis".
	StateBackend string `yaml:"state_backend"`

	// StateKey is an optional hex encoded secret for sealing durable state.
	// When empty a random key is generated into StateDir.
	StateKey string `yaml:"state_key"`

	Redis RedisConfig `yaml:"redis"`

	// PageSize is the group list page size.
	PageSize int `yaml:"page_size"`

	// ListenAddr is where cmd/server serves the route table.
	ListenAddr string `yaml:"listen_addr"`

	LogLevel string `yaml:"log_level"`
}

// RedisConfig configures the redis durable tier.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BaseURL:      DefaultBaseURL,
		Timeout:      DefaultTimeout,
		StateDir:     defaultStateDir(),
		StateBackend: BackendSQLite,
		Redis:        RedisConfig{Addr: DefaultRedisAddr},
		PageSize:     DefaultPageSize,
		ListenAddr:   DefaultListenAddr,
		LogLevel:     "info",
	}
}

// Load builds the configuration from all layers and validates it.
func Load() (Config, error) {
	cfg, err := loadLayers()
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// LoadWithFlags is Load with command-line flags as the last layer. Flags are
// registered on fs with the layered values as defaults and parsed from args;
// the arguments after the flags are returned.
func LoadWithFlags(fs *flag.FlagSet, args []string) (Config, []string, error) {
	cfg, err := loadLayers()
	if err != nil {
		return cfg, nil, err
	}
	cfg.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return cfg, nil, err
	}
	return cfg, fs.Args(), cfg.Validate()
}

// RegisterFlags binds the settings worth overriding per run to fs.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.BaseURL, "base-url", c.BaseURL, "Backend API root")
	fs.DurationVar(&c.Timeout, "timeout", c.Timeout, "Per-request timeout, 0 for none")
	fs.StringVar(&c.StateDir, "state-dir", c.StateDir, "Directory for the state database and key")
	fs.StringVar(&c.StateBackend, "state-backend", c.StateBackend, "Durable state backend: sqlite or redis")
	fs.IntVar(&c.PageSize, "page-size", c.PageSize, "Groups per page")
	fs.StringVar(&c.ListenAddr, "listen", c.ListenAddr, "Address the web surface listens on")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level: debug, info, warn, error")
}

func loadLayers() (Config, error) {
	cfg := Default()

	path, explicit := filePath()
	if err := cfg.mergeFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return cfg, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFile reads a YAML file on top of the defaults without consulting the
// environment.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if err := cfg.mergeFile(path); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) mergeFile(path string) error {
	if path == "" {
		return os.ErrNotExist
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("UDHAARI_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("UDHAARI_STATE_DIR"); v != "" {
		c.StateDir = v
	}
	if v := os.Getenv("UDHAARI_STATE_BACKEND"); v != "" {
		c.StateBackend = strings.ToLower(v)
	}
	if v := os.Getenv("UDHAARI_STATE_KEY"); v != "" {
		c.StateKey = v
	}
	if v := os.Getenv("UDHAARI_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REDIS_DB %q: %w", v, err)
		}
		c.Redis.DB = db
	}
	if v := os.Getenv("UDHAARI_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid UDHAARI_TIMEOUT %q: %w", v, err)
		}
		c.Timeout = d
	}
	if v := os.Getenv("UDHAARI_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid UDHAARI_PAGE_SIZE %q: %w", v, err)
		}
		c.PageSize = n
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid base_url %q: scheme must be http or https", c.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid base_url %q: missing host", c.BaseURL)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if c.PageSize < 1 {
		return fmt.Errorf("page_size must be at least 1, got %d", c.PageSize)
	}
	switch c.StateBackend {
	case BackendSQLite:
		if c.StateDir == "" {
			return fmt.Errorf("state_dir is required for the sqlite backend")
		}
	case BackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown state_backend %q", c.StateBackend)
	}
	return nil
}

// DBPath is the sqlite file inside StateDir.
func (c Config) DBPath() string {
	return filepath.Join(c.StateDir, "state.db")
}

// KeyPath is the generated sealing key file inside StateDir.
func (c Config) KeyPath() string {
	return filepath.Join(c.StateDir, "state.key")
}

func filePath() (string, bool) {
	if p := os.Getenv("UDHAARI_CONFIG"); p != "" {
		return p, true
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", false
	}
	return filepath.Join(dir, "udhaari", "config.yaml"), false
}

func defaultStateDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", ".udhaari")
	}
	return filepath.Join(dir, "udhaari")
}
