package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/atelierworks/atelier/internal/generation"
	"github.com/atelierworks/atelier/internal/notify"
	"github.com/atelierworks/atelier/pkg/database"
	"github.com/atelierworks/atelier/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvAtelierEnv             = "ATELIER_ENV"
	EnvAtelierShutdownTimeout = "ATELIER_SHUTDOWN_TIMEOUT"
	EnvAtelierVersion         = "ATELIER_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "ATELIER_DB_HOST",
	Port:            "ATELIER_DB_PORT",
	Name:            "ATELIER_DB_NAME",
	User:            "ATELIER_DB_USER",
	Password:        "ATELIER_DB_PASSWORD",
	SSLMode:         "ATELIER_DB_SSL_MODE",
	MaxOpenConns:    "ATELIER_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "ATELIER_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "ATELIER_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "ATELIER_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "ATELIER_STORAGE_CONTAINER_NAME",
	ConnectionString: "ATELIER_STORAGE_CONNECTION_STRING",
	PublicEndpoint:   "ATELIER_STORAGE_PUBLIC_ENDPOINT",
}

var generationEnv = &generation.Env{
	APIKey:  "ATELIER_GENERATION_API_KEY",
	BaseURL: "ATELIER_GENERATION_BASE_URL",
	Model:   "ATELIER_GENERATION_MODEL",
	Size:    "ATELIER_GENERATION_SIZE",
	Timeout: "ATELIER_GENERATION_TIMEOUT",
}

var notifyEnv = &notify.Env{
	WebhookURL: "ATELIER_NOTIFY_WEBHOOK_URL",
	Timeout:    "ATELIER_NOTIFY_TIMEOUT",
}

// Config is the root configuration for the Atelier service.
type Config struct {
	Server          ServerConfig      `toml:"server"`
	Database        database.Config   `toml:"database"`
	Storage         storage.Config    `toml:"storage"`
	Generation      generation.Config `toml:"generation"`
	Notify          notify.Config     `toml:"notify"`
	API             APIConfig         `toml:"api"`
	ShutdownTimeout string            `toml:"shutdown_timeout"`
	Version         string            `toml:"version"`
}

// Env returns the ATELIER_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvAtelierEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.Generation.Merge(&overlay.Generation)
	c.Notify.Merge(&overlay.Notify)
	c.API.Merge(&overlay.API)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Generation.Finalize(generationEnv); err != nil {
		return fmt.Errorf("generation: %w", err)
	}
	if err := c.Notify.Finalize(notifyEnv); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvAtelierShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvAtelierVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvAtelierEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
