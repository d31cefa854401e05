package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/atelierworks/atelier/pkg/middleware"
	"github.com/atelierworks/atelier/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "ATELIER_CORS_ENABLED",
	Origins:          "ATELIER_CORS_ORIGINS",
	AllowedMethods:   "ATELIER_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "ATELIER_CORS_ALLOWED_HEADERS",
	AllowCredentials: "ATELIER_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "ATELIER_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "ATELIER_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "ATELIER_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig holds API routing, CORS, pagination, and generation dispatch
// settings.
type APIConfig struct {
	BasePath   string                `toml:"base_path"`
	MaxWorkers int                   `toml:"max_workers"`
	CORS       middleware.CORSConfig `toml:"cors"`
	Pagination pagination.Config     `toml:"pagination"`
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS and pagination configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if c.MaxWorkers < 0 {
		return fmt.Errorf("invalid max_workers: %d", c.MaxWorkers)
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxWorkers != 0 {
		c.MaxWorkers = overlay.MaxWorkers
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxWorkers == 0 {
		c.MaxWorkers = 4
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("ATELIER_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("ATELIER_API_MAX_WORKERS"); v != "" {
		if workers, err := strconv.Atoi(v); err == nil {
			c.MaxWorkers = workers
		}
	}
}
