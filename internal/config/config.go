package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port            int
	APIReadyTimeout int

	// HTTP settings
	HTTPTimeout time.Duration
	BaseURL     string

	// Review settings
	TaskRunID string
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Port:            3001,
		APIReadyTimeout: 30,
		HTTPTimeout:     30 * time.Second,
	}
}

// LoadFromEnvironment loads configuration from environment variables
func (c *Config) LoadFromEnvironment() {
	if port := os.Getenv("REVIEW_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Port = p
		}
	}

	if baseURL := os.Getenv("REVIEW_BASE_URL"); baseURL != "" {
		c.BaseURL = baseURL
	}

	if taskRunID := os.Getenv("REVIEW_TASK_RUN_ID"); taskRunID != "" {
		c.TaskRunID = taskRunID
	}

	if timeout := os.Getenv("REVIEW_API_TIMEOUT"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil {
			c.APIReadyTimeout = t
		}
	}

	if timeout := os.Getenv("REVIEW_HTTP_TIMEOUT"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil {
			c.HTTPTimeout = time.Duration(t) * time.Millisecond
		}
	}
}

// SetBaseURL sets the base URL based on the configured port unless one was
// supplied explicitly
func (c *Config) SetBaseURL() {
	if c.BaseURL == "" {
		c.BaseURL = fmt.Sprintf("http://localhost:%d", c.Port)
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Port < 1024 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1024 and 65535, got: %d", c.Port)
	}

	if c.APIReadyTimeout <= 0 {
		return fmt.Errorf("API ready timeout must be positive, got: %d", c.APIReadyTimeout)
	}

	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP timeout must be positive, got: %v", c.HTTPTimeout)
	}

	return nil
}
