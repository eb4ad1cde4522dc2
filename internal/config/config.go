// Package config provides YAML-based configuration for the dashboard server.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// AppConfig represents the root configuration document
type AppConfig struct {
	// Dashboard HTTP server
	Server ServerConfig `yaml:"server"`

	// Upstream ingestion service the dashboard reads from
	Upstream UpstreamConfig `yaml:"upstream"`

	// History polling
	History HistoryConfig `yaml:"history"`

	// Trend chart rendering
	Chart ChartConfig `yaml:"chart"`

	// Advanced options
	Advanced AdvancedConfig `yaml:"advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port              int    `yaml:"port"`
	BindAddress       string `yaml:"bind_address"`
	EnableCORS        bool   `yaml:"enable_cors"`
	AllowOrigins      string `yaml:"allow_origins"`
	ReadTimeout       int    `yaml:"read_timeout_seconds"`
	WriteTimeout      int    `yaml:"write_timeout_seconds"`
	IdleTimeout       int    `yaml:"idle_timeout_seconds"`
	EnableCompression bool   `yaml:"enable_compression"`
	CompressionLevel  int    `yaml:"compression_level"`
}

// UpstreamConfig locates the three upstream endpoints.
type UpstreamConfig struct {
	BaseURL     string `yaml:"base_url"`
	FeedPath    string `yaml:"feed_path"`
	HistoryPath string `yaml:"history_path"`
	ExportPath  string `yaml:"export_path"`
}

// HistoryConfig contains history fetch settings
type HistoryConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
	// RefreshSchedule is a cron expression ("@every 30s", "*/1 * * * *").
	// Empty disables timer-driven refresh.
	RefreshSchedule string `yaml:"refresh_schedule"`
}

// ChartConfig contains trend chart dimensions
type ChartConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel                string `yaml:"log_level"`
	EnableRequestLogging    bool   `yaml:"enable_request_logging"`
	WebSocketMaxMessageSize int    `yaml:"websocket_max_message_size_kb"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:              8090,
			BindAddress:       "0.0.0.0",
			EnableCORS:        true,
			AllowOrigins:      "*",
			ReadTimeout:       30,
			WriteTimeout:      30,
			IdleTimeout:       120,
			EnableCompression: true,
			CompressionLevel:  5,
		},
		Upstream: UpstreamConfig{
			BaseURL:     "http://localhost:8000",
			FeedPath:    "/ws",
			HistoryPath: "/history",
			ExportPath:  "/export",
		},
		History: HistoryConfig{
			TimeoutSeconds: 10,
		},
		Chart: ChartConfig{
			Width:  960,
			Height: 320,
		},
		Advanced: AdvancedConfig{
			LogLevel:                "info",
			EnableRequestLogging:    true,
			WebSocketMaxMessageSize: 64,
		},
	}
}

// LoadConfig loads configuration from a YAML file. A missing file is
// created with the defaults.
func LoadConfig(configPath string) (*AppConfig, error) {
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		config := DefaultConfig()
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		config.applyEnvironmentOverrides()
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyEnvironmentOverrides()

	return config, nil
}

// Save writes the configuration as YAML
func (c *AppConfig) Save(configPath string) error {
	output, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# DeepBore dashboard configuration\n# This file is auto-generated on first run\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("DEEPBORE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if upstream := os.Getenv("DEEPBORE_UPSTREAM_URL"); upstream != "" {
		c.Upstream.BaseURL = upstream
	}
}

// Validate reports the first invalid setting.
func (c *AppConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if _, err := c.baseURL(); err != nil {
		return err
	}
	if c.History.TimeoutSeconds < 0 {
		return fmt.Errorf("history.timeout_seconds must not be negative")
	}
	if expr := strings.TrimSpace(c.History.RefreshSchedule); expr != "" {
		if _, err := cron.ParseStandard(expr); err != nil {
			return fmt.Errorf("history.refresh_schedule %q: %w", expr, err)
		}
	}
	if c.Chart.Width <= 0 || c.Chart.Height <= 0 {
		return fmt.Errorf("chart dimensions must be positive")
	}
	return nil
}

func (c *AppConfig) baseURL() (*url.URL, error) {
	u, err := url.Parse(c.Upstream.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("upstream.base_url: %w", err)
	}
	switch u.Scheme {
	case "http", "https":
	default:
		return nil, fmt.Errorf("upstream.base_url must be http or https, got %q", c.Upstream.BaseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("upstream.base_url has no host: %q", c.Upstream.BaseURL)
	}
	return u, nil
}

func (c *AppConfig) endpoint(path string) string {
	u, err := c.baseURL()
	if err != nil {
		return ""
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	return u.String()
}

// FeedURL returns the upstream WebSocket URL (ws:// or wss://).
func (c *AppConfig) FeedURL() string {
	u, err := url.Parse(c.endpoint(c.Upstream.FeedPath))
	if err != nil || u.Host == "" {
		return ""
	}
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	return u.String()
}

// HistoryURL returns the upstream history endpoint
func (c *AppConfig) HistoryURL() string {
	return c.endpoint(c.Upstream.HistoryPath)
}

// ExportURL returns the upstream CSV export endpoint
func (c *AppConfig) ExportURL() string {
	return c.endpoint(c.Upstream.ExportPath)
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}
