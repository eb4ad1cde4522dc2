package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_CreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deepbore.yaml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Server.Port, cfg.Server.Port)

	data, err := os.ReadFile(path)
	require.NoError(t, err, "default config should be written")
	assert.Contains(t, string(data), "log_level: info")
	assert.Contains(t, string(data), "base_url: http://localhost:8000")

	// Second load reads the file back
	again, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Upstream, again.Upstream)
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deepbore.yaml")
	content := "upstream:\n  base_url: https://rig7.example.com:9000\nhistory:\n  refresh_schedule: \"@every 30s\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://rig7.example.com:9000", cfg.Upstream.BaseURL)
	assert.Equal(t, "/history", cfg.Upstream.HistoryPath)
	assert.Equal(t, "@every 30s", cfg.History.RefreshSchedule)
	assert.Equal(t, 8090, cfg.Server.Port)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_AdvancedSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deepbore.yaml")
	content := "advanced:\n  log_level: debug\n  websocket_max_message_size_kb: 128\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Advanced.LogLevel)
	assert.Equal(t, 128, cfg.Advanced.WebSocketMaxMessageSize)
	assert.True(t, cfg.Advanced.EnableRequestLogging)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deepbore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("DEEPBORE_PORT", "9191")
	t.Setenv("DEEPBORE_UPSTREAM_URL", "http://edge:8000")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "deepbore.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "http://edge:8000", cfg.Upstream.BaseURL)
}

func TestEndpointURLs(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "ws://localhost:8000/ws", cfg.FeedURL())
	assert.Equal(t, "http://localhost:8000/history", cfg.HistoryURL())
	assert.Equal(t, "http://localhost:8000/export", cfg.ExportURL())

	cfg.Upstream.BaseURL = "https://rig.example.com/api/"
	assert.Equal(t, "wss://rig.example.com/api/ws", cfg.FeedURL())
	assert.Equal(t, "https://rig.example.com/api/history", cfg.HistoryURL())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *AppConfig)
	}{
		{"bad port", func(c *AppConfig) { c.Server.Port = 0 }},
		{"bad scheme", func(c *AppConfig) { c.Upstream.BaseURL = "ftp://host" }},
		{"no host", func(c *AppConfig) { c.Upstream.BaseURL = "http://" }},
		{"bad schedule", func(c *AppConfig) { c.History.RefreshSchedule = "every now and then" }},
		{"negative timeout", func(c *AppConfig) { c.History.TimeoutSeconds = -1 }},
		{"zero chart", func(c *AppConfig) { c.Chart.Width = 0 }},
	}

	assert.NoError(t, DefaultConfig().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestGetServerAddr(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.BindAddress = "127.0.0.1"
	cfg.Server.Port = 8123
	assert.Equal(t, "127.0.0.1:8123", cfg.GetServerAddr())
}
