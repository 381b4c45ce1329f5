package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope", "config.json"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8084/api/v1/chats", cfg.API.BaseURL)
	assert.Equal(t, 20, cfg.API.PageSize)
	assert.Equal(t, "ws://localhost:8084/ws/chat", cfg.Live.URL)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
		"api": {"base_url": "https://chat.example.com/api/v1/chats", "page_size": 50},
		"user": {"id": "u-1", "name": "Ada"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://chat.example.com/api/v1/chats", cfg.API.BaseURL)
	assert.Equal(t, 50, cfg.API.PageSize)
	assert.Equal(t, "u-1", cfg.User.ID)
	// Unset fields keep their defaults.
	assert.Equal(t, "ws://localhost:8084/ws/chat", cfg.Live.URL)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"user": {"id": "from-file"}}`), 0o600))

	t.Setenv("PARLEY_USER_ID", "from-env")
	t.Setenv("PARLEY_API_PAGE_SIZE", "10")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.User.ID)
	assert.Equal(t, 10, cfg.API.PageSize)
}

func TestLoadConfigRejectsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o600))

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.API.BaseURL = ""
	assert.EqualError(t, cfg.Validate(), "api.base_url is required")

	cfg = DefaultConfig()
	cfg.Live.URL = ""
	assert.EqualError(t, cfg.Validate(), "live.url is required")

	cfg = DefaultConfig()
	cfg.API.PageSize = 0
	assert.ErrorContains(t, cfg.Validate(), "api.page_size must be positive")
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := DefaultConfig()
	cfg.User.ID = "u-1"
	require.NoError(t, SaveConfig(path, cfg))

	got, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestTimeoutHelpers(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "10s", cfg.APITimeout().String())
	assert.Equal(t, "10s", cfg.ConnectTimeout().String())
}
