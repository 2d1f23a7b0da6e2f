package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8080", c.ServerURL)
	assert.Equal(t, 30*time.Second, c.RequestTimeout)
	assert.Equal(t, "exports", c.ExportDir)
	assert.NoError(t, c.Validate())
}

func TestLoadConfig_Precedence(t *testing.T) {
	path := writeTempJSON(t, "", "", map[string]any{
		"server_url":      "http://json:8080",
		"request_timeout": "5s",
		"username":        "ops",
	})

	cfg, err := LoadConfig([]string{"-c", path, "-a", "http://flag:9090"})
	require.NoError(t, err)

	assert.Equal(t, "http://flag:9090", cfg.ServerURL)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "ops", cfg.Username)
	assert.Equal(t, "exports", cfg.ExportDir)
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, err := LoadConfig([]string{"-a", "127.0.0.1:8080"})
	assert.Error(t, err)

	_, err = LoadConfig([]string{"-t", "0"})
	assert.Error(t, err)
}
