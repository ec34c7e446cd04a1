package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// Given: no config file
	path := filepath.Join(t.TempDir(), "missing.yml")

	// When: the config is loaded
	conf, err := Load(path)

	// Then: defaults are applied
	require.NoError(t, err)
	assert.Equal(t, "info", conf.LogLevel)
	assert.Equal(t, 2, conf.Room.Seats)
	assert.Equal(t, 15*time.Second, conf.Room.DeleteGrace)
	assert.Equal(t, 501, conf.Room.StartScore)
	assert.False(t, conf.Redis.Enabled)
	assert.Equal(t, "localhost:6379", conf.Redis.GetRedisAddr())
}

func TestLoad_File(t *testing.T) {
	// Given: a config file overriding a few values
	path := filepath.Join(t.TempDir(), "config.yml")
	content := "log-level: debug\nroom:\n  delete-grace: 3s\n  start-score: 301\nredis:\n  enabled: true\n  port: \"6380\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	// When: the config is loaded
	conf, err := Load(path)

	// Then: file values win and the rest keep their defaults
	require.NoError(t, err)
	assert.Equal(t, "debug", conf.LogLevel)
	assert.Equal(t, 3*time.Second, conf.Room.DeleteGrace)
	assert.Equal(t, 301, conf.Room.StartScore)
	assert.Equal(t, 2, conf.Room.Seats)
	assert.True(t, conf.Redis.Enabled)
	assert.Equal(t, "localhost:6380", conf.Redis.GetRedisAddr())
}
