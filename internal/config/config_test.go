package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigWritesDefaultOnFirstRun(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("CONFIG_PATH", configPath)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	// 默认配置文件已落盘
	_, err = os.Stat(configPath)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, "reviewhub", cfg.Database.DBName)
	assert.Equal(t, GuardFailOpen, cfg.Guard.FailPolicy)
	assert.Equal(t, 10, cfg.Catalog.PageSize)
	assert.Equal(t, 10*time.Minute, cfg.Catalog.StatsTTL)
}

func TestLoadConfigKeepsExistingFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("CONFIG_PATH", configPath)

	custom := strings.Replace(defaultConfigYAML, `port: ":8080"`, `port: ":9090"`, 1)
	require.NoError(t, os.WriteFile(configPath, []byte(custom), 0o644))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Port)

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Equal(t, custom, string(data))
}
