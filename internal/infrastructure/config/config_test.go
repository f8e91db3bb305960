package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingEnvFile(t *testing.T) {
	// 在沒有 .env 的目錄下載入，應以預設值啟動而非失敗
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "http://localhost:11434", cfg.Ollama.BaseURL)
	assert.Equal(t, "llama3.2", cfg.Ollama.Model)
	assert.Equal(t, "memory", cfg.Cache.Driver)
	assert.Equal(t, "grocery.db", cfg.Store.Path)
}
