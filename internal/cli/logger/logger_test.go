package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/brandcast/internal/cli/config"
)

func TestInitWritesToLogFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, config.Init(filepath.Join(dir, "config.toml")))
	logFile := filepath.Join(dir, "cli.log")
	config.Set("log.file", logFile)

	Init(false)
	Debug("hidden", "key", "value")
	Info("connected account", "platform", "twitter")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "connected account")
	assert.Contains(t, string(data), "platform=twitter")
	assert.NotContains(t, string(data), "hidden")

	Init(true)
	Debug("now visible")
	data, err = os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "now visible")
}
