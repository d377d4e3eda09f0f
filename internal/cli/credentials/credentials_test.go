package credentials

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/brandcast/internal/cli/config"
)

func TestSaveLoadDelete(t *testing.T) {
	require.NoError(t, config.Init(filepath.Join(t.TempDir(), "config.toml")))

	creds, err := Load()
	require.NoError(t, err)
	assert.Nil(t, creds)

	saved := &Credentials{
		AccessToken: "token",
		ExpiresAt:   time.Now().Add(time.Hour).Truncate(time.Second),
		UserID:      "user-1",
		Email:       "owner@example.com",
	}
	require.NoError(t, Save(saved))

	info, err := os.Stat(config.GetCredentialsPath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, saved.Email, loaded.Email)
	assert.True(t, loaded.ExpiresAt.Equal(saved.ExpiresAt))
	assert.True(t, loaded.IsValid())

	require.NoError(t, Delete())
	require.NoError(t, Delete(), "deleting twice is fine")
	loaded, err = Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestIsValid(t *testing.T) {
	assert.False(t, (&Credentials{AccessToken: "t", ExpiresAt: time.Now().Add(-time.Minute)}).IsValid())
	assert.False(t, (&Credentials{ExpiresAt: time.Now().Add(time.Hour)}).IsValid())
	assert.True(t, (&Credentials{AccessToken: "t", ExpiresAt: time.Now().Add(time.Hour)}).IsValid())
}
