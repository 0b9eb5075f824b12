package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allConfigKeys lists every P2S_ env var that Load() reads.
var allConfigKeys = []string{
	"P2S_CONFIG",
	"P2S_PANDORA_USERNAME",
	"P2S_PANDORA_PASSWORD",
	"P2S_SPOTIFY_CLIENT_ID",
	"P2S_SPOTIFY_CLIENT_SECRET",
	"P2S_DB_PATH",
	"P2S_STATION_ID",
	"P2S_SECRET_KEY",
}

// isolateConfigEnv saves and unsets all P2S_ env vars so tests don't inherit
// values from the host environment. t.Cleanup restores originals.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

// writeConfig writes an INI file into a temp dir and returns its path.
func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "conf.ini")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoad_Full(t *testing.T) {
	isolateConfigEnv(t)
	path := writeConfig(t, `
[pandora]
username=listener@example.com
password=hunter2

[spotify]
client_id=abc123
client_secret=shh
redirect_port=9000

[sync]
interval=12h
station_id=344712744001219816
page_size=25
station_page_size=100
db_path=/tmp/p2s.db
public_playlists=true
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "listener@example.com", cfg.PandoraUsername)
	assert.Equal(t, "hunter2", cfg.PandoraPassword)
	assert.Equal(t, "abc123", cfg.SpotifyClientID)
	assert.Equal(t, "shh", cfg.SpotifyClientSecret)
	assert.Equal(t, 9000, cfg.RedirectPort)
	assert.Equal(t, 12*time.Hour, cfg.Interval)
	assert.Equal(t, "344712744001219816", cfg.StationID)
	assert.Equal(t, 25, cfg.PageSize)
	assert.Equal(t, 100, cfg.StationPageSize)
	assert.Equal(t, "/tmp/p2s.db", cfg.DBPath)
	assert.True(t, cfg.PublicPlaylists)
	assert.True(t, cfg.HasPandoraCredentials())
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)
	path := writeConfig(t, `
[pandora]
username=listener@example.com
password=hunter2
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 8921, cfg.RedirectPort)
	assert.Equal(t, time.Duration(0), cfg.Interval)
	assert.Equal(t, 10, cfg.PageSize)
	assert.Equal(t, 250, cfg.StationPageSize)
	assert.Equal(t, "pandora-to-spotify.db", cfg.DBPath)
	assert.False(t, cfg.PublicPlaylists)
	assert.NotEmpty(t, cfg.SpotifyClientID)
	assert.Nil(t, cfg.SecretKey)
}

// A missing conf.ini is not an error: the login command runs before the file
// exists, and credentials may come entirely from the environment.
func TestLoad_MissingFile(t *testing.T) {
	isolateConfigEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.ini"))

	require.NoError(t, err)
	assert.False(t, cfg.HasPandoraCredentials())
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolateConfigEnv(t)
	path := writeConfig(t, `
[pandora]
username=file-user
password=file-pass
`)
	t.Setenv("P2S_PANDORA_USERNAME", "env-user")
	t.Setenv("P2S_DB_PATH", "/var/lib/p2s.db")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "env-user", cfg.PandoraUsername)
	assert.Equal(t, "file-pass", cfg.PandoraPassword)
	assert.Equal(t, "/var/lib/p2s.db", cfg.DBPath)
}

func TestLoad_InvalidInterval(t *testing.T) {
	isolateConfigEnv(t)
	path := writeConfig(t, `
[sync]
interval=often
`)

	_, err := Load(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "interval")
}

func TestLoad_SecretKey(t *testing.T) {
	isolateConfigEnv(t)
	path := writeConfig(t, "")

	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	t.Setenv("P2S_SECRET_KEY", base64.StdEncoding.EncodeToString(key))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, key, cfg.SecretKey)
}

func TestLoad_SecretKeyWrongLength(t *testing.T) {
	isolateConfigEnv(t)
	path := writeConfig(t, "")
	t.Setenv("P2S_SECRET_KEY", base64.StdEncoding.EncodeToString([]byte("short")))

	_, err := Load(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "32 bytes")
}
