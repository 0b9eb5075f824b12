// Package config loads application configuration from conf.ini with
// P2S_-prefixed environment variable overrides.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"gopkg.in/ini.v1"
)

// DefaultPath is the conf.ini location used when neither --config nor
// P2S_CONFIG is set.
const DefaultPath = "conf.ini"

// Default Spotify application registration. Overridable via [spotify]
// client_id / client_secret for users who register their own app.
const (
	defaultSpotifyClientID     = "8d620a84255e4806b1bbed7df287cdd7"
	defaultSpotifyClientSecret = "fec769303a3d4dbba2fbe5ee2e95cee2"
)

// Config holds the application configuration assembled from conf.ini and
// environment overrides.
type Config struct {
	PandoraUsername string
	PandoraPassword string

	SpotifyClientID     string
	SpotifyClientSecret string
	RedirectPort        int

	Interval        time.Duration
	StationID       string
	PageSize        int
	StationPageSize int
	DBPath          string
	PublicPlaylists bool

	// SecretKey is the 32-byte AES-256 key for encrypted credential storage,
	// or nil when P2S_SECRET_KEY is unset.
	SecretKey []byte
}

// HasPandoraCredentials returns true when both username and password are
// present. Commands that talk to Pandora fail fast when this is false.
func (c *Config) HasPandoraCredentials() bool {
	return c.PandoraUsername != "" && c.PandoraPassword != ""
}

// Load reads the INI file at path (missing files are tolerated so that the
// login command works before conf.ini exists), applies environment
// overrides, and returns a validated Config.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
		if v, ok := os.LookupEnv("P2S_CONFIG"); ok && v != "" {
			path = v
		}
	}

	file, err := ini.LooseLoad(path)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	pandora := file.Section("pandora")
	spotify := file.Section("spotify")
	sync := file.Section("sync")

	cfg := &Config{
		PandoraUsername:     pandora.Key("username").String(),
		PandoraPassword:     pandora.Key("password").String(),
		SpotifyClientID:     spotify.Key("client_id").MustString(defaultSpotifyClientID),
		SpotifyClientSecret: spotify.Key("client_secret").MustString(defaultSpotifyClientSecret),
		RedirectPort:        spotify.Key("redirect_port").MustInt(8921),
		StationID:           sync.Key("station_id").String(),
		PageSize:            sync.Key("page_size").MustInt(10),
		StationPageSize:     sync.Key("station_page_size").MustInt(250),
		DBPath:              sync.Key("db_path").MustString("pandora-to-spotify.db"),
		PublicPlaylists:     sync.Key("public_playlists").MustBool(false),
	}

	if raw := sync.Key("interval").String(); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("config %s: [sync] interval has invalid duration %q: %w", path, raw, err)
		}
		cfg.Interval = parsed
	}

	applyEnvOverrides(cfg)

	if cfg.PageSize < 1 {
		return nil, fmt.Errorf("config %s: [sync] page_size must be at least 1, got %d", path, cfg.PageSize)
	}
	if cfg.StationPageSize < 1 {
		return nil, fmt.Errorf("config %s: [sync] station_page_size must be at least 1, got %d", path, cfg.StationPageSize)
	}
	if cfg.RedirectPort < 1 || cfg.RedirectPort > 65535 {
		return nil, fmt.Errorf("config %s: [spotify] redirect_port %d out of range", path, cfg.RedirectPort)
	}

	if v, ok := os.LookupEnv("P2S_SECRET_KEY"); ok && v != "" {
		key, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("P2S_SECRET_KEY is not valid base64: %w", err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("P2S_SECRET_KEY must decode to 32 bytes for AES-256, got %d", len(key))
		}
		cfg.SecretKey = key
	}

	return cfg, nil
}

// applyEnvOverrides lets environment variables win over conf.ini values.
func applyEnvOverrides(cfg *Config) {
	setIfPresent("P2S_PANDORA_USERNAME", &cfg.PandoraUsername)
	setIfPresent("P2S_PANDORA_PASSWORD", &cfg.PandoraPassword)
	setIfPresent("P2S_SPOTIFY_CLIENT_ID", &cfg.SpotifyClientID)
	setIfPresent("P2S_SPOTIFY_CLIENT_SECRET", &cfg.SpotifyClientSecret)
	setIfPresent("P2S_DB_PATH", &cfg.DBPath)
	setIfPresent("P2S_STATION_ID", &cfg.StationID)
}

func setIfPresent(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}
