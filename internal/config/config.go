// Package config assembles the client configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// LocalRPC is the katana address that selects the dev manifest.
const LocalRPC = "http://localhost:5050"

const (
	devManifest     = "manifest_dev.json"
	releaseManifest = "manifest_release.json"
)

var ErrMissingEndpoint = errors.New("missing endpoint")

// Config is the client configuration: the three world endpoints plus the
// local server settings.
type Config struct {
	RPCURL         string
	ToriiURL       string
	RelayURL       string
	ManifestDir    string
	AccountAddress string
	SessionSecret  string
	Addr           string
	BaseURL        string
	SurfaceErrors  bool
	QueryTimeout   time.Duration
	PollInterval   time.Duration
	LogLevel       string
}

// Load reads the configuration using os.Getenv.
func Load() (Config, error) {
	return FromLookup(os.Getenv)
}

// FromLookup builds a Config from an environment lookup function.
func FromLookup(getenv func(string) string) (Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		RPCURL:         get("SLOT_RPC", ""),
		ToriiURL:       strings.TrimRight(get("TORII_URL", ""), "/"),
		RelayURL:       get("TORII_RELAY", ""),
		ManifestDir:    get("MANIFEST_DIR", "backend"),
		AccountAddress: get("ACCOUNT_ADDRESS", ""),
		SessionSecret:  get("SESSION_SECRET", ""),
		Addr:           ":" + get("PORT", "8080"),
		BaseURL:        strings.TrimRight(get("BASE_URL", ""), "/"),
		LogLevel:       get("LOG_LEVEL", "info"),
	}
	if cfg.RPCURL == "" {
		return Config{}, fmt.Errorf("%w: SLOT_RPC", ErrMissingEndpoint)
	}
	if cfg.ToriiURL == "" {
		return Config{}, fmt.Errorf("%w: TORII_URL", ErrMissingEndpoint)
	}

	var err error
	if cfg.SurfaceErrors, err = strconv.ParseBool(get("SURFACE_ERRORS", "false")); err != nil {
		return Config{}, fmt.Errorf("SURFACE_ERRORS: %w", err)
	}
	if cfg.QueryTimeout, err = time.ParseDuration(get("QUERY_TIMEOUT", "0s")); err != nil {
		return Config{}, fmt.Errorf("QUERY_TIMEOUT: %w", err)
	}
	if cfg.PollInterval, err = time.ParseDuration(get("POLL_INTERVAL", "2s")); err != nil {
		return Config{}, fmt.Errorf("POLL_INTERVAL: %w", err)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	return cfg, nil
}

// IsLocal reports whether the RPC points at the local dev sequencer.
func (c Config) IsLocal() bool {
	return c.RPCURL == LocalRPC
}

// ManifestPath returns the dev manifest for the local sequencer and the
// release manifest otherwise.
func (c Config) ManifestPath() string {
	if c.IsLocal() {
		return filepath.Join(c.ManifestDir, devManifest)
	}
	return filepath.Join(c.ManifestDir, releaseManifest)
}
