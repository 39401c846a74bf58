package web

import (
	"fmt"
	"os"
	"strconv"
)

const (
	EnvListenAddr = "PHOTOFRAME_LISTEN"
	EnvDevMode    = "PHOTOFRAME_DEV"

	DefaultListenAddr = ":8080"
)

// ServerConfig contains settings for running the HTTP server.
type ServerConfig struct {
	ListenAddr string
	DevMode    bool
}

// ServerConfigFromEnv applies PHOTOFRAME_LISTEN and PHOTOFRAME_DEV on top of
// base, which usually comes from the config file or command-line flags.
// An empty listen address falls back to DefaultListenAddr.
func ServerConfigFromEnv(base ServerConfig) (ServerConfig, error) {
	cfg := base
	if addr := os.Getenv(EnvListenAddr); addr != "" {
		cfg.ListenAddr = addr
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}

	if raw := os.Getenv(EnvDevMode); raw != "" {
		dev, err := strconv.ParseBool(raw)
		if err != nil {
			return ServerConfig{}, fmt.Errorf("%s must be a boolean (got %q): %w", EnvDevMode, raw, err)
		}
		cfg.DevMode = dev
	}
	return cfg, nil
}
