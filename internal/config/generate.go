package config

import (
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// fileConfig mirrors Config with durations written as strings so the
// generated file stays readable.
type fileConfig struct {
	Display struct {
		Device   string  `toml:"device"`
		Width    int     `toml:"width"`
		Height   int     `toml:"height"`
		FontSize float64 `toml:"font_size"`
		Scale    string  `toml:"scale"`
		ShowQR   bool    `toml:"show_qr"`
	} `toml:"display"`
	Slideshow struct {
		IntervalMinutes     int    `toml:"interval_minutes"`
		MinIntervalMinutes  int    `toml:"min_interval_minutes"`
		MaxIntervalMinutes  int    `toml:"max_interval_minutes"`
		IntervalStep        int    `toml:"interval_step"`
		UIHideDelay         string `toml:"ui_hide_delay"`
		Tick                string `toml:"tick"`
		FetchTimeout        string `toml:"fetch_timeout"`
		ChargerPollInterval string `toml:"charger_poll_interval"`
	} `toml:"slideshow"`
	Connectivity struct {
		Mode           string `toml:"mode"`
		ChargerMode    string `toml:"charger_mode"`
		PowerSupplyDir string `toml:"power_supply_dir"`
	} `toml:"connectivity"`
	KeepActive struct {
		BlankMinutes int    `toml:"blank_minutes"`
		Hook         string `toml:"hook"`
	} `toml:"keep_active"`
	Web struct {
		Enabled bool   `toml:"enabled"`
		Listen  string `toml:"listen"`
	} `toml:"web"`
	Session struct {
		Path string `toml:"path"`
	} `toml:"session"`
	Categories []CategoryConfig `toml:"categories"`
}

func toFileConfig(cfg *Config, categories []CategoryConfig) fileConfig {
	var f fileConfig
	f.Display.Device = cfg.Display.Device
	f.Display.Width = cfg.Display.Width
	f.Display.Height = cfg.Display.Height
	f.Display.FontSize = cfg.Display.FontSize
	f.Display.Scale = cfg.Display.Scale
	f.Display.ShowQR = cfg.Display.ShowQR

	f.Slideshow.IntervalMinutes = cfg.Slideshow.IntervalMinutes
	f.Slideshow.MinIntervalMinutes = cfg.Slideshow.MinIntervalMinutes
	f.Slideshow.MaxIntervalMinutes = cfg.Slideshow.MaxIntervalMinutes
	f.Slideshow.IntervalStep = cfg.Slideshow.IntervalStep
	f.Slideshow.UIHideDelay = cfg.Slideshow.UIHideDelay.String()
	f.Slideshow.Tick = cfg.Slideshow.Tick.String()
	f.Slideshow.FetchTimeout = cfg.Slideshow.FetchTimeout.String()
	f.Slideshow.ChargerPollInterval = cfg.Slideshow.ChargerPollInterval.String()

	f.Connectivity.Mode = cfg.Connectivity.Mode
	f.Connectivity.ChargerMode = cfg.Connectivity.ChargerMode
	f.Connectivity.PowerSupplyDir = cfg.Connectivity.PowerSupplyDir

	f.KeepActive.BlankMinutes = cfg.KeepActive.BlankMinutes
	f.KeepActive.Hook = cfg.KeepActive.Hook

	f.Web.Enabled = cfg.Web.Enabled
	f.Web.Listen = cfg.Web.Listen

	f.Session.Path = cfg.Session.Path
	f.Categories = categories
	return f
}

// GenerateDefaultConfig writes the default configuration, including the
// built-in categories, to path. Existing files are left untouched.
func GenerateDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := toml.Marshal(toFileConfig(Default(), DefaultCategories()))
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	header := []byte("# photoframe configuration\n# Sources prefixed with local:// are folders; anything else is fetched over HTTP(S).\n\n")
	if err := os.WriteFile(path, append(header, data...), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// WriteDefaultIfMissing writes the default configuration to path on first
// run, when Load found no file. It reports whether a file was written.
func WriteDefaultIfMissing(cfg *Config, path string) (bool, error) {
	if cfg.File != "" {
		return false, nil
	}
	if err := GenerateDefaultConfig(path); err != nil {
		return false, err
	}
	cfg.File = path
	return true, nil
}
