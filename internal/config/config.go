package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rook-computer/photoframe/internal/category"
)

// ErrConfigurationMissing is returned by CategoryList when the configuration
// names no usable category. The built-in defaults are returned alongside it.
var ErrConfigurationMissing = errors.New("no categories configured")

type Config struct {
	Display      DisplayConfig      `mapstructure:"display"`
	Slideshow    SlideshowConfig    `mapstructure:"slideshow"`
	Categories   []CategoryConfig   `mapstructure:"categories"`
	Connectivity ConnectivityConfig `mapstructure:"connectivity"`
	KeepActive   KeepActiveConfig   `mapstructure:"keep_active"`
	Web          WebConfig          `mapstructure:"web"`
	Session      SessionConfig      `mapstructure:"session"`
	Log          LogConfig          `mapstructure:"log"`

	// File is the config file Load read, empty when defaults were used.
	File string `mapstructure:"-"`
}

type DisplayConfig struct {
	Device   string  `mapstructure:"device"`
	Width    int     `mapstructure:"width"`
	Height   int     `mapstructure:"height"`
	FontSize float64 `mapstructure:"font_size"`
	Scale    string  `mapstructure:"scale"`
	ShowQR   bool    `mapstructure:"show_qr"`
}

type SlideshowConfig struct {
	IntervalMinutes     int           `mapstructure:"interval_minutes"`
	MinIntervalMinutes  int           `mapstructure:"min_interval_minutes"`
	MaxIntervalMinutes  int           `mapstructure:"max_interval_minutes"`
	IntervalStep        int           `mapstructure:"interval_step"`
	UIHideDelay         time.Duration `mapstructure:"ui_hide_delay"`
	Tick                time.Duration `mapstructure:"tick"`
	FetchTimeout        time.Duration `mapstructure:"fetch_timeout"`
	ChargerPollInterval time.Duration `mapstructure:"charger_poll_interval"`
	UserAgent           string        `mapstructure:"user_agent"`
}

type CategoryConfig struct {
	Name   string `mapstructure:"name" toml:"name"`
	Source string `mapstructure:"source" toml:"source"`
}

type ConnectivityConfig struct {
	// Mode is "interfaces" or "script".
	Mode string `mapstructure:"mode"`
	// ChargerMode is "sysfs" or "always".
	ChargerMode    string `mapstructure:"charger_mode"`
	PowerSupplyDir string `mapstructure:"power_supply_dir"`
}

type KeepActiveConfig struct {
	// BlankMinutes is the console blanking timeout restored when no charger is connected.
	BlankMinutes int `mapstructure:"blank_minutes"`
	// Hook, when set, is run through the script runner with "on" or "off".
	Hook string `mapstructure:"hook"`
}

type WebConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
	DevMode bool   `mapstructure:"dev_mode"`
}

type SessionConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Debug bool   `mapstructure:"debug"`
	Path  string `mapstructure:"path"`
}

const (
	EnvPrefix         = "PHOTOFRAME"
	defaultConfigDir  = "/etc/photoframe"
	defaultConfigName = "config"
)

// Version is reported in the User-Agent header and by the CLI.
var Version = "dev"

func Default() *Config {
	return &Config{
		Display: DisplayConfig{
			Device:   "/dev/fb0",
			Width:    1280,
			Height:   720,
			FontSize: 22,
			Scale:    "fit",
			ShowQR:   true,
		},
		Slideshow: SlideshowConfig{
			IntervalMinutes:     5,
			MinIntervalMinutes:  5,
			MaxIntervalMinutes:  1440,
			IntervalStep:        1,
			UIHideDelay:         4 * time.Second,
			Tick:                16 * time.Millisecond,
			FetchTimeout:        15 * time.Second,
			ChargerPollInterval: 30 * time.Second,
			UserAgent:           "photoframe/" + Version + " (Linux framebuffer)",
		},
		Connectivity: ConnectivityConfig{
			Mode:           "interfaces",
			ChargerMode:    "sysfs",
			PowerSupplyDir: "/sys/class/power_supply",
		},
		KeepActive: KeepActiveConfig{
			BlankMinutes: 10,
		},
		Web: WebConfig{
			Enabled: false,
			Listen:  ":8080",
		},
		Session: SessionConfig{
			Path: "/var/lib/photoframe/session.db",
		},
		Log: LogConfig{
			Path: "./photoframe-debug.log",
		},
	}
}

// DefaultCategories renders the built-in category set in config form.
func DefaultCategories() []CategoryConfig {
	defaults := category.Defaults()
	out := make([]CategoryConfig, 0, len(defaults))
	for _, c := range defaults {
		out = append(out, CategoryConfig{Name: c.Name, Source: c.Source()})
	}
	return out
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("display.device", cfg.Display.Device)
	v.SetDefault("display.width", cfg.Display.Width)
	v.SetDefault("display.height", cfg.Display.Height)
	v.SetDefault("display.font_size", cfg.Display.FontSize)
	v.SetDefault("display.scale", cfg.Display.Scale)
	v.SetDefault("display.show_qr", cfg.Display.ShowQR)

	v.SetDefault("slideshow.interval_minutes", cfg.Slideshow.IntervalMinutes)
	v.SetDefault("slideshow.min_interval_minutes", cfg.Slideshow.MinIntervalMinutes)
	v.SetDefault("slideshow.max_interval_minutes", cfg.Slideshow.MaxIntervalMinutes)
	v.SetDefault("slideshow.interval_step", cfg.Slideshow.IntervalStep)
	v.SetDefault("slideshow.ui_hide_delay", cfg.Slideshow.UIHideDelay)
	v.SetDefault("slideshow.tick", cfg.Slideshow.Tick)
	v.SetDefault("slideshow.fetch_timeout", cfg.Slideshow.FetchTimeout)
	v.SetDefault("slideshow.charger_poll_interval", cfg.Slideshow.ChargerPollInterval)
	v.SetDefault("slideshow.user_agent", cfg.Slideshow.UserAgent)

	v.SetDefault("connectivity.mode", cfg.Connectivity.Mode)
	v.SetDefault("connectivity.charger_mode", cfg.Connectivity.ChargerMode)
	v.SetDefault("connectivity.power_supply_dir", cfg.Connectivity.PowerSupplyDir)

	v.SetDefault("keep_active.blank_minutes", cfg.KeepActive.BlankMinutes)
	v.SetDefault("keep_active.hook", cfg.KeepActive.Hook)

	v.SetDefault("web.enabled", cfg.Web.Enabled)
	v.SetDefault("web.listen", cfg.Web.Listen)
	v.SetDefault("web.dev_mode", cfg.Web.DevMode)

	v.SetDefault("session.path", cfg.Session.Path)

	v.SetDefault("log.debug", cfg.Log.Debug)
	v.SetDefault("log.path", cfg.Log.Path)
}

// Load reads the configuration at configPath, or config.toml from the
// default search path when configPath is empty. A missing file is not an
// error: defaults apply. PHOTOFRAME_* environment variables override keys,
// e.g. PHOTOFRAME_SLIDESHOW_INTERVAL_MINUTES.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	cfg := Default()
	setDefaults(v, cfg)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(defaultConfigName)
		v.SetConfigType("toml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "photoframe"))
		}
		v.AddConfigPath(defaultConfigDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	if _, err := os.Stat(cfg.File); err != nil {
		cfg.File = ""
	}

	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	d := Default()
	s := &c.Slideshow

	if s.MinIntervalMinutes < 1 {
		s.MinIntervalMinutes = 1
	}
	if s.MaxIntervalMinutes < s.MinIntervalMinutes {
		s.MaxIntervalMinutes = s.MinIntervalMinutes
	}
	if s.IntervalStep < 1 {
		s.IntervalStep = 1
	}
	s.IntervalMinutes = min(max(s.IntervalMinutes, s.MinIntervalMinutes), s.MaxIntervalMinutes)
	if s.UIHideDelay <= 0 {
		s.UIHideDelay = d.Slideshow.UIHideDelay
	}
	if s.Tick <= 0 {
		s.Tick = d.Slideshow.Tick
	}
	if s.FetchTimeout <= 0 {
		s.FetchTimeout = d.Slideshow.FetchTimeout
	}
	if s.ChargerPollInterval <= 0 {
		s.ChargerPollInterval = d.Slideshow.ChargerPollInterval
	}
	if strings.TrimSpace(s.UserAgent) == "" {
		s.UserAgent = d.Slideshow.UserAgent
	}

	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		c.Display.Width, c.Display.Height = d.Display.Width, d.Display.Height
	}
	if c.Display.FontSize <= 0 {
		c.Display.FontSize = d.Display.FontSize
	}
	if c.KeepActive.BlankMinutes < 0 {
		c.KeepActive.BlankMinutes = 0
	}
}

// CategoryList converts the configured categories. Entries with an empty name
// or source are skipped. When nothing usable remains, the built-in defaults
// are returned together with ErrConfigurationMissing.
func (c *Config) CategoryList() ([]category.Category, error) {
	var out []category.Category
	for _, entry := range c.Categories {
		if strings.TrimSpace(entry.Name) == "" || strings.TrimSpace(entry.Source) == "" {
			continue
		}
		out = append(out, category.Parse(entry.Name, entry.Source))
	}
	if len(out) == 0 {
		return category.Defaults(), ErrConfigurationMissing
	}
	return out, nil
}
