package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rook-computer/photoframe/internal/app"
	"github.com/rook-computer/photoframe/internal/buttons"
	"github.com/rook-computer/photoframe/internal/config"
	"github.com/rook-computer/photoframe/internal/render"
	"github.com/rook-computer/photoframe/internal/state"
	"github.com/rook-computer/photoframe/internal/web"
)

var (
	configPath     string
	debug          bool
	stdioLog       string
	generateConfig bool
	showVersion    bool
)

var rootCmd = &cobra.Command{
	Use:           "photoframe",
	Short:         "Fullscreen image slideshow for a framebuffer kiosk",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			printVersion(cmd.OutOrStdout())
			return nil
		}
		if generateConfig {
			return writeDefaultConfig(cmd.OutOrStdout())
		}
		return run(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		printVersion(cmd.OutOrStdout())
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configGenCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write the default configuration to ~/.config/photoframe/config.toml",
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeDefaultConfig(cmd.OutOrStdout())
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to configuration file")
	flags.BoolVar(&debug, "debug", false, "enable debug logging to log.path")
	flags.StringVar(&stdioLog, "stdio-log", "", "redirect stdout+stderr (including panics) to this file; also configurable via "+envStdioLog)
	flags.BoolVar(&generateConfig, "generate-config", false, "generate default config file")
	flags.BoolVar(&showVersion, "version", false, "show version information")

	configCmd.AddCommand(configGenCmd)
	rootCmd.AddCommand(versionCmd, configCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "photoframe %s\n", config.Version)
	fmt.Fprintln(w, "Framebuffer image slideshow")
}

func defaultConfigFile() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "photoframe", "config.toml")
}

func writeDefaultConfig(w io.Writer) error {
	path := defaultConfigFile()
	if err := config.GenerateDefaultConfig(path); err != nil {
		return fmt.Errorf("failed to generate config: %w", err)
	}
	fmt.Fprintf(w, "Generated default configuration at: %s\n", path)
	return nil
}

func run(parent context.Context) error {
	if err := setupStdioLog(stdioLog); err != nil {
		fmt.Println("stdio log redirect error:", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if debug {
		cfg.Log.Debug = true
	}

	var logger app.Logger = app.NoopLogger{}
	if cfg.Log.Debug {
		f, err := os.OpenFile(cfg.Log.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err == nil {
			defer f.Close()
			logger = app.NewFileLogger(f)
			logger.Infof("main", "debug logging enabled, photoframe %s", config.Version)
		} else {
			fmt.Println("debug log open error:", err)
		}
	}

	firstRunPath := configPath
	if firstRunPath == "" {
		firstRunPath = defaultConfigFile()
	}
	if written, err := config.WriteDefaultIfMissing(cfg, firstRunPath); err != nil {
		logger.Errorf("main", "default config not written: %v", err)
	} else if written {
		logger.Infof("main", "wrote default configuration to %s", firstRunPath)
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := state.NewStore()

	canvas := render.NewCanvas(cfg.Display.Width, cfg.Display.Height, cfg.Display.FontSize, logger)
	if mode, err := render.ParseScaleMode(cfg.Display.Scale); err != nil {
		logger.Errorf("main", "%v, using %s", err, canvas.Scale)
	} else {
		canvas.Scale = mode
	}
	canvas.ShowQR = cfg.Display.ShowQR
	renderer := render.NewFBRenderer(cfg.Display.Device, canvas, logger)

	queue := buttons.NewQueue(32)
	btns := buttons.NewEvdevButtons(queue, logger)

	a := app.New(cfg, store, renderer, nil, btns)
	a.Logger = logger
	a.Console = true

	if cfg.Web.Enabled {
		serverCfg, err := web.ServerConfigFromEnv(web.ServerConfig{ListenAddr: cfg.Web.Listen, DevMode: cfg.Web.DevMode})
		if err != nil {
			return err
		}
		a.Web = web.NewHTTPServer(serverCfg, web.APIV1Deps{Status: store, Controls: queue}, logger)
	}

	return a.Run(ctx)
}
