package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rook-computer/photoframe/internal/app"
	"github.com/rook-computer/photoframe/internal/buttons"
	"github.com/rook-computer/photoframe/internal/config"
	"github.com/rook-computer/photoframe/internal/render"
	"github.com/rook-computer/photoframe/internal/state"
	"github.com/rook-computer/photoframe/internal/web"
)

func main() {
	defaults, err := web.ServerConfigFromEnv(web.ServerConfig{})
	if err != nil {
		fmt.Println("server config error:", err)
		os.Exit(2)
	}

	listenAddr := flag.String("listen", defaults.ListenAddr, "http listen address; also configurable via "+web.EnvListenAddr)
	devMode := flag.Bool("dev", defaults.DevMode, "enable dev mode; also configurable via "+web.EnvDevMode)
	staticDir := flag.String("static-dir", "", "serve static UI from this directory (optional); when empty, embedded web UI assets are served")
	scenario := flag.String("scenario", "online", "simulator scenario: online | offline | battery")
	simRoot := flag.String("root", "/tmp/photoframe-sim", "directory for the seeded album, session and rendered frame")
	interval := flag.Int("interval", 5, "slideshow interval in minutes")
	quiet := flag.Bool("quiet", false, "do not log to stdout")
	flag.Parse()

	processCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := filepath.Clean(*simRoot)
	startupScenario := strings.TrimSpace(*scenario)
	if startupScenario == "" {
		startupScenario = "online"
	}

	control := NewSimControl(root, startupScenario)
	if err := control.Seed(); err != nil {
		fmt.Println("seed error:", err)
		os.Exit(2)
	}
	if err := control.ApplyScenario(startupScenario); err != nil {
		fmt.Println("scenario init error:", err)
		os.Exit(2)
	}
	if err := control.StartImageServer(); err != nil {
		fmt.Println("image server error:", err)
		os.Exit(1)
	}
	defer control.Close()

	var logger app.Logger = app.NewFileLogger(os.Stdout)
	if *quiet {
		logger = app.NoopLogger{}
	}

	cfg := config.Default()
	cfg.Categories = control.Categories()
	cfg.Slideshow.IntervalMinutes = *interval
	cfg.Session.Path = filepath.Join(root, "session.db")

	store := state.NewStore()
	queue := buttons.NewQueue(32)

	canvas := render.NewCanvas(cfg.Display.Width, cfg.Display.Height, cfg.Display.FontSize, logger)
	canvas.ShowQR = cfg.Display.ShowQR
	renderer := render.NewCanvasRenderer(canvas, control.FramePath(), logger)

	server := web.NewHTTPServer(web.ServerConfig{ListenAddr: *listenAddr, DevMode: *devMode}, web.APIV1Deps{Status: store, Controls: queue}, logger)
	server.StaticDir = *staticDir
	server.Routes = func(mux *http.ServeMux) { registerSimEndpoints(mux, control) }

	a := app.New(cfg, store, renderer, server, queue)
	a.Logger = logger
	a.Network = control
	a.Charger = control
	a.KeepActive = control

	fmt.Println("Photoframe simulator listening on", server.Addr)
	fmt.Println("Scenario:", startupScenario)
	fmt.Println("Root:", root)
	fmt.Println("API: http://" + trimLeadingColon(server.Addr) + "/api/v1/")
	fmt.Println("Frame: http://" + trimLeadingColon(server.Addr) + "/sim/frame.png")

	if err := a.Run(processCtx); err != nil {
		fmt.Println("simulator error:", err)
		os.Exit(1)
	}
}

func trimLeadingColon(addr string) string {
	// Best-effort for display; don't attempt full URL parsing here.
	if len(addr) > 0 && addr[0] == ':' {
		return "127.0.0.1" + addr
	}
	if addr == "" {
		return "127.0.0.1:8080"
	}
	// If it's already a host:port, keep it.
	return addr
}
