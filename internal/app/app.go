package app

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/rook-computer/photoframe/internal/acquire"
	"github.com/rook-computer/photoframe/internal/buttons"
	"github.com/rook-computer/photoframe/internal/category"
	"github.com/rook-computer/photoframe/internal/config"
	"github.com/rook-computer/photoframe/internal/connectivity"
	"github.com/rook-computer/photoframe/internal/frame"
	"github.com/rook-computer/photoframe/internal/render"
	"github.com/rook-computer/photoframe/internal/session"
	"github.com/rook-computer/photoframe/internal/state"
	"github.com/rook-computer/photoframe/internal/system"
	"github.com/rook-computer/photoframe/internal/web"
)

// App wires the frame loop to its devices and supervises it together with
// the optional web server.
type App struct {
	Config  *config.Config
	Store   *state.Store
	Render  render.Renderer
	Web     web.Server
	Buttons buttons.Buttons
	Logger  Logger

	// Optional overrides; defaults are built from Config.
	Acquirer   frame.Acquirer
	Network    frame.Network
	Charger    connectivity.ChargerSource
	KeepActive connectivity.KeepActive

	// Console switches the VT to graphics mode while running.
	Console bool
}

func New(cfg *config.Config, store *state.Store, renderer render.Renderer, webServer web.Server, buttonDriver buttons.Buttons) *App {
	if cfg == nil {
		cfg = config.Default()
	}
	return &App{Config: cfg, Store: store, Render: renderer, Web: webServer, Buttons: buttonDriver, Logger: NoopLogger{}}
}

// Run blocks until ctx is done or the user exits. Only an empty category
// list and a renderer that fails to start are fatal.
func (app *App) Run(ctx context.Context) error {
	cfg := app.Config
	if app.Logger == nil {
		app.Logger = NoopLogger{}
	}
	if app.Store == nil {
		app.Store = state.NewStore()
	}
	if app.Render == nil {
		app.Render = render.NoopRenderer{}
	}

	cats, err := cfg.CategoryList()
	if errors.Is(err, config.ErrConfigurationMissing) {
		app.Logger.Errorf("app", "%v, using %d built-in categories", err, len(cats))
	}
	if len(cats) > category.MaxCategories {
		app.Logger.Errorf("app", "%d categories configured, ignoring all after %d", len(cats), category.MaxCategories)
	}
	catStore, err := category.New(cats)
	if err != nil {
		return err
	}

	if err := app.Render.Start(ctx); err != nil {
		app.Logger.Errorf("app", "renderer start error: %v", err)
		return err
	}
	defer app.Render.Stop()

	if app.Console {
		// Switch console to KD_GRAPHICS to suppress hardware cursor
		if err := system.SetGraphicsModeWithLog(app.Logger); err != nil {
			app.Logger.Errorf("tty", "set graphics mode failed: %v", err)
		}
		_ = system.HideCursorWithLog(app.Logger)
		defer func() { _ = system.ShowCursorWithLog(app.Logger); _ = system.RestoreTextModeWithLog(app.Logger) }()
	}

	var events <-chan buttons.Event
	if app.Buttons != nil {
		if err := app.Buttons.Start(ctx); err != nil {
			app.Logger.Errorf("input", "buttons start error: %v", err)
		} else {
			defer app.Buttons.Stop()
			events = app.Buttons.Events()
		}
	}

	runner := system.ShellRunner{Logger: app.Logger}
	acq := app.Acquirer
	if acq == nil {
		acq = acquire.New(app.Render, cfg.Slideshow.FetchTimeout, cfg.Slideshow.UserAgent, app.Logger)
	}
	var monitor *connectivity.Monitor
	if app.Network == nil || app.Charger == nil {
		monitor = connectivity.NewMonitor(cfg.Connectivity.Mode, cfg.Connectivity.ChargerMode, cfg.Connectivity.PowerSupplyDir, runner, app.Logger)
	}
	network := app.Network
	if network == nil {
		network = monitor
	}
	chargerSource := app.Charger
	if chargerSource == nil {
		chargerSource = monitor
	}
	keepActive := app.KeepActive
	if keepActive == nil {
		keepActive = &system.ConsoleKeepAlive{
			BlankMinutes: cfg.KeepActive.BlankMinutes,
			Hook:         cfg.KeepActive.Hook,
			Runner:       runner,
			Logger:       app.Logger,
		}
	}
	watcher := connectivity.NewWatcher(chargerSource, keepActive, cfg.Slideshow.ChargerPollInterval, app.Logger)

	deps := frame.Deps{
		Categories: catStore,
		Presenter:  app.Render,
		Acquirer:   acq,
		Network:    network,
		Charger:    watcher,
		Events:     events,
		State:      app.Store,
		Logger:     app.Logger,
	}
	sessions := app.openSession()
	if sessions != nil {
		defer sessions.Close()
		deps.Session = sessions
	}

	ctrl, err := frame.New(deps, frame.Options{
		IntervalMinutes:    cfg.Slideshow.IntervalMinutes,
		MinIntervalMinutes: cfg.Slideshow.MinIntervalMinutes,
		MaxIntervalMinutes: cfg.Slideshow.MaxIntervalMinutes,
		IntervalStep:       cfg.Slideshow.IntervalStep,
		UIHideDelay:        cfg.Slideshow.UIHideDelay,
		Tick:               cfg.Slideshow.Tick,
		ShowQR:             cfg.Display.ShowQR,
	})
	if err != nil {
		return err
	}
	if sessions != nil {
		if sel, ok, err := sessions.Load(); err != nil {
			app.Logger.Errorf("session", "%v", err)
		} else if ok {
			ctrl.Restore(sel)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	if app.Web != nil {
		g.Go(func() error {
			if err := app.Web.Start(gctx); err != nil {
				app.Logger.Errorf("web", "start error: %v", err)
				return nil
			}
			<-gctx.Done()
			return app.Web.Stop()
		})
	}
	g.Go(func() error {
		defer ctrl.Close(context.WithoutCancel(gctx))
		ctrl.Start(gctx)
		return ctrl.Run(gctx)
	})

	err = g.Wait()
	if errors.Is(err, frame.ErrExit) {
		app.Logger.Infof("app", "exit requested")
		return nil
	}
	return err
}

func (app *App) openSession() *session.Store {
	path := app.Config.Session.Path
	if path == "" {
		return nil
	}
	s, err := session.Open(path)
	if err != nil {
		app.Logger.Errorf("session", "%v, selection will not be remembered", err)
		return nil
	}
	return s
}
