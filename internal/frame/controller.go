// Package frame runs the slideshow state machine: one tick polls the refresh
// timer, acquires an image when due, polls the charger, renders, hides idle
// controls and drains input.
package frame

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rook-computer/photoframe/internal/acquire"
	"github.com/rook-computer/photoframe/internal/buttons"
	"github.com/rook-computer/photoframe/internal/category"
	"github.com/rook-computer/photoframe/internal/connectivity"
	"github.com/rook-computer/photoframe/internal/render"
	"github.com/rook-computer/photoframe/internal/session"
	"github.com/rook-computer/photoframe/internal/state"
)

// ErrExit is returned by Run when the user asked to quit.
var ErrExit = errors.New("exit requested")

// StatusWaiting is shown until the first acquisition finishes.
const StatusWaiting = "Waiting..."

type Acquirer interface {
	Acquire(ctx context.Context, c category.Category) acquire.Result
}

type Network interface {
	IsInternetReachable(ctx context.Context) bool
}

// Charger mirrors charger edges into the keep-active signal.
type Charger interface {
	Prime(ctx context.Context, now time.Time) connectivity.ChargerState
	Poll(ctx context.Context, now time.Time) bool
	State() connectivity.ChargerState
	Release(ctx context.Context)
}

type SessionRecorder interface {
	Save(sel session.Selection) error
}

type logger interface {
	Infof(component, format string, args ...interface{})
	Errorf(component, format string, args ...interface{})
}

// Deps are the collaborators of a Controller. Categories, Presenter,
// Acquirer and Network are required.
type Deps struct {
	Categories *category.Store
	Presenter  render.Presenter
	Acquirer   Acquirer
	Network    Network
	Charger    Charger
	Events     <-chan buttons.Event
	Session    SessionRecorder
	State      *state.Store
	Logger     logger
	// Clock defaults to time.Now.
	Clock func() time.Time
}

type Options struct {
	IntervalMinutes    int
	MinIntervalMinutes int
	MaxIntervalMinutes int
	IntervalStep       int
	UIHideDelay        time.Duration
	Tick               time.Duration
	// ShowQR adds the remote source URL as a QR code to the overlay.
	ShowQR bool
}

func DefaultOptions() Options {
	return Options{
		IntervalMinutes:    5,
		MinIntervalMinutes: 5,
		MaxIntervalMinutes: 1440,
		IntervalStep:       1,
		UIHideDelay:        4 * time.Second,
		Tick:               16 * time.Millisecond,
	}
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.MinIntervalMinutes <= 0 {
		o.MinIntervalMinutes = d.MinIntervalMinutes
	}
	if o.MaxIntervalMinutes < o.MinIntervalMinutes {
		o.MaxIntervalMinutes = max(d.MaxIntervalMinutes, o.MinIntervalMinutes)
	}
	if o.IntervalStep <= 0 {
		o.IntervalStep = d.IntervalStep
	}
	if o.UIHideDelay <= 0 {
		o.UIHideDelay = d.UIHideDelay
	}
	if o.Tick <= 0 {
		o.Tick = d.Tick
	}
	o.IntervalMinutes = clampMinutes(o.IntervalMinutes, o.MinIntervalMinutes, o.MaxIntervalMinutes)
	return o
}

func clampMinutes(m, lo, hi int) int {
	return min(max(m, lo), hi)
}

// Controller owns the frame state. All methods must be called from the
// goroutine running the loop.
type Controller struct {
	deps Deps
	opts Options

	intervalMinutes int
	lastFetch       time.Time
	uiVisible       bool
	uiShownAt       time.Time
	pendingFetch    bool
	current         *render.Texture
	status          string

	phase  state.Phase
	closed bool
}

func New(deps Deps, opts Options) (*Controller, error) {
	if deps.Categories == nil || deps.Categories.Count() == 0 {
		return nil, category.ErrEmptyStore
	}
	if deps.Presenter == nil || deps.Acquirer == nil || deps.Network == nil {
		return nil, errors.New("frame controller needs a presenter, an acquirer and a network monitor")
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	opts = opts.normalized()
	return &Controller{
		deps:            deps,
		opts:            opts,
		intervalMinutes: opts.IntervalMinutes,
		status:          StatusWaiting,
		phase:           state.BOOTING,
	}, nil
}

// Restore applies a remembered selection. The category is looked up by name
// first and by index second.
func (c *Controller) Restore(sel session.Selection) {
	store := c.deps.Categories
	if i, ok := store.Find(sel.CategoryName); ok {
		store.SetIndex(i)
	} else if sel.CategoryIndex >= 0 && sel.CategoryIndex < store.Count() {
		store.SetIndex(sel.CategoryIndex)
	}
	if sel.IntervalMinutes > 0 {
		c.intervalMinutes = clampMinutes(sel.IntervalMinutes, c.opts.MinIntervalMinutes, c.opts.MaxIntervalMinutes)
	}
	c.infof("restored category %q, interval %d min", store.Current().Name, c.intervalMinutes)
}

// Start takes the initial readings and arms an immediate first fetch.
func (c *Controller) Start(ctx context.Context) {
	now := c.deps.Clock()
	if !c.deps.Network.IsInternetReachable(ctx) {
		c.status = acquire.StatusNoInternet
	}
	if c.deps.Charger != nil {
		c.deps.Charger.Prime(ctx, now)
	}
	c.lastFetch = now.Add(-c.interval())
	c.showUI(now)
	c.phase = state.RUNNING
	c.publish()
	c.infof("started with %d categories, interval %d min", c.deps.Categories.Count(), c.intervalMinutes)
}

// Run ticks until ctx is done or exit is requested, which returns ErrExit.
func (c *Controller) Run(ctx context.Context) error {
	if c.phase == state.BOOTING {
		c.Start(ctx)
	}
	ticker := time.NewTicker(c.opts.Tick)
	defer ticker.Stop()
	for {
		if !c.Tick(ctx) {
			return ErrExit
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Tick runs one iteration of the loop. It returns false once exit was requested.
func (c *Controller) Tick(ctx context.Context) bool {
	now := c.deps.Clock()

	if now.Sub(c.lastFetch) >= c.interval() {
		c.fetch(ctx)
	}

	if c.deps.Charger != nil {
		c.deps.Charger.Poll(ctx, now)
	}

	c.render()

	if c.uiVisible && now.Sub(c.uiShownAt) > c.opts.UIHideDelay {
		c.uiVisible = false
		if c.pendingFetch {
			c.pendingFetch = false
			c.lastFetch = now.Add(-c.interval())
		}
	}

	running := c.drainInput()
	c.publish()
	return running
}

// Close releases the current image and turns keep-active off.
func (c *Controller) Close(ctx context.Context) {
	if c.closed {
		return
	}
	c.closed = true
	if c.current != nil {
		c.deps.Presenter.Release(c.current)
		c.current = nil
	}
	if c.deps.Charger != nil {
		c.deps.Charger.Release(ctx)
	}
	c.phase = state.STOPPED
	c.publish()
	c.infof("stopped")
}

func (c *Controller) fetch(ctx context.Context) {
	cat := c.deps.Categories.Current()
	// An in-flight fetch runs to completion or timeout.
	fetchCtx := context.WithoutCancel(ctx)

	var res acquire.Result
	switch cat.Kind {
	case category.Remote:
		if !c.deps.Network.IsInternetReachable(ctx) {
			res = acquire.Result{
				Status: acquire.StatusNoInternet,
				Err:    fmt.Errorf("%w: skipping %s", acquire.ErrNetworkUnreachable, cat.Name),
			}
			c.errorf("%v", res.Err)
			break
		}
		// Keep the previous image on screen while loading.
		c.deps.Presenter.DrawFullscreen(c.current)
		c.deps.Presenter.DrawCenteredText(render.LoadingText)
		if err := c.deps.Presenter.Present(); err != nil {
			c.errorf("present loading frame: %v", err)
		}
		res = c.deps.Acquirer.Acquire(fetchCtx, cat)
	default:
		res = c.deps.Acquirer.Acquire(fetchCtx, cat)
	}

	c.status = res.Status
	if res.Image.Valid() {
		old := c.current
		c.current = res.Image
		if old != nil {
			c.deps.Presenter.Release(old)
		}
	}
	c.lastFetch = c.deps.Clock()
	c.showUI(c.deps.Clock())
}

func (c *Controller) render() {
	p := c.deps.Presenter
	p.DrawFullscreen(c.current)
	if c.current == nil {
		p.DrawCenteredText(c.status)
	}
	if c.uiVisible {
		p.DrawOverlayBar(c.overlay())
	}
	if err := p.Present(); err != nil {
		c.errorf("present: %v", err)
	}
}

func (c *Controller) overlay() render.Overlay {
	store := c.deps.Categories
	cat := store.Current()
	o := render.Overlay{
		CategoryLabel:   cat.Name,
		Index:           store.Index(),
		Count:           store.Count(),
		IntervalMinutes: c.intervalMinutes,
		Status:          c.status,
	}
	if c.opts.ShowQR && cat.Kind == category.Remote {
		o.QRPayload = cat.Location
	}
	return o
}

func (c *Controller) drainInput() bool {
	for {
		select {
		case ev, ok := <-c.deps.Events:
			if !ok {
				c.deps.Events = nil
				return true
			}
			if !c.handle(ev) {
				return false
			}
		default:
			return true
		}
	}
}

func (c *Controller) handle(ev buttons.Event) bool {
	store := c.deps.Categories
	switch ev {
	case buttons.Exit:
		c.infof("exit requested")
		return false
	case buttons.PrevCategory:
		store.Previous()
		c.pendingFetch = true
		c.record()
	case buttons.NextCategory:
		store.Next()
		c.pendingFetch = true
		c.record()
	case buttons.IncreaseInterval:
		c.setInterval(c.intervalMinutes + c.opts.IntervalStep)
	case buttons.DecreaseInterval:
		c.setInterval(c.intervalMinutes - c.opts.IntervalStep)
	}
	c.showUI(c.deps.Clock())
	return true
}

func (c *Controller) setInterval(minutes int) {
	minutes = clampMinutes(minutes, c.opts.MinIntervalMinutes, c.opts.MaxIntervalMinutes)
	if minutes == c.intervalMinutes {
		return
	}
	c.intervalMinutes = minutes
	c.record()
}

// showUI makes the overlay visible and restarts its hide timer.
func (c *Controller) showUI(at time.Time) {
	c.uiVisible = true
	c.uiShownAt = at
}

func (c *Controller) interval() time.Duration {
	return time.Duration(c.intervalMinutes) * time.Minute
}

func (c *Controller) record() {
	if c.deps.Session == nil {
		return
	}
	cat := c.deps.Categories.Current()
	sel := session.Selection{
		CategoryName:    cat.Name,
		CategoryIndex:   c.deps.Categories.Index(),
		IntervalMinutes: c.intervalMinutes,
		UpdatedAt:       c.deps.Clock(),
	}
	if err := c.deps.Session.Save(sel); err != nil {
		c.errorf("save session: %v", err)
	}
}

func (c *Controller) publish() {
	if c.deps.State == nil {
		return
	}
	store := c.deps.Categories
	cat := store.Current()
	charger := false
	if c.deps.Charger != nil {
		charger = c.deps.Charger.State() == connectivity.Connected
	}
	c.deps.State.Publish(state.State{
		Phase:            c.phase,
		Category:         cat.Name,
		Kind:             cat.Kind.String(),
		Source:           cat.Source(),
		Index:            store.Index(),
		Count:            store.Count(),
		IntervalMinutes:  c.intervalMinutes,
		Status:           c.status,
		UIVisible:        c.uiVisible,
		PendingFetch:     c.pendingFetch,
		HasImage:         c.current != nil,
		ChargerConnected: charger,
		LastFetch:        c.lastFetch,
		NextFetch:        c.lastFetch.Add(c.interval()),
	})
}

func (c *Controller) infof(format string, args ...interface{}) {
	if c.deps.Logger != nil {
		c.deps.Logger.Infof("frame", format, args...)
	}
}

func (c *Controller) errorf(format string, args ...interface{}) {
	if c.deps.Logger != nil {
		c.deps.Logger.Errorf("frame", format, args...)
	}
}

// Status returns the current status text.
func (c *Controller) Status() string { return c.status }

// UIVisible reports whether the overlay bar is shown.
func (c *Controller) UIVisible() bool { return c.uiVisible }

// PendingFetch reports whether a category change awaits the overlay hiding.
func (c *Controller) PendingFetch() bool { return c.pendingFetch }

func (c *Controller) IntervalMinutes() int { return c.intervalMinutes }

// Current returns the displayed texture, or nil.
func (c *Controller) Current() *render.Texture { return c.current }

func (c *Controller) LastFetch() time.Time { return c.lastFetch }
