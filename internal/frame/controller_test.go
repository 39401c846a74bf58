package frame

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rook-computer/photoframe/internal/acquire"
	"github.com/rook-computer/photoframe/internal/buttons"
	"github.com/rook-computer/photoframe/internal/category"
	"github.com/rook-computer/photoframe/internal/connectivity"
	"github.com/rook-computer/photoframe/internal/render"
	"github.com/rook-computer/photoframe/internal/session"
	"github.com/rook-computer/photoframe/internal/state"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type call struct {
	kind    string
	tex     *render.Texture
	text    string
	overlay render.Overlay
}

type recordingPresenter struct {
	calls    []call
	released []*render.Texture
}

func (p *recordingPresenter) Prepare(img image.Image) *render.Texture { return render.NewTexture(img) }
func (p *recordingPresenter) Release(tex *render.Texture) {
	p.released = append(p.released, tex)
}
func (p *recordingPresenter) DrawFullscreen(tex *render.Texture) {
	p.calls = append(p.calls, call{kind: "fullscreen", tex: tex})
}
func (p *recordingPresenter) DrawCenteredText(text string) {
	p.calls = append(p.calls, call{kind: "text", text: text})
}
func (p *recordingPresenter) DrawOverlayBar(o render.Overlay) {
	p.calls = append(p.calls, call{kind: "overlay", overlay: o})
}
func (p *recordingPresenter) Present() error {
	p.calls = append(p.calls, call{kind: "present"})
	return nil
}

func (p *recordingPresenter) reset() { p.calls = nil }

func (p *recordingPresenter) texts() []string {
	var out []string
	for _, c := range p.calls {
		if c.kind == "text" {
			out = append(out, c.text)
		}
	}
	return out
}

func (p *recordingPresenter) kinds() []string {
	out := make([]string, 0, len(p.calls))
	for _, c := range p.calls {
		out = append(out, c.kind)
	}
	return out
}

type fakeAcquirer struct {
	clock    *fakeClock
	duration time.Duration
	results  []acquire.Result
	calls    []category.Category
}

func (a *fakeAcquirer) Acquire(ctx context.Context, c category.Category) acquire.Result {
	a.calls = append(a.calls, c)
	if a.clock != nil {
		a.clock.Advance(a.duration)
	}
	if len(a.results) == 0 {
		return acquire.Result{Status: "Fetch error: no result scripted", Err: acquire.ErrTransport}
	}
	res := a.results[0]
	a.results = a.results[1:]
	return res
}

type fakeNetwork struct {
	reachable bool
	checks    int
}

func (n *fakeNetwork) IsInternetReachable(context.Context) bool {
	n.checks++
	return n.reachable
}

type scriptedCharger struct{ states []connectivity.ChargerState }

func (s *scriptedCharger) ChargerState(context.Context) connectivity.ChargerState {
	st := s.states[0]
	if len(s.states) > 1 {
		s.states = s.states[1:]
	}
	return st
}

type recordingKeepActive struct{ calls []bool }

func (r *recordingKeepActive) SetKeepDisplayActive(ctx context.Context, active bool) error {
	r.calls = append(r.calls, active)
	return nil
}

type recordingSession struct{ saved []session.Selection }

func (r *recordingSession) Save(sel session.Selection) error {
	r.saved = append(r.saved, sel)
	return nil
}

func texture() *render.Texture {
	return render.NewTexture(image.NewRGBA(image.Rect(0, 0, 2, 2)))
}

func ok(tex *render.Texture, status string) acquire.Result {
	return acquire.Result{Image: tex, Status: status}
}

type harness struct {
	ctrl      *Controller
	clock     *fakeClock
	presenter *recordingPresenter
	acquirer  *fakeAcquirer
	network   *fakeNetwork
	charger   *scriptedCharger
	keep      *recordingKeepActive
	session   *recordingSession
	state     *state.Store
	events    *buttons.Queue
	store     *category.Store
}

func newHarness(t *testing.T, cats ...category.Category) *harness {
	t.Helper()
	if len(cats) == 0 {
		cats = []category.Category{
			category.Parse("Landscapes", "https://example.com/lt.jpg"),
			category.Parse("Artworks", "https://example.com/hw.jpg"),
			category.Parse("Album", "local:///srv/album"),
		}
	}
	store, err := category.New(cats)
	require.NoError(t, err)

	h := &harness{
		clock:     &fakeClock{t: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)},
		presenter: &recordingPresenter{},
		network:   &fakeNetwork{reachable: true},
		charger:   &scriptedCharger{states: []connectivity.ChargerState{connectivity.Unconnected}},
		keep:      &recordingKeepActive{},
		session:   &recordingSession{},
		state:     state.NewStore(),
		events:    buttons.NewQueue(16),
		store:     store,
	}
	h.acquirer = &fakeAcquirer{clock: h.clock}
	watcher := connectivity.NewWatcher(h.charger, h.keep, 30*time.Second, nil)

	h.ctrl, err = New(Deps{
		Categories: store,
		Presenter:  h.presenter,
		Acquirer:   h.acquirer,
		Network:    h.network,
		Charger:    watcher,
		Events:     h.events.Events(),
		Session:    h.session,
		State:      h.state,
		Clock:      h.clock.Now,
	}, DefaultOptions())
	require.NoError(t, err)
	return h
}

func (h *harness) tick(t *testing.T) {
	t.Helper()
	require.True(t, h.ctrl.Tick(context.Background()))
}

func TestNew_RequiresCategories(t *testing.T) {
	_, err := New(Deps{Presenter: &recordingPresenter{}, Acquirer: &fakeAcquirer{}, Network: &fakeNetwork{}}, DefaultOptions())
	assert.ErrorIs(t, err, category.ErrEmptyStore)

	store, err := category.New(category.Defaults())
	require.NoError(t, err)
	_, err = New(Deps{Categories: store}, DefaultOptions())
	assert.Error(t, err)
}

func TestStart_StatusAndImmediateFetch(t *testing.T) {
	h := newHarness(t)
	h.network.reachable = false
	h.ctrl.Start(context.Background())
	assert.Equal(t, acquire.StatusNoInternet, h.ctrl.Status())
	assert.True(t, h.ctrl.UIVisible())

	h = newHarness(t)
	h.ctrl.Start(context.Background())
	assert.Equal(t, StatusWaiting, h.ctrl.Status())

	tex := texture()
	h.acquirer.results = []acquire.Result{ok(tex, "OK (10 bytes, HTTP 200)")}
	h.tick(t)
	require.Len(t, h.acquirer.calls, 1, "first tick fetches immediately")
	assert.Same(t, tex, h.ctrl.Current())
	assert.Equal(t, "OK (10 bytes, HTTP 200)", h.ctrl.Status())
}

func TestRemoteFetch_LoadingOverlayBeforeAcquire(t *testing.T) {
	h := newHarness(t)
	h.ctrl.Start(context.Background())
	first, second := texture(), texture()
	h.acquirer.results = []acquire.Result{ok(first, "OK (1 bytes, HTTP 200)"), ok(second, "OK (2 bytes, HTTP 200)")}

	h.tick(t)
	// Nothing on screen yet: the loading frame is drawn over black.
	assert.Equal(t, []string{"fullscreen", "text", "present", "fullscreen", "overlay", "present"}, h.presenter.kinds())
	assert.Nil(t, h.presenter.calls[0].tex)
	assert.Equal(t, render.LoadingText, h.presenter.calls[1].text)
	assert.Same(t, first, h.presenter.calls[3].tex)

	h.presenter.reset()
	h.clock.Advance(5 * time.Minute)
	h.tick(t)
	// The previous image stays under the loading text, never a blank frame.
	require.GreaterOrEqual(t, len(h.presenter.calls), 3)
	assert.Same(t, first, h.presenter.calls[0].tex)
	assert.Equal(t, render.LoadingText, h.presenter.calls[1].text)
	assert.Equal(t, "present", h.presenter.calls[2].kind)
	assert.Same(t, second, h.ctrl.Current())
	assert.Equal(t, []*render.Texture{first}, h.presenter.released, "old image released after swap")
}

func TestRemoteFetch_UnreachableSkipsAndResetsTimer(t *testing.T) {
	h := newHarness(t)
	h.ctrl.Start(context.Background())
	h.network.reachable = false
	start := h.clock.Now()

	h.tick(t)
	assert.Empty(t, h.acquirer.calls)
	assert.Equal(t, acquire.StatusNoInternet, h.ctrl.Status())
	assert.Equal(t, start, h.ctrl.LastFetch())
	assert.NotContains(t, h.presenter.texts(), render.LoadingText)

	// No tight retry loop: nothing happens until the next interval.
	checks := h.network.checks
	h.clock.Advance(time.Minute)
	h.tick(t)
	assert.Equal(t, checks, h.network.checks)

	h.network.reachable = true
	h.acquirer.results = []acquire.Result{ok(texture(), "OK (1 bytes, HTTP 200)")}
	h.clock.Advance(4 * time.Minute)
	h.tick(t)
	assert.Len(t, h.acquirer.calls, 1)
	assert.Equal(t, "OK (1 bytes, HTTP 200)", h.ctrl.Status())
}

func TestStatusShownWhenNoImage(t *testing.T) {
	h := newHarness(t)
	h.ctrl.Start(context.Background())
	h.network.reachable = false

	h.tick(t)
	assert.Equal(t, []string{acquire.StatusNoInternet}, h.presenter.texts())
}

func TestLocalFetch_NoGateNoLoading(t *testing.T) {
	h := newHarness(t, category.Parse("Album", "local:///srv/album"))
	h.ctrl.Start(context.Background())
	checks := h.network.checks
	h.network.reachable = false

	tex := texture()
	h.acquirer.results = []acquire.Result{ok(tex, "Local: beach.jpg")}
	h.tick(t)

	assert.Equal(t, checks, h.network.checks, "local sources skip the reachability check")
	assert.Equal(t, []string{"fullscreen", "overlay", "present"}, h.presenter.kinds())
	assert.Equal(t, "Local: beach.jpg", h.ctrl.Status())
	assert.Same(t, tex, h.ctrl.Current())
}

func TestFailedFetchKeepsPreviousImage(t *testing.T) {
	h := newHarness(t)
	h.ctrl.Start(context.Background())
	tex := texture()
	h.acquirer.results = []acquire.Result{
		ok(tex, "OK (1 bytes, HTTP 200)"),
		{Status: "Decode error (HTTP 404): image: unknown format", Err: acquire.ErrDecode},
	}

	h.tick(t)
	h.clock.Advance(5 * time.Minute)
	h.tick(t)

	assert.Same(t, tex, h.ctrl.Current())
	assert.Equal(t, "Decode error (HTTP 404): image: unknown format", h.ctrl.Status())
	assert.Empty(t, h.presenter.released)
}

func TestFetchResetsTimerAfterCompletion(t *testing.T) {
	h := newHarness(t)
	h.ctrl.Start(context.Background())
	h.acquirer.duration = 3 * time.Second
	h.acquirer.results = []acquire.Result{ok(texture(), "OK")}

	h.tick(t)
	assert.Equal(t, h.clock.Now(), h.ctrl.LastFetch(), "timer starts after the blocking fetch")
	assert.True(t, h.ctrl.UIVisible())
}

func TestIntervalBoundary(t *testing.T) {
	h := newHarness(t)
	h.ctrl.Start(context.Background())
	h.acquirer.results = []acquire.Result{ok(texture(), "OK"), ok(texture(), "OK")}

	h.tick(t)
	start := h.clock.Now()
	require.Len(t, h.acquirer.calls, 1)
	require.Equal(t, 5, h.ctrl.IntervalMinutes())

	h.clock.Advance(4*time.Minute + 59*time.Second)
	h.tick(t)
	assert.Len(t, h.acquirer.calls, 1, "no fetch at 4:59")

	h.clock.Advance(time.Second)
	h.tick(t)
	h.tick(t)
	assert.Len(t, h.acquirer.calls, 2, "exactly one fetch at 5:00")
	assert.Equal(t, start.Add(5*time.Minute), h.ctrl.LastFetch())
}

func TestAutoHideAfterDelay(t *testing.T) {
	h := newHarness(t)
	h.ctrl.Start(context.Background())
	h.acquirer.results = []acquire.Result{ok(texture(), "OK")}
	h.tick(t)

	h.clock.Advance(4 * time.Second)
	h.tick(t)
	assert.True(t, h.ctrl.UIVisible(), "exactly the delay is still visible")

	h.clock.Advance(time.Millisecond)
	h.tick(t)
	assert.False(t, h.ctrl.UIVisible())

	h.presenter.reset()
	h.clock.Advance(16 * time.Millisecond)
	h.tick(t)
	assert.NotContains(t, h.presenter.kinds(), "overlay")
}

func TestCategoryChangeDefersFetchUntilHidden(t *testing.T) {
	h := newHarness(t)
	h.ctrl.Start(context.Background())
	h.acquirer.results = []acquire.Result{ok(texture(), "OK"), ok(texture(), "OK")}
	h.tick(t)
	require.Len(t, h.acquirer.calls, 1)

	h.clock.Advance(time.Second)
	h.events.Push(buttons.NextCategory)
	h.tick(t)
	assert.True(t, h.ctrl.PendingFetch())
	assert.Equal(t, 1, h.store.Index())

	// Still visible: no fetch.
	h.clock.Advance(4 * time.Second)
	h.tick(t)
	assert.Len(t, h.acquirer.calls, 1)
	assert.True(t, h.ctrl.UIVisible())

	// Hiding clears the pending flag and makes the fetch due.
	h.clock.Advance(time.Millisecond)
	h.tick(t)
	assert.False(t, h.ctrl.UIVisible())
	assert.False(t, h.ctrl.PendingFetch())
	assert.Len(t, h.acquirer.calls, 1)

	h.clock.Advance(16 * time.Millisecond)
	h.tick(t)
	require.Len(t, h.acquirer.calls, 2)
	assert.Equal(t, "Artworks", h.acquirer.calls[1].Name)
	assert.True(t, h.ctrl.UIVisible(), "a fetch re-shows the controls")
}

func TestRepeatedNavigationExtendsVisibility(t *testing.T) {
	h := newHarness(t)
	h.ctrl.Start(context.Background())
	h.acquirer.results = []acquire.Result{ok(texture(), "OK"), ok(texture(), "OK")}
	h.tick(t)

	for i := 0; i < 3; i++ {
		h.clock.Advance(3 * time.Second)
		h.events.Push(buttons.PrevCategory)
		h.tick(t)
	}
	assert.True(t, h.ctrl.UIVisible())
	assert.Len(t, h.acquirer.calls, 1)
	// Three steps back from 0 in a ring of 3.
	assert.Equal(t, 0, h.store.Index())
}

func TestIntervalClamp(t *testing.T) {
	h := newHarness(t)
	h.ctrl.Start(context.Background())

	h.events.Push(buttons.DecreaseInterval)
	h.tick(t)
	assert.Equal(t, 5, h.ctrl.IntervalMinutes(), "lower bound")
	assert.Empty(t, h.session.saved, "unchanged interval is not recorded")

	h.events.Push(buttons.IncreaseInterval)
	h.events.Push(buttons.IncreaseInterval)
	h.tick(t)
	assert.Equal(t, 7, h.ctrl.IntervalMinutes())
	require.Len(t, h.session.saved, 2)
	assert.Equal(t, 7, h.session.saved[1].IntervalMinutes)

	h.ctrl.Restore(session.Selection{IntervalMinutes: 1440})
	h.events.Push(buttons.IncreaseInterval)
	h.tick(t)
	assert.Equal(t, 1440, h.ctrl.IntervalMinutes(), "upper bound")
}

func TestExitStopsLoop(t *testing.T) {
	h := newHarness(t)
	h.ctrl.Start(context.Background())
	h.events.Push(buttons.Exit)
	assert.False(t, h.ctrl.Tick(context.Background()))
}

func TestWakeReshowsControls(t *testing.T) {
	h := newHarness(t)
	h.ctrl.Start(context.Background())
	h.acquirer.results = []acquire.Result{ok(texture(), "OK")}
	h.tick(t)
	h.clock.Advance(5 * time.Second)
	h.tick(t)
	require.False(t, h.ctrl.UIVisible())

	h.events.Push(buttons.Wake)
	h.tick(t)
	assert.True(t, h.ctrl.UIVisible())
	assert.False(t, h.ctrl.PendingFetch(), "pointer activity does not arm a fetch")
	assert.Len(t, h.acquirer.calls, 1)
}

func TestChargerEdgesDriveKeepActive(t *testing.T) {
	h := newHarness(t)
	h.charger.states = []connectivity.ChargerState{connectivity.Unconnected, connectivity.Connected, connectivity.Connected, connectivity.Unconnected}
	h.ctrl.Start(context.Background())
	h.acquirer.results = []acquire.Result{ok(texture(), "OK")}
	h.tick(t)
	assert.Empty(t, h.keep.calls)

	h.clock.Advance(30 * time.Second)
	h.tick(t)
	h.clock.Advance(30 * time.Second)
	h.tick(t)
	h.clock.Advance(10 * time.Second)
	h.tick(t)
	h.clock.Advance(20 * time.Second)
	h.tick(t)
	assert.Equal(t, []bool{true, false}, h.keep.calls)
}

func TestCloseReleasesAndDisablesKeepActive(t *testing.T) {
	h := newHarness(t)
	h.charger.states = []connectivity.ChargerState{connectivity.Connected}
	h.ctrl.Start(context.Background())
	tex := texture()
	h.acquirer.results = []acquire.Result{ok(tex, "OK")}
	h.tick(t)

	h.ctrl.Close(context.Background())
	h.ctrl.Close(context.Background())
	assert.Equal(t, []*render.Texture{tex}, h.presenter.released)
	assert.Nil(t, h.ctrl.Current())
	assert.Equal(t, []bool{true, false}, h.keep.calls)
	assert.Equal(t, state.STOPPED, h.state.Snapshot().Phase)
}

func TestOverlayContent(t *testing.T) {
	h := newHarness(t)
	h.ctrl.opts.ShowQR = true
	h.ctrl.Start(context.Background())
	h.network.reachable = false
	h.tick(t)

	var o render.Overlay
	for _, c := range h.presenter.calls {
		if c.kind == "overlay" {
			o = c.overlay
		}
	}
	assert.Equal(t, render.Overlay{
		CategoryLabel:   "Landscapes",
		Index:           0,
		Count:           3,
		IntervalMinutes: 5,
		Status:          acquire.StatusNoInternet,
		QRPayload:       "https://example.com/lt.jpg",
	}, o)
}

func TestPublishesSnapshot(t *testing.T) {
	h := newHarness(t)
	h.ctrl.Start(context.Background())
	h.acquirer.results = []acquire.Result{ok(texture(), "OK (1 bytes, HTTP 200)")}
	h.tick(t)

	snap := h.state.Snapshot()
	assert.Equal(t, state.RUNNING, snap.Phase)
	assert.Equal(t, "Landscapes", snap.Category)
	assert.Equal(t, "remote", snap.Kind)
	assert.Equal(t, 3, snap.Count)
	assert.True(t, snap.HasImage)
	assert.True(t, snap.UIVisible)
	assert.Equal(t, h.clock.Now().Add(5*time.Minute), snap.NextFetch)
}

func TestRestoreSelection(t *testing.T) {
	h := newHarness(t)
	h.ctrl.Restore(session.Selection{CategoryName: "Album", CategoryIndex: 1, IntervalMinutes: 2})
	assert.Equal(t, 2, h.store.Index(), "name wins over index")
	assert.Equal(t, 5, h.ctrl.IntervalMinutes(), "clamped")

	h.ctrl.Restore(session.Selection{CategoryName: "Gone", CategoryIndex: 1, IntervalMinutes: 60})
	assert.Equal(t, 1, h.store.Index())
	assert.Equal(t, 60, h.ctrl.IntervalMinutes())

	h.ctrl.Restore(session.Selection{CategoryName: "Gone", CategoryIndex: 9})
	assert.Equal(t, 1, h.store.Index(), "out of range index ignored")
}

func TestRun_ExitAndCancel(t *testing.T) {
	h := newHarness(t)
	h.acquirer.results = []acquire.Result{ok(texture(), "OK")}
	h.events.Push(buttons.Exit)
	err := h.ctrl.Run(context.Background())
	assert.True(t, errors.Is(err, ErrExit))

	h = newHarness(t)
	h.acquirer.results = []acquire.Result{ok(texture(), "OK")}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, h.ctrl.Run(ctx))
	assert.Len(t, h.acquirer.calls, 1)
}
