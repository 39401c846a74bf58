package connectivity

import (
	"context"
	"time"
)

const DefaultPollInterval = 30 * time.Second

// KeepActive is the platform signal that keeps the display from idling.
type KeepActive interface {
	SetKeepDisplayActive(ctx context.Context, active bool) error
}

// ChargerSource reads the current charger state.
type ChargerSource interface {
	ChargerState(ctx context.Context) ChargerState
}

// Watcher polls a ChargerSource at a fixed cadence and mirrors changes into
// KeepActive. It is driven by the caller's clock and is not safe for
// concurrent use.
type Watcher struct {
	Source     ChargerSource
	KeepActive KeepActive
	Interval   time.Duration
	Logger     logger

	last     ChargerState
	lastPoll time.Time
	polled   bool
}

func NewWatcher(src ChargerSource, ka KeepActive, interval time.Duration, l logger) *Watcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Watcher{Source: src, KeepActive: ka, Interval: interval, Logger: l}
}

// Prime takes the startup reading. A connected charger enables keep-active.
func (w *Watcher) Prime(ctx context.Context, now time.Time) ChargerState {
	w.last = w.Source.ChargerState(ctx)
	w.lastPoll = now
	w.polled = true
	if w.last == Connected {
		w.apply(ctx, true)
	}
	return w.last
}

// Poll reads the charger when Interval has passed since the last reading
// and signals KeepActive only when the state changed. It reports whether a
// change was seen.
func (w *Watcher) Poll(ctx context.Context, now time.Time) bool {
	if w.polled && now.Sub(w.lastPoll) < w.Interval {
		return false
	}
	w.lastPoll = now
	w.polled = true

	state := w.Source.ChargerState(ctx)
	if state == w.last {
		return false
	}
	if w.Logger != nil {
		w.Logger.Infof("connectivity", "charger %s -> %s", w.last, state)
	}
	w.last = state
	w.apply(ctx, state == Connected)
	return true
}

// State returns the last reading.
func (w *Watcher) State() ChargerState { return w.last }

// Release turns keep-active off regardless of the last reading.
func (w *Watcher) Release(ctx context.Context) {
	w.apply(ctx, false)
}

func (w *Watcher) apply(ctx context.Context, active bool) {
	if w.KeepActive == nil {
		return
	}
	if err := w.KeepActive.SetKeepDisplayActive(ctx, active); err != nil && w.Logger != nil {
		w.Logger.Errorf("connectivity", "keep display active=%t: %v", active, err)
	}
}
