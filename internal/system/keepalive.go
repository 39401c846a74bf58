package system

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

func KeepAliveOn(ctx context.Context, r Runner, hook string) error {
	return keepAlive(ctx, r, hook, "on")
}

func KeepAliveOff(ctx context.Context, r Runner, hook string) error {
	return keepAlive(ctx, r, hook, "off")
}

func keepAlive(ctx context.Context, r Runner, hook, mode string) error {
	_, stderr, err := r.Run(ctx, hook, mode)
	if err != nil {
		return fmt.Errorf("keepalive %s failed: %v: %s", mode, err, stderr)
	}
	return nil
}

// ConsoleKeepAlive keeps the console from blanking while active.
// Inactive restores a blanking timeout of BlankMinutes. When Hook is set the
// script is additionally run with "on"/"off" for platform-specific handling
// such as backlight or DPMS control.
type ConsoleKeepAlive struct {
	BlankMinutes int
	Hook         string
	Runner       Runner
	Logger       logger

	// Blank replaces SetBlanking when set.
	Blank func(minutes int) error

	mu     sync.Mutex
	active bool
}

func (k *ConsoleKeepAlive) SetKeepDisplayActive(ctx context.Context, active bool) error {
	k.mu.Lock()
	k.active = active
	k.mu.Unlock()

	minutes := k.BlankMinutes
	if active {
		minutes = 0
	}
	blank := k.Blank
	if blank == nil {
		blank = SetBlanking
	}
	blankErr := blank(minutes)
	if blankErr != nil {
		blankErr = fmt.Errorf("set blanking %d: %w", minutes, blankErr)
	}

	var hookErr error
	if k.Hook != "" && k.Runner != nil {
		if active {
			hookErr = KeepAliveOn(ctx, k.Runner, k.Hook)
		} else {
			hookErr = KeepAliveOff(ctx, k.Runner, k.Hook)
		}
	}
	if err := errors.Join(blankErr, hookErr); err != nil {
		return err
	}
	if k.Logger != nil {
		k.Logger.Infof("system", "keep display active=%t", active)
	}
	return nil
}

func (k *ConsoleKeepAlive) Active() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.active
}
