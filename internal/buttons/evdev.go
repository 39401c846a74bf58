package buttons

import (
	"context"
	"sync"

	"github.com/rook-computer/photoframe/internal/system"
)

type Logger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

// EvdevButtons feeds key presses from Linux input devices into a Queue.
type EvdevButtons struct {
	*Queue

	Pattern string
	Logger  Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wait   func()
}

func NewEvdevButtons(queue *Queue, logger Logger) *EvdevButtons {
	if queue == nil {
		queue = NewQueue(0)
	}
	return &EvdevButtons{Queue: queue, Pattern: system.DefaultEvdevGlob, Logger: logger}
}

func (b *EvdevButtons) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		return nil
	}
	readCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.wait = system.WatchKeys(readCtx, b.Logger, b.Pattern, func(code uint16) {
		ev := EventForKey(code)
		if !b.Push(ev) && b.Logger != nil {
			b.Logger.Errorf("input", "event queue full, dropped %s", ev)
		}
	})
	return nil
}

func (b *EvdevButtons) Stop() error {
	b.mu.Lock()
	cancel, wait := b.cancel, b.wait
	b.cancel, b.wait = nil, nil
	b.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if wait != nil {
		wait()
	}
	return nil
}
