//go:build !linux

package system

import "context"

const DefaultEvdevGlob = ""

// WatchKeys is a no-op outside Linux.
func WatchKeys(ctx context.Context, l logger, pattern string, onKey func(code uint16)) (wait func()) {
	if l != nil {
		l.Infof("input", "evdev input not supported on this platform")
	}
	return func() {}
}
