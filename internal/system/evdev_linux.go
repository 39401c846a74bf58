//go:build linux

package system

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sys/unix"
)

const (
	evKey = 0x01

	keyPressed = 1
)

// DefaultEvdevGlob matches every Linux input event device.
const DefaultEvdevGlob = "/dev/input/event*"

// WatchKeys reads Linux evdev devices matching pattern and invokes onKey for
// every key or button press (auto-repeat and release events are ignored).
// Each device is read on its own goroutine until ctx is done; onKey may be
// called concurrently. The returned function waits for all readers to exit.
//
// It is best-effort: if no input devices are available, it logs and returns.
func WatchKeys(ctx context.Context, l logger, pattern string, onKey func(code uint16)) (wait func()) {
	var wg sync.WaitGroup
	wait = wg.Wait
	if onKey == nil {
		return wait
	}
	if pattern == "" {
		pattern = DefaultEvdevGlob
	}

	// input_event = timeval + u16 type + u16 code + s32 value.
	tvSize := int(binary.Size(unix.Timeval{}))
	eventSize := tvSize + 2 + 2 + 4
	if eventSize <= 0 {
		eventSize = 24
	}

	paths, err := filepath.Glob(pattern)
	if err != nil || len(paths) == 0 {
		if l != nil {
			l.Infof("input", "no evdev devices match %s", pattern)
		}
		return wait
	}

	for _, path := range paths {
		p := path
		wg.Add(1)
		go func() {
			defer wg.Done()
			fd, err := unix.Open(p, unix.O_RDONLY|unix.O_NONBLOCK, 0)
			if err != nil {
				if l != nil {
					l.Errorf("input", "open %s: %v", p, err)
				}
				return
			}
			f := os.NewFile(uintptr(fd), p)
			defer func() {
				_ = f.Close()
			}()
			if l != nil {
				l.Infof("input", "watching %s", p)
			}

			buf := make([]byte, 4096)

			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				pollFds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
				_, pollErr := unix.Poll(pollFds, 250)
				if pollErr != nil {
					if pollErr == unix.EINTR {
						continue
					}
					// Device might have gone away.
					return
				}
				revents := pollFds[0].Revents
				if revents&unix.POLLIN == 0 {
					if revents&(unix.POLLHUP|unix.POLLERR|unix.POLLNVAL) != 0 {
						if l != nil {
							l.Infof("input", "device gone: %s", p)
						}
						return
					}
					continue
				}

				n, readErr := unix.Read(fd, buf)
				if readErr != nil {
					if readErr == unix.EAGAIN || readErr == unix.EINTR {
						continue
					}
					return
				}
				if n == 0 {
					// EOF: the device was unplugged.
					if l != nil {
						l.Infof("input", "device gone: %s", p)
					}
					return
				}

				for off := 0; off+eventSize <= n; off += eventSize {
					code, ok := parseKeyPress(buf[off:off+eventSize], tvSize)
					if ok {
						onKey(code)
					}
				}
			}
		}()
	}
	return wait
}

// parseKeyPress decodes one input_event record and reports key-down events.
func parseKeyPress(rec []byte, tvSize int) (uint16, bool) {
	if len(rec) < tvSize+8 {
		return 0, false
	}
	typ := binary.LittleEndian.Uint16(rec[tvSize : tvSize+2])
	code := binary.LittleEndian.Uint16(rec[tvSize+2 : tvSize+4])
	value := int32(binary.LittleEndian.Uint32(rec[tvSize+4 : tvSize+8]))
	return code, typ == evKey && value == keyPressed
}
