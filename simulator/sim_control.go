package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rook-computer/photoframe/internal/config"
	"github.com/rook-computer/photoframe/internal/connectivity"
)

// SimFaults are the device conditions the simulator can toggle at runtime.
type SimFaults struct {
	NetworkDown      bool `json:"networkDown"`
	ChargerConnected bool `json:"chargerConnected"`
	// RemoteStatus, when non-zero, makes the image server answer every
	// image request with this HTTP status and no body.
	RemoteStatus int `json:"remoteStatus"`
}

// SimControl stands in for the network, the charger and the display power
// hooks, and serves generated images to the remote categories.
type SimControl struct {
	root            string
	startupScenario string
	currentScenario atomic.Value // string

	faults struct {
		mu sync.RWMutex
		v  SimFaults
	}
	keepActive atomic.Bool
	served     atomic.Int64

	srv *http.Server
	ln  net.Listener
}

func NewSimControl(root, startupScenario string) *SimControl {
	c := &SimControl{root: filepath.Clean(root), startupScenario: strings.TrimSpace(startupScenario)}
	if c.startupScenario == "" {
		c.startupScenario = "online"
	}
	c.currentScenario.Store(c.startupScenario)
	return c
}

func (c *SimControl) AlbumDir() string  { return filepath.Join(c.root, "album") }
func (c *SimControl) EmptyDir() string  { return filepath.Join(c.root, "empty") }
func (c *SimControl) FramePath() string { return filepath.Join(c.root, "frame.png") }

// Seed writes a small nested album and an album without images.
func (c *SimControl) Seed() error {
	album := c.AlbumDir()
	if err := os.MkdirAll(filepath.Join(album, "2024"), 0o755); err != nil {
		return err
	}
	if err := os.MkdirAll(c.EmptyDir(), 0o755); err != nil {
		return err
	}
	files := []struct {
		path string
		w, h int
	}{
		{filepath.Join(album, "beach.png"), 1280, 720},
		{filepath.Join(album, "tower.png"), 480, 900},
		{filepath.Join(album, "2024", "square.png"), 600, 600},
	}
	for _, f := range files {
		if err := writeGradientPNG(f.path, f.w, f.h, seedFor(f.path)); err != nil {
			return err
		}
	}
	return os.WriteFile(filepath.Join(c.EmptyDir(), "README.txt"), []byte("no images here\n"), 0o644)
}

// StartImageServer serves generated images on a loopback port.
func (c *SimControl) StartImageServer() error {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("image server listen: %w", err)
	}
	c.ln = ln
	c.srv = &http.Server{Handler: c.imageHandler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := c.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintln(os.Stderr, "image server error:", err)
		}
	}()
	return nil
}

func (c *SimControl) Close() error {
	if c.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return c.srv.Shutdown(ctx)
}

func (c *SimControl) imageBase() string {
	if c.ln == nil {
		return "http://127.0.0.1:0"
	}
	return "http://" + c.ln.Addr().String()
}

// Categories covers every acquisition path: a nested album, two remote
// images of different aspect, a remote body that is not an image and a
// folder without images.
func (c *SimControl) Categories() []config.CategoryConfig {
	base := c.imageBase()
	return []config.CategoryConfig{
		{Name: "Album", Source: "local://" + c.AlbumDir()},
		{Name: "Landscape", Source: base + "/image/landscape.png"},
		{Name: "Portrait", Source: base + "/image/portrait.png"},
		{Name: "Broken", Source: base + "/broken"},
		{Name: "Empty folder", Source: "local://" + c.EmptyDir()},
	}
}

func (c *SimControl) imageHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/image/", func(w http.ResponseWriter, r *http.Request) {
		if status := c.Faults().RemoteStatus; status != 0 {
			w.WriteHeader(status)
			return
		}
		width, height := 1600, 900
		if strings.Contains(r.URL.Path, "portrait") {
			width, height = 600, 1000
		}
		n := c.served.Add(1)
		w.Header().Set("Content-Type", "image/png")
		_ = png.Encode(w, gradient(width, height, seedFor(r.URL.Path)+uint32(n)*40503))
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("this is not an image\n"))
	})
	return mux
}

func (c *SimControl) ApplyScenario(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		name = c.startupScenario
	}
	var f SimFaults
	switch name {
	case "online":
		f = SimFaults{ChargerConnected: true}
	case "offline":
		f = SimFaults{NetworkDown: true, ChargerConnected: true}
	case "battery":
		f = SimFaults{}
	default:
		return fmt.Errorf("unknown scenario %q", name)
	}
	c.SetFaults(f)
	c.currentScenario.Store(name)
	return nil
}

func (c *SimControl) Reset() error {
	return c.ApplyScenario(c.startupScenario)
}

func (c *SimControl) Faults() SimFaults {
	c.faults.mu.RLock()
	defer c.faults.mu.RUnlock()
	return c.faults.v
}

func (c *SimControl) SetFaults(v SimFaults) {
	c.faults.mu.Lock()
	c.faults.v = v
	c.faults.mu.Unlock()
}

func (c *SimControl) IsInternetReachable(ctx context.Context) bool {
	return !c.Faults().NetworkDown
}

func (c *SimControl) ChargerState(ctx context.Context) connectivity.ChargerState {
	if c.Faults().ChargerConnected {
		return connectivity.Connected
	}
	return connectivity.Unconnected
}

func (c *SimControl) SetKeepDisplayActive(ctx context.Context, active bool) error {
	c.keepActive.Store(active)
	return nil
}

func (c *SimControl) KeepActive() bool { return c.keepActive.Load() }

func registerSimEndpoints(mux *http.ServeMux, control *SimControl) {
	mux.HandleFunc("/sim/reset", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeSimError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if err := control.Reset(); err != nil {
			writeSimError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeSimJSON(w, http.StatusOK, map[string]any{"ok": true, "scenario": control.currentScenario.Load()})
	})

	mux.HandleFunc("/sim/scenario/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeSimError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		name := strings.TrimPrefix(r.URL.Path, "/sim/scenario/")
		name = strings.Trim(name, "/")
		if err := control.ApplyScenario(name); err != nil {
			writeSimError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeSimJSON(w, http.StatusOK, map[string]any{"ok": true, "scenario": control.currentScenario.Load()})
	})

	mux.HandleFunc("/sim/faults", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeSimJSON(w, http.StatusOK, control.Faults())
			return
		case http.MethodPost:
			var patch struct {
				NetworkDown      *bool `json:"networkDown"`
				ChargerConnected *bool `json:"chargerConnected"`
				RemoteStatus     *int  `json:"remoteStatus"`
			}
			if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
				writeSimError(w, http.StatusBadRequest, "invalid json")
				return
			}
			current := control.Faults()
			if patch.NetworkDown != nil {
				current.NetworkDown = *patch.NetworkDown
			}
			if patch.ChargerConnected != nil {
				current.ChargerConnected = *patch.ChargerConnected
			}
			if patch.RemoteStatus != nil {
				current.RemoteStatus = *patch.RemoteStatus
			}
			control.SetFaults(current)
			writeSimJSON(w, http.StatusOK, current)
			return
		default:
			writeSimError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
	})

	mux.HandleFunc("/sim/keep-active", func(w http.ResponseWriter, r *http.Request) {
		writeSimJSON(w, http.StatusOK, map[string]any{"active": control.KeepActive()})
	})

	mux.HandleFunc("/sim/frame.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		http.ServeFile(w, r, control.FramePath())
	})
}

func writeSimJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSimError(w http.ResponseWriter, status int, message string) {
	writeSimJSON(w, status, map[string]any{"error": message})
}

func seedFor(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}

// gradient draws a diagonal blend between two colors picked from seed.
func gradient(w, h int, seed uint32) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	from := color.RGBA{uint8(seed), uint8(seed >> 8), uint8(seed >> 16), 0xff}
	to := color.RGBA{255 - from.R, 255 - from.G, 255 - from.B, 0xff}
	span := w + h - 2
	if span < 1 {
		span = 1
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			t := (x + y) * 255 / span
			img.SetRGBA(x, y, color.RGBA{
				R: mix(from.R, to.R, t),
				G: mix(from.G, to.G, t),
				B: mix(from.B, to.B, t),
				A: 0xff,
			})
		}
	}
	return img
}

func mix(a, b uint8, t int) uint8 {
	return uint8((int(a)*(255-t) + int(b)*t) / 255)
}

func writeGradientPNG(path string, w, h int, seed uint32) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, gradient(w, h, seed)); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
