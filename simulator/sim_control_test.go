package main

import (
	"context"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rook-computer/photoframe/internal/acquire"
	"github.com/rook-computer/photoframe/internal/category"
	"github.com/rook-computer/photoframe/internal/connectivity"
)

func newTestControl(t *testing.T) *SimControl {
	t.Helper()
	c := NewSimControl(t.TempDir(), "")
	require.NoError(t, c.Seed())
	require.NoError(t, c.ApplyScenario(""))
	require.NoError(t, c.StartImageServer())
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestScenarios(t *testing.T) {
	c := NewSimControl(t.TempDir(), "")
	ctx := context.Background()

	require.NoError(t, c.ApplyScenario("online"))
	assert.True(t, c.IsInternetReachable(ctx))
	assert.Equal(t, connectivity.Connected, c.ChargerState(ctx))

	require.NoError(t, c.ApplyScenario("offline"))
	assert.False(t, c.IsInternetReachable(ctx))

	require.NoError(t, c.ApplyScenario("battery"))
	assert.True(t, c.IsInternetReachable(ctx))
	assert.Equal(t, connectivity.Unconnected, c.ChargerState(ctx))

	assert.Error(t, c.ApplyScenario("flood"))
	require.NoError(t, c.Reset())
	assert.Equal(t, "online", c.currentScenario.Load())
}

func TestCategoriesAcquire(t *testing.T) {
	c := newTestControl(t)
	a := acquire.New(nil, 0, "photoframe-sim", nil)
	ctx := context.Background()

	results := map[string]acquire.Result{}
	for _, entry := range c.Categories() {
		results[entry.Name] = a.Acquire(ctx, category.Parse(entry.Name, entry.Source))
	}

	assert.True(t, results["Album"].OK())
	assert.True(t, strings.HasPrefix(results["Album"].Status, "Local: "))
	assert.True(t, results["Landscape"].OK())
	assert.Equal(t, 1600, results["Landscape"].Image.Image().Bounds().Dx())
	assert.True(t, results["Portrait"].OK())
	assert.ErrorIs(t, results["Broken"].Err, acquire.ErrDecode)
	assert.ErrorIs(t, results["Empty folder"].Err, acquire.ErrLocalSourceEmpty)

	c.SetFaults(SimFaults{RemoteStatus: http.StatusNoContent})
	res := a.Acquire(ctx, category.Parse("Landscape", c.Categories()[1].Source))
	assert.ErrorIs(t, res.Err, acquire.ErrEmptyBody)
}

func TestSimEndpoints(t *testing.T) {
	c := newTestControl(t)
	mux := http.NewServeMux()
	registerSimEndpoints(mux, c)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sim/faults", strings.NewReader(`{"networkDown":true}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, c.Faults().NetworkDown)
	assert.True(t, c.Faults().ChargerConnected, "unpatched fields are kept")

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sim/scenario/battery", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, c.Faults().ChargerConnected)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sim/reset", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	require.NoError(t, writeGradientPNG(c.FramePath(), 8, 4, 1))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sim/frame.png", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
}

func TestSeedIsNested(t *testing.T) {
	c := NewSimControl(t.TempDir(), "online")
	require.NoError(t, c.Seed())
	_, err := os.Stat(filepath.Join(c.AlbumDir(), "2024", "square.png"))
	assert.NoError(t, err)

	var n int
	for range acquire.ImageFiles(c.AlbumDir()) {
		n++
	}
	assert.Equal(t, 3, n)
}
