// Package acquire turns a category into a displayable image: a remote HTTP
// fetch or a random pick from a local folder.
package acquire

import (
	"context"
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math/rand/v2"
	"net/http"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/rook-computer/photoframe/internal/category"
	"github.com/rook-computer/photoframe/internal/render"
)

var (
	ErrNetworkUnreachable = errors.New("network unreachable")
	ErrTransport          = errors.New("transport failure")
	ErrEmptyBody          = errors.New("empty response body")
	ErrDecode             = errors.New("image decode failed")
	ErrLocalSourceMissing = errors.New("local folder not found")
	ErrLocalSourceEmpty   = errors.New("no images in local folder")
)

// StatusNoInternet is the status shown when a remote fetch is skipped.
const StatusNoInternet = "No internet connection."

const (
	DefaultTimeout = 15 * time.Second
	// MaxBodyBytes caps the size of a remote image.
	MaxBodyBytes = 32 << 20
)

// Result is the outcome of one acquisition. Status is always set and meant
// for display; Err classifies failures and is nil on success.
type Result struct {
	Image  *render.Texture
	Status string
	Err    error
}

func (r Result) OK() bool { return r.Image.Valid() }

// Preparer turns a decoded image into a screen texture.
type Preparer interface {
	Prepare(img image.Image) *render.Texture
}

type logger interface {
	Infof(component, format string, args ...interface{})
	Errorf(component, format string, args ...interface{})
}

// Acquirer fetches and decodes images for categories.
type Acquirer struct {
	Client    *http.Client
	UserAgent string
	Preparer  Preparer
	Logger    logger
	// MaxBodyBytes overrides the default body cap when positive.
	MaxBodyBytes int64
	// IntN returns a uniform value in [0, n). Defaults to math/rand/v2.
	IntN func(n int) int
}

// New returns an Acquirer with a trust-all HTTP client using timeout.
func New(p Preparer, timeout time.Duration, userAgent string, l logger) *Acquirer {
	return &Acquirer{
		Client:    NewHTTPClient(timeout),
		UserAgent: userAgent,
		Preparer:  p,
		Logger:    l,
	}
}

// Acquire dispatches on the category kind.
func (a *Acquirer) Acquire(ctx context.Context, c category.Category) Result {
	var res Result
	switch c.Kind {
	case category.Local:
		res = a.PickLocal(c.Location)
	default:
		res = a.FetchRemote(ctx, c.Location)
	}
	if a.Logger != nil {
		if res.Err != nil {
			a.Logger.Errorf("acquire", "%s %q: %v", c.Kind, c.Name, res.Err)
		} else {
			a.Logger.Infof("acquire", "%s %q: %s", c.Kind, c.Name, res.Status)
		}
	}
	return res
}

func (a *Acquirer) prepare(img image.Image) *render.Texture {
	if a.Preparer == nil {
		return render.NewTexture(img)
	}
	return a.Preparer.Prepare(img)
}

func (a *Acquirer) intN(n int) int {
	if a.IntN != nil {
		return a.IntN(n)
	}
	return rand.IntN(n)
}
