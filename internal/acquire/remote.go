package acquire

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"
)

// NewHTTPClient returns a client that follows redirects and skips TLS
// certificate verification. Image sources are public and unauthenticated;
// kiosks often run with a wrong clock or without a CA bundle.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	return &http.Client{Timeout: timeout, Transport: transport}
}

// FetchRemote downloads url and decodes the body as an image.
func (a *Acquirer) FetchRemote(ctx context.Context, url string) Result {
	client := a.Client
	if client == nil {
		client = NewHTTPClient(DefaultTimeout)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return transportFailure(err)
	}
	if a.UserAgent != "" {
		req.Header.Set("User-Agent", a.UserAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return transportFailure(err)
	}
	defer resp.Body.Close()

	limit := a.MaxBodyBytes
	if limit <= 0 {
		limit = MaxBodyBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return transportFailure(err)
	}
	if int64(len(body)) > limit {
		return transportFailure(fmt.Errorf("response larger than %d bytes", limit))
	}
	code := resp.StatusCode

	if len(body) == 0 {
		return Result{
			Status: fmt.Sprintf("Empty response (HTTP %d)", code),
			Err:    fmt.Errorf("%w: HTTP %d", ErrEmptyBody, code),
		}
	}

	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return Result{
			Status: fmt.Sprintf("Decode error (HTTP %d): %v", code, err),
			Err:    fmt.Errorf("%w: HTTP %d: %v", ErrDecode, code, err),
		}
	}
	tex := a.prepare(img)
	if tex == nil {
		return Result{
			Status: fmt.Sprintf("Decode error (HTTP %d): image cannot be displayed", code),
			Err:    fmt.Errorf("%w: HTTP %d: empty image", ErrDecode, code),
		}
	}
	return Result{Image: tex, Status: fmt.Sprintf("OK (%d bytes, HTTP %d)", len(body), code)}
}

func transportFailure(err error) Result {
	return Result{
		Status: fmt.Sprintf("Fetch error: %v", err),
		Err:    fmt.Errorf("%w: %v", ErrTransport, err),
	}
}
