package render

import (
	"image"

	"github.com/skip2/go-qrcode"
)

// qrModulePx is the rendered size of the source QR code before it is
// scaled into the overlay panel.
const qrModulePx = 256

// SourceQRCode encodes the URL of a remote category so a viewer can open
// the current source on a phone. Sources are capped at 255 bytes, which
// always fits at the low recovery level.
func SourceQRCode(url string, sizePx int) (image.Image, error) {
	if url == "" {
		return nil, nil
	}
	if sizePx <= 0 {
		sizePx = qrModulePx
	}
	code, err := qrcode.New(url, qrcode.Low)
	if err != nil {
		return nil, err
	}
	return code.Image(sizePx), nil
}

// cachedQR returns the code for payload, regenerating only when the payload
// changes between frames.
func (c *Canvas) cachedQR(payload string) image.Image {
	if payload == c.qrPayload {
		return c.qrImg
	}
	img, err := SourceQRCode(payload, qrModulePx)
	if err != nil {
		if c.Logger != nil {
			c.Logger.Errorf("render", "qr code for %q: %v", payload, err)
		}
		img = nil
	}
	c.qrPayload, c.qrImg = payload, img
	return img
}
