package evidence

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"net/http"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/webp"

	"inspectdash/domain/core"
)

// PreviewWidth is the width of stored previews in pixels
const PreviewWidth = 250

// maxPixels guards against decompression bombs: the header is checked before
// the full image is decoded.
const maxPixels = 50_000_000

// Thumbnail is a decoded, resized upload
type Thumbnail struct {
	PNG         []byte
	Width       int
	Height      int
	ContentType string // of the original upload
}

// MakeThumbnail decodes a jpeg, png or webp photo and scales it down to
// width pixels wide, keeping the aspect ratio. Narrower photos keep their
// size. The result is always PNG.
func MakeThumbnail(raw []byte, width int) (*Thumbnail, error) {
	mime := http.DetectContentType(raw)
	switch mime {
	case "image/png", "image/jpeg", "image/webp":
	default:
		return nil, fmt.Errorf("%w: %s", core.ErrUnsupportedImage, mime)
	}

	cfg, err := decodeConfig(raw, mime)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to read photo header: %v", core.ErrUnsupportedImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: invalid image dimensions", core.ErrUnsupportedImage)
	}
	if cfg.Width*cfg.Height > maxPixels {
		return nil, fmt.Errorf("%w: %dx%d pixels", core.ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	img, err := decode(raw, mime)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to decode photo: %v", core.ErrUnsupportedImage, err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if width > 0 && w > width {
		h = h * width / w
		if h < 1 {
			h = 1
		}
		w = width
	}

	resized := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, xdraw.Over, nil)

	var out bytes.Buffer
	if err := png.Encode(&out, resized); err != nil {
		return nil, fmt.Errorf("unable to encode preview: %w", err)
	}
	return &Thumbnail{PNG: out.Bytes(), Width: w, Height: h, ContentType: mime}, nil
}

func decodeConfig(raw []byte, mime string) (image.Config, error) {
	if mime == "image/webp" {
		return webp.DecodeConfig(bytes.NewReader(raw))
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	return cfg, err
}

func decode(raw []byte, mime string) (image.Image, error) {
	if mime == "image/webp" {
		return webp.Decode(bytes.NewReader(raw))
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	return img, err
}
