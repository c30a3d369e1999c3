package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	// Decoders registered with image.Decode.
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Options controls image preparation before recognition.
type Options struct {
	// MinWidth upscales images narrower than this many pixels. Zero disables
	// scaling.
	MinWidth int
	// Contrast stretches the luminance histogram to the full range.
	Contrast bool
}

// DefaultOptions matches the service defaults.
var DefaultOptions = Options{MinWidth: 1600, Contrast: true}

// maxScale caps upscaling so tiny thumbnails do not explode in memory.
const maxScale = 4

// Preprocess decodes an image, converts it to grayscale, optionally stretches
// its contrast and upscales it, then re-encodes it as PNG.
func Preprocess(data []byte, opts Options) ([]byte, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	b := src.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("decode %s image: empty bounds", format)
	}

	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), src, b.Min, draw.Src)

	if opts.Contrast {
		stretchContrast(gray)
	}

	out := gray
	if opts.MinWidth > 0 && b.Dx() < opts.MinWidth {
		scale := float64(opts.MinWidth) / float64(b.Dx())
		if scale > maxScale {
			scale = maxScale
		}
		w := int(float64(b.Dx()) * scale)
		h := int(float64(b.Dy()) * scale)
		out = image.NewGray(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(out, out.Bounds(), gray, gray.Bounds(), draw.Src, nil)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// stretchContrast maps the darkest pixel to black and the brightest to white.
func stretchContrast(img *image.Gray) {
	lo, hi := uint8(255), uint8(0)
	for _, p := range img.Pix {
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}
	if hi <= lo {
		return
	}
	span := float64(hi - lo)
	for i, p := range img.Pix {
		img.Pix[i] = uint8(float64(p-lo) * 255 / span)
	}
}
