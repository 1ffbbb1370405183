// Package imaging normalizes user-supplied images for the vision model:
// decode, downscale oversized frames, flatten transparency onto white and
// re-encode as JPEG.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	"go.uber.org/zap"
)

const (
	// MaxImageBytes rejects absurd payloads before decoding.
	MaxImageBytes = 200 << 20

	// targetDimension is the longest side after downscaling.
	targetDimension = 4096
)

var (
	ErrEmptyImage       = errors.New("imaging: empty image data")
	ErrImageTooLarge    = errors.New("imaging: image exceeds size limit")
	ErrUnsupportedImage = errors.New("imaging: unsupported or corrupt image")
)

// Processor implements ai.ImageDecoder.
type Processor struct {
	log *zap.SugaredLogger
}

// NewProcessor builds a Processor. A nil logger is replaced with a no-op one.
func NewProcessor(log *zap.SugaredLogger) *Processor {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Processor{log: log}
}

// Normalize decodes the payload and returns JPEG bytes ready for the model.
// JPEG quality drops as pixel count grows so multi-megapixel photos don't
// balloon the request.
func (p *Processor) Normalize(data []byte) ([]byte, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmptyImage
	}
	if len(data) > MaxImageBytes {
		return nil, "", ErrImageTooLarge
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	bounds := img.Bounds()
	p.log.Debugw("decoded image", "format", format, "width", bounds.Dx(), "height", bounds.Dy())

	if bounds.Dx() > targetDimension || bounds.Dy() > targetDimension {
		img = downscale(img, targetDimension)
		bounds = img.Bounds()
		p.log.Debugw("downscaled image", "width", bounds.Dx(), "height", bounds.Dy())
	}

	rgb := flattenToRGB(img)

	var out bytes.Buffer
	opts := &jpeg.Options{Quality: qualityFor(bounds.Dx() * bounds.Dy())}
	if err := jpeg.Encode(&out, rgb, opts); err != nil {
		return nil, "", fmt.Errorf("encode jpeg: %w", err)
	}

	return out.Bytes(), "image/jpeg", nil
}

// flattenToRGB draws the image over a white background, discarding any alpha
// channel. JPEG has no transparency, so this has to happen before encoding.
func flattenToRGB(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Over)
	return dst
}

// downscale resizes so the longest side equals maxDim, sampling nearest
// neighbor. Good enough for model input, and cheap on huge frames.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	ratio := float64(maxDim) / float64(w)
	if h > w {
		ratio = float64(maxDim) / float64(h)
	}
	nw := int(float64(w) * ratio)
	nh := int(float64(h) * ratio)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	for y := 0; y < nh; y++ {
		srcY := bounds.Min.Y + y*h/nh
		for x := 0; x < nw; x++ {
			srcX := bounds.Min.X + x*w/nw
			dst.Set(x, y, img.At(srcX, srcY))
		}
	}
	return dst
}

func qualityFor(pixels int) int {
	switch {
	case pixels > 4_000_000:
		return 70
	case pixels > 2_000_000:
		return 80
	default:
		return 85
	}
}
