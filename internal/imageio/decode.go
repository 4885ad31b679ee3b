// Package imageio turns raw image files into the pixel buffers the quality
// search encodes.
package imageio

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/AnyUserName/sizefit/internal/search"
	"github.com/disintegration/imaging"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	// MaxDimension caps width and height before a full decode.
	MaxDimension = 32768

	// MaxPixels bounds the total pixel count (64 MP) so an NRGBA buffer
	// stays under 256 MB.
	MaxPixels int64 = 64 * 1024 * 1024
)

// Options controls how a source image is prepared for encoding.
type Options struct {
	// AutoOrient applies the EXIF orientation tag, as browsers do before
	// drawing an image.
	AutoOrient bool
	// Background replaces transparency. Nil keeps the alpha channel as is.
	Background color.Color
}

// DefaultOptions matches what a canvas JPEG export produces: oriented
// pixels, transparency flattened onto black.
func DefaultOptions() Options {
	return Options{AutoOrient: true, Background: color.Black}
}

// Source is a decoded image ready for the search.
type Source struct {
	Image image.Image
	// Width and Height are the dimensions after orientation.
	Width, Height int
	// Format is the container format reported by the decoder (png, jpeg, ...).
	Format string
	// PixelFormat names the in-memory layout of Image (nrgba, ycbcr, gray, ...).
	PixelFormat string
	// Size is the encoded input size in bytes.
	Size int64
	// HasAlpha reports transparency in the input, before any flattening.
	HasAlpha bool
}

// DecodeFile reads and decodes the image at path.
func DecodeFile(path string, opts Options) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", search.ErrInvalidImage, path, err)
	}
	src, err := DecodeBytes(data, opts)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return src, nil
}

// Decode reads all of r and decodes it.
func Decode(r io.Reader, opts Options) (*Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read: %v", search.ErrInvalidImage, err)
	}
	return DecodeBytes(data, opts)
}

// DecodeBytes decodes an in-memory image file. Every failure wraps
// search.ErrInvalidImage.
func DecodeBytes(data []byte, opts Options) (*Source, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", search.ErrInvalidImage)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", search.ErrInvalidImage, err)
	}
	if err := validateBounds(cfg.Width, cfg.Height); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(opts.AutoOrient))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", search.ErrInvalidImage, err)
	}

	alpha := HasAlpha(img)
	if alpha && opts.Background != nil {
		img = Flatten(img, opts.Background)
	}

	b := img.Bounds()
	return &Source{
		Image:       img,
		Width:       b.Dx(),
		Height:      b.Dy(),
		Format:      format,
		PixelFormat: PixelFormat(img),
		Size:        int64(len(data)),
		HasAlpha:    alpha,
	}, nil
}

func validateBounds(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: bounds invalid (%d x %d)", search.ErrInvalidImage, width, height)
	}
	if width > MaxDimension || height > MaxDimension {
		return fmt.Errorf("%w: dimension exceeds limit (%d x %d)", search.ErrInvalidImage, width, height)
	}
	if pixels := int64(width) * int64(height); pixels > MaxPixels {
		return fmt.Errorf("%w: pixel count %d exceeds limit %d", search.ErrInvalidImage, pixels, MaxPixels)
	}
	return nil
}

// Flatten composites img over an opaque background of color bg.
func Flatten(img image.Image, bg color.Color) *image.NRGBA {
	b := img.Bounds()
	dst := imaging.New(b.Dx(), b.Dy(), bg)
	return imaging.Overlay(dst, img, image.Pt(0, 0), 1.0)
}

// HasAlpha reports whether any pixel of img is not fully opaque.
func HasAlpha(img image.Image) bool {
	switch src := img.(type) {
	case *image.NRGBA:
		return anyBelowOpaque(src.Pix)
	case *image.RGBA:
		return anyBelowOpaque(src.Pix)
	case *image.YCbCr, *image.Gray, *image.Gray16, *image.CMYK:
		return false
	case *image.Paletted:
		translucent := make([]bool, len(src.Palette))
		found := false
		for i, c := range src.Palette {
			if _, _, _, a := c.RGBA(); a < 0xffff {
				translucent[i], found = true, true
			}
		}
		if !found {
			return false
		}
		// Only entries that pixels actually reference count.
		b := src.Rect
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := src.Pix[src.PixOffset(b.Min.X, y):src.PixOffset(b.Max.X, y)]
			for _, idx := range row {
				if int(idx) < len(translucent) && translucent[idx] {
					return true
				}
			}
		}
		return false
	default:
		b := img.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				if _, _, _, a := img.At(x, y).RGBA(); a < 0xffff {
					return true
				}
			}
		}
		return false
	}
}

func anyBelowOpaque(pix []byte) bool {
	for i := 3; i < len(pix); i += 4 {
		if pix[i] < 255 {
			return true
		}
	}
	return false
}

// PixelFormat names the memory layout of img.
func PixelFormat(img image.Image) string {
	switch img.(type) {
	case *image.NRGBA:
		return "nrgba"
	case *image.NRGBA64:
		return "nrgba64"
	case *image.RGBA:
		return "rgba"
	case *image.RGBA64:
		return "rgba64"
	case *image.YCbCr:
		return "ycbcr"
	case *image.NYCbCrA:
		return "nycbcra"
	case *image.Gray:
		return "gray"
	case *image.Gray16:
		return "gray16"
	case *image.CMYK:
		return "cmyk"
	case *image.Paletted:
		return "paletted"
	}
	return fmt.Sprintf("%T", img)
}
