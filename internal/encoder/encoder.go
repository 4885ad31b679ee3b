package encoder

import (
	"context"
	"image"
)

// Encoder is a lossy codec whose output size is tuned by a single quality
// parameter.
type Encoder interface {
	// Format returns the codec name (e.g. "jpeg", "webp", "avif").
	Format() string

	// Encode converts the image to bytes at the given quality in [0, 1].
	// Values outside the range are clamped.
	Encode(ctx context.Context, img image.Image, quality float64) ([]byte, error)

	// Available returns true if the encoder is ready to use.
	// External encoders (cwebp, avifenc) may not be installed.
	Available() bool

	// Extension returns the file extension without dot.
	Extension() string
}
