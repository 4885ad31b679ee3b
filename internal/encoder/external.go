package encoder

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
)

// Atomic counter for unique temp file names across goroutines.
var tempCounter atomic.Int64

// tool is an external encoder binary resolved lazily from PATH.
type tool struct {
	name string
	hint string

	once sync.Once
	path string
}

func (t *tool) lookup() (string, bool) {
	t.once.Do(func() {
		if path, err := exec.LookPath(t.name); err == nil {
			t.path = path
		}
	})
	return t.path, t.path != ""
}

// run writes img as PNG to a temp file, invokes the tool with the
// arguments built by args(src, dst) and returns the bytes left in dst.
func (t *tool) run(ctx context.Context, img image.Image, ext string, args func(src, dst string) []string) ([]byte, error) {
	bin, ok := t.lookup()
	if !ok {
		return nil, fmt.Errorf("%s not found in PATH; install with: %s", t.name, t.hint)
	}

	id := tempCounter.Add(1)
	srcFile, err := os.CreateTemp("", fmt.Sprintf("sizefit_%s_src_%d_*.png", t.name, id))
	if err != nil {
		return nil, fmt.Errorf("create temp: %w", err)
	}
	srcPath := srcFile.Name()
	defer os.Remove(srcPath)

	if err := png.Encode(srcFile, img); err != nil {
		srcFile.Close()
		return nil, fmt.Errorf("encode temp png: %w", err)
	}
	if err := srcFile.Close(); err != nil {
		return nil, fmt.Errorf("close temp png: %w", err)
	}

	dstFile, err := os.CreateTemp("", fmt.Sprintf("sizefit_%s_dst_%d_*.%s", t.name, id, ext))
	if err != nil {
		return nil, fmt.Errorf("create temp: %w", err)
	}
	dstPath := dstFile.Name()
	dstFile.Close()
	defer os.Remove(dstPath)

	cmd := exec.CommandContext(ctx, bin, args(srcPath, dstPath)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", t.name, err, string(out))
	}
	return os.ReadFile(dstPath)
}

// WebPEncoder encodes images to lossy WebP by shelling out to cwebp.
// This approach avoids CGO while still producing optimized WebP.
// Install: brew install webp / apt install webp
type WebPEncoder struct {
	cwebp tool
}

// NewWebPEncoder returns an encoder backed by cwebp from PATH.
func NewWebPEncoder() *WebPEncoder {
	return &WebPEncoder{cwebp: tool{name: "cwebp", hint: "brew install webp"}}
}

func (e *WebPEncoder) Format() string    { return "webp" }
func (e *WebPEncoder) Extension() string { return "webp" }

func (e *WebPEncoder) Available() bool {
	_, ok := e.cwebp.lookup()
	return ok
}

func (e *WebPEncoder) Encode(ctx context.Context, img image.Image, quality float64) ([]byte, error) {
	q := strconv.FormatFloat(WebPQuality(quality), 'f', 2, 64)
	return e.cwebp.run(ctx, img, "webp", func(src, dst string) []string {
		return []string{
			"-q", q,
			"-m", "6", // compression method (0=fast, 6=best)
			"-mt", "-quiet",
			src,
			"-o", dst,
		}
	})
}

// AVIFEncoder encodes images to AVIF by shelling out to avifenc.
// Install: brew install libavif / apt install libavif-bin
type AVIFEncoder struct {
	avifenc tool
	// Speed is avifenc's speed knob, 0=slowest, 10=fastest.
	Speed int
}

// NewAVIFEncoder returns an encoder backed by avifenc from PATH.
func NewAVIFEncoder() *AVIFEncoder {
	return &AVIFEncoder{
		avifenc: tool{name: "avifenc", hint: "brew install libavif"},
		Speed:   6,
	}
}

func (e *AVIFEncoder) Format() string    { return "avif" }
func (e *AVIFEncoder) Extension() string { return "avif" }

func (e *AVIFEncoder) Available() bool {
	_, ok := e.avifenc.lookup()
	return ok
}

func (e *AVIFEncoder) Encode(ctx context.Context, img image.Image, quality float64) ([]byte, error) {
	q := strconv.Itoa(AVIFQuantizer(quality))
	return e.avifenc.run(ctx, img, "avif", func(src, dst string) []string {
		return []string{
			"--min", q,
			"--max", q,
			"--speed", strconv.Itoa(e.Speed),
			"-j", "all",
			src,
			dst,
		}
	})
}
