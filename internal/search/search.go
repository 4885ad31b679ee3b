// Package search finds the codec quality whose encoded output size is
// closest to a byte target.
//
// The default strategy is a bisection over quality in [0, 1]. It assumes the
// encoded size grows monotonically with quality. Real lossy codecs only
// roughly satisfy this (plateaus and small local inversions are common), so
// the bisection result is a best-effort approximation: the closest candidate
// among the qualities it happened to probe. BisectThenScan adds a linear
// scan for callers that need a tighter answer on badly-behaved inputs.
package search

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"math"
)

// Quality is the single tunable parameter of a lossy encode, in [0, 1].
type Quality float64

const (
	MinQuality Quality = 0
	MaxQuality Quality = 1

	// DefaultEpsilon is the bound step applied after every probe. It is
	// also the termination granularity of the bisection.
	DefaultEpsilon = 0.01

	// MinEpsilon is the smallest accepted epsilon. It bounds MaxIterations
	// at one million probes.
	MinEpsilon = 1e-6

	// DefaultScanStep is the quality spacing of the fallback scan.
	DefaultScanStep = 0.05

	// MinScanStep caps the fallback scan at 1001 encodes.
	MinScanStep = 0.001
)

// Strategy selects how the quality domain is searched.
type Strategy string

const (
	// Bisect halves [low, high] on every probe. Fast, best-effort.
	Bisect Strategy = "bisect"
	// BisectThenScan runs Bisect, then a linear scan when the best
	// candidate is still further than Config.Tolerance from the target.
	BisectThenScan Strategy = "bisect-scan"
)

// ParseStrategy maps a user-facing name to a Strategy. Empty means Bisect.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", Bisect:
		return Bisect, nil
	case BisectThenScan, "scan":
		return BisectThenScan, nil
	}
	return "", fmt.Errorf("unknown strategy %q (want %q or %q)", s, Bisect, BisectThenScan)
}

// EncodeFunc encodes img at quality q. It must be deterministic for fixed
// inputs; Search assumes output size is non-decreasing in q.
type EncodeFunc func(ctx context.Context, img image.Image, q Quality) ([]byte, error)

// ProgressFunc receives a percentage in [0, 100]. Successive values never
// decrease.
type ProgressFunc func(percent int)

// Config tunes a single Search call. The zero value is a plain bisection
// with DefaultEpsilon and no callbacks.
type Config struct {
	Epsilon  float64
	Strategy Strategy

	// Tolerance is the distance in bytes below which BisectThenScan skips
	// the scan. Ignored by Bisect.
	Tolerance int
	// ScanStep is the quality spacing of the fallback scan.
	ScanStep float64

	OnProgress ProgressFunc
	// OnProbe is called after every encode, in order.
	OnProbe func(Probe)

	Logger *slog.Logger
}

func (c Config) withDefaults() (Config, error) {
	if c.Epsilon == 0 {
		c.Epsilon = DefaultEpsilon
	}
	if !(c.Epsilon >= MinEpsilon && c.Epsilon <= 0.5) {
		return c, fmt.Errorf("epsilon %v out of range [%g, 0.5]", c.Epsilon, MinEpsilon)
	}
	if c.Strategy == "" {
		c.Strategy = Bisect
	}
	if _, err := ParseStrategy(string(c.Strategy)); err != nil {
		return c, err
	}
	if c.ScanStep == 0 {
		c.ScanStep = DefaultScanStep
	}
	if !(c.ScanStep >= MinScanStep && c.ScanStep <= 1) {
		return c, fmt.Errorf("scan step %v out of range [%g, 1]", c.ScanStep, MinScanStep)
	}
	if c.Tolerance < 0 {
		return c, fmt.Errorf("tolerance %d must not be negative", c.Tolerance)
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c, nil
}

// MaxIterations bounds the number of bisection probes for a given epsilon.
// Zero means DefaultEpsilon; anything smaller than MinEpsilon counts as
// MinEpsilon.
func MaxIterations(epsilon float64) int {
	switch {
	case epsilon == 0 || math.IsNaN(epsilon):
		epsilon = DefaultEpsilon
	case epsilon < MinEpsilon:
		epsilon = MinEpsilon
	}
	return int(math.Ceil(1 / epsilon))
}

// Probe describes one encode call made during a search.
type Probe struct {
	Iteration int
	Quality   Quality
	Size      int
	// Low and High are the bounds in effect when the probe was made.
	// Both are zero for scan probes.
	Low, High Quality
	// Best reports whether this probe replaced the best candidate.
	Best bool
}

// Result is the best candidate found by a search.
type Result struct {
	Bytes   []byte
	Size    int
	Quality Quality
	// Distance is |Size - target| in bytes.
	Distance   int
	Iterations int
	Trace      []Probe
}

// Search returns the encoding of img whose size is closest to targetBytes.
//
// Errors abort the search immediately; a failed encode is never skipped.
// No partial result accompanies an error.
func Search(ctx context.Context, img image.Image, targetBytes int, encode EncodeFunc, cfg Config) (*Result, error) {
	if targetBytes <= 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidTarget, targetBytes)
	}
	if err := validateImage(img); err != nil {
		return nil, err
	}
	if encode == nil {
		return nil, errors.New("search: nil encode function")
	}
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, fmt.Errorf("search config: %w", err)
	}

	r := newRunner(img, targetBytes, encode, cfg)
	if err := r.bisect(ctx); err != nil {
		return nil, err
	}

	if cfg.Strategy == BisectThenScan {
		if r.best != nil && r.bestDist <= cfg.Tolerance {
			cfg.Logger.Debug("bisection within tolerance, skipping scan",
				"distance", r.bestDist, "tolerance", cfg.Tolerance)
			r.progress.rescale(50, 50)
			r.progress.emit(100)
		} else {
			r.progress.rescale(50, 50)
			if err := r.scan(ctx); err != nil {
				return nil, err
			}
		}
	}

	if r.best == nil {
		return nil, ErrNoViableQuality
	}
	r.best.Iterations = r.iterations
	r.best.Trace = r.trace
	return r.best, nil
}

func validateImage(img image.Image) error {
	if img == nil {
		return fmt.Errorf("%w: nil image", ErrInvalidImage)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return fmt.Errorf("%w: zero dimension %dx%d", ErrInvalidImage, b.Dx(), b.Dy())
	}
	return nil
}

// runner owns the mutable state of one Search call.
type runner struct {
	img    image.Image
	target int
	encode EncodeFunc
	cfg    Config

	best       *Result
	bestDist   int
	iterations int
	trace      []Probe
	seen       map[Quality]bool
	progress   *progress
}

func newRunner(img image.Image, target int, encode EncodeFunc, cfg Config) *runner {
	r := &runner{
		img:      img,
		target:   target,
		encode:   encode,
		cfg:      cfg,
		bestDist: math.MaxInt,
		seen:     make(map[Quality]bool),
	}
	if cfg.Strategy == BisectThenScan {
		r.progress = newProgress(cfg.OnProgress, 0, 50)
	} else {
		r.progress = newProgress(cfg.OnProgress, 0, 100)
	}
	return r
}

func (r *runner) bisect(ctx context.Context) error {
	s := NewState()
	limit := MaxIterations(r.cfg.Epsilon)
	for i := 0; s.Open() && i < limit; i++ {
		mid := s.Mid()
		size, err := r.probe(ctx, mid, s)
		if err != nil {
			return err
		}
		r.progress.emit(s.Progress())
		next := s.Narrow(mid, size, r.target, r.cfg.Epsilon)
		if next == s {
			// Bounds no longer move at float64 resolution.
			r.cfg.Logger.Debug("bisection stalled", "low", float64(s.Low), "high", float64(s.High))
			break
		}
		s = next
	}
	return nil
}

func (r *runner) scan(ctx context.Context) error {
	steps := int(math.Round(1 / r.cfg.ScanStep))
	for k := 0; k <= steps; k++ {
		q := Quality(float64(k) / float64(steps))
		if !r.seen[q] {
			if _, err := r.probe(ctx, q, State{}); err != nil {
				return err
			}
		}
		r.progress.emit(int(math.Round(float64(k) / float64(steps) * 100)))
	}
	return nil
}

func (r *runner) probe(ctx context.Context, q Quality, s State) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("search cancelled before iteration %d: %w", r.iterations, err)
	}
	data, err := r.encode(ctx, r.img, q)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, fmt.Errorf("search cancelled during iteration %d: %w", r.iterations, ctxErr)
		}
		return 0, &CodecError{Quality: q, Iteration: r.iterations, Err: err}
	}

	size := len(data)
	dist := size - r.target
	if dist < 0 {
		dist = -dist
	}
	improved := dist < r.bestDist
	if improved {
		r.best = &Result{Bytes: data, Size: size, Quality: q, Distance: dist}
		r.bestDist = dist
	}

	p := Probe{Iteration: r.iterations, Quality: q, Size: size, Low: s.Low, High: s.High, Best: improved}
	r.iterations++
	r.seen[q] = true
	r.trace = append(r.trace, p)
	if r.cfg.OnProbe != nil {
		r.cfg.OnProbe(p)
	}
	r.cfg.Logger.Debug("probe",
		"iteration", p.Iteration,
		"quality", float64(q),
		"size", size,
		"target", r.target,
		"best", improved,
	)
	return size, nil
}
