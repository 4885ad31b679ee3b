package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"runtime"
	"sync"

	"github.com/AnyUserName/sizefit/internal/encoder"
	"github.com/AnyUserName/sizefit/internal/imageio"
	"github.com/AnyUserName/sizefit/internal/profile"
)

const (
	// DefaultProbeSteps samples quality every 0.1.
	DefaultProbeSteps = 11

	// MaxProbeSteps samples quality every 0.001.
	MaxProbeSteps = 1001
)

// ProbeConfig holds the parameters of a size-curve sampling run.
type ProbeConfig struct {
	InputPath string
	Profile   profile.Profile
	// Steps is the number of evenly spaced qualities sampled, both ends
	// included. Values below 2 use DefaultProbeSteps; more than
	// MaxProbeSteps is an error.
	Steps   int
	Workers int
	Logger  *slog.Logger
}

// Sample is the encoded size at one quality.
type Sample struct {
	Quality float64
	Size    int
}

// Curve is the sampled size-vs-quality curve of one image and codec.
type Curve struct {
	Codec   string
	Source  *imageio.Source
	Samples []Sample
	// Inversions holds every index i where Samples[i] is smaller than
	// Samples[i-1], i.e. where the bisection's monotonicity assumption
	// does not hold.
	Inversions []int
}

// Monotonic reports whether size never decreased as quality increased.
func (c *Curve) Monotonic() bool { return len(c.Inversions) == 0 }

// Closest returns the sample nearest to targetBytes; ties keep the lower
// quality.
func (c *Curve) Closest(targetBytes int) (Sample, bool) {
	var best Sample
	bestDist := -1
	for _, s := range c.Samples {
		d := s.Size - targetBytes
		if d < 0 {
			d = -d
		}
		if bestDist < 0 || d < bestDist {
			best, bestDist = s, d
		}
	}
	return best, bestDist >= 0
}

// Probe encodes the image at cfg.Steps qualities in parallel and returns
// the resulting curve. The first encode failure fails the whole probe.
func Probe(ctx context.Context, cfg ProbeConfig) (*Curve, error) {
	log := orDiscard(cfg.Logger)
	if cfg.Steps < 2 {
		cfg.Steps = DefaultProbeSteps
	}
	if cfg.Steps > MaxProbeSteps {
		return nil, fmt.Errorf("probe: %d steps exceeds limit %d", cfg.Steps, MaxProbeSteps)
	}

	enc, err := encoder.NewRegistry().Lookup(cfg.Profile.Codec)
	if err != nil {
		return nil, err
	}
	src, err := decodeSource(cfg.InputPath, cfg.Profile)
	if err != nil {
		return nil, err
	}

	samples, err := sampleSizes(ctx, enc, src.Image, cfg.Steps, cfg.Workers, log)
	if err != nil {
		return nil, err
	}

	c := &Curve{Codec: enc.Format(), Source: src, Samples: samples}
	for i := 1; i < len(samples); i++ {
		if samples[i].Size < samples[i-1].Size {
			c.Inversions = append(c.Inversions, i)
		}
	}
	return c, nil
}

// sampleSizes encodes img at steps evenly spaced qualities using at most
// workers goroutines.
func sampleSizes(ctx context.Context, enc encoder.Encoder, img image.Image, steps, workers int, log *slog.Logger) ([]Sample, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > steps {
		workers = steps
	}

	samples := make([]Sample, steps)
	errs := make([]error, steps)
	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				q := float64(idx) / float64(steps-1)
				if err := ctx.Err(); err != nil {
					errs[idx] = err
					continue
				}
				data, err := enc.Encode(ctx, img, q)
				if err != nil {
					errs[idx] = fmt.Errorf("encode at quality %.3f: %w", q, err)
					continue
				}
				samples[idx] = Sample{Quality: q, Size: len(data)}
				log.Debug("sample", "quality", q, "size", len(data))
			}
		}()
	}

feed:
	for i := range samples {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}
