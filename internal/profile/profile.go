package profile

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/AnyUserName/sizefit/internal/search"
)

// Profile defines search parameters for a compress run.
type Profile struct {
	Name     string  `yaml:"-"`
	Codec    string  `yaml:"codec"`    // lossy codec name, see encoder.Registry
	Epsilon  float64 `yaml:"epsilon"`  // bound step of the bisection
	Strategy string  `yaml:"strategy"` // "bisect" or "bisect-scan"

	// ToleranceRatio is the acceptable distance, as a fraction of the
	// target, before bisect-scan falls back to scanning.
	ToleranceRatio float64 `yaml:"tolerance_ratio"`
	ScanStep       float64 `yaml:"scan_step"`

	AutoOrient bool   `yaml:"auto_orient"`
	Background string `yaml:"background"` // hex "#rrggbb", or "none" to keep alpha
}

// DefaultName is the profile used when none is requested.
const DefaultName = "default"

// Built-in profiles.
var profiles = map[string]Profile{
	"default": {
		Name:       "default",
		Codec:      "jpeg",
		Epsilon:    search.DefaultEpsilon,
		Strategy:   string(search.Bisect),
		AutoOrient: true,
		Background: "#000000",
	},
	"precise": {
		Name:       "precise",
		Codec:      "jpeg",
		Epsilon:    0.002,
		Strategy:   string(search.Bisect),
		AutoOrient: true,
		Background: "#000000",
	},
	"robust": {
		Name:           "robust",
		Codec:          "jpeg",
		Epsilon:        search.DefaultEpsilon,
		Strategy:       string(search.BisectThenScan),
		ToleranceRatio: 0.02,
		ScanStep:       search.DefaultScanStep,
		AutoOrient:     true,
		Background:     "#000000",
	},
	"webp": {
		Name:       "webp",
		Codec:      "webp",
		Epsilon:    search.DefaultEpsilon,
		Strategy:   string(search.Bisect),
		AutoOrient: true,
		Background: "none",
	},
	"avif": {
		Name:       "avif",
		Codec:      "avif",
		Epsilon:    search.DefaultEpsilon,
		Strategy:   string(search.Bisect),
		AutoOrient: true,
		Background: "none",
	},
}

// Validate rejects parameter combinations the search would refuse.
func (p Profile) Validate() error {
	if p.Codec == "" {
		return fmt.Errorf("profile %q: codec is required", p.Name)
	}
	if !(p.Epsilon >= search.MinEpsilon && p.Epsilon <= 0.5) {
		return fmt.Errorf("profile %q: epsilon %v out of range [%g, 0.5]", p.Name, p.Epsilon, search.MinEpsilon)
	}
	if _, err := search.ParseStrategy(p.Strategy); err != nil {
		return fmt.Errorf("profile %q: %w", p.Name, err)
	}
	if p.ToleranceRatio < 0 || p.ToleranceRatio > 1 {
		return fmt.Errorf("profile %q: tolerance_ratio %v out of range [0, 1]", p.Name, p.ToleranceRatio)
	}
	// Zero scan_step means search.DefaultScanStep.
	if p.ScanStep != 0 && !(p.ScanStep >= search.MinScanStep && p.ScanStep <= 1) {
		return fmt.Errorf("profile %q: scan_step %v out of range [%g, 1]", p.Name, p.ScanStep, search.MinScanStep)
	}
	if _, err := p.BackgroundColor(); err != nil {
		return fmt.Errorf("profile %q: %w", p.Name, err)
	}
	return nil
}

// SearchConfig converts the profile into a search.Config for a target.
func (p Profile) SearchConfig(targetBytes int) (search.Config, error) {
	strategy, err := search.ParseStrategy(p.Strategy)
	if err != nil {
		return search.Config{}, err
	}
	return search.Config{
		Epsilon:   p.Epsilon,
		Strategy:  strategy,
		Tolerance: int(p.ToleranceRatio * float64(targetBytes)),
		ScanStep:  p.ScanStep,
	}, nil
}

// BackgroundColor parses Background. It returns nil for "none" or "".
func (p Profile) BackgroundColor() (color.Color, error) {
	return ParseColor(p.Background)
}

// ParseColor parses "#rgb", "#rrggbb", "none" or "" (no color).
func ParseColor(s string) (color.Color, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "none" || s == "transparent" {
		return nil, nil
	}
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return nil, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid color %q", s)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
