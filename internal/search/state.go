package search

import "math"

// State is the open quality interval of a bisection. The search continues
// while Low <= High; Narrow never widens it.
type State struct {
	Low, High Quality
}

// NewState returns the full quality domain [0, 1].
func NewState() State {
	return State{Low: MinQuality, High: MaxQuality}
}

// Open reports whether another probe should be made.
func (s State) Open() bool { return s.Low <= s.High }

// Mid is the next quality to probe.
func (s State) Mid() Quality { return (s.Low + s.High) / 2 }

// Width is High - Low. Negative once the bounds have crossed.
func (s State) Width() float64 { return float64(s.High - s.Low) }

// Progress is the shrinkage of the interval relative to its initial width
// of 1.0, as a clamped percentage.
func (s State) Progress() int {
	return clampPercent(int(math.Round((1 - s.Width()) * 100)))
}

// Narrow moves one bound past mid by epsilon. An oversized probe lowers
// High, anything else raises Low.
func (s State) Narrow(mid Quality, size, target int, epsilon float64) State {
	if size > target {
		s.High = mid - Quality(epsilon)
	} else {
		s.Low = mid + Quality(epsilon)
	}
	return s
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// progress maps phase-local percentages onto [lo, lo+span] and suppresses
// any value lower than the last one emitted.
type progress struct {
	fn       ProgressFunc
	lo, span int
	last     int
}

func newProgress(fn ProgressFunc, lo, span int) *progress {
	return &progress{fn: fn, lo: lo, span: span}
}

func (p *progress) rescale(lo, span int) {
	p.lo, p.span = lo, span
}

func (p *progress) emit(local int) {
	if p.fn == nil {
		return
	}
	v := clampPercent(p.lo + clampPercent(local)*p.span/100)
	if v < p.last {
		v = p.last
	}
	p.last = v
	p.fn(v)
}
