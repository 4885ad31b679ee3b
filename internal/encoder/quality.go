package encoder

import "math"

// clampUnit limits q to [0, 1]. NaN maps to 0.
func clampUnit(q float64) float64 {
	if math.IsNaN(q) || q < 0 {
		return 0
	}
	if q > 1 {
		return 1
	}
	return q
}

// JPEGQuality maps a unit quality onto image/jpeg's 1-100 scale, the same
// rounding a browser canvas applies to its quality argument.
func JPEGQuality(q float64) int {
	v := int(math.Round(clampUnit(q) * 100))
	if v < 1 {
		v = 1
	}
	return v
}

// WebPQuality maps a unit quality onto cwebp's 0-100 float scale.
func WebPQuality(q float64) float64 {
	return math.Round(clampUnit(q)*10000) / 100
}

// AVIFQuantizer maps a unit quality onto avifenc's quantizer, where 0 is
// lossless-ish and 63 is the worst.
func AVIFQuantizer(q float64) int {
	return 63 - int(math.Round(clampUnit(q)*63))
}
