package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/AnyUserName/sizefit/internal/hasher"
)

// Validate checks r for internal consistency and, when baseDir is not
// empty, that the result file exists under it with the recorded size and
// hash. It returns one message per problem found.
func Validate(r *Report, baseDir string) []string {
	var errs []string

	// Check version.
	if r.Version != SupportedVersion {
		errs = append(errs, fmt.Sprintf("unsupported report version: %d", r.Version))
	}

	if r.Codec == "" {
		errs = append(errs, "missing codec")
	}
	if r.Source.Width <= 0 || r.Source.Height <= 0 {
		errs = append(errs, fmt.Sprintf("invalid source dimensions %dx%d", r.Source.Width, r.Source.Height))
	}
	if r.Target.Bytes <= 0 {
		errs = append(errs, fmt.Sprintf("invalid target: %d bytes", r.Target.Bytes))
	} else if want := int(math.Round(r.Target.KB * 1000)); r.Target.KB > 0 && want != r.Target.Bytes {
		errs = append(errs, fmt.Sprintf("target mismatch: %.3f KB is %d bytes, report says %d", r.Target.KB, want, r.Target.Bytes))
	}

	res := r.Result
	if res.Quality < 0 || res.Quality > 1 || math.IsNaN(res.Quality) {
		errs = append(errs, fmt.Sprintf("quality %v outside [0, 1]", res.Quality))
	}
	if res.Size <= 0 {
		errs = append(errs, fmt.Sprintf("invalid result size %d", res.Size))
	}
	if d := absInt(res.Size - r.Target.Bytes); d != res.Distance {
		errs = append(errs, fmt.Sprintf("distance mismatch: |%d - %d| = %d, report says %d",
			res.Size, r.Target.Bytes, d, res.Distance))
	}
	if res.Iterations <= 0 {
		errs = append(errs, "no iterations recorded")
	}
	if res.Hash == "" {
		errs = append(errs, "missing result hash")
	}

	if len(r.Trace) > 0 {
		errs = append(errs, validateTrace(r)...)
	}

	if baseDir == "" {
		return errs
	}
	if res.Path == "" {
		return append(errs, "missing result path")
	}

	// Check file exists.
	fullPath := res.Path
	if !filepath.IsAbs(fullPath) {
		fullPath = filepath.Join(baseDir, res.Path)
	}
	info, err := os.Stat(fullPath)
	if err != nil {
		return append(errs, fmt.Sprintf("result file not found: %s", res.Path))
	}
	if info.Size() != int64(res.Size) {
		errs = append(errs, fmt.Sprintf("size mismatch: report=%d, disk=%d", res.Size, info.Size()))
	}
	if res.Hash != "" {
		sum, err := hasher.FileHash(fullPath, len(res.Hash))
		if err != nil {
			errs = append(errs, fmt.Sprintf("hash result file: %v", err))
		} else if sum != res.Hash {
			errs = append(errs, fmt.Sprintf("hash mismatch: report=%s, disk=%s", res.Hash, sum))
		}
	}
	return errs
}

// validateTrace checks that the trace agrees with the result: the result
// is the closest probe, and best markers only ever improve.
func validateTrace(r *Report) []string {
	var errs []string
	if len(r.Trace) != r.Result.Iterations {
		errs = append(errs, fmt.Sprintf("trace has %d probes, result says %d iterations",
			len(r.Trace), r.Result.Iterations))
	}

	best := math.MaxInt
	for i, p := range r.Trace {
		d := absInt(p.Size - r.Target.Bytes)
		if p.Best {
			if d >= best {
				errs = append(errs, fmt.Sprintf("trace[%d]: marked best at distance %d, previous best %d", i, d, best))
			}
			best = d
		} else if d < best {
			errs = append(errs, fmt.Sprintf("trace[%d]: closer than best (%d < %d) but not marked", i, d, best))
		}
	}
	if best != math.MaxInt && best != r.Result.Distance {
		errs = append(errs, fmt.Sprintf("trace best distance %d != result distance %d", best, r.Result.Distance))
	}
	return errs
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
