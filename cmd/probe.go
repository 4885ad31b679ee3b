package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/AnyUserName/sizefit/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	probeProfile string
	probeCodec   string
	probeSteps   int
	probeWorkers int
	probeTarget  float64
)

var probeCmd = &cobra.Command{
	Use:   "probe <input>",
	Short: "Sample the encoded size across the quality range",
	Long: `Encodes the input at evenly spaced qualities and prints the size curve.
The bisection used by compress assumes size grows with quality; inversions
in this curve show where that assumption breaks for this image.`,
	Args: cobra.ExactArgs(1),
	RunE: runProbe,
}

func init() {
	f := probeCmd.Flags()
	f.StringVarP(&probeProfile, "profile", "p", "", "search profile")
	f.StringVarP(&probeCodec, "codec", "c", "", "lossy codec (overrides profile)")
	f.IntVarP(&probeSteps, "steps", "s", pipeline.DefaultProbeSteps, "number of qualities sampled (max 1001)")
	f.IntVarP(&probeWorkers, "workers", "w", 0, "parallel encodes (0 = NumCPU)")
	f.Float64VarP(&probeTarget, "target", "t", 0, "mark the sample closest to this size in KB")
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	prof := resolveProfile(probeProfile)
	if cmd.Flags().Changed("codec") {
		prof.Codec = probeCodec
	}

	curve, err := pipeline.Probe(cmd.Context(), pipeline.ProbeConfig{
		InputPath: args[0],
		Profile:   prof,
		Steps:     probeSteps,
		Workers:   probeWorkers,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("probe: %w", err)
	}

	closest := -1.0
	if probeTarget > 0 {
		targetBytes, err := pipeline.KilobytesToBytes(probeTarget)
		if err != nil {
			return err
		}
		if s, ok := curve.Closest(targetBytes); ok {
			closest = s.Quality
		}
	}
	printCurve(cmd.OutOrStdout(), curve, closest)
	return nil
}

func printCurve(w io.Writer, c *pipeline.Curve, closest float64) {
	src := c.Source
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Source:  %dx%d %s, %s\n", src.Width, src.Height, src.Format, formatBytes(src.Size))
	fmt.Fprintf(w, "  Codec:   %s\n", c.Codec)
	fmt.Fprintln(w)

	inverted := map[int]bool{}
	for _, i := range c.Inversions {
		inverted[i] = true
	}
	maxSize := 1
	for _, s := range c.Samples {
		if s.Size > maxSize {
			maxSize = s.Size
		}
	}

	fmt.Fprintln(w, "  quality      size")
	for i, s := range c.Samples {
		bar := strings.Repeat("█", s.Size*30/maxSize)
		mark := ""
		if inverted[i] {
			mark += "  ⚠ smaller than previous"
		}
		if s.Quality == closest {
			mark += "  ← closest to target"
		}
		fmt.Fprintf(w, "    %.3f  %9s  %s%s\n", s.Quality, formatBytes(int64(s.Size)), bar, mark)
	}
	fmt.Fprintln(w)

	if c.Monotonic() {
		fmt.Fprintln(w, "  ✓ Size is monotonic in quality; bisection is reliable for this image")
	} else {
		fmt.Fprintf(w, "  ⚠ %d inversion(s); consider --strategy bisect-scan\n", len(c.Inversions))
	}
	fmt.Fprintln(w)
}
