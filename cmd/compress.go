package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/AnyUserName/sizefit/internal/pipeline"
	"github.com/AnyUserName/sizefit/internal/report"
	"github.com/spf13/cobra"
)

var (
	compressTarget     float64
	compressOut        string
	compressOutDir     string
	compressProfile    string
	compressCodec      string
	compressEpsilon    float64
	compressStrategy   string
	compressReport     string
	compressTrace      bool
	compressNoProgress bool
	compressAutoOrient bool
	compressBackground string
)

var compressCmd = &cobra.Command{
	Use:   "compress <input>",
	Short: "Re-encode an image as close as possible to a target size",
	Long: `Decodes the input (png, jpg, jpeg, webp, gif, bmp, tiff), then
bisects the codec quality in [0, 1] until the encoded size brackets the
target. The closest candidate is written out.

Without --out the file is content-addressed: <name>.<hash>.<ext>.`,
	Args: cobra.ExactArgs(1),
	RunE: runCompress,
}

func init() {
	f := compressCmd.Flags()
	f.Float64VarP(&compressTarget, "target", "t", 300, "target size in KB (1 KB = 1000 bytes)")
	f.StringVarP(&compressOut, "out", "o", "", "output file (default <input dir>/<name>.<hash>.<ext>)")
	f.StringVar(&compressOutDir, "out-dir", "", "directory for the content-addressed output")
	f.StringVarP(&compressProfile, "profile", "p", "", "search profile (default from config, else \"default\")")
	f.StringVarP(&compressCodec, "codec", "c", "", "lossy codec: jpeg, webp, avif (overrides profile)")
	f.Float64Var(&compressEpsilon, "epsilon", 0, "bisection step (overrides profile)")
	f.StringVar(&compressStrategy, "strategy", "", "bisect or bisect-scan (overrides profile)")
	f.StringVar(&compressReport, "report", "", "write a JSON run report (.gz to compress)")
	f.BoolVar(&compressTrace, "trace", false, "include every probe in the report")
	f.BoolVar(&compressNoProgress, "no-progress", false, "disable the progress bar")
	f.BoolVar(&compressAutoOrient, "auto-orient", true, "apply EXIF orientation before encoding")
	f.StringVar(&compressBackground, "background", "", "fill color for transparency, #rrggbb or none (overrides profile)")
	rootCmd.AddCommand(compressCmd)
}

func runCompress(cmd *cobra.Command, args []string) error {
	start := time.Now()

	// Resolve profile, then apply flag overrides.
	prof := resolveProfile(compressProfile)
	flags := cmd.Flags()
	if flags.Changed("codec") {
		prof.Codec = compressCodec
	}
	if flags.Changed("epsilon") {
		prof.Epsilon = compressEpsilon
	}
	if flags.Changed("strategy") {
		prof.Strategy = compressStrategy
	}
	if flags.Changed("auto-orient") {
		prof.AutoOrient = compressAutoOrient
	}
	if flags.Changed("background") {
		prof.Background = compressBackground
	}

	input := args[0]
	logger.Debug("compress",
		"input", input,
		"target_kb", compressTarget,
		"profile", prof.Name,
		"codec", prof.Codec,
		"epsilon", prof.Epsilon,
		"strategy", prof.Strategy,
	)

	bar := newProgressBar(os.Stderr, !compressNoProgress)
	p := pipeline.New(pipeline.Config{
		InputPath:  input,
		OutputPath: compressOut,
		OutputDir:  compressOutDir,
		ReportPath: compressReport,
		TargetKB:   compressTarget,
		Profile:    prof,
		Trace:      compressTrace,
		OnProgress: bar.Update,
		Logger:     logger,
	})

	r, err := p.Run(cmd.Context())
	bar.Finish(err == nil)
	if err != nil {
		return fmt.Errorf("compress %s: %w", filepath.Base(input), err)
	}

	printCompressReport(cmd.OutOrStdout(), r, time.Since(start))
	return nil
}

func printCompressReport(w io.Writer, r *report.Report, elapsed time.Duration) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "╔══════════════════════════════════════════════════╗")
	fmt.Fprintln(w, "║             sizefit compress complete            ║")
	fmt.Fprintln(w, "╚══════════════════════════════════════════════════╝")
	fmt.Fprintln(w)

	src, res := r.Source, r.Result
	pct := float64(0)
	if r.Target.Bytes > 0 {
		pct = float64(res.Distance) / float64(r.Target.Bytes) * 100
	}
	ratio := float64(0)
	if src.Size > 0 {
		ratio = float64(res.Size) / float64(src.Size) * 100
	}

	fmt.Fprintf(w, "  Source:      %s (%dx%d %s, %s)\n",
		truncPath(src.Path, 40), src.Width, src.Height, src.Format, formatBytes(src.Size))
	fmt.Fprintf(w, "  Target:      %s (%d B)\n", formatBytes(int64(r.Target.Bytes)), r.Target.Bytes)
	fmt.Fprintf(w, "  Output:      %s (%s, %d B)\n",
		truncPath(res.Path, 40), formatBytes(int64(res.Size)), res.Size)
	fmt.Fprintf(w, "  Distance:    %d B (%.2f%% of target)\n", res.Distance, pct)
	fmt.Fprintf(w, "  Quality:     %.4f (%s)\n", res.Quality, r.Codec)
	fmt.Fprintf(w, "  Ratio:       %.1f%% of original\n", ratio)
	fmt.Fprintf(w, "  Probes:      %d (%s, epsilon %g)\n", res.Iterations, r.Strategy, r.Epsilon)
	fmt.Fprintf(w, "  Time:        %s\n", elapsed.Round(time.Millisecond))
	if compressReport != "" {
		fmt.Fprintf(w, "  Report:      %s\n", compressReport)
	}
	fmt.Fprintln(w)
}
