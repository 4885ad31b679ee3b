package pipeline

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/AnyUserName/sizefit/internal/encoder"
	"github.com/AnyUserName/sizefit/internal/hasher"
	"github.com/AnyUserName/sizefit/internal/imageio"
	"github.com/AnyUserName/sizefit/internal/profile"
	"github.com/AnyUserName/sizefit/internal/report"
	"github.com/AnyUserName/sizefit/internal/search"
)

// Config holds all parameters for a single compress run.
type Config struct {
	InputPath string
	// OutputPath is the file to write. When empty the output is written
	// next to the input (or into OutputDir) as <stem>.<hash>.<ext>.
	OutputPath string
	OutputDir  string
	// ReportPath, when set, receives the JSON run report.
	ReportPath string

	TargetKB float64
	Profile  profile.Profile
	// Trace keeps every probe of the search in the report.
	Trace bool

	OnProgress search.ProgressFunc
	Logger     *slog.Logger
}

// Pipeline wires decode, codec, search and output for one image.
type Pipeline struct {
	cfg      Config
	registry *encoder.Registry
}

// New creates a configured pipeline.
func New(cfg Config) *Pipeline {
	cfg.Logger = orDiscard(cfg.Logger)
	return &Pipeline{
		cfg:      cfg,
		registry: encoder.NewRegistry(),
	}
}

// KilobytesToBytes converts a user-facing KB value (1 KB = 1000 bytes).
func KilobytesToBytes(kb float64) (int, error) {
	if math.IsNaN(kb) || math.IsInf(kb, 0) || kb <= 0 {
		return 0, fmt.Errorf("%w: %v KB", search.ErrInvalidTarget, kb)
	}
	b := math.Round(kb * 1000)
	if b < 1 || b > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %v KB", search.ErrInvalidTarget, kb)
	}
	return int(b), nil
}

// EncodeFunc adapts a codec to the search.
func EncodeFunc(enc encoder.Encoder) search.EncodeFunc {
	return func(ctx context.Context, img image.Image, q search.Quality) ([]byte, error) {
		return enc.Encode(ctx, img, float64(q))
	}
}

// Run executes the compress run and returns its report. Nothing is written
// unless the search succeeds.
func (p *Pipeline) Run(ctx context.Context) (*report.Report, error) {
	cfg := p.cfg
	log := cfg.Logger
	prof := cfg.Profile

	if err := prof.Validate(); err != nil {
		return nil, err
	}
	enc, err := p.registry.Lookup(prof.Codec)
	if err != nil {
		return nil, err
	}
	log.Debug("codec resolved", "codec", enc.Format(), "registry", p.registry.String())

	targetBytes, err := KilobytesToBytes(cfg.TargetKB)
	if err != nil {
		return nil, err
	}

	src, err := decodeSource(cfg.InputPath, prof)
	if err != nil {
		return nil, err
	}
	log.Debug("source decoded",
		"path", cfg.InputPath,
		"format", src.Format,
		"pixel_format", src.PixelFormat,
		"width", src.Width,
		"height", src.Height,
		"size", src.Size,
		"alpha", src.HasAlpha,
	)

	scfg, err := prof.SearchConfig(targetBytes)
	if err != nil {
		return nil, err
	}
	scfg.OnProgress = cfg.OnProgress
	scfg.Logger = log

	res, err := search.Search(ctx, src.Image, targetBytes, EncodeFunc(enc), scfg)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	log.Debug("search done",
		"quality", float64(res.Quality),
		"size", res.Size,
		"target", targetBytes,
		"iterations", res.Iterations,
	)

	if src.Format == enc.Format() && int64(res.Size) >= src.Size {
		log.Warn("encoded output is not smaller than the input",
			"input", src.Size, "output", res.Size)
	}

	// Content hash for filename.
	contentHash := hasher.ContentHash(res.Bytes, 16)
	outPath := p.outputPath(enc, contentHash)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(outPath, res.Bytes, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", outPath, err)
	}

	r := report.New(prof.Name, enc.Format())
	r.Strategy = string(scfg.Strategy)
	r.Epsilon = prof.Epsilon
	r.Source = report.SourceInfo{
		Path:        cfg.InputPath,
		Width:       src.Width,
		Height:      src.Height,
		Format:      src.Format,
		PixelFormat: src.PixelFormat,
		Size:        src.Size,
		HasAlpha:    src.HasAlpha,
	}
	r.Target = report.TargetInfo{KB: cfg.TargetKB, Bytes: targetBytes}
	r.Result = report.ResultInfo{
		Path:       p.reportRelative(outPath),
		Size:       res.Size,
		Quality:    float64(res.Quality),
		Distance:   res.Distance,
		Iterations: res.Iterations,
		Hash:       contentHash,
	}
	if cfg.Trace {
		r.SetTrace(res.Trace)
	}

	if cfg.ReportPath != "" {
		if err := report.WriteJSON(r, cfg.ReportPath); err != nil {
			return nil, fmt.Errorf("write report: %w", err)
		}
		log.Debug("report written", "path", cfg.ReportPath)
	}
	return r, nil
}

func decodeSource(path string, prof profile.Profile) (*imageio.Source, error) {
	bg, err := prof.BackgroundColor()
	if err != nil {
		return nil, err
	}
	return imageio.DecodeFile(path, imageio.Options{AutoOrient: prof.AutoOrient, Background: bg})
}

// outputPath builds key.hash.ext unless an explicit path was given.
func (p *Pipeline) outputPath(enc encoder.Encoder, contentHash string) string {
	if p.cfg.OutputPath != "" {
		return p.cfg.OutputPath
	}
	dir := p.cfg.OutputDir
	if dir == "" {
		dir = filepath.Dir(p.cfg.InputPath)
	}
	base := filepath.Base(p.cfg.InputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, fmt.Sprintf("%s.%s.%s", stem, contentHash[:hasher.ShortLen], enc.Extension()))
}

// reportRelative expresses path relative to the report's directory so a
// report and its output can be moved together.
func (p *Pipeline) reportRelative(path string) string {
	if p.cfg.ReportPath == "" {
		return path
	}
	absReport, err1 := filepath.Abs(filepath.Dir(p.cfg.ReportPath))
	absPath, err2 := filepath.Abs(path)
	if err1 != nil || err2 != nil {
		return path
	}
	rel, err := filepath.Rel(absReport, absPath)
	if err != nil {
		return absPath
	}
	return filepath.ToSlash(rel)
}

func orDiscard(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
