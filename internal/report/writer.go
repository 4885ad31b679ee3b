package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/AnyUserName/sizefit/internal/search"
	"github.com/klauspost/compress/gzip"
)

// New creates an empty report with defaults.
func New(profileName, codec string) *Report {
	return &Report{
		Version:     SupportedVersion,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Profile:     profileName,
		Codec:       codec,
	}
}

// SetTrace copies the search probes into the report.
func (r *Report) SetTrace(trace []search.Probe) {
	r.Trace = make([]Probe, 0, len(trace))
	for _, p := range trace {
		r.Trace = append(r.Trace, Probe{
			Iteration: p.Iteration,
			Quality:   float64(p.Quality),
			Size:      p.Size,
			Low:       float64(p.Low),
			High:      float64(p.High),
			Best:      p.Best,
		})
	}
}

// WriteJSON serializes the report to path. Paths ending in ".gz" are
// gzip-compressed.
func WriteJSON(r *Report, path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if strings.HasSuffix(path, ".gz") {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return fmt.Errorf("gzip report: %w", err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("gzip report: %w", err)
		}
		data = buf.Bytes()
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadJSON loads a report written by WriteJSON. Unknown fields are ignored.
func ReadJSON(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rd io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("gunzip report: %w", err)
		}
		defer zr.Close()
		rd = zr
	}

	var r Report
	if err := json.NewDecoder(rd).Decode(&r); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	return &r, nil
}
