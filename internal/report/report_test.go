package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AnyUserName/sizefit/internal/hasher"
	"github.com/AnyUserName/sizefit/internal/search"
)

// sampleReport returns a consistent report whose result file lives in dir.
func sampleReport(t *testing.T, dir string) *Report {
	t.Helper()
	data := []byte(strings.Repeat("x", 293))
	if err := os.WriteFile(filepath.Join(dir, "photo.abcd1234.jpg"), data, 0o644); err != nil {
		t.Fatalf("write result: %v", err)
	}

	r := New("default", "jpeg")
	r.Strategy = "bisect"
	r.Epsilon = 0.01
	r.Source = SourceInfo{
		Path: "photo.png", Width: 800, Height: 600,
		Format: "png", PixelFormat: "nrgba", Size: 100000,
	}
	r.Target = TargetInfo{KB: 0.3, Bytes: 300}
	r.SetTrace([]search.Probe{
		{Iteration: 0, Quality: 0.5, Size: 500, Low: 0, High: 1, Best: true},
		{Iteration: 1, Quality: 0.245, Size: 245, Low: 0, High: 0.49, Best: true},
		{Iteration: 2, Quality: 0.2928125, Size: 293, Low: 0.255, High: 0.3303, Best: true},
	})
	r.Result = ResultInfo{
		Path:       "photo.abcd1234.jpg",
		Size:       293,
		Quality:    0.2928125,
		Distance:   7,
		Iterations: 3,
		Hash:       hasher.ContentHash(data, 16),
	}
	return r
}

func TestReportRoundtrip(t *testing.T) {
	for _, name := range []string{"report.json", "report.json.gz"} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			r := sampleReport(t, dir)
			path := filepath.Join(dir, name)
			if err := WriteJSON(r, path); err != nil {
				t.Fatalf("write: %v", err)
			}

			r2, err := ReadJSON(path)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if r2.Version != SupportedVersion {
				t.Errorf("version: got %d, want %d", r2.Version, SupportedVersion)
			}
			if r2.Profile != "default" || r2.Codec != "jpeg" {
				t.Errorf("profile/codec: got %q/%q", r2.Profile, r2.Codec)
			}
			if r2.Target.Bytes != 300 {
				t.Errorf("target bytes: got %d", r2.Target.Bytes)
			}
			if r2.Result.Quality != 0.2928125 {
				t.Errorf("quality: got %v", r2.Result.Quality)
			}
			if len(r2.Trace) != 3 || !r2.Trace[2].Best {
				t.Errorf("trace: got %+v", r2.Trace)
			}
			if errs := Validate(r2, dir); len(errs) != 0 {
				t.Errorf("round-tripped report invalid: %v", errs)
			}
		})
	}
}

func TestReportGzipIsCompressed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json.gz")
	if err := WriteJSON(sampleReport(t, dir), path); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(data) < 2 || data[0] != 0x1f || data[1] != 0x8b {
		t.Error("missing gzip magic")
	}
}

func TestReportIgnoresUnknownFields(t *testing.T) {
	raw := `{
		"version": 1,
		"generated_at": "2026-01-01T00:00:00Z",
		"profile": "test",
		"codec": "jpeg",
		"future_field": "should be ignored",
		"target": { "kb": 300, "bytes": 300000, "unit": "si" },
		"result": { "size": 299000, "quality": 0.7, "distance": 1000, "iterations": 7, "hash": "x" }
	}`

	var r Report
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		t.Fatalf("unmarshal with unknown fields: %v", err)
	}
	if r.Target.Bytes != 300000 || r.Result.Iterations != 7 {
		t.Errorf("fields not parsed: %+v", r)
	}
}

func TestValidate_DetectsProblems(t *testing.T) {
	dir := t.TempDir()

	cases := map[string]struct {
		mutate func(r *Report)
		want   string
	}{
		"version":  {func(r *Report) { r.Version = 9 }, "unsupported report version"},
		"quality":  {func(r *Report) { r.Result.Quality = 1.5 }, "outside [0, 1]"},
		"distance": {func(r *Report) { r.Result.Distance = 1 }, "distance mismatch"},
		"target":   {func(r *Report) { r.Target.Bytes = 301 }, "target mismatch"},
		"missing":  {func(r *Report) { r.Result.Path = "gone.jpg" }, "result file not found"},
		"size":     {func(r *Report) { r.Result.Size = 294; r.Result.Distance = 6 }, "size mismatch"},
		"hash":     {func(r *Report) { r.Result.Hash = "0000000000000000" }, "hash mismatch"},
		"trace":    {func(r *Report) { r.Trace[1].Best = false }, "closer than best"},
		"count":    {func(r *Report) { r.Result.Iterations = 5 }, "trace has 3 probes"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			r := sampleReport(t, dir)
			tc.mutate(r)
			errs := Validate(r, dir)
			found := false
			for _, e := range errs {
				if strings.Contains(e, tc.want) {
					found = true
				}
			}
			if !found {
				t.Errorf("want error containing %q, got %v", tc.want, errs)
			}
		})
	}
}

func TestValidate_WithoutBaseDirSkipsDisk(t *testing.T) {
	r := sampleReport(t, t.TempDir())
	r.Result.Path = "nowhere.jpg"
	if errs := Validate(r, ""); len(errs) != 0 {
		t.Errorf("unexpected errors: %v", errs)
	}
}
