package report

// Report is the record of one compress run.
type Report struct {
	Version     int        `json:"version"`
	GeneratedAt string     `json:"generated_at"`
	Profile     string     `json:"profile"`
	Codec       string     `json:"codec"`
	Strategy    string     `json:"strategy"`
	Epsilon     float64    `json:"epsilon"`
	Source      SourceInfo `json:"source"`
	Target      TargetInfo `json:"target"`
	Result      ResultInfo `json:"result"`
	Trace       []Probe    `json:"trace,omitempty"`
}

// SourceInfo holds metadata about the input image.
type SourceInfo struct {
	Path        string `json:"path"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Format      string `json:"format"`
	PixelFormat string `json:"pixel_format"`
	Size        int64  `json:"size"`
	HasAlpha    bool   `json:"has_alpha"`
}

// TargetInfo is the requested size. KB is the user-facing value; Bytes is
// round(KB * 1000).
type TargetInfo struct {
	KB    float64 `json:"kb"`
	Bytes int     `json:"bytes"`
}

// ResultInfo describes the chosen encoding.
type ResultInfo struct {
	Path       string  `json:"path"`       // relative to the report's directory when possible
	Size       int     `json:"size"`       // bytes on disk
	Quality    float64 `json:"quality"`    // in [0, 1]
	Distance   int     `json:"distance"`   // |size - target.bytes|
	Iterations int     `json:"iterations"` // encode calls made
	Hash       string  `json:"hash"`       // 16 hex chars of xxhash64
}

// Probe is one encode call of the search.
type Probe struct {
	Iteration int     `json:"iteration"`
	Quality   float64 `json:"quality"`
	Size      int     `json:"size"`
	Low       float64 `json:"low"`
	High      float64 `json:"high"`
	Best      bool    `json:"best,omitempty"`
}

// SupportedVersion is the current schema version.
const SupportedVersion = 1
