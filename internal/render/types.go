// Package render executes the storyreel-render CLI as a subprocess to turn
// a timeline plan into an MP4, with structured result parsing.
package render

import "time"

// Capabilities represents what the installed renderer can do, as reported
// by the `doctor --json` command.
type Capabilities struct {
	RendererVersion string             `json:"renderer_version"`
	Executables     map[string]DepInfo `json:"executables"`
	Encoders        map[string]DepInfo `json:"encoders"`
	Summary         SummaryInfo        `json:"summary"`

	HasVideo    bool      `json:"-"`
	HasAudio    bool      `json:"-"`
	HasCaptions bool      `json:"-"`
	ProbedAt    time.Time `json:"-"`
}

// DepInfo represents the availability status of a single dependency.
type DepInfo struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Path      string `json:"path,omitempty"`
	Error     string `json:"error,omitempty"`
}

// SummaryInfo summarises overall dependency status.
type SummaryInfo struct {
	Available int  `json:"available"`
	Total     int  `json:"total"`
	AllOK     bool `json:"all_ok"`
}

// RunResult is the structured outcome of executing a renderer subprocess.
type RunResult struct {
	ExitCode   int           `json:"exit_code"`
	OutputPath string        `json:"output_path,omitempty"` // path to the --out video file
	ReportPath string        `json:"report_path,omitempty"` // path to the render report JSON
	StderrTail string        `json:"stderr_tail,omitempty"` // last N bytes of stderr
	Duration   time.Duration `json:"duration"`
}

// IsSuccess returns true when the subprocess exited cleanly.
func (r RunResult) IsSuccess() bool { return r.ExitCode == 0 }

// RenderReport is the metadata manifest the renderer writes alongside the
// video. The agent validates its required fields before reporting success.
type RenderReport struct {
	SchemaVersion   string `json:"schema_version"`
	RendererVersion string `json:"renderer_version"`
	Encoder         string `json:"encoder"`
	FrameCount      int    `json:"frame_count,omitempty"`
	DurationMs      int    `json:"duration_ms,omitempty"`
}

// RequiredFieldsPresent checks the hard invariants the agent enforces.
func (r RenderReport) RequiredFieldsPresent() bool {
	return r.SchemaVersion != "" && r.RendererVersion != "" && r.Encoder != ""
}
