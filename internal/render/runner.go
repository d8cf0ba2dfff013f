package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/storyreel/storyreel-agent/internal/renderplan"
)

const (
	maxStderrBytes = 8 * 1024 // 8 KB tail of stderr kept for diagnostics
)

// Runner executes renderer commands as subprocesses. It is the single
// implementation of the render execution contract used throughout the agent.
type Runner interface {
	// RunDoctor executes `storyreel-render doctor --json --out <path>` and
	// returns parsed capabilities.
	RunDoctor(ctx context.Context) (*Capabilities, error)

	// RunRender executes the renderer for a plan file, writing the video to
	// outPath and the render report next to it.
	RunRender(ctx context.Context, planPath, outPath string) (RunResult, error)

	// RenderPlan writes the plan JSON under the output dir and renders it.
	RenderPlan(ctx context.Context, plan *renderplan.Plan, baseName string) (RunResult, error)

	// ValidateReport reads a render report JSON and checks required fields.
	ValidateReport(path string) (*RenderReport, error)

	// OutputDir returns the base directory for rendered videos.
	OutputDir() string
}

// Config holds the runner's configuration.
type Config struct {
	BinaryPath    string        // path to the renderer binary; empty = auto-detect
	OutputBase    string        // base dir for outputs, e.g. ~/.storyreel/renders
	DoctorTimeout time.Duration // timeout for doctor command
	RenderTimeout time.Duration // timeout for a full render
	Logger        *slog.Logger
	DebugPaths    bool // if true, log full file paths; otherwise sanitise
}

// DefaultConfig returns production-ready defaults.
func DefaultConfig(dataDir string, logger *slog.Logger) Config {
	return Config{
		BinaryPath:    "", // auto-detect
		OutputBase:    filepath.Join(dataDir, "renders"),
		DoctorTimeout: 30 * time.Second,
		RenderTimeout: 30 * time.Minute,
		Logger:        logger,
		DebugPaths:    false,
	}
}

// SubprocessRunner is the production implementation of Runner.
type SubprocessRunner struct {
	cfg    Config
	binary string // resolved renderer path
}

// NewRunner creates a SubprocessRunner, resolving the renderer binary path.
func NewRunner(cfg Config) (*SubprocessRunner, error) {
	binary, err := resolveBinary(cfg.BinaryPath)
	if err != nil {
		return nil, fmt.Errorf("cannot locate renderer: %w", err)
	}

	if err := os.MkdirAll(cfg.OutputBase, 0755); err != nil {
		return nil, fmt.Errorf("cannot create renders dir: %w", err)
	}

	cfg.Logger.Info("render runner initialised",
		"binary", binary,
		"renders_dir", cfg.OutputBase,
	)

	return &SubprocessRunner{cfg: cfg, binary: binary}, nil
}

func (r *SubprocessRunner) OutputDir() string {
	return r.cfg.OutputBase
}

// RunDoctor probes the installed renderer environment.
func (r *SubprocessRunner) RunDoctor(ctx context.Context) (*Capabilities, error) {
	outPath := filepath.Join(r.cfg.OutputBase, ".doctor.json")

	ctx, cancel := context.WithTimeout(ctx, r.cfg.DoctorTimeout)
	defer cancel()

	result := r.exec(ctx, outPath, "doctor", "--json", "--out", outPath)
	if !result.IsSuccess() {
		return nil, fmt.Errorf("doctor exited %d: %s", result.ExitCode, result.StderrTail)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read doctor output: %w", err)
	}

	var caps Capabilities
	if err := json.Unmarshal(data, &caps); err != nil {
		return nil, fmt.Errorf("cannot parse doctor JSON: %w", err)
	}

	// Derive capability flags
	caps.HasVideo = isAvailable(caps.Executables, "ffmpeg") &&
		isAvailable(caps.Encoders, "h264")
	caps.HasAudio = isAvailable(caps.Encoders, "aac")
	caps.HasCaptions = isAvailable(caps.Executables, "fontconfig")
	caps.ProbedAt = time.Now()

	r.cfg.Logger.Info("doctor probe complete",
		"video", caps.HasVideo,
		"audio", caps.HasAudio,
		"captions", caps.HasCaptions,
		"deps_available", caps.Summary.Available,
		"deps_total", caps.Summary.Total,
	)

	return &caps, nil
}

// RunRender runs the renderer CLI for an existing plan file.
func (r *SubprocessRunner) RunRender(ctx context.Context, planPath, outPath string) (RunResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.RenderTimeout)
	defer cancel()

	reportPath := outPath + ".report.json"
	result := r.exec(ctx, outPath,
		"render",
		"--plan", planPath,
		"--out", outPath,
		"--report", reportPath,
	)
	result.ReportPath = reportPath
	return result, nil
}

// RenderPlan serialises the plan into the output dir and renders it.
// baseName names both the plan file and the video, e.g. a project ID.
func (r *SubprocessRunner) RenderPlan(ctx context.Context, plan *renderplan.Plan, baseName string) (RunResult, error) {
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return RunResult{ExitCode: -1}, fmt.Errorf("cannot encode render plan: %w", err)
	}

	planPath := filepath.Join(r.cfg.OutputBase, baseName+".plan.json")
	if err := os.WriteFile(planPath, data, 0644); err != nil {
		return RunResult{ExitCode: -1}, fmt.Errorf("cannot write render plan: %w", err)
	}

	outPath := filepath.Join(r.cfg.OutputBase, baseName+".mp4")
	return r.RunRender(ctx, planPath, outPath)
}

// ValidateReport reads a render report JSON and checks required metadata fields.
func (r *SubprocessRunner) ValidateReport(path string) (*RenderReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read report file %s: %w", r.safePath(path), err)
	}

	var report RenderReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("cannot parse report JSON: %w", err)
	}

	if !report.RequiredFieldsPresent() {
		missing := []string{}
		if report.SchemaVersion == "" {
			missing = append(missing, "schema_version")
		}
		if report.RendererVersion == "" {
			missing = append(missing, "renderer_version")
		}
		if report.Encoder == "" {
			missing = append(missing, "encoder")
		}
		return &report, fmt.Errorf("render report missing required fields: %s", strings.Join(missing, ", "))
	}

	return &report, nil
}

// exec is the core subprocess execution helper.
func (r *SubprocessRunner) exec(ctx context.Context, outPath string, args ...string) RunResult {
	start := time.Now()

	// Ensure output directory exists
	if outPath != "" {
		if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
			r.cfg.Logger.Error("cannot create output dir", "error", err)
			return RunResult{ExitCode: -1, StderrTail: err.Error(), Duration: time.Since(start)}
		}
	}

	cmd := exec.CommandContext(ctx, r.binary, args...)

	// Capture stderr with bounded buffer
	var stderrBuf bytes.Buffer
	cmd.Stderr = io.Writer(&limitedWriter{w: &stderrBuf, limit: maxStderrBytes})
	cmd.Stdout = io.Discard // CLI writes to --out file, not stdout

	r.cfg.Logger.Info("executing render command", "args", args)

	err := cmd.Run()
	elapsed := time.Since(start)

	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}

	stderrTail := stderrBuf.String()

	if exitCode != 0 {
		r.cfg.Logger.Warn("render command failed",
			"exit_code", exitCode,
			"duration_ms", elapsed.Milliseconds(),
			"stderr_tail", truncate(stderrTail, 512),
		)
	} else {
		r.cfg.Logger.Info("render command succeeded",
			"duration_ms", elapsed.Milliseconds(),
			"output", r.safePath(outPath),
		)
	}

	return RunResult{
		ExitCode:   exitCode,
		OutputPath: outPath,
		StderrTail: stderrTail,
		Duration:   elapsed,
	}
}

func (r *SubprocessRunner) safePath(path string) string {
	if r.cfg.DebugPaths {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Base(path)
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return filepath.Base(path)
}

// resolveBinary finds a usable renderer binary.
func resolveBinary(preferred string) (string, error) {
	if preferred != "" {
		if p, err := exec.LookPath(preferred); err == nil {
			return p, nil
		}
		return "", fmt.Errorf("configured renderer %q not found", preferred)
	}
	if p, err := exec.LookPath("storyreel-render"); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("storyreel-render not found on PATH")
}

func isAvailable(deps map[string]DepInfo, name string) bool {
	d, ok := deps[name]
	return ok && d.Available
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return "..." + s[len(s)-maxLen:]
}

// limitedWriter is an io.Writer that keeps only the last `limit` bytes.
type limitedWriter struct {
	w     *bytes.Buffer
	limit int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	lw.w.Write(p)
	if lw.w.Len() > lw.limit {
		// Keep only the tail
		b := lw.w.Bytes()
		lw.w.Reset()
		lw.w.Write(b[len(b)-lw.limit:])
	}
	return n, nil
}
