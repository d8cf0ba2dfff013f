package export

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/storyreel/storyreel-agent/internal/storyboard"
)

type fakeResolver struct {
	failURLs map[string]bool
}

func (f *fakeResolver) Fetch(rawURL string) (string, error) {
	if f.failURLs[rawURL] {
		return "", fmt.Errorf("download failed")
	}
	return "/cache/" + filepath.Base(rawURL), nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func testExportScenes() []storyboard.Scene {
	return []storyboard.Scene{
		{ID: "s1", Content: "The castle gates opened at dawn", Duration: 5.0, ImageURL: "https://cdn.example.com/s1.png"},
		{ID: "s2", Content: "A rider crossed the bridge", Duration: 3.5, ImageURL: "https://cdn.example.com/s2.png"},
	}
}

func TestExport_WritesEDL(t *testing.T) {
	dir := t.TempDir()
	exp := NewExporter(&fakeResolver{}, testLogger())

	resp, err := exp.Export(ExportRequest{
		ProjectID: "p1",
		Format:    FormatEDL,
		FrameRate: 30.0,
		OutputDir: dir,
	}, "My Storyboard", testExportScenes())
	if err != nil {
		t.Fatalf("Export error: %v", err)
	}

	if resp.Status != StatusCompleted {
		t.Errorf("Status = %q, want %q", resp.Status, StatusCompleted)
	}
	if resp.ClipCount != 2 {
		t.Errorf("ClipCount = %d, want 2", resp.ClipCount)
	}
	if len(resp.UnresolvedClips) != 0 {
		t.Errorf("UnresolvedClips = %v, want none", resp.UnresolvedClips)
	}
	if resp.OutputPath != filepath.Join(dir, "My Storyboard.edl") {
		t.Errorf("OutputPath = %q", resp.OutputPath)
	}

	data, err := os.ReadFile(resp.OutputPath)
	if err != nil {
		t.Fatalf("EDL file not written: %v", err)
	}
	edl := string(data)
	if !strings.Contains(edl, "TITLE: My Storyboard") {
		t.Errorf("missing title in EDL: %q", edl)
	}
	if !strings.Contains(edl, "* MEDIA PATH:  /cache/s1.png") {
		t.Errorf("missing first media path: %q", edl)
	}
	// Second clip records after the first 5s scene.
	if !strings.Contains(edl, "002  AX       V     C        00:00:00:00 00:00:03:15 00:00:05:00 00:00:08:15") {
		t.Errorf("second event line mismatch: %q", edl)
	}
}

func TestExport_UnresolvedScenes(t *testing.T) {
	dir := t.TempDir()
	resolver := &fakeResolver{failURLs: map[string]bool{"https://cdn.example.com/s2.png": true}}
	exp := NewExporter(resolver, testLogger())

	scenes := testExportScenes()
	scenes = append(scenes, storyboard.Scene{ID: "s3", Content: "No image yet", Duration: 2.0})

	resp, err := exp.Export(ExportRequest{OutputDir: dir}, "Partial", scenes)
	if err != nil {
		t.Fatalf("Export error: %v", err)
	}

	if resp.Status != StatusWithWarnings {
		t.Errorf("Status = %q, want %q", resp.Status, StatusWithWarnings)
	}
	if resp.ClipCount != 1 {
		t.Errorf("ClipCount = %d, want 1", resp.ClipCount)
	}
	if len(resp.UnresolvedClips) != 2 {
		t.Errorf("UnresolvedClips = %v, want 2 entries", resp.UnresolvedClips)
	}
}

func TestExport_AllUnresolved(t *testing.T) {
	dir := t.TempDir()
	exp := NewExporter(&fakeResolver{}, testLogger())

	_, err := exp.Export(ExportRequest{OutputDir: dir}, "Empty", []storyboard.Scene{
		{ID: "s1", Content: "draft scene", Duration: 5.0},
	})
	if err == nil {
		t.Fatal("expected error when no scene media resolves")
	}
}

func TestExport_NoScenes(t *testing.T) {
	dir := t.TempDir()
	exp := NewExporter(&fakeResolver{}, testLogger())

	_, err := exp.Export(ExportRequest{OutputDir: dir}, "Empty", nil)
	if err == nil {
		t.Fatal("expected error for empty scene list")
	}
}

func TestExport_UnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	exp := NewExporter(&fakeResolver{}, testLogger())

	_, err := exp.Export(ExportRequest{Format: "xml", OutputDir: dir}, "X", testExportScenes())
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		maxLen int
		want   string
	}{
		{name: "scene text passes through", in: "The castle gates (dawn), take-2", maxLen: 100, want: "The castle gates (dawn), take-2"},
		{name: "control chars dropped", in: " A\nB\rC\tD\x00 ", maxLen: 100, want: "ABCD"},
		{name: "disallowed replaced", in: "bad<>|\"name", maxLen: 100, want: "bad____name"},
		{name: "truncates to rune limit", in: "abcdefghijklmnop", maxLen: 10, want: "abcdefghij"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeName(tc.in, tc.maxLen); got != tc.want {
				t.Fatalf("SanitizeName(%q, %d) = %q, want %q", tc.in, tc.maxLen, got, tc.want)
			}
		})
	}
}

func TestValidateOutputDir(t *testing.T) {
	valid := t.TempDir()
	file := filepath.Join(valid, "not-a-dir.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	tests := []struct {
		name    string
		dir     string
		wantErr bool
	}{
		{name: "existing directory", dir: valid, wantErr: false},
		{name: "empty", dir: "", wantErr: true},
		{name: "missing", dir: filepath.Join(valid, "missing"), wantErr: true},
		{name: "traversal", dir: "/tmp/../etc", wantErr: true},
		{name: "regular file", dir: file, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateOutputDir(tc.dir)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ValidateOutputDir(%q) error = %v, wantErr %v", tc.dir, err, tc.wantErr)
			}
		})
	}
}

func TestExport_InvalidOutputDir(t *testing.T) {
	exp := NewExporter(&fakeResolver{}, testLogger())

	tests := []string{
		"",
		"/nonexistent/path/for/export",
		"../escape",
	}
	for _, dir := range tests {
		if _, err := exp.Export(ExportRequest{OutputDir: dir}, "X", testExportScenes()); err == nil {
			t.Errorf("expected error for output dir %q", dir)
		}
	}
}
