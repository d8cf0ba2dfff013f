package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv(EnvDataDir, t.TempDir())
	os.Unsetenv(EnvPort)
	os.Unsetenv(EnvLogLevel)
	os.Unsetenv(EnvCloudBaseURL)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != DefaultPort {
		t.Errorf("Port() = %d, want %d", cfg.Port(), DefaultPort)
	}
	if cfg.LogLevel() != DefaultLogLevel {
		t.Errorf("LogLevel() = %q, want %q", cfg.LogLevel(), DefaultLogLevel)
	}
	if cfg.CloudBaseURL() != "" {
		t.Errorf("default CloudBaseURL = %q, want empty", cfg.CloudBaseURL())
	}
	if cfg.RenderFPS() != DefaultRenderFPS {
		t.Errorf("RenderFPS() = %d, want %d", cfg.RenderFPS(), DefaultRenderFPS)
	}
	if cfg.VoiceID() != "" {
		t.Errorf("default VoiceID = %q, want empty", cfg.VoiceID())
	}
}

func TestNew_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvDataDir, dir)
	t.Setenv(EnvPort, "9911")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvCloudBaseURL, "https://api.storyreel.example")
	t.Setenv(EnvCloudToken, "tok-123")

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != 9911 {
		t.Errorf("Port() = %d, want 9911", cfg.Port())
	}
	if cfg.LogLevel() != "debug" {
		t.Errorf("LogLevel() = %q, want debug", cfg.LogLevel())
	}
	if cfg.DataDir() != dir {
		t.Errorf("DataDir() = %q, want %q", cfg.DataDir(), dir)
	}
	if cfg.DBPath() != filepath.Join(dir, DBFilename) {
		t.Errorf("DBPath() = %q", cfg.DBPath())
	}
	if cfg.CloudBaseURL() != "https://api.storyreel.example" {
		t.Errorf("CloudBaseURL() = %q", cfg.CloudBaseURL())
	}
	if cfg.CloudToken() != "tok-123" {
		t.Errorf("CloudToken() = %q", cfg.CloudToken())
	}
}

func TestNew_InvalidPort(t *testing.T) {
	t.Setenv(EnvDataDir, t.TempDir())

	for _, port := range []string{"abc", "0", "70000"} {
		t.Setenv(EnvPort, port)
		if _, err := New(); err == nil {
			t.Errorf("expected error for port %q", port)
		}
	}
}

func TestNew_SettingsFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvDataDir, dir)
	os.Unsetenv(EnvPort)

	settings := []byte("render:\n  fps: 24\n  width: 1920\n  height: 1080\nvoice:\n  id: narrator-2\n")
	if err := os.WriteFile(filepath.Join(dir, SettingsFilename), settings, 0644); err != nil {
		t.Fatalf("failed to write settings: %v", err)
	}

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RenderFPS() != 24 {
		t.Errorf("RenderFPS() = %d, want 24", cfg.RenderFPS())
	}
	if cfg.RenderWidth() != 1920 {
		t.Errorf("RenderWidth() = %d, want 1920", cfg.RenderWidth())
	}
	if cfg.RenderHeight() != 1080 {
		t.Errorf("RenderHeight() = %d, want 1080", cfg.RenderHeight())
	}
	if cfg.VoiceID() != "narrator-2" {
		t.Errorf("VoiceID() = %q, want narrator-2", cfg.VoiceID())
	}
}

func TestNew_MalformedSettingsFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvDataDir, dir)
	os.Unsetenv(EnvPort)

	if err := os.WriteFile(filepath.Join(dir, SettingsFilename), []byte("render: [not a map"), 0644); err != nil {
		t.Fatalf("failed to write settings: %v", err)
	}

	if _, err := New(); err == nil {
		t.Fatal("expected error for malformed settings file")
	}
}

func TestSettings_PartialFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvDataDir, dir)
	os.Unsetenv(EnvPort)

	if err := os.WriteFile(filepath.Join(dir, SettingsFilename), []byte("render:\n  fps: 60\n"), 0644); err != nil {
		t.Fatalf("failed to write settings: %v", err)
	}

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RenderFPS() != 60 {
		t.Errorf("RenderFPS() = %d, want 60", cfg.RenderFPS())
	}
	if cfg.RenderWidth() != DefaultRenderWidth {
		t.Errorf("RenderWidth() = %d, want default %d", cfg.RenderWidth(), DefaultRenderWidth)
	}
}
