package export

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/storyreel/storyreel-agent/internal/storyboard"
)

const (
	StatusCompleted    = "completed"
	StatusWithWarnings = "completed_with_warnings"

	maxClipNameLen = 40
	maxTitleLen    = 120
)

// MediaResolver maps a remote asset URL to a local media path. The assets
// cache satisfies this.
type MediaResolver interface {
	Fetch(rawURL string) (string, error)
}

type Exporter struct {
	resolver MediaResolver
	logger   *slog.Logger
}

func NewExporter(resolver MediaResolver, logger *slog.Logger) *Exporter {
	return &Exporter{resolver: resolver, logger: logger}
}

// Export writes an EDL for the given scene sequence into req.OutputDir.
// Scenes whose image cannot be resolved locally are skipped and reported
// in UnresolvedClips rather than failing the whole export.
func (e *Exporter) Export(req ExportRequest, title string, scenes []storyboard.Scene) (*ExportResponse, error) {
	if req.Format != "" && req.Format != FormatEDL {
		return nil, fmt.Errorf("unsupported export format %q", req.Format)
	}
	if err := ValidateOutputDir(req.OutputDir); err != nil {
		return nil, err
	}
	if len(scenes) == 0 {
		return nil, fmt.Errorf("project has no scenes to export")
	}

	frameRate := req.FrameRate
	if frameRate <= 0 {
		frameRate = 30.0
	}

	clips, unresolved := e.resolveClips(scenes)
	if len(clips) == 0 {
		return nil, fmt.Errorf("no scene media could be resolved")
	}

	name := SanitizeName(title, maxTitleLen)
	if name == "" {
		name = "storyboard"
	}
	outputPath := filepath.Join(req.OutputDir, name+".edl")

	edl := GenerateEDL(clips, title, frameRate)
	if err := os.WriteFile(outputPath, []byte(edl), 0644); err != nil {
		return nil, fmt.Errorf("failed to write EDL: %w", err)
	}

	status := StatusCompleted
	if len(unresolved) > 0 {
		status = StatusWithWarnings
	}

	e.logger.Info("timeline exported",
		"format", FormatEDL,
		"clips", len(clips),
		"unresolved", len(unresolved),
	)

	return &ExportResponse{
		Status:          status,
		Format:          FormatEDL,
		OutputPath:      outputPath,
		ClipCount:       len(clips),
		UnresolvedClips: unresolved,
	}, nil
}

// resolveClips turns scenes into EDL clips. Each scene's still image plays
// for the scene duration, so source times run 0..duration within the clip.
func (e *Exporter) resolveClips(scenes []storyboard.Scene) ([]ResolvedClip, []string) {
	clips := make([]ResolvedClip, 0, len(scenes))
	var unresolved []string

	for i, s := range scenes {
		name := SanitizeName(s.Content, maxClipNameLen)
		if name == "" {
			name = fmt.Sprintf("Scene %d", i+1)
		}

		if s.ImageURL == "" {
			unresolved = append(unresolved, name)
			continue
		}

		mediaPath, err := e.resolver.Fetch(s.ImageURL)
		if err != nil {
			e.logger.Warn("scene media unavailable for export", "scene_id", s.ID, "error", err)
			unresolved = append(unresolved, name)
			continue
		}

		clips = append(clips, ResolvedClip{
			SceneID:    s.ID,
			ClipName:   name,
			MediaPath:  mediaPath,
			DurationMs: int(math.Round(s.Duration * 1000)),
		})
	}

	return clips, unresolved
}

// SanitizeName strips control characters and replaces anything outside a
// conservative filename alphabet, then truncates to maxLen runes. Scene
// text and project titles both pass through here before reaching disk.
func SanitizeName(s string, maxLen int) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsControl(r):
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case strings.ContainsRune(" -_.,()", r):
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	cleaned := strings.TrimSpace(b.String())
	if maxLen > 0 {
		if runes := []rune(cleaned); len(runes) > maxLen {
			cleaned = string(runes[:maxLen])
		}
	}
	return cleaned
}

// ValidateOutputDir refuses traversal segments and unclean paths before
// checking the directory exists. The export endpoint takes this path from
// the request body, so it is treated as hostile.
func ValidateOutputDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("output_dir is required")
	}

	for _, part := range strings.Split(filepath.ToSlash(dir), "/") {
		if part == ".." {
			return fmt.Errorf("output_dir cannot contain path traversal")
		}
	}
	if filepath.Clean(dir) != dir {
		return fmt.Errorf("output_dir must be clean path")
	}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("output_dir does not exist")
		}
		return fmt.Errorf("invalid output_dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output_dir is not a directory")
	}

	return nil
}
