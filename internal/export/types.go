// Package export writes a project's storyboard timeline as a CMX 3600 EDL
// so a cut can be refined in an external NLE.
package export

const FormatEDL = "edl"

type ExportRequest struct {
	ProjectID string  `json:"project_id"`
	Format    string  `json:"format"`
	FrameRate float64 `json:"frame_rate"`
	OutputDir string  `json:"output_dir"`
}

// ResolvedClip is one storyboard scene with its media resolved to a local
// path. Scenes are still images held for a duration, so a clip has no
// source in/out of its own; both source and record runs derive from the
// duration and the clip's position in the sequence.
type ResolvedClip struct {
	SceneID    string
	ClipName   string
	MediaPath  string
	DurationMs int
}

type ExportResponse struct {
	Status          string   `json:"status"`
	Format          string   `json:"format"`
	OutputPath      string   `json:"output_path"`
	ClipCount       int      `json:"clip_count"`
	UnresolvedClips []string `json:"unresolved_clips"`
}
