package api

import (
	"time"

	"github.com/storyreel/storyreel-agent/internal/project"
	"github.com/storyreel/storyreel-agent/internal/storyboard"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	DeviceID string `json:"device_id"`
}

type StatusResponse struct {
	State         string                  `json:"state"`
	LastError     string                  `json:"last_error,omitempty"`
	ProjectsCount int                     `json:"projects_count"`
	JobsRunning   int                     `json:"jobs_running"`
	ActiveJob     *JobResponse            `json:"active_job,omitempty"`
	Renderer      *RendererStatusResponse `json:"renderer,omitempty"`
}

type RendererStatusResponse struct {
	HasVideo    bool   `json:"has_video"`
	HasAudio    bool   `json:"has_audio"`
	HasCaptions bool   `json:"has_captions"`
	LastProbeAt string `json:"last_probe_at,omitempty"`
	DepsAvail   int    `json:"deps_available"`
	DepsTotal   int    `json:"deps_total"`
}

type CreateProjectRequest struct {
	Title  string `json:"title"`
	Script string `json:"script"`
}

type ProjectResponse struct {
	ID                string             `json:"id"`
	Title             string             `json:"title"`
	Script            string             `json:"script"`
	Status            string             `json:"status"`
	Scenes            []storyboard.Scene `json:"scenes"`
	VoiceOverURL      string             `json:"voice_over_url,omitempty"`
	VoiceOverDuration float64            `json:"voice_over_duration,omitempty"`
	CreatedAt         string             `json:"created_at"`
	UpdatedAt         string             `json:"updated_at"`
}

type ProjectsResponse struct {
	Projects []ProjectResponse `json:"projects"`
}

// TimelineStateResponse is the playback-clock snapshot the editor polls.
type TimelineStateResponse struct {
	Scenes        []storyboard.Scene `json:"scenes"`
	CurrentTime   float64            `json:"current_time"`
	TotalDuration float64            `json:"total_duration"`
	SelectedIndex int                `json:"selected_index"`
	Playing       bool               `json:"playing"`
	Trimming      bool               `json:"trimming"`
}

type SelectSceneRequest struct {
	Index int  `json:"index"`
	Force bool `json:"force"`
}

type SeekRequest struct {
	Time float64 `json:"time"`
}

type UpdateSceneRequest struct {
	Scene storyboard.Scene `json:"scene"`
}

type TrimBeginRequest struct {
	Index          int     `json:"index"`
	Handle         string  `json:"handle"`
	ThumbnailWidth float64 `json:"thumbnail_width"`
}

type TrimMoveRequest struct {
	DeltaPixels float64 `json:"delta_pixels"`
}

type TrimEndResponse struct {
	SceneIndex int     `json:"scene_index"`
	Handle     string  `json:"handle"`
	Duration   float64 `json:"duration"`
}

type ApplyCaptionsRequest struct {
	Captions          string  `json:"captions"`
	VoiceOverDuration float64 `json:"voice_over_duration"`
}

type EnqueueJobRequest struct {
	Type string `json:"type"`
}

type JobResponse struct {
	ID         string `json:"id"`
	ProjectID  string `json:"project_id"`
	Type       string `json:"type"`
	Status     string `json:"status"`
	TrackingID string `json:"tracking_id,omitempty"`
	Attempts   int    `json:"attempts"`
	Error      string `json:"error,omitempty"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

type RenderSubmitResponse struct {
	Status     string `json:"status"`
	OutputPath string `json:"output_path"`
	ReportPath string `json:"report_path,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func ProjectToResponse(p *project.Project) ProjectResponse {
	return ProjectResponse{
		ID:                p.ID,
		Title:             p.Title,
		Script:            p.Script,
		Status:            p.Status,
		Scenes:            p.Scenes,
		VoiceOverURL:      p.VoiceOverURL,
		VoiceOverDuration: p.VoiceOverDuration,
		CreatedAt:         p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         p.UpdatedAt.Format(time.RFC3339),
	}
}

func JobToResponse(j *project.Job) JobResponse {
	return JobResponse{
		ID:         j.ID,
		ProjectID:  j.ProjectID,
		Type:       j.Type,
		Status:     j.Status,
		TrackingID: j.TrackingID,
		Attempts:   j.Attempts,
		Error:      j.Error,
		CreatedAt:  j.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  j.UpdatedAt.Format(time.RFC3339),
	}
}

func StateToResponse(st storyboard.State) TimelineStateResponse {
	return TimelineStateResponse{
		Scenes:        st.Scenes,
		CurrentTime:   st.CurrentTime,
		TotalDuration: st.TotalDuration,
		SelectedIndex: st.SelectedIndex,
		Playing:       st.Playing,
		Trimming:      st.Trimming,
	}
}
