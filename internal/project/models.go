// Package project manages storyboard projects: persistence, the live
// editing sessions and the background enrichment jobs that call the
// StoryReel SaaS.
package project

import (
	"time"

	"github.com/google/uuid"

	"github.com/storyreel/storyreel-agent/internal/storyboard"
)

const (
	ProjectStatusDraft     = "draft"
	ProjectStatusEnriching = "enriching"
	ProjectStatusReady     = "ready"
)

type Project struct {
	ID                string             `json:"id"`
	Title             string             `json:"title"`
	Script            string             `json:"script"`
	Status            string             `json:"status"`
	Scenes            []storyboard.Scene `json:"scenes"`
	VoiceOverURL      string             `json:"voice_over_url,omitempty"`
	VoiceOverDuration float64            `json:"voice_over_duration,omitempty"`
	CaptionsRaw       string             `json:"captions_raw,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

const (
	JobTypePrompts   = "prompts"
	JobTypeImages    = "images"
	JobTypeVoiceOver = "voiceover"
	JobTypeCaptions  = "captions"

	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

type Job struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"project_id"`
	Type       string    `json:"type"`
	Status     string    `json:"status"`
	TrackingID string    `json:"tracking_id,omitempty"`
	Attempts   int       `json:"attempts"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func NewID() string {
	return uuid.NewString()
}
