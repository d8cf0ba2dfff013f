package storyboard

import (
	"encoding/json"

	"github.com/google/uuid"
)

const (
	// MinSceneDuration is the hard floor for any scene, in seconds.
	MinSceneDuration = 0.5

	// DefaultSceneDuration is assigned to a scene until caption sync or a
	// trim overrides it.
	DefaultSceneDuration = 5.0
)

// Scene is one visual unit of a storyboard: its source text, the optional
// generated image, and the time it occupies on the timeline.
type Scene struct {
	ID       string  `json:"id"`
	Content  string  `json:"content"`
	Prompt   string  `json:"prompt,omitempty"`
	ImageURL string  `json:"image_url,omitempty"`
	Seed     int64   `json:"seed,omitempty"`
	Duration float64 `json:"duration"`

	// Error holds the last enrichment failure for this scene, if any.
	// It never affects timeline arithmetic.
	Error string `json:"error,omitempty"`
}

func NewSceneID() string {
	return uuid.NewString()
}

// NewScenes builds one scene per text chunk, in order, with fresh ids and
// the default duration.
func NewScenes(chunks []string) []Scene {
	scenes := make([]Scene, 0, len(chunks))
	for _, chunk := range chunks {
		scenes = append(scenes, Scene{
			ID:       NewSceneID(),
			Content:  chunk,
			Duration: DefaultSceneDuration,
		})
	}
	return scenes
}

// NormalizeScenes repairs a deserialized scene sequence: missing or
// non-positive durations fall back to the default, sub-floor durations are
// raised to the floor, and missing or duplicate ids are regenerated.
func NormalizeScenes(scenes []Scene) []Scene {
	out := make([]Scene, len(scenes))
	seen := make(map[string]bool, len(scenes))
	for i, s := range scenes {
		if s.Duration <= 0 {
			s.Duration = DefaultSceneDuration
		} else if s.Duration < MinSceneDuration {
			s.Duration = MinSceneDuration
		}
		if s.ID == "" || seen[s.ID] {
			s.ID = NewSceneID()
		}
		seen[s.ID] = true
		out[i] = s
	}
	return out
}

// RenderableScenes drops scenes that never received an image. The render
// plan and the render engine only deal in scenes with a visual.
func RenderableScenes(scenes []Scene) []Scene {
	out := make([]Scene, 0, len(scenes))
	for _, s := range scenes {
		if s.ImageURL != "" {
			out = append(out, s)
		}
	}
	return out
}

// EncodeScenes serializes a scene sequence for storage.
func EncodeScenes(scenes []Scene) (string, error) {
	data, err := json.Marshal(scenes)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeScenes deserializes a stored scene sequence and normalizes it.
// Malformed input yields an empty sequence.
func DecodeScenes(data string) []Scene {
	if data == "" {
		return nil
	}
	var scenes []Scene
	if err := json.Unmarshal([]byte(data), &scenes); err != nil {
		return nil
	}
	return NormalizeScenes(scenes)
}

func cloneScenes(scenes []Scene) []Scene {
	out := make([]Scene, len(scenes))
	copy(out, scenes)
	return out
}

func sumDurations(scenes []Scene) float64 {
	total := 0.0
	for _, s := range scenes {
		total += s.Duration
	}
	return total
}
