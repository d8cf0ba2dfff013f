// Package renderplan projects a scene sequence into the frame-indexed
// overlay list consumed by both the interactive preview player and the
// offline render engine. The two consumers must agree exactly, so all
// frame arithmetic lives here.
package renderplan

import (
	"math"

	"github.com/storyreel/storyreel-agent/internal/captions"
	"github.com/storyreel/storyreel-agent/internal/storyboard"
)

const (
	OverlayImage   = "image"
	OverlayAudio   = "audio"
	OverlayCaption = "caption"
)

// Overlay is one element of the render plan, positioned in absolute
// frames from the start of the composition.
type Overlay struct {
	Type       string `json:"type"`
	SceneID    string `json:"scene_id,omitempty"`
	Src        string `json:"src,omitempty"`
	Text       string `json:"text,omitempty"`
	StartFrame int    `json:"start_frame"`
	Frames     int    `json:"frames"`
}

// Plan is the complete JSON-shaped contract handed to the render engine.
type Plan struct {
	Overlays    []Overlay `json:"overlays"`
	TotalFrames int       `json:"total_frames"`
	FPS         int       `json:"fps"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
}

// Options carries everything beyond the scene sequence that shapes a plan.
type Options struct {
	FPS               int
	Width             int
	Height            int
	VoiceOverURL      string
	VoiceOverDuration float64
	Captions          []captions.Segment
}

// Build derives the render plan. Per-scene frame lengths are rounded
// individually and the cumulative offset uses those rounded lengths, so
// consecutive image overlays are frame-contiguous with no gaps or overlaps
// regardless of how per-scene rounding error accumulates. The plan is
// extended past the last scene when the voice-over or trailing captions
// outlast it.
func Build(scenes []storyboard.Scene, opts Options) Plan {
	if opts.FPS <= 0 {
		opts.FPS = 30
	}

	plan := Plan{
		FPS:    opts.FPS,
		Width:  opts.Width,
		Height: opts.Height,
	}

	type window struct {
		startSec   float64
		endSec     float64
		startFrame int
		endFrame   int
		sceneID    string
	}
	windows := make([]window, 0, len(scenes))

	cumFrames := 0
	cumSeconds := 0.0
	for _, s := range scenes {
		length := toFrames(s.Duration, opts.FPS)
		plan.Overlays = append(plan.Overlays, Overlay{
			Type:       OverlayImage,
			SceneID:    s.ID,
			Src:        s.ImageURL,
			StartFrame: cumFrames,
			Frames:     length,
		})
		windows = append(windows, window{
			startSec:   cumSeconds,
			endSec:     cumSeconds + s.Duration,
			startFrame: cumFrames,
			endFrame:   cumFrames + length,
			sceneID:    s.ID,
		})
		cumFrames += length
		cumSeconds += s.Duration
	}

	plan.TotalFrames = cumFrames
	if vo := toFrames(opts.VoiceOverDuration, opts.FPS); vo > plan.TotalFrames {
		plan.TotalFrames = vo
	}
	if n := len(opts.Captions); n > 0 {
		if last := toFrames(opts.Captions[n-1].EndTime, opts.FPS); last > plan.TotalFrames {
			plan.TotalFrames = last
		}
	}

	if opts.VoiceOverURL != "" {
		plan.Overlays = append(plan.Overlays, Overlay{
			Type:       OverlayAudio,
			Src:        opts.VoiceOverURL,
			StartFrame: 0,
			Frames:     plan.TotalFrames,
		})
	}

	// A caption belongs to every scene window its time range overlaps; one
	// spanning a scene boundary is emitted under both scenes, clipped to
	// each window.
	for _, seg := range opts.Captions {
		for _, w := range windows {
			if seg.StartTime >= w.endSec || seg.EndTime <= w.startSec {
				continue
			}
			start := toFrames(seg.StartTime, opts.FPS)
			if start < w.startFrame {
				start = w.startFrame
			}
			end := toFrames(seg.EndTime, opts.FPS)
			if end > w.endFrame {
				end = w.endFrame
			}
			if end <= start {
				continue
			}
			plan.Overlays = append(plan.Overlays, Overlay{
				Type:       OverlayCaption,
				SceneID:    w.sceneID,
				Text:       seg.Text,
				StartFrame: start,
				Frames:     end - start,
			})
		}
	}

	return plan
}

func toFrames(seconds float64, fps int) int {
	return int(math.Round(seconds * float64(fps)))
}
