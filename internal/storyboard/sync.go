package storyboard

import (
	"github.com/storyreel/storyreel-agent/internal/captions"
)

// minSyncedDuration is the floor for a caption-derived scene duration.
// Caption gaps can make a scene's consumed span arbitrarily short; one
// second keeps it watchable.
const minSyncedDuration = 1.0

// SyncDurations maps caption segments onto scenes and returns a new scene
// sequence with caption-derived durations. Segments are consumed greedily,
// in order, exactly once: each scene keeps consuming until the consumed
// word count reaches its own. The total is then reconciled against the
// authoritative voice-over duration (the explicit argument, or the last
// segment's end time when the argument is non-positive) by growing the
// last scene to absorb any shortfall.
//
// The function is pure and idempotent; inputs are never mutated. With no
// segments the input sequence is returned unchanged.
func SyncDurations(scenes []Scene, segments []captions.Segment, voiceOverDuration float64) []Scene {
	if len(segments) == 0 || len(scenes) == 0 {
		return scenes
	}

	out := cloneScenes(scenes)

	cursor := 0
	for i := range out {
		target := WordCount(out[i].Content)
		consumed := 0.0
		words := 0
		taken := 0
		for cursor < len(segments) && words < target {
			seg := segments[cursor]
			consumed += seg.Duration()
			words += WordCount(seg.Text)
			cursor++
			taken++
		}
		if taken == 0 {
			// Cursor exhausted; trailing scenes keep their prior duration.
			continue
		}
		if consumed < minSyncedDuration {
			consumed = minSyncedDuration
		}
		out[i].Duration = consumed
	}

	authoritative := voiceOverDuration
	if authoritative <= 0 {
		authoritative = segments[len(segments)-1].EndTime
	}

	total := sumDurations(out)
	if authoritative > total {
		out[len(out)-1].Duration += authoritative - total
	}
	return out
}
