package storyboard

// TrimHandle identifies which edge of a scene a drag grabbed.
type TrimHandle string

const (
	TrimHandleLeft  TrimHandle = "left"
	TrimHandleRight TrimHandle = "right"
)

// trimDrag is the state captured at pointer-down and held until
// pointer-up. The pixel-to-time scale and the left-handle reduction cap
// are fixed against the pre-drag sequence for the whole drag.
type trimDrag struct {
	handle           TrimHandle
	index            int
	originalDuration float64
	timePerPixel     float64
	maxReduction     float64
}

// TrimResult reports the committed state of a finished drag.
type TrimResult struct {
	SceneIndex int
	Handle     TrimHandle
	Duration   float64
}

// BeginTrim enters the dragging state for one scene handle. Playback
// stops; mutations other than MoveTrim are refused until EndTrim.
// thumbnailWidth is the on-screen pixel width of the scene's thumbnail,
// which fixes the drag's time-per-pixel scale.
func (t *Timeline) BeginTrim(index int, handle TrimHandle, thumbnailWidth float64) error {
	if t.drag != nil {
		return ErrTrimInProgress
	}
	if index < 0 || index >= len(t.scenes) {
		return ErrIndexOutOfRange
	}
	if thumbnailWidth <= 0 {
		thumbnailWidth = 1
	}
	if handle != TrimHandleLeft {
		handle = TrimHandleRight
	}

	t.playing = false

	original := t.scenes[index].Duration
	drag := &trimDrag{
		handle:           handle,
		index:            index,
		originalDuration: original,
		timePerPixel:     original / thumbnailWidth,
	}
	if handle == TrimHandleLeft {
		precedingStart := t.SceneStartTime(index)
		drag.maxReduction = original - MinSceneDuration
		if precedingStart < drag.maxReduction {
			drag.maxReduction = precedingStart
		}
		if drag.maxReduction < 0 {
			drag.maxReduction = 0
		}
	}

	t.drag = drag
	t.selected = index
	t.pinPlayheadToHandle()
	return nil
}

// MoveTrim applies the current horizontal pointer displacement, in pixels
// from the drag origin, to the dragged scene's duration. The playhead is
// pinned to the moving edge.
func (t *Timeline) MoveTrim(deltaPixels float64) error {
	if t.drag == nil {
		return ErrNoTrim
	}
	drag := t.drag

	delta := deltaPixels * drag.timePerPixel
	if drag.handle == TrimHandleLeft {
		// Dragging the left handle rightward shortens the scene.
		delta = -delta
	}

	duration := drag.originalDuration + delta
	if duration < MinSceneDuration {
		duration = MinSceneDuration
	}
	if drag.handle == TrimHandleLeft {
		if reduction := drag.originalDuration - duration; reduction > drag.maxReduction {
			duration = drag.originalDuration - drag.maxReduction
		}
	}

	scenes := cloneScenes(t.scenes)
	scenes[drag.index].Duration = duration
	t.replace(scenes)
	t.pinPlayheadToHandle()
	return nil
}

// EndTrim leaves the dragging state and reports the committed duration.
// It is the only exit from a drag, however far the pointer wandered.
func (t *Timeline) EndTrim() (TrimResult, error) {
	if t.drag == nil {
		return TrimResult{}, ErrNoTrim
	}
	drag := t.drag
	t.drag = nil

	t.replace(t.scenes)
	t.clampCurrentTime()

	return TrimResult{
		SceneIndex: drag.index,
		Handle:     drag.handle,
		Duration:   t.scenes[drag.index].Duration,
	}, nil
}

func (t *Timeline) pinPlayheadToHandle() {
	if t.drag == nil {
		return
	}
	start := t.SceneStartTime(t.drag.index)
	if t.drag.handle == TrimHandleLeft {
		t.currentTime = start
	} else {
		t.currentTime = start + t.scenes[t.drag.index].Duration
	}
	t.clampCurrentTime()
}
