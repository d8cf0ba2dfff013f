package storyboard

import "errors"

var (
	ErrEmptyTimeline   = errors.New("timeline has no scenes")
	ErrIndexOutOfRange = errors.New("scene index out of range")
	ErrTrimInProgress  = errors.New("trim drag in progress")
	ErrNoTrim          = errors.New("no trim drag active")
)

// NoSelection is the selected-index value when no scene is selected.
const NoSelection = -1

// Timeline is the authoritative ordered scene sequence plus playhead and
// selection state. Every mutation replaces the scene slice wholesale, then
// recomputes the total duration, so readers holding a snapshot from
// Scenes() never observe a torn state.
//
// Timeline is not safe for concurrent use; Session serializes access.
type Timeline struct {
	scenes        []Scene
	currentTime   float64
	totalDuration float64
	selected      int
	playing       bool
	drag          *trimDrag
}

// NewTimeline builds a timeline over a normalized scene sequence. The
// playhead starts at zero with the first scene selected.
func NewTimeline(scenes []Scene) *Timeline {
	t := &Timeline{
		scenes:   NormalizeScenes(scenes),
		selected: NoSelection,
	}
	t.totalDuration = sumDurations(t.scenes)
	if len(t.scenes) > 0 {
		t.selected = 0
	}
	return t
}

// Scenes returns a copy of the current scene sequence.
func (t *Timeline) Scenes() []Scene {
	return cloneScenes(t.scenes)
}

func (t *Timeline) Len() int {
	return len(t.scenes)
}

func (t *Timeline) CurrentTime() float64 {
	return t.currentTime
}

func (t *Timeline) TotalDuration() float64 {
	return t.totalDuration
}

func (t *Timeline) SelectedIndex() int {
	return t.selected
}

func (t *Timeline) IsPlaying() bool {
	return t.playing
}

func (t *Timeline) IsTrimming() bool {
	return t.drag != nil
}

// Scene returns the scene at index.
func (t *Timeline) Scene(index int) (Scene, error) {
	if index < 0 || index >= len(t.scenes) {
		return Scene{}, ErrIndexOutOfRange
	}
	return t.scenes[index], nil
}

// AddScene appends a new scene cloned from the last one (content, prompt
// and image carry over as a template), selects it, and moves the playhead
// to its start.
func (t *Timeline) AddScene() (Scene, error) {
	if len(t.scenes) == 0 {
		return Scene{}, ErrEmptyTimeline
	}
	if t.drag != nil {
		return Scene{}, ErrTrimInProgress
	}

	last := t.scenes[len(t.scenes)-1]
	scene := Scene{
		ID:       NewSceneID(),
		Content:  last.Content,
		Prompt:   last.Prompt,
		ImageURL: last.ImageURL,
		Seed:     last.Seed,
		Duration: DefaultSceneDuration,
	}

	scenes := cloneScenes(t.scenes)
	scenes = append(scenes, scene)
	t.replace(scenes)

	t.playing = false
	t.selected = len(t.scenes) - 1
	t.currentTime = t.SceneStartTime(t.selected)
	return scene, nil
}

// DeleteScene removes the scene at index. The playhead collapses onto the
// removed span's former start when it was inside it, shifts back when it
// was after it, and the selection follows the playhead.
func (t *Timeline) DeleteScene(index int) error {
	if t.drag != nil {
		return ErrTrimInProgress
	}
	if index < 0 || index >= len(t.scenes) {
		return ErrIndexOutOfRange
	}

	start := t.SceneStartTime(index)
	removed := t.scenes[index].Duration

	scenes := make([]Scene, 0, len(t.scenes)-1)
	scenes = append(scenes, t.scenes[:index]...)
	scenes = append(scenes, t.scenes[index+1:]...)
	t.replace(scenes)

	switch {
	case t.currentTime >= start+removed:
		t.currentTime -= removed
	case t.currentTime >= start:
		t.currentTime = start
	}
	t.clampCurrentTime()

	if len(t.scenes) == 0 {
		t.selected = NoSelection
		t.currentTime = 0
		return nil
	}
	t.selected = t.SceneIndexAtTime(t.currentTime)
	return nil
}

// SelectScene moves selection and the playhead to the start of a scene,
// stopping playback. While a trim drag is active the call is ignored
// unless force is set.
func (t *Timeline) SelectScene(index int, force bool) error {
	if t.drag != nil && !force {
		return nil
	}
	if index < 0 || index >= len(t.scenes) {
		return ErrIndexOutOfRange
	}
	t.playing = false
	t.selected = index
	t.currentTime = t.SceneStartTime(index)
	return nil
}

// Seek clamps the target time into the timeline, moves the playhead and
// re-derives selection. Ignored while a trim drag is active; stops
// playback otherwise.
func (t *Timeline) Seek(tm float64) {
	if t.drag != nil {
		return
	}
	t.playing = false
	t.currentTime = tm
	t.clampCurrentTime()
	if len(t.scenes) > 0 {
		t.selected = t.SceneIndexAtTime(t.currentTime)
	}
}

// SceneStartTime is the sum of durations of all scenes before index.
func (t *Timeline) SceneStartTime(index int) float64 {
	start := 0.0
	for i := 0; i < index && i < len(t.scenes); i++ {
		start += t.scenes[i].Duration
	}
	return start
}

// SceneIndexAtTime returns the index of the scene whose half-open span
// contains tm. Times at or past the end map to the last scene; negative
// times and an empty sequence map to NoSelection.
func (t *Timeline) SceneIndexAtTime(tm float64) int {
	if len(t.scenes) == 0 || tm < 0 {
		return NoSelection
	}
	start := 0.0
	for i, s := range t.scenes {
		if tm >= start && tm < start+s.Duration {
			return i
		}
		start += s.Duration
	}
	return len(t.scenes) - 1
}

// SetSceneDuration replaces one scene's duration, floored at the minimum,
// and recomputes the total.
func (t *Timeline) SetSceneDuration(index int, duration float64) error {
	if index < 0 || index >= len(t.scenes) {
		return ErrIndexOutOfRange
	}
	if duration < MinSceneDuration {
		duration = MinSceneDuration
	}
	scenes := cloneScenes(t.scenes)
	scenes[index].Duration = duration
	t.replace(scenes)
	t.clampCurrentTime()
	return nil
}

// UpdateScene replaces one scene's enrichment fields (content, prompt,
// image, seed, error) while keeping its position and duration arithmetic
// consistent.
func (t *Timeline) UpdateScene(index int, scene Scene) error {
	if index < 0 || index >= len(t.scenes) {
		return ErrIndexOutOfRange
	}
	scenes := cloneScenes(t.scenes)
	scene.ID = scenes[index].ID
	if scene.Duration < MinSceneDuration {
		scene.Duration = scenes[index].Duration
	}
	scenes[index] = scene
	t.replace(scenes)
	t.clampCurrentTime()
	return nil
}

// ReplaceScenes installs a whole new scene sequence, as produced by the
// duration synchronizer, and re-derives playhead and selection.
func (t *Timeline) ReplaceScenes(scenes []Scene) {
	t.replace(NormalizeScenes(scenes))
	t.clampCurrentTime()
	if len(t.scenes) == 0 {
		t.selected = NoSelection
		return
	}
	t.selected = t.SceneIndexAtTime(t.currentTime)
}

// Play arms playback. It is refused on an empty or zero-length timeline
// and while a trim drag is active.
func (t *Timeline) Play() error {
	if t.drag != nil {
		return ErrTrimInProgress
	}
	if t.totalDuration <= 0 {
		return ErrEmptyTimeline
	}
	t.playing = true
	return nil
}

func (t *Timeline) Pause() {
	t.playing = false
}

// Tick advances the playhead by step seconds. Reaching the end stops
// playback, wraps the playhead to zero and reselects the first scene.
func (t *Timeline) Tick(step float64) {
	if !t.playing {
		return
	}
	next := t.currentTime + step
	if next >= t.totalDuration {
		t.playing = false
		t.currentTime = 0
		if len(t.scenes) > 0 {
			t.selected = 0
		}
		return
	}
	t.currentTime = next
	if idx := t.SceneIndexAtTime(next); idx != t.selected {
		t.selected = idx
	}
}

// replace installs a new scene slice and synchronously recomputes the
// derived total. Callers must not retain the passed slice.
func (t *Timeline) replace(scenes []Scene) {
	t.scenes = scenes
	t.totalDuration = sumDurations(scenes)
}

func (t *Timeline) clampCurrentTime() {
	if t.currentTime < 0 {
		t.currentTime = 0
	}
	if t.currentTime > t.totalDuration {
		t.currentTime = t.totalDuration
	}
}
