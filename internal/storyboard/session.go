package storyboard

import (
	"log/slog"
	"sync"
	"time"

	"github.com/storyreel/storyreel-agent/internal/captions"
)

const (
	// tickStep is how far the playhead advances per clock tick, in seconds.
	tickStep = 0.1
	// tickPeriod is the clock period.
	tickPeriod = 100 * time.Millisecond
)

// Session owns one project's live timeline. All access goes through it:
// the HTTP handlers, the enrichment runner and the playback clock are
// serialized on a single mutex, so no caller ever observes a
// partially-applied mutation.
type Session struct {
	mu     sync.Mutex
	tl     *Timeline
	logger *slog.Logger

	step   float64
	period time.Duration
	stop   chan struct{}
}

func NewSession(scenes []Scene, logger *slog.Logger) *Session {
	return &Session{
		tl:     NewTimeline(scenes),
		logger: logger,
		step:   tickStep,
		period: tickPeriod,
	}
}

// State is a consistent snapshot of the timeline for read-side consumers.
type State struct {
	Scenes        []Scene
	CurrentTime   float64
	TotalDuration float64
	SelectedIndex int
	Playing       bool
	Trimming      bool
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Scenes returns a snapshot of the scene sequence.
func (s *Session) Scenes() []Scene {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tl.Scenes()
}

func (s *Session) AddScene() (Scene, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopClockLocked()
	return s.tl.AddScene()
}

func (s *Session) DeleteScene(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tl.DeleteScene(index)
}

func (s *Session) SelectScene(index int, force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopClockLocked()
	return s.tl.SelectScene(index, force)
}

func (s *Session) Seek(tm float64) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopClockLocked()
	s.tl.Seek(tm)
	return s.stateLocked()
}

func (s *Session) UpdateScene(index int, scene Scene) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tl.UpdateScene(index, scene)
}

// ApplyCaptions runs the duration synchronizer against the current scene
// sequence and installs the result. Safe to call repeatedly with the same
// inputs.
func (s *Session) ApplyCaptions(segments []captions.Segment, voiceOverDuration float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tl.ReplaceScenes(SyncDurations(s.tl.Scenes(), segments, voiceOverDuration))
}

// Play starts the playback clock: a single timer advancing the playhead by
// a fixed step until the end is reached or playback is stopped.
func (s *Session) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tl.IsPlaying() {
		return nil
	}
	if err := s.tl.Play(); err != nil {
		return err
	}
	stop := make(chan struct{})
	s.stop = stop
	go s.runClock(stop)
	return nil
}

func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopClockLocked()
}

// BeginTrim suppresses playback for the duration of the drag.
func (s *Session) BeginTrim(index int, handle TrimHandle, thumbnailWidth float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopClockLocked()
	return s.tl.BeginTrim(index, handle, thumbnailWidth)
}

func (s *Session) MoveTrim(deltaPixels float64) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.tl.MoveTrim(deltaPixels); err != nil {
		return State{}, err
	}
	return s.stateLocked(), nil
}

func (s *Session) EndTrim() (TrimResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tl.EndTrim()
}

// Close tears the session down, clearing any armed clock so no tick can
// run against a dead timeline.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopClockLocked()
}

func (s *Session) runClock(stop chan struct{}) {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			if !s.tl.IsPlaying() {
				s.mu.Unlock()
				return
			}
			s.tl.Tick(s.step)
			done := !s.tl.IsPlaying()
			s.mu.Unlock()
			if done {
				return
			}
		}
	}
}

func (s *Session) stopClockLocked() {
	s.tl.Pause()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}

func (s *Session) stateLocked() State {
	return State{
		Scenes:        s.tl.Scenes(),
		CurrentTime:   s.tl.CurrentTime(),
		TotalDuration: s.tl.TotalDuration(),
		SelectedIndex: s.tl.SelectedIndex(),
		Playing:       s.tl.IsPlaying(),
		Trimming:      s.tl.IsTrimming(),
	}
}
