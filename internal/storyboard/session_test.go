package storyboard

import (
	"testing"
	"time"
)

func newTestSession(durations ...float64) *Session {
	s := NewSession(scenesWithDurations(durations...), nil)
	s.period = time.Millisecond
	return s
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}

func TestSession_PlayAdvancesAndWraps(t *testing.T) {
	s := newTestSession(0.5, 0.5)
	defer s.Close()

	if err := s.Play(); err != nil {
		t.Fatalf("Play() error = %v", err)
	}

	// Step 0.1s per 1ms tick over a 1.0s timeline: playback must reach
	// the end, stop, and wrap the playhead to zero.
	waitFor(t, 2*time.Second, func() bool {
		st := s.State()
		return !st.Playing && st.CurrentTime == 0
	})

	if got := s.State().SelectedIndex; got != 0 {
		t.Fatalf("selectedIndex after wrap = %d, want 0", got)
	}
}

func TestSession_PlayRefusedOnEmptyTimeline(t *testing.T) {
	s := NewSession(nil, nil)
	defer s.Close()

	if err := s.Play(); err != ErrEmptyTimeline {
		t.Fatalf("Play() error = %v, want ErrEmptyTimeline", err)
	}
}

func TestSession_PlayRefusedDuringTrim(t *testing.T) {
	s := newTestSession(5, 5)
	defer s.Close()

	if err := s.BeginTrim(0, TrimHandleRight, 100); err != nil {
		t.Fatalf("BeginTrim() error = %v", err)
	}
	if err := s.Play(); err != ErrTrimInProgress {
		t.Fatalf("Play() during trim error = %v, want ErrTrimInProgress", err)
	}
}

func TestSession_SeekStopsPlayback(t *testing.T) {
	s := newTestSession(5, 5)
	defer s.Close()

	if err := s.Play(); err != nil {
		t.Fatalf("Play() error = %v", err)
	}

	st := s.Seek(3)
	if st.Playing {
		t.Fatal("seek should stop playback")
	}
	if st.CurrentTime != 3 {
		t.Fatalf("currentTime = %v, want 3", st.CurrentTime)
	}
}

func TestSession_BeginTrimStopsPlayback(t *testing.T) {
	s := newTestSession(5, 5)
	defer s.Close()

	if err := s.Play(); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if err := s.BeginTrim(1, TrimHandleRight, 100); err != nil {
		t.Fatalf("BeginTrim() error = %v", err)
	}

	if s.State().Playing {
		t.Fatal("trim start should suppress playback")
	}

	if _, err := s.EndTrim(); err != nil {
		t.Fatalf("EndTrim() error = %v", err)
	}
}

func TestSession_PauseIsIdempotent(t *testing.T) {
	s := newTestSession(5)
	defer s.Close()

	s.Pause()
	if err := s.Play(); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	s.Pause()
	s.Pause()

	if s.State().Playing {
		t.Fatal("session should be paused")
	}
}
