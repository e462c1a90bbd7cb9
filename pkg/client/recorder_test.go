package client

import (
	"testing"
	"time"
)

func TestRecorderHappyPath(t *testing.T) {
	r := NewRecorder()
	if r.State() != RecorderIdle {
		t.Fatalf("expected idle; got %s", r.State())
	}
	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if r.State() != RecorderRecording {
		t.Fatalf("expected recording; got %s", r.State())
	}
	if err := r.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if err := r.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if err := r.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if r.State() != RecorderStopping {
		t.Fatalf("expected stopping; got %s", r.State())
	}
	if _, err := r.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if r.State() != RecorderIdle {
		t.Fatalf("expected idle after finish; got %s", r.State())
	}
}

func TestRecorderRejectsInvalidTransitions(t *testing.T) {
	r := NewRecorder()

	if err := r.Pause(); err == nil {
		t.Fatalf("pause from idle must fail")
	}
	if err := r.Stop(); err == nil {
		t.Fatalf("stop from idle must fail")
	}
	if err := r.Resume(); err == nil {
		t.Fatalf("resume from idle must fail")
	}

	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := r.Start(); err == nil {
		t.Fatalf("double start must fail")
	}
	if err := r.Resume(); err == nil {
		t.Fatalf("resume while recording must fail")
	}

	if err := r.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if err := r.Pause(); err == nil {
		t.Fatalf("double pause must fail")
	}
}

// TestRecorderDurationExcludesPause verifies the captured duration only
// counts recording time.
func TestRecorderDurationExcludesPause(t *testing.T) {
	r := NewRecorder()
	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if err := r.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	// a long pause must not inflate the result
	time.Sleep(60 * time.Millisecond)
	if err := r.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	d, err := r.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if d < 15*time.Millisecond {
		t.Fatalf("captured duration too short: %v", d)
	}
	if d > 50*time.Millisecond {
		t.Fatalf("pause time leaked into duration: %v", d)
	}
}
