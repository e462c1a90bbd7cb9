package client

import (
	"fmt"
	"sync"
	"time"
)

// RecorderState is the voice-note capture state.
type RecorderState int

const (
	RecorderIdle RecorderState = iota
	RecorderRecording
	RecorderPaused
	RecorderStopping
)

func (s RecorderState) String() string {
	switch s {
	case RecorderIdle:
		return "idle"
	case RecorderRecording:
		return "recording"
	case RecorderPaused:
		return "paused"
	case RecorderStopping:
		return "stopping"
	}
	return "unknown"
}

// Recorder tracks media capture through guarded transitions:
// Idle → Recording → (Paused ↔ Recording) → Stopping → Idle. Invalid
// transitions are rejected instead of silently flipping flags.
type Recorder struct {
	mu        sync.Mutex
	state     RecorderState
	startedAt time.Time
	elapsed   time.Duration
}

func NewRecorder() *Recorder {
	return &Recorder{state: RecorderIdle}
}

func (r *Recorder) State() RecorderState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Start begins a capture. Only valid from Idle.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != RecorderIdle {
		return fmt.Errorf("cannot start recording from %s", r.state)
	}
	r.state = RecorderRecording
	r.startedAt = time.Now()
	r.elapsed = 0
	return nil
}

// Pause suspends an active capture.
func (r *Recorder) Pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != RecorderRecording {
		return fmt.Errorf("cannot pause from %s", r.state)
	}
	r.elapsed += time.Since(r.startedAt)
	r.state = RecorderPaused
	return nil
}

// Resume continues a paused capture.
func (r *Recorder) Resume() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != RecorderPaused {
		return fmt.Errorf("cannot resume from %s", r.state)
	}
	r.startedAt = time.Now()
	r.state = RecorderRecording
	return nil
}

// Stop ends the capture from Recording or Paused. The recorder stays in
// Stopping until Finish collects the result.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.state {
	case RecorderRecording:
		r.elapsed += time.Since(r.startedAt)
	case RecorderPaused:
		// elapsed already accumulated at pause time
	default:
		return fmt.Errorf("cannot stop from %s", r.state)
	}
	r.state = RecorderStopping
	return nil
}

// Finish completes the Stopping state and returns the captured duration.
func (r *Recorder) Finish() (time.Duration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != RecorderStopping {
		return 0, fmt.Errorf("cannot finish from %s", r.state)
	}
	r.state = RecorderIdle
	d := r.elapsed
	r.elapsed = 0
	return d, nil
}
