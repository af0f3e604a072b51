package session

import (
	"sync"
	"time"

	"github.com/scribeai/scribe/internal/transcript"
)

// Outcome records how finalization resolved. It is written exactly once,
// under the state lock, and replayed verbatim to duplicate finalize calls.
type Outcome struct {
	Status   Status
	Summary  string
	Title    string
	Duration time.Duration
	Message  string
}

// State is the per-session state machine. The registry owns all State
// instances; other components look one up per operation and never hold a
// long-lived reference. Every observe-then-mutate step on status or
// fragments happens under the state lock.
type State struct {
	ID        string
	OwnerID   string
	Source    Source
	StartedAt time.Time

	orderer *transcript.Orderer

	mu       sync.Mutex
	status   Status
	lastSeen time.Time
	outcome  *Outcome
}

func newState(id, ownerID string, source Source, now time.Time) *State {
	return &State{
		ID:        id,
		OwnerID:   ownerID,
		Source:    source,
		StartedAt: now,
		orderer:   transcript.NewOrderer(),
		status:    StatusRecording,
		lastSeen:  now,
	}
}

// Status returns the current lifecycle state.
func (s *State) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Pause transitions Recording to Paused. Buffered fragments are kept and
// ingestion stays open; only incremental broadcast is suppressed.
func (s *State) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusRecording {
		return ErrInvalidTransition
	}
	s.status = StatusPaused
	s.lastSeen = time.Now().UTC()
	return nil
}

// Resume transitions Paused back to Recording.
func (s *State) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusPaused {
		return ErrInvalidTransition
	}
	s.status = StatusRecording
	s.lastSeen = time.Now().UTC()
	return nil
}

// Ingesting reports whether fragments are currently accepted.
func (s *State) Ingesting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusRecording && s.status != StatusPaused {
		return false
	}
	s.lastSeen = time.Now().UTC()
	return true
}

// AppendIfOpen re-checks the ingestion gate and appends in one critical
// section. This is the second status check required for transcription
// results that were in flight when finalization started: such results are
// discarded here, not appended. The returned paused flag tells the caller
// to suppress the incremental broadcast.
func (s *State) AppendIfOpen(sequence float64, text string) (appended, paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusRecording && s.status != StatusPaused {
		return false, false
	}
	s.orderer.Append(sequence, text)
	s.lastSeen = time.Now().UTC()
	return true, s.status == StatusPaused
}

// BeginFinalize atomically seals ingestion by transitioning
// Recording|Paused to Processing. It returns true for exactly one caller;
// every other caller gets false plus the status it observed.
func (s *State) BeginFinalize() (first bool, status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusRecording && s.status != StatusPaused {
		return false, s.status
	}
	s.status = StatusProcessing
	s.lastSeen = time.Now().UTC()
	return true, StatusProcessing
}

// resolve moves Processing to its terminal state and records the outcome.
// Only the finalize winner calls it, so it never runs twice.
func (s *State) resolve(out Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = out.Status
	s.outcome = &out
	s.lastSeen = time.Now().UTC()
}

// Outcome returns the recorded finalization outcome, or nil while the
// session has not reached a terminal state.
func (s *State) Outcome() *Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.outcome == nil {
		return nil
	}
	out := *s.outcome
	return &out
}

// Transcript renders the current ordered transcript.
func (s *State) Transcript() string {
	return s.orderer.Render()
}

// Fragments returns a copy of the buffered fragments in render order.
func (s *State) Fragments() []transcript.Fragment {
	return s.orderer.Fragments()
}

// LastSeen returns the time of the last state-changing activity.
func (s *State) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}
