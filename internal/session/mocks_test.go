package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/scribeai/scribe/internal/transcript"
)

type finalRecord struct {
	Transcript string
	Summary    string
	Title      string
	Status     string
	DurationMs int64
}

type storeMock struct {
	mu            sync.Mutex
	created       map[string]time.Time
	finalized     map[string]finalRecord
	failed        map[string]bool
	createCalls   int
	finalizeCalls int

	createErr   error
	finalizeErr error
}

func newStoreMock() *storeMock {
	return &storeMock{
		created:   map[string]time.Time{},
		finalized: map[string]finalRecord{},
		failed:    map[string]bool{},
	}
}

func (s *storeMock) CreateSession(id, _, _ string, startedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createCalls++
	if s.createErr != nil {
		return s.createErr
	}
	s.created[id] = startedAt
	return nil
}

func (s *storeMock) FinalizeSession(id, transcriptText, summary, title, status string, durationMs int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finalizeCalls++
	if s.finalizeErr != nil {
		return s.finalizeErr
	}
	s.finalized[id] = finalRecord{
		Transcript: transcriptText,
		Summary:    summary,
		Title:      title,
		Status:     status,
		DurationMs: durationMs,
	}
	return nil
}

func (s *storeMock) MarkFailed(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed[id] = true
	return nil
}

func (s *storeMock) record(id string) (finalRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.finalized[id]
	return rec, ok
}

var errTranscribe = errors.New("transcription unavailable")

// transcriberMock echoes the payload as text. Payloads containing "FAIL"
// error out; an optional gate channel holds calls open so tests can race
// finalization against an in-flight transcription.
type transcriberMock struct {
	mu    sync.Mutex
	calls int
	gate  chan struct{}
}

func (t *transcriberMock) Transcribe(_ context.Context, audio []byte, _ string) (string, error) {
	t.mu.Lock()
	t.calls++
	gate := t.gate
	t.mu.Unlock()

	if gate != nil {
		<-gate
	}
	text := string(audio)
	if strings.Contains(text, "FAIL") {
		return "", errTranscribe
	}
	return text, nil
}

func (t *transcriberMock) callCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

type summarizerMock struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *summarizerMock) Summarize(_ context.Context, transcriptText string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return fmt.Sprintf("Minutes for: %s\n- Key Points", transcriptText), nil
}

func (s *summarizerMock) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type completedRecord struct {
	Summary  string
	Title    string
	Duration time.Duration
}

type hubMock struct {
	mu        sync.Mutex
	chunks    map[string][]transcript.Fragment
	states    map[string][]string
	completed map[string][]completedRecord
	errors    map[string][]string
}

func newHubMock() *hubMock {
	return &hubMock{
		chunks:    map[string][]transcript.Fragment{},
		states:    map[string][]string{},
		completed: map[string][]completedRecord{},
		errors:    map[string][]string{},
	}
}

func (h *hubMock) BroadcastTranscriptChunk(sessionID string, frag transcript.Fragment) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.chunks[sessionID] = append(h.chunks[sessionID], frag)
}

func (h *hubMock) BroadcastStateChange(sessionID, state string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.states[sessionID] = append(h.states[sessionID], state)
}

func (h *hubMock) BroadcastSessionCompleted(sessionID, summary, title string, duration time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.completed[sessionID] = append(h.completed[sessionID], completedRecord{Summary: summary, Title: title, Duration: duration})
}

func (h *hubMock) BroadcastError(sessionID, message string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors[sessionID] = append(h.errors[sessionID], message)
}

func (h *hubMock) chunkCount(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.chunks[sessionID])
}

func (h *hubMock) completedEvents(sessionID string) []completedRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]completedRecord(nil), h.completed[sessionID]...)
}

func (h *hubMock) errorEvents(sessionID string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.errors[sessionID]...)
}

func (h *hubMock) stateEvents(sessionID string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.states[sessionID]...)
}
