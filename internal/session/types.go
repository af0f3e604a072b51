package session

import (
	"context"
	"time"

	"github.com/scribeai/scribe/internal/transcript"
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusRecording  Status = "recording"
	StatusPaused     Status = "paused"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Source identifies where a session's audio comes from.
type Source string

const (
	SourceMicrophone Source = "mic"
	SourceTabCapture Source = "tab"
)

// ParseSource validates a client-supplied audio source tag.
func ParseSource(raw string) (Source, bool) {
	switch Source(raw) {
	case SourceMicrophone, SourceTabCapture:
		return Source(raw), true
	default:
		return "", false
	}
}

type Store interface {
	CreateSession(id, ownerID, source string, startedAt time.Time) error
	FinalizeSession(id, transcript, summary, title, status string, durationMs int64) error
	MarkFailed(id string) error
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

type EventBroadcaster interface {
	BroadcastTranscriptChunk(sessionID string, frag transcript.Fragment)
	BroadcastStateChange(sessionID, state string)
	BroadcastSessionCompleted(sessionID, summary, title string, duration time.Duration)
	BroadcastError(sessionID, message string)
}
