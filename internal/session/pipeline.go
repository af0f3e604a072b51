package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/scribeai/scribe/internal/metrics"
	"github.com/scribeai/scribe/internal/transcript"
)

// Pipeline ingests raw audio fragments: it gates on session status, calls
// the transcription collaborator outside the session lock, appends the
// result through the ordered transcript, and fans the new fragment out to
// room subscribers.
type Pipeline struct {
	registry    *Registry
	transcriber Transcriber
	hub         EventBroadcaster
	timeout     time.Duration
}

func NewPipeline(registry *Registry, transcriber Transcriber, hub EventBroadcaster, timeout time.Duration) *Pipeline {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Pipeline{
		registry:    registry,
		transcriber: transcriber,
		hub:         hub,
		timeout:     timeout,
	}
}

// Ingest processes one fragment. A transcription failure drops only that
// fragment: it is logged and counted, never retried and never fatal to the
// session. ErrSessionSealed means the fragment arrived after finalization
// started; callers drop it without surfacing an error to the client.
func (p *Pipeline) Ingest(ctx context.Context, sessionID string, sequence float64, payload []byte, mimeType string) error {
	st, err := p.registry.Get(sessionID)
	if err != nil {
		return err
	}

	if !st.Ingesting() {
		return ErrSessionSealed
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	text, err := p.transcriber.Transcribe(callCtx, payload, mimeType)
	metrics.ObserveTranscription(time.Since(start), err == nil)
	if err != nil {
		slog.Warn("transcription failed, fragment dropped",
			"session_id", sessionID, "sequence", sequence, "error", err)
		metrics.FragmentDropped("transcription_error")
		return nil
	}

	text = strings.TrimSpace(text)
	if text == "" {
		metrics.FragmentDropped("empty")
		return nil
	}

	// The call above ran unlocked; the session may have been sealed in the
	// meantime. AppendIfOpen re-checks and discards late results.
	appended, paused := st.AppendIfOpen(sequence, text)
	if !appended {
		metrics.FragmentDropped("sealed")
		return ErrSessionSealed
	}

	metrics.FragmentIngested()

	if p.hub != nil && !paused {
		p.hub.BroadcastTranscriptChunk(sessionID, transcript.Fragment{Sequence: sequence, Text: text})
	}
	return nil
}

// Pause suppresses incremental broadcast for new fragments. Ingestion
// stays open and buffered fragments are kept.
func (p *Pipeline) Pause(sessionID string) error {
	st, err := p.registry.Get(sessionID)
	if err != nil {
		return err
	}
	if err := st.Pause(); err != nil {
		return fmt.Errorf("pause session %s: %w", sessionID, err)
	}
	if p.hub != nil {
		p.hub.BroadcastStateChange(sessionID, string(StatusPaused))
	}
	return nil
}

// Resume re-enables incremental broadcast.
func (p *Pipeline) Resume(sessionID string) error {
	st, err := p.registry.Get(sessionID)
	if err != nil {
		return err
	}
	if err := st.Resume(); err != nil {
		return fmt.Errorf("resume session %s: %w", sessionID, err)
	}
	if p.hub != nil {
		p.hub.BroadcastStateChange(sessionID, string(StatusRecording))
	}
	return nil
}
