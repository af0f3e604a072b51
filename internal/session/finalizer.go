package session

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/scribeai/scribe/internal/metrics"
)

// Sentinels used when a session ends with nothing to summarize.
const (
	EmptySummary  = "No transcript available"
	DefaultTitle  = "Untitled Session"
	TitleMaxRunes = 80
)

// Finalizer drives the terminal transition of a session: seal ingestion,
// render the frozen transcript, summarize once, persist once, broadcast
// once. Duplicate or racing finalize requests replay the recorded outcome
// and never repeat the summarization call or the store write.
type Finalizer struct {
	registry   *Registry
	store      Store
	summarizer Summarizer
	hub        EventBroadcaster
	timeout    time.Duration
	titleMax   int
	now        func() time.Time
}

func NewFinalizer(registry *Registry, store Store, summarizer Summarizer, hub EventBroadcaster, timeout time.Duration) *Finalizer {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Finalizer{
		registry:   registry,
		store:      store,
		summarizer: summarizer,
		hub:        hub,
		timeout:    timeout,
		titleMax:   TitleMaxRunes,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Finalize ends a session. Exactly one caller wins the Processing
// transition and runs the terminal workflow; all others re-emit the last
// known outcome (or nothing, if the winner is still running).
func (f *Finalizer) Finalize(ctx context.Context, sessionID string) error {
	st, err := f.registry.Get(sessionID)
	if err != nil {
		return err
	}

	first, _ := st.BeginFinalize()
	if !first {
		if out := st.Outcome(); out != nil {
			f.emit(sessionID, out)
		}
		return nil
	}

	if f.hub != nil {
		f.hub.BroadcastStateChange(sessionID, string(StatusProcessing))
	}

	out := f.run(ctx, st)
	st.resolve(out)
	f.emit(sessionID, &out)
	metrics.SessionFinalized(string(out.Status), out.Duration)
	return nil
}

// run executes steps (b)-(g): render, summarize, title, duration, persist.
// Ingestion is already sealed, so the transcript is frozen here.
func (f *Finalizer) run(ctx context.Context, st *State) Outcome {
	transcriptText := strings.TrimSpace(st.Transcript())

	summaryText := EmptySummary
	title := DefaultTitle

	if transcriptText != "" {
		callCtx, cancel := context.WithTimeout(ctx, f.timeout)
		defer cancel()

		start := time.Now()
		text, err := f.summarizer.Summarize(callCtx, transcriptText)
		metrics.ObserveSummarization(time.Since(start), err == nil)
		if err != nil {
			slog.Error("summarization failed", "session_id", st.ID, "error", err)
			return f.fail(st, f.now().Sub(st.StartedAt), "failed to finalize session")
		}
		summaryText = strings.TrimSpace(text)
		if summaryText == "" {
			summaryText = EmptySummary
		}
		title = DeriveTitle(summaryText, f.titleMax)
	}

	// Duration is measured through summarization, from session start to
	// the persist step.
	duration := f.now().Sub(st.StartedAt)

	if err := f.store.FinalizeSession(st.ID, transcriptText, summaryText, title, string(StatusCompleted), duration.Milliseconds()); err != nil {
		slog.Error("finalization persist failed", "session_id", st.ID, "error", err)
		return f.fail(st, duration, "failed to finalize session")
	}

	return Outcome{
		Status:   StatusCompleted,
		Summary:  summaryText,
		Title:    title,
		Duration: duration,
	}
}

// fail records the failed terminal state. The store write is best effort:
// clients only ever see the error event, never partial results.
func (f *Finalizer) fail(st *State, duration time.Duration, message string) Outcome {
	if err := f.store.MarkFailed(st.ID); err != nil {
		slog.Error("mark session failed errored", "session_id", st.ID, "error", err)
	}
	return Outcome{
		Status:   StatusFailed,
		Duration: duration,
		Message:  message,
	}
}

func (f *Finalizer) emit(sessionID string, out *Outcome) {
	if f.hub == nil {
		return
	}
	switch out.Status {
	case StatusCompleted:
		f.hub.BroadcastStateChange(sessionID, string(StatusCompleted))
		f.hub.BroadcastSessionCompleted(sessionID, out.Summary, out.Title, out.Duration)
	case StatusFailed:
		f.hub.BroadcastStateChange(sessionID, string(StatusFailed))
		f.hub.BroadcastError(sessionID, out.Message)
	}
}

// DeriveTitle returns the first non-blank line of a summary, taken
// verbatim and truncated to maxRunes, or the default sentinel if the
// summary has no usable line.
func DeriveTitle(summary string, maxRunes int) string {
	if maxRunes <= 0 {
		maxRunes = TitleMaxRunes
	}

	for _, line := range strings.Split(summary, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		runes := []rune(line)
		if len(runes) > maxRunes {
			return string(runes[:maxRunes])
		}
		return line
	}
	return DefaultTitle
}
