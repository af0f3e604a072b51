package session

import (
	"context"
	"log/slog"
	"time"
)

// Engine bundles the registry, the ingestion pipeline, and the
// finalization coordinator behind the operations the transport layer
// drives. All collaborators are constructed once at process start and
// shared read-only thereafter.
type Engine struct {
	registry  *Registry
	pipeline  *Pipeline
	finalizer *Finalizer
}

func NewEngine(registry *Registry, pipeline *Pipeline, finalizer *Finalizer) *Engine {
	return &Engine{
		registry:  registry,
		pipeline:  pipeline,
		finalizer: finalizer,
	}
}

// Start creates a session and returns its id.
func (e *Engine) Start(ctx context.Context, ownerID string, source Source) (string, error) {
	st, err := e.registry.Create(ctx, ownerID, source)
	if err != nil {
		return "", err
	}
	return st.ID, nil
}

// Ingest feeds one audio fragment into the pipeline.
func (e *Engine) Ingest(ctx context.Context, sessionID string, sequence float64, payload []byte, mimeType string) error {
	return e.pipeline.Ingest(ctx, sessionID, sequence, payload, mimeType)
}

func (e *Engine) Pause(sessionID string) error {
	return e.pipeline.Pause(sessionID)
}

func (e *Engine) Resume(sessionID string) error {
	return e.pipeline.Resume(sessionID)
}

// Stop finalizes a session; duplicate stops replay the recorded outcome.
func (e *Engine) Stop(ctx context.Context, sessionID string) error {
	return e.finalizer.Finalize(ctx, sessionID)
}

// Status reports the lifecycle state of a live session.
func (e *Engine) Status(sessionID string) (Status, error) {
	st, err := e.registry.Get(sessionID)
	if err != nil {
		return "", err
	}
	return st.Status(), nil
}

// Transcript returns the live rendered transcript of a session that has
// not reached a terminal state. Terminal sessions report false; their
// transcript lives in the store.
func (e *Engine) Transcript(sessionID string) (string, bool) {
	st, err := e.registry.Get(sessionID)
	if err != nil || st.Status().Terminal() {
		return "", false
	}
	return st.Transcript(), true
}

// Active returns the number of sessions held by the registry.
func (e *Engine) Active() int {
	return e.registry.Active()
}

// StartReaper finalizes abandoned sessions and evicts terminal ones.
func (e *Engine) StartReaper(ctx context.Context, reapAfter time.Duration) {
	e.registry.StartReaper(ctx, reapAfter, func(ctx context.Context, id string) {
		if err := e.finalizer.Finalize(ctx, id); err != nil {
			slog.Error("reaper finalize failed", "session_id", id, "error", err)
		}
	})
}

// Shutdown finalizes every still-active session before the process exits.
func (e *Engine) Shutdown(ctx context.Context) {
	for _, id := range e.registry.IDs() {
		st, err := e.registry.Get(id)
		if err != nil || st.Status().Terminal() {
			continue
		}
		if err := e.finalizer.Finalize(ctx, id); err != nil {
			slog.Error("shutdown finalize failed", "session_id", id, "error", err)
		}
	}
}
