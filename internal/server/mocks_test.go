package server

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/scribeai/scribe/internal/session"
	"github.com/scribeai/scribe/internal/storage"
)

type ctrlCall struct {
	Op        string
	SessionID string
	Sequence  float64
	Payload   []byte
}

// ctrlMock fakes the session engine. Session ids are handed out from a
// fixed list; per-id errors let tests drive each transport branch.
type ctrlMock struct {
	mu       sync.Mutex
	calls    []ctrlCall
	nextID   string
	statuses map[string]session.Status
	errs     map[string]error
}

func newCtrlMock() *ctrlMock {
	return &ctrlMock{
		nextID:   "sess-1",
		statuses: map[string]session.Status{},
		errs:     map[string]error{},
	}
}

func (c *ctrlMock) record(op, sessionID string, sequence float64, payload []byte) {
	c.mu.Lock()
	c.calls = append(c.calls, ctrlCall{Op: op, SessionID: sessionID, Sequence: sequence, Payload: payload})
	c.mu.Unlock()
}

func (c *ctrlMock) Start(_ context.Context, ownerID string, _ session.Source) (string, error) {
	c.record("start", "", 0, nil)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.errs["start"]; err != nil {
		return "", err
	}
	c.statuses[c.nextID] = session.StatusRecording
	return c.nextID, nil
}

func (c *ctrlMock) Ingest(_ context.Context, sessionID string, sequence float64, payload []byte, _ string) error {
	c.record("ingest", sessionID, sequence, payload)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.errs[sessionID]; err != nil {
		return err
	}
	if _, ok := c.statuses[sessionID]; !ok {
		return session.ErrNotFound
	}
	return nil
}

func (c *ctrlMock) Pause(sessionID string) error {
	c.record("pause", sessionID, 0, nil)
	return c.transition(sessionID, session.StatusRecording, session.StatusPaused)
}

func (c *ctrlMock) Resume(sessionID string) error {
	c.record("resume", sessionID, 0, nil)
	return c.transition(sessionID, session.StatusPaused, session.StatusRecording)
}

func (c *ctrlMock) transition(sessionID string, from, to session.Status) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	status, ok := c.statuses[sessionID]
	if !ok {
		return session.ErrNotFound
	}
	if status != from {
		return session.ErrInvalidTransition
	}
	c.statuses[sessionID] = to
	return nil
}

func (c *ctrlMock) Stop(_ context.Context, sessionID string) error {
	c.record("stop", sessionID, 0, nil)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.statuses[sessionID]; !ok {
		return session.ErrNotFound
	}
	c.statuses[sessionID] = session.StatusCompleted
	return nil
}

func (c *ctrlMock) Status(sessionID string) (session.Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	status, ok := c.statuses[sessionID]
	if !ok {
		return "", session.ErrNotFound
	}
	return status, nil
}

func (c *ctrlMock) callsFor(op string) []ctrlCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []ctrlCall
	for _, call := range c.calls {
		if call.Op == op {
			out = append(out, call)
		}
	}
	return out
}

type storeMock struct {
	sessions map[string]storage.Session
	dates    []string
	err      error
}

func (s *storeMock) GetSessionsByDate(date string) ([]storage.Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []storage.Session
	for _, sess := range s.sessions {
		if sess.StartedAt.UTC().Format("2006-01-02") == date {
			out = append(out, sess)
		}
	}
	return out, nil
}

func (s *storeMock) GetSession(id string) (storage.Session, error) {
	if s.err != nil {
		return storage.Session{}, s.err
	}
	sess, ok := s.sessions[id]
	if !ok {
		return storage.Session{}, sql.ErrNoRows
	}
	return sess, nil
}

func (s *storeMock) GetDates() ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.dates, nil
}

var errBoom = errors.New("boom")
