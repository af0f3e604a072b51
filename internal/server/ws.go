package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/scribeai/scribe/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Controller is the slice of the session engine the transport drives.
type Controller interface {
	Start(ctx context.Context, ownerID string, source session.Source) (string, error)
	Ingest(ctx context.Context, sessionID string, sequence float64, payload []byte, mimeType string) error
	Pause(sessionID string) error
	Resume(sessionID string) error
	Stop(ctx context.Context, sessionID string) error
	Status(sessionID string) (session.Status, error)
}

// ClientMessage is the inbound wire format. Data is base64 in JSON.
type ClientMessage struct {
	Type      string  `json:"type"`
	OwnerID   string  `json:"owner_id,omitempty"`
	Source    string  `json:"source,omitempty"`
	SessionID string  `json:"session_id,omitempty"`
	Data      []byte  `json:"data,omitempty"`
	MimeType  string  `json:"mime_type,omitempty"`
	Sequence  float64 `json:"sequence,omitempty"`
}

type wsConn struct {
	conn *websocket.Conn
	hub  *Hub
	ctrl Controller

	out  chan []byte
	done chan struct{}

	mu    sync.Mutex
	rooms map[string]struct{}
}

func registerWSRoute(mux *http.ServeMux, hub *Hub, ctrl Controller) {
	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("ws upgrade error: %v", err)
			return
		}
		defer func() { _ = conn.Close() }()

		c := &wsConn{
			conn:  conn,
			hub:   hub,
			ctrl:  ctrl,
			out:   make(chan []byte, 64),
			done:  make(chan struct{}),
			rooms: make(map[string]struct{}),
		}

		go c.writeLoop()
		c.send(encodeEvent(ConnectionEvent{
			Event:     newEvent("connection", time.Now().UTC()),
			Connected: true,
		}))

		c.readLoop()
		c.teardown()
	})
}

func (c *wsConn) writeLoop() {
	for {
		select {
		case msg := <-c.out:
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// send never blocks; a connection that cannot keep up drops messages.
func (c *wsConn) send(msg []byte) {
	if msg == nil {
		return
	}
	select {
	case c.out <- msg:
	default:
	}
}

func (c *wsConn) readLoop() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError("", "malformed message")
			continue
		}

		c.dispatch(msg)
	}
}

func (c *wsConn) dispatch(msg ClientMessage) {
	switch msg.Type {
	case "start_session":
		c.handleStart(msg)
	case "join":
		c.handleJoin(msg)
	case "audio_chunk":
		// Transcription is the long-latency call; run it off the read
		// loop so fragments of one connection transcribe concurrently.
		go c.handleChunk(msg)
	case "pause_session":
		c.handleControl(msg.SessionID, c.ctrl.Pause)
	case "resume_session":
		c.handleControl(msg.SessionID, c.ctrl.Resume)
	case "stop_session":
		go c.handleStop(msg)
	default:
		c.sendError("", "unknown message type "+msg.Type)
	}
}

func (c *wsConn) handleStart(msg ClientMessage) {
	if strings.TrimSpace(msg.OwnerID) == "" {
		c.sendError("", "owner_id is required")
		return
	}
	source, ok := session.ParseSource(msg.Source)
	if !ok {
		c.sendError("", "source must be mic or tab")
		return
	}

	id, err := c.ctrl.Start(context.Background(), msg.OwnerID, source)
	if err != nil {
		log.Printf("start session error: %v", err)
		c.sendError("", "failed to start session")
		return
	}

	c.join(id)
	c.send(encodeEvent(SessionStartedEvent{
		Event:     newEvent("session_started", time.Now().UTC()),
		SessionID: id,
	}))
}

func (c *wsConn) handleJoin(msg ClientMessage) {
	status, err := c.ctrl.Status(msg.SessionID)
	if err != nil {
		c.sendError(msg.SessionID, "session not found")
		return
	}

	c.join(msg.SessionID)
	c.send(encodeEvent(StateChangeEvent{
		Event:     newEvent("state_change", time.Now().UTC()),
		SessionID: msg.SessionID,
		State:     string(status),
	}))
}

func (c *wsConn) handleChunk(msg ClientMessage) {
	err := c.ctrl.Ingest(context.Background(), msg.SessionID, msg.Sequence, msg.Data, msg.MimeType)
	switch {
	case err == nil:
	case errors.Is(err, session.ErrSessionSealed):
		// Late fragment racing the stop event: dropped, not an error.
	case errors.Is(err, session.ErrNotFound):
		c.sendError(msg.SessionID, "session not found")
	default:
		log.Printf("ingest error for session %s: %v", msg.SessionID, err)
	}
}

func (c *wsConn) handleControl(sessionID string, op func(string) error) {
	err := op(sessionID)
	switch {
	case err == nil:
	case errors.Is(err, session.ErrNotFound):
		c.sendError(sessionID, "session not found")
	case errors.Is(err, session.ErrInvalidTransition):
		c.sendError(sessionID, "control event not valid in current state")
	default:
		c.sendError(sessionID, "control event failed")
	}
}

func (c *wsConn) handleStop(msg ClientMessage) {
	if err := c.ctrl.Stop(context.Background(), msg.SessionID); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			c.sendError(msg.SessionID, "session not found")
			return
		}
		log.Printf("stop session error for %s: %v", msg.SessionID, err)
	}
}

func (c *wsConn) sendError(sessionID, message string) {
	c.send(encodeEvent(ErrorEvent{
		Event:     newEvent("error", time.Now().UTC()),
		SessionID: sessionID,
		Message:   message,
	}))
}

func (c *wsConn) join(sessionID string) {
	c.mu.Lock()
	_, joined := c.rooms[sessionID]
	if !joined {
		c.rooms[sessionID] = struct{}{}
	}
	c.mu.Unlock()

	if !joined {
		c.hub.Join(sessionID, c.out)
	}
}

func (c *wsConn) teardown() {
	close(c.done)

	c.mu.Lock()
	rooms := make([]string, 0, len(c.rooms))
	for id := range c.rooms {
		rooms = append(rooms, id)
	}
	c.rooms = make(map[string]struct{})
	c.mu.Unlock()

	for _, id := range rooms {
		c.hub.Leave(id, c.out)
	}
}
