package server

import (
	"sync"
	"time"

	"github.com/scribeai/scribe/internal/transcript"
)

// Hub fans events out to the subscribers of each session's room. Delivery
// is live-broadcast only: a subscriber that is not connected at publish
// time misses the event. Sends never block; a subscriber that cannot keep
// up drops messages instead of stalling the publisher, so per-session
// publish order is preserved for everyone else.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[chan []byte]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[chan []byte]struct{})}
}

// Join registers an outbound channel with a session's room. The caller
// owns the channel and closes it after leaving all rooms.
func (h *Hub) Join(sessionID string, ch chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[sessionID]
	if !ok {
		room = make(map[chan []byte]struct{})
		h.rooms[sessionID] = room
	}
	room[ch] = struct{}{}
}

// Leave removes a channel from a session's room.
func (h *Hub) Leave(sessionID string, ch chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[sessionID]
	if !ok {
		return
	}
	delete(room, ch)
	if len(room) == 0 {
		delete(h.rooms, sessionID)
	}
}

// Broadcast delivers a payload to every current subscriber of a room.
func (h *Hub) Broadcast(sessionID string, msg []byte) {
	if msg == nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.rooms[sessionID] {
		select {
		case ch <- msg:
		default:
		}
	}
}

// Subscribers returns the current size of a session's room.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[sessionID])
}

func (h *Hub) BroadcastTranscriptChunk(sessionID string, frag transcript.Fragment) {
	h.Broadcast(sessionID, encodeEvent(TranscriptChunkEvent{
		Event:     newEvent("transcript_chunk", time.Now().UTC()),
		SessionID: sessionID,
		Text:      frag.Text,
		Sequence:  frag.Sequence,
	}))
}

func (h *Hub) BroadcastStateChange(sessionID, state string) {
	h.Broadcast(sessionID, encodeEvent(StateChangeEvent{
		Event:     newEvent("state_change", time.Now().UTC()),
		SessionID: sessionID,
		State:     state,
	}))
}

func (h *Hub) BroadcastSessionCompleted(sessionID, summary, title string, duration time.Duration) {
	h.Broadcast(sessionID, encodeEvent(SessionCompletedEvent{
		Event:     newEvent("session_completed", time.Now().UTC()),
		SessionID: sessionID,
		Summary:   summary,
		Title:     title,
		Duration:  duration.Seconds(),
	}))
}

func (h *Hub) BroadcastError(sessionID, message string) {
	h.Broadcast(sessionID, encodeEvent(ErrorEvent{
		Event:     newEvent("error", time.Now().UTC()),
		SessionID: sessionID,
		Message:   message,
	}))
}
