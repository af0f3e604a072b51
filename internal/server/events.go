package server

import (
	"encoding/json"
	"log"
	"time"
)

const EventVersion = 1

// Event is the common header carried by every outbound message.
type Event struct {
	Type      string `json:"type"`
	Version   int    `json:"version"`
	Timestamp string `json:"timestamp"`
}

type SessionStartedEvent struct {
	Event
	SessionID string `json:"session_id"`
}

type TranscriptChunkEvent struct {
	Event
	SessionID string  `json:"session_id"`
	Text      string  `json:"text"`
	Sequence  float64 `json:"sequence"`
}

type StateChangeEvent struct {
	Event
	SessionID string `json:"session_id"`
	State     string `json:"state"`
}

type SessionCompletedEvent struct {
	Event
	SessionID string  `json:"session_id"`
	Summary   string  `json:"summary"`
	Title     string  `json:"title"`
	Duration  float64 `json:"duration"`
}

type ErrorEvent struct {
	Event
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

type ConnectionEvent struct {
	Event
	Connected bool `json:"connected"`
}

func newEvent(eventType string, now time.Time) Event {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	return Event{
		Type:      eventType,
		Version:   EventVersion,
		Timestamp: now.UTC().Format(time.RFC3339Nano),
	}
}

func encodeEvent(event any) []byte {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("event marshal error: %v", err)
		return nil
	}
	return payload
}
