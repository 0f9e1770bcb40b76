// File: internal/handlers/stream.go
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Event types emitted on the interaction stream.
const (
	eventDelta   = "delta"
	eventSources = "sources"
	eventError   = "error"
	eventDone    = "done"
)

type streamEvent struct {
	Type    string   `json:"type"`
	Text    string   `json:"text,omitempty"`
	Sources []string `json:"sources,omitempty"`
	Message string   `json:"message,omitempty"`
}

// eventStreamWriter frames tagged JSON events as server-sent events and
// flushes after each one so fragments reach the client as they arrive.
//
// Headers go out lazily on the first event. Until then the handler can
// still fail the request with a plain JSON error status.
type eventStreamWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	opened  bool
	erred   bool
}

func newEventStreamWriter(w http.ResponseWriter) (*eventStreamWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}
	return &eventStreamWriter{w: w, flusher: flusher}, nil
}

func (s *eventStreamWriter) Opened() bool {
	return s.opened
}

func (s *eventStreamWriter) open() {
	s.w.Header().Set("Content-Type", "text/event-stream")
	s.w.Header().Set("Cache-Control", "no-cache")
	s.w.Header().Set("Connection", "keep-alive")
	s.w.Header().Set("X-Accel-Buffering", "no")
	s.w.WriteHeader(http.StatusOK)
	s.flusher.Flush()
	s.opened = true
}

func (s *eventStreamWriter) send(ev streamEvent) error {
	if !s.opened {
		s.open()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func (s *eventStreamWriter) sendDelta(text string) error {
	return s.send(streamEvent{Type: eventDelta, Text: text})
}

func (s *eventStreamWriter) sendSources(sources []string) error {
	return s.send(streamEvent{Type: eventSources, Sources: sources})
}

func (s *eventStreamWriter) sendError(message string) error {
	s.erred = true
	return s.send(streamEvent{Type: eventError, Message: message})
}

// sendDone closes the stream happy-path; after an error event the error is
// the terminal event.
func (s *eventStreamWriter) sendDone() error {
	if s.erred {
		return nil
	}
	return s.send(streamEvent{Type: eventDone})
}
