package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
)

// StreamWriter serializes SSE frames onto one response. The heartbeat timer
// and the request goroutine share it, so every write holds the mutex. Writes
// after Close are silently dropped; the client has gone away or the stream
// already terminated.
type StreamWriter struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	closed  bool
}

// NewStreamWriter sets the SSE headers and returns a writer. Fails when the
// underlying ResponseWriter cannot flush.
func NewStreamWriter(w http.ResponseWriter) (*StreamWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream; charset=utf-8")
	h.Set("Cache-Control", "no-cache, no-transform")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")

	return &StreamWriter{w: w, flusher: flusher}, nil
}

// Prelude writes the no-op comment that forces intermediaries to commit the
// response early.
func (s *StreamWriter) Prelude() {
	s.write(":ok\n\n")
}

// Data marshals v into a data frame.
func (s *StreamWriter) Data(v interface{}) {
	encoded, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.write("data: " + string(encoded) + "\n\n")
}

// Comment writes a full comment frame, used for telemetry markers.
func (s *StreamWriter) Comment(text string) {
	s.write(": " + text + "\n\n")
}

// CommentLine writes a bare comment line without the frame terminator, for
// telemetry lines that ride in front of the next frame.
func (s *StreamWriter) CommentLine(text string) {
	s.write(": " + text + "\n")
}

// Done terminates the stream. Always the last frame; later writes are
// dropped.
func (s *StreamWriter) Done() {
	s.write("data: [DONE]\n\n")
	s.Close()
}

// Close marks the stream terminated without writing.
func (s *StreamWriter) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *StreamWriter) write(raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if _, err := fmt.Fprint(s.w, raw); err != nil {
		s.closed = true
		return
	}
	s.flusher.Flush()
}
