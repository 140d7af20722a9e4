package dialogue

import "sync"

// maxBufferedLines caps the per-session backlog so an abandoned session
// cannot accumulate lines forever. Oldest lines are dropped first.
const maxBufferedLines = 32

// MemorySink buffers narration lines per session until the client polls
// them. Safe for concurrent use.
type MemorySink struct {
	mu    sync.Mutex
	lines map[string][]string
}

// NewMemorySink creates an empty sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{lines: make(map[string][]string)}
}

// Publish appends a line to the session's buffer, evicting the oldest line
// once the buffer is full.
func (s *MemorySink) Publish(sessionID, line string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := append(s.lines[sessionID], line)
	if len(buf) > maxBufferedLines {
		buf = buf[len(buf)-maxBufferedLines:]
	}
	s.lines[sessionID] = buf
}

// Drain returns and clears the session's buffered lines in arrival order.
//
// Postcondition: A second Drain without intervening Publish returns nil.
func (s *MemorySink) Drain(sessionID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := s.lines[sessionID]
	delete(s.lines, sessionID)
	return buf
}

// Forget discards any buffered lines for a session.
func (s *MemorySink) Forget(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lines, sessionID)
}
