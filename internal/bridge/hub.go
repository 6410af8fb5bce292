package bridge

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Garsondee/tactical-overlays/internal/logging"
)

const (
	sendBuffer   = 16
	writeTimeout = 5 * time.Second
)

// session is one websocket client. Only writeLoop writes to conn.
type session struct {
	id   string
	conn *websocket.Conn
	log  *logging.Logger

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newSession(id string, conn *websocket.Conn, log *logging.Logger) *session {
	return &session{
		id:   id,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		log:  log,
	}
}

// enqueue queues data without blocking. Slow clients lose messages.
func (s *session) enqueue(data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.send <- data:
		return true
	default:
		s.log.Warnf("session %s: send buffer full; dropping message", s.id)
		return false
	}
}

func (s *session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.send)
	}
}

func (s *session) writeLoop() {
	defer s.conn.Close()
	for data := range s.send {
		s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			s.log.Debugf("session %s: write: %v", s.id, err)
			return
		}
	}
	s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// hub tracks sessions and the latest frame.
//
// Thread-Safety: all methods are safe for concurrent use.
type hub struct {
	mu        sync.Mutex
	sessions  map[*session]struct{}
	lastFrame []byte
	seq       uint64
}

func newHub() *hub {
	return &hub{sessions: make(map[*session]struct{})}
}

// register adds s and returns the latest frame for it, if any.
func (h *hub) register(s *session) []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s] = struct{}{}
	return h.lastFrame
}

func (h *hub) unregister(s *session) {
	h.mu.Lock()
	_, ok := h.sessions[s]
	delete(h.sessions, s)
	h.mu.Unlock()
	if ok {
		s.close()
	}
}

// broadcast stores frame as the latest and queues it for every session.
func (h *hub) broadcast(frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastFrame = frame
	for s := range h.sessions {
		s.enqueue(frame)
	}
}

func (h *hub) nextSeq() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	return h.seq
}

func (h *hub) stats() (sessions int, seq uint64, frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions), h.seq, h.lastFrame
}

func (h *hub) closeAll() {
	h.mu.Lock()
	all := h.sessions
	h.sessions = make(map[*session]struct{})
	h.mu.Unlock()
	for s := range all {
		s.close()
	}
}
