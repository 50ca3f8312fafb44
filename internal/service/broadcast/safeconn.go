package broadcast

import (
	"sync"

	"github.com/gorilla/websocket"
)

// wsConn is the write surface of an upgraded connection. Satisfied by
// *websocket.Conn.
type wsConn interface {
	WriteJSON(v interface{}) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// SafeConn serializes every write to one websocket connection. gorilla
// allows at most one concurrent writer per connection, while the hub, the
// initial snapshot and the keep-alive reply can all write at once — so a
// connection is always wrapped before it is subscribed.
type SafeConn struct {
	mu   sync.Mutex
	conn wsConn
}

func NewSafeConn(c wsConn) *SafeConn {
	return &SafeConn{conn: c}
}

func (s *SafeConn) WriteJSON(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

// WriteText sends a text frame under the same write lock. The read loop
// uses it for the keep-alive reply.
func (s *SafeConn) WriteText(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *SafeConn) Close() error {
	return s.conn.Close()
}
