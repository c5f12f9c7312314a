package realtime

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	// sendBuffer bounds how far a session may fall behind before it is
	// dropped rather than stalling the hub.
	sendBuffer = 64

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// session is one connected websocket client. The hub owns registration;
// the session owns its connection's read and write loops.
type session struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func newSession(h *Hub, conn *websocket.Conn) *session {
	return &session{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}
}

// writePump drains the send channel onto the wire. A write failure is a
// transport error: logged by the hub on unregister, never surfaced to the
// writer that caused the event.
func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()
	for {
		select {
		case frame, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.hub.unregister(s)
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.hub.unregister(s)
				return
			}
		}
	}
}

// readPump discards inbound frames (clients talk to the HTTP API, not the
// socket) and detects the close handshake.
func (s *session) readPump() {
	defer func() {
		s.hub.unregister(s)
		s.conn.Close()
	}()
	s.conn.SetReadLimit(1024)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}
