package web

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vbonduro/dishout/internal/session"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 25 * time.Second
)

// handleStateStream pushes the client's state over a websocket: the
// current snapshot on connect, then one message per dispatch. Slow readers
// skip intermediate snapshots.
func (s *Server) handleStateStream(w http.ResponseWriter, r *http.Request, clientID string) {
	store := s.sessions.Get(r.Context(), clientID)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "client_id", clientID, "error", err)
		return
	}
	defer closeWithLog(conn, "websocket", s.logger)

	updates, cancel := store.Subscribe()
	defer cancel()

	// Reads only serve to notice the peer going away and to handle pongs.
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	s.logger.Debug("state stream opened", "client_id", clientID)
	if err := s.writeFrame(conn, store.State()); err != nil {
		return
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			s.logger.Debug("state stream closed", "client_id", clientID)
			return
		case st, ok := <-updates:
			if !ok {
				return
			}
			if err := s.writeFrame(conn, st); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) writeFrame(conn *websocket.Conn, st session.State) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(st.ForViewer()); err != nil {
		s.logger.Debug("state stream write failed", "error", err)
		return err
	}
	return nil
}
