// pkg/web/ws.go

package web

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cyberasio/core/pkg/models"
)

// streamSpectrum upgrades the connection and pushes one spectrum frame per
// engine tick. Slow clients skip frames rather than backing up the engine.
func (s *Server) streamSpectrum(w http.ResponseWriter, r *http.Request) {
	if s.engine == nil {
		s.writeError(w, http.StatusServiceUnavailable, msgEngineUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	if s.collector != nil {
		s.collector.SubscriberConnected()
	}

	frames := make(chan spectrumFrame, 8)

	unsubscribe := s.engine.Subscribe(func(snap models.MetricsSnapshot) {
		select {
		case frames <- spectrumFrame{Spectrum: snap.Spectrum}:
		default:
		}
	})

	s.log.Debug("spectrum subscriber connected", zap.String("remote", conn.RemoteAddr().String()))

	go s.writeFrames(conn, frames, unsubscribe)
	go discardReads(conn)
}

func (s *Server) writeFrames(conn *websocket.Conn, frames <-chan spectrumFrame, unsubscribe func()) {
	defer func() {
		unsubscribe()
		_ = conn.Close()

		if s.collector != nil {
			s.collector.SubscriberDisconnected()
		}
	}()

	for {
		select {
		case <-s.done:
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		case frame := <-frames:
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
		}
	}
}

// discardReads drains client messages so control frames are handled and a
// closed peer is noticed.
func discardReads(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			_ = conn.Close()
			return
		}
	}
}
