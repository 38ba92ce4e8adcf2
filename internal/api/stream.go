package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/AstroAssist-core/server/internal/mission/dashboard"
	logx "github.com/AstroAssist-core/server/pkg/logger"
)

const (
	streamBuffer = 16
	writeWait    = 5 * time.Second
	pingPeriod   = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleDashboardStream pushes the rendered view after every state change.
// Views older than the last one sent are skipped.
func (s *Server) handleDashboardStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logx.Warn().Err(err).Msg("dashboard stream upgrade failed")
		return
	}
	defer conn.Close()

	snaps, cancel := s.station.Subscribe(streamBuffer)
	defer cancel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	var sent uint64
	first := true
	for {
		select {
		case <-closed:
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case snap, ok := <-snaps:
			if !ok {
				return
			}
			if !first && snap.Version <= sent {
				continue
			}
			first = false
			sent = snap.Version
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(dashboard.Render(snap, s.loc)); err != nil {
				logx.Debug().Err(err).Msg("dashboard stream write failed")
				return
			}
		}
	}
}
