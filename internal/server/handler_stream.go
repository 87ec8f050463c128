package server

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/simonvc/cafeledger/internal/logging"
)

// ChangeEvent is sent on the stream whenever the book version moves.
type ChangeEvent struct {
	Type    string    `json:"type"`
	Version int64     `json:"version"`
	At      time.Time `json:"at"`
}

// stream pushes a ChangeEvent on connect and after every write to the book,
// so clients know to refetch their reports.
func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Warn("websocket accept", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	// Clients never send; CloseRead cancels ctx when they hang up.
	ctx := conn.CloseRead(context.Background())

	last := int64(-1)
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()
	for {
		version, err := s.store.Version(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Error("stream version", zap.Error(err))
				conn.Close(websocket.StatusInternalError, "version unavailable")
			}
			return
		}
		if version != last {
			ev := ChangeEvent{Type: "changed", Version: version, At: s.now()}
			if last < 0 {
				ev.Type = "hello"
			}
			if err := wsjson.Write(ctx, conn, ev); err != nil {
				log.Debug("stream write", zap.Error(err))
				return
			}
			last = version
		}

		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case <-ticker.C:
		}
	}
}
