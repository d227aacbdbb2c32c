package server

import (
	"net/http"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// handleEventsWS streams newly ingested trade events to a websocket client.
// Each accepted event is written as one JSON message. The subscription is
// dropped when the client disconnects.
// GET /api/events/ws
func (s *Server) handleEventsWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("Websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	// The stream is write-only; CloseRead discards client messages and
	// cancels the context when the peer disconnects.
	ctx := conn.CloseRead(r.Context())

	id, ch := s.notifier.Subscribe()
	defer s.notifier.Unsubscribe(id)

	s.log.Info().Int("subscriber_id", id).Msg("Websocket event stream opened")

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case ev, ok := <-ch:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "notifier stopped")
				return
			}
			if err := wsjson.Write(ctx, conn, ev); err != nil {
				closeStatus := websocket.CloseStatus(err)
				if closeStatus != websocket.StatusNormalClosure && closeStatus != websocket.StatusGoingAway && ctx.Err() == nil {
					s.log.Warn().Err(err).Msg("Websocket write failed")
				}
				return
			}
		}
	}
}
