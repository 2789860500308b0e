package room

import (
	"context"

	"github.com/gorilla/websocket"
)

type output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// sendToAll writes msg to every connection, dropping the ones that fail.
// Writes go through the connection registry so they are serialized against
// the controller's broadcasts for the same connection.
func (s *service) sendToAll(ctx context.Context, conns []*websocket.Conn, msg *output) {
	for _, conn := range conns {
		if err := s.connRepo.WriteJSON(conn, msg); err != nil {
			s.logger.InfoContext(ctx, "failed to write to connection", "error", err)
			s.connRepo.RemoveByConn(conn)
			conn.Close()
		}
	}
}
