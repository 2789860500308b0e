package controller

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// broadcast writes out to every connection through the registry, which
// serializes writers per connection. A failed write evicts the connection;
// the remaining recipients still get the message.
func (c controller) broadcast(ctx context.Context, conns []*websocket.Conn, out *Output) {
	for _, conn := range conns {
		if err := c.connRepo.WriteJSON(conn, out); err != nil {
			c.logger.InfoContext(ctx, "failed to write to connection", "type", out.Type, "error", err)
			c.connRepo.RemoveByConn(conn)
			conn.Close()
		}
	}
}

// unmarshalPayload decodes and validates an inbound event payload. Invalid
// payloads are dropped: the protocol defines no error event.
func (c controller) unmarshalPayload(payload json.RawMessage, target any) error {
	if err := json.Unmarshal(payload, target); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if validationErrors, ok := c.validate.Validate(target); !ok {
		return fmt.Errorf("invalid payload: %v", validationErrors)
	}

	return nil
}
