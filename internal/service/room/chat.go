package room

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

type SendChatMessageParams struct {
	RoomId   string
	Username string
	Message  string
}

type SendChatMessageResponse struct {
	Message ChatMessage
	Conns   []*websocket.Conn
}

// SendChatMessage fans a chat line out to the whole room with a
// server-assigned timestamp.
func (s *service) SendChatMessage(ctx context.Context, params *SendChatMessageParams) (SendChatMessageResponse, error) {
	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return SendChatMessageResponse{}, fmt.Errorf("failed to get conns by room id: %w", err)
	}

	return SendChatMessageResponse{
		Message: ChatMessage{
			Username:  params.Username,
			Message:   params.Message,
			Timestamp: time.Now().UnixMilli(),
		},
		Conns: conns,
	}, nil
}

type SendReactionParams struct {
	RoomId   string
	Emoji    string
	Username string
}

type SendReactionResponse struct {
	Emoji    string
	Username string
	Conns    []*websocket.Conn
}

// SendReaction is purely ephemeral: broadcast to the whole room including
// the originator, never stored.
func (s *service) SendReaction(ctx context.Context, params *SendReactionParams) (SendReactionResponse, error) {
	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return SendReactionResponse{}, fmt.Errorf("failed to get conns by room id: %w", err)
	}

	return SendReactionResponse{
		Emoji:    params.Emoji,
		Username: params.Username,
		Conns:    conns,
	}, nil
}
