package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/cinesync/server/internal/service/room"
	"github.com/cinesync/server/pkg/ctxlogger"
)

func (c controller) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}

	connId := uuid.NewString()
	ctx := context.WithValue(r.Context(), connIdCtxKey, connId)
	ctx = ctxlogger.AppendCtx(ctx, slog.String("conn_id", connId))

	defer c.disconnect(ctx, conn)

	if err := c.wsmux.ServeConn(ctx, conn); err != nil {
		c.logger.DebugContext(ctx, "connection closed", "error", err)
	}
}

// disconnect runs when the read loop exits for any reason. A connection
// that never joined a room is not an error.
func (c controller) disconnect(ctx context.Context, conn *websocket.Conn) {
	leaveResp, err := c.roomService.DisconnectMember(ctx, &room.DisconnectMemberParams{Conn: conn})
	if err != nil {
		if !errors.Is(err, room.ErrMemberNotFound) {
			c.logger.WarnContext(ctx, "failed to disconnect member", "error", err)
		}
		return
	}

	c.broadcastLeave(ctx, &leaveResp)
}

// broadcastLeave tells the remaining members who left, and evicts them all
// when the host is gone.
func (c controller) broadcastLeave(ctx context.Context, leaveResp *room.LeaveRoomResponse) {
	c.broadcast(ctx, leaveResp.Conns, &Output{
		Type:    "chat-message",
		Payload: leaveResp.Message,
	})
	c.broadcast(ctx, leaveResp.Conns, &Output{
		Type:    "user-list",
		Payload: leaveResp.Members,
	})

	if leaveResp.WasHost {
		c.broadcast(ctx, leaveResp.Conns, &Output{
			Type:    "force-leave",
			Payload: nil,
		})
	}
}

type JoinRoomInput struct {
	RoomId   string `json:"roomId"`
	Username string `json:"username" validate:"required,max=64"`
	IsHost   bool   `json:"isHost"`
}

func (c controller) handleJoinRoom(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input JoinRoomInput
	if err := c.unmarshalPayload(payload, &input); err != nil {
		return err
	}

	joinRoomResp, err := c.roomService.JoinRoom(ctx, &room.JoinRoomParams{
		Conn:     conn,
		ConnId:   c.getConnIdFromCtx(ctx),
		RoomId:   input.RoomId,
		Username: input.Username,
		IsHost:   input.IsHost,
	})
	if err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}

	c.broadcast(ctx, joinRoomResp.Conns, &Output{
		Type:    "chat-message",
		Payload: joinRoomResp.Message,
	})
	c.broadcast(ctx, joinRoomResp.Conns, &Output{
		Type:    "user-list",
		Payload: joinRoomResp.Members,
	})

	return nil
}

type LeaveRoomInput struct {
	RoomId string `json:"roomId"`
}

func (c controller) handleLeaveRoom(ctx context.Context, _ *websocket.Conn, payload json.RawMessage) error {
	var input LeaveRoomInput
	if err := c.unmarshalPayload(payload, &input); err != nil {
		return err
	}

	leaveResp, err := c.roomService.LeaveRoom(ctx, &room.LeaveRoomParams{
		ConnId: c.getConnIdFromCtx(ctx),
	})
	if err != nil {
		// a second leave for the same connection is a no-op
		if errors.Is(err, room.ErrMemberNotFound) {
			c.logger.DebugContext(ctx, "leave for unknown connection dropped")
			return nil
		}

		return fmt.Errorf("failed to leave room: %w", err)
	}

	c.broadcastLeave(ctx, &leaveResp)

	return nil
}

type SelectMovieInput struct {
	RoomId   string `json:"roomId" validate:"required"`
	MovieURL string `json:"movieUrl" validate:"required"`
}

func (c controller) handleSelectMovie(ctx context.Context, _ *websocket.Conn, payload json.RawMessage) error {
	var input SelectMovieInput
	if err := c.unmarshalPayload(payload, &input); err != nil {
		return err
	}

	selectMovieResp, err := c.roomService.SelectMovie(ctx, &room.SelectMovieParams{
		SenderId: c.getConnIdFromCtx(ctx),
		RoomId:   input.RoomId,
		MovieURL: input.MovieURL,
	})
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			c.logger.DebugContext(ctx, "select-movie for unknown room dropped", "room_id", input.RoomId)
			return nil
		}

		return fmt.Errorf("failed to select movie: %w", err)
	}

	c.broadcast(ctx, selectMovieResp.Conns, &Output{
		Type: "load-movie",
		Payload: map[string]any{
			"movieUrl": selectMovieResp.MovieURL,
		},
	})

	return nil
}

type PlaybackInput struct {
	RoomId string  `json:"roomId" validate:"required"`
	Time   float64 `json:"time" validate:"gte=0"`
}

func (c controller) handlePlay(ctx context.Context, _ *websocket.Conn, payload json.RawMessage) error {
	var input PlaybackInput
	if err := c.unmarshalPayload(payload, &input); err != nil {
		return err
	}

	playResp, err := c.roomService.Play(ctx, &room.PlayParams{
		SenderId:    c.getConnIdFromCtx(ctx),
		RoomId:      input.RoomId,
		CurrentTime: input.Time,
	})
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			c.logger.DebugContext(ctx, "play for unknown room dropped", "room_id", input.RoomId)
			return nil
		}

		return fmt.Errorf("failed to play: %w", err)
	}

	c.broadcast(ctx, playResp.Conns, &Output{
		Type: "play",
		Payload: map[string]any{
			"time": playResp.CurrentTime,
		},
	})

	return nil
}

func (c controller) handlePause(ctx context.Context, _ *websocket.Conn, payload json.RawMessage) error {
	var input PlaybackInput
	if err := c.unmarshalPayload(payload, &input); err != nil {
		return err
	}

	pauseResp, err := c.roomService.Pause(ctx, &room.PauseParams{
		SenderId:    c.getConnIdFromCtx(ctx),
		RoomId:      input.RoomId,
		CurrentTime: input.Time,
	})
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			c.logger.DebugContext(ctx, "pause for unknown room dropped", "room_id", input.RoomId)
			return nil
		}

		return fmt.Errorf("failed to pause: %w", err)
	}

	c.broadcast(ctx, pauseResp.Conns, &Output{
		Type: "pause",
		Payload: map[string]any{
			"time": pauseResp.CurrentTime,
		},
	})

	return nil
}

func (c controller) handleSeek(ctx context.Context, _ *websocket.Conn, payload json.RawMessage) error {
	var input PlaybackInput
	if err := c.unmarshalPayload(payload, &input); err != nil {
		return err
	}

	seekResp, err := c.roomService.Seek(ctx, &room.SeekParams{
		SenderId:    c.getConnIdFromCtx(ctx),
		RoomId:      input.RoomId,
		CurrentTime: input.Time,
	})
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			c.logger.DebugContext(ctx, "seek for unknown room dropped", "room_id", input.RoomId)
			return nil
		}

		return fmt.Errorf("failed to seek: %w", err)
	}

	c.broadcast(ctx, seekResp.Conns, &Output{
		Type: "seek",
		Payload: map[string]any{
			"time": seekResp.CurrentTime,
		},
	})

	return nil
}

type RateChangeInput struct {
	RoomId string  `json:"roomId" validate:"required"`
	Rate   float64 `json:"rate" validate:"required,gte=0"`
}

func (c controller) handleRateChange(ctx context.Context, _ *websocket.Conn, payload json.RawMessage) error {
	var input RateChangeInput
	if err := c.unmarshalPayload(payload, &input); err != nil {
		return err
	}

	rateChangeResp, err := c.roomService.RateChange(ctx, &room.RateChangeParams{
		SenderId:     c.getConnIdFromCtx(ctx),
		RoomId:       input.RoomId,
		PlaybackRate: input.Rate,
	})
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			c.logger.DebugContext(ctx, "rate-change for unknown room dropped", "room_id", input.RoomId)
			return nil
		}

		return fmt.Errorf("failed to change rate: %w", err)
	}

	c.broadcast(ctx, rateChangeResp.Conns, &Output{
		Type: "rate-change",
		Payload: map[string]any{
			"rate": rateChangeResp.PlaybackRate,
		},
	})

	return nil
}

type ChatMessageInput struct {
	RoomId   string `json:"roomId" validate:"required"`
	Username string `json:"username" validate:"required,max=64"`
	Message  string `json:"message" validate:"required,max=2000"`
}

func (c controller) handleChatMessage(ctx context.Context, _ *websocket.Conn, payload json.RawMessage) error {
	var input ChatMessageInput
	if err := c.unmarshalPayload(payload, &input); err != nil {
		return err
	}

	chatResp, err := c.roomService.SendChatMessage(ctx, &room.SendChatMessageParams{
		RoomId:   input.RoomId,
		Username: input.Username,
		Message:  input.Message,
	})
	if err != nil {
		return fmt.Errorf("failed to send chat message: %w", err)
	}

	c.broadcast(ctx, chatResp.Conns, &Output{
		Type:    "chat-message",
		Payload: chatResp.Message,
	})

	return nil
}

type EmojiReactionInput struct {
	RoomId   string `json:"roomId" validate:"required"`
	Emoji    string `json:"emoji" validate:"required,max=16"`
	Username string `json:"username" validate:"required,max=64"`
}

func (c controller) handleEmojiReaction(ctx context.Context, _ *websocket.Conn, payload json.RawMessage) error {
	var input EmojiReactionInput
	if err := c.unmarshalPayload(payload, &input); err != nil {
		return err
	}

	reactionResp, err := c.roomService.SendReaction(ctx, &room.SendReactionParams{
		RoomId:   input.RoomId,
		Emoji:    input.Emoji,
		Username: input.Username,
	})
	if err != nil {
		return fmt.Errorf("failed to send reaction: %w", err)
	}

	c.broadcast(ctx, reactionResp.Conns, &Output{
		Type: "emoji-reaction",
		Payload: map[string]any{
			"emoji":    reactionResp.Emoji,
			"username": reactionResp.Username,
		},
	})

	return nil
}

type SubmitAnswerInput struct {
	RoomId   string `json:"roomId" validate:"required"`
	SceneId  int    `json:"sceneId"`
	Answer   string `json:"answer" validate:"required,max=256"`
	Username string `json:"username" validate:"required,max=64"`
}

func (c controller) handleSubmitAnswer(ctx context.Context, _ *websocket.Conn, payload json.RawMessage) error {
	var input SubmitAnswerInput
	if err := c.unmarshalPayload(payload, &input); err != nil {
		return err
	}

	submitAnswerResp, err := c.roomService.SubmitAnswer(ctx, &room.SubmitAnswerParams{
		RoomId:   input.RoomId,
		SceneId:  input.SceneId,
		Username: input.Username,
		Answer:   input.Answer,
	})
	if err != nil {
		// the prompt expired or never fired
		if errors.Is(err, room.ErrInteractionNotFound) {
			c.logger.DebugContext(ctx, "stale interaction response dropped", "scene_id", input.SceneId)
			return nil
		}

		return fmt.Errorf("failed to submit answer: %w", err)
	}

	c.broadcast(ctx, submitAnswerResp.Conns, &Output{
		Type:    "interaction-results",
		Payload: submitAnswerResp.Results,
	})

	return nil
}
