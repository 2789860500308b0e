package room

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cinesync/server/internal/repository/connection"
	"github.com/cinesync/server/internal/repository/room"
)

type JoinRoomParams struct {
	Conn     *websocket.Conn
	ConnId   string
	RoomId   string
	Username string
	IsHost   bool
}

type JoinRoomResponse struct {
	RoomId  string
	Members []Member
	Message ChatMessage
	Conns   []*websocket.Conn
}

func (s *service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	roomId := params.RoomId
	if roomId == "" {
		roomId = s.generator.GenerateRandomString(roomIdLength)
	}

	// a connection switching rooms leaves its previous room first, so the
	// old roster does not keep a ghost entry
	prev, err := s.roomRepo.GetMember(ctx, params.ConnId)
	if err != nil && !errors.Is(err, room.ErrMemberNotFound) {
		return JoinRoomResponse{}, fmt.Errorf("failed to get member: %w", err)
	}
	if err == nil && prev.RoomId != roomId {
		leaveResp, err := s.LeaveRoom(ctx, &LeaveRoomParams{ConnId: params.ConnId})
		if err != nil && !errors.Is(err, ErrMemberNotFound) {
			return JoinRoomResponse{}, fmt.Errorf("failed to leave previous room: %w", err)
		}
		if err == nil {
			s.sendToAll(ctx, leaveResp.Conns, &output{Type: "chat-message", Payload: leaveResp.Message})
			s.sendToAll(ctx, leaveResp.Conns, &output{Type: "user-list", Payload: leaveResp.Members})
			if leaveResp.WasHost {
				s.sendToAll(ctx, leaveResp.Conns, &output{Type: "force-leave", Payload: nil})
			}
		}
	}

	if err := s.connRepo.Add(params.Conn, params.ConnId); err != nil {
		if !errors.Is(err, connection.ErrAlreadyExists) {
			return JoinRoomResponse{}, fmt.Errorf("failed to register connection: %w", err)
		}
	}

	exists, err := s.roomRepo.IsPlayerExists(ctx, roomId)
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to check if player exists: %w", err)
	}

	if !exists {
		if err := s.roomRepo.SetPlayer(ctx, &room.SetPlayerParams{
			MovieURL:     "",
			IsPlaying:    false,
			CurrentTime:  0,
			PlaybackRate: defaultPlaybackRate,
			UpdatedAt:    time.Now().UnixMilli(),
			RoomId:       roomId,
		}); err != nil {
			return JoinRoomResponse{}, fmt.Errorf("failed to set player: %w", err)
		}
	}

	if params.IsHost {
		prevHost, err := s.roomRepo.GetHost(ctx, roomId)
		if err != nil && !errors.Is(err, room.ErrHostNotFound) {
			return JoinRoomResponse{}, fmt.Errorf("failed to get host: %w", err)
		}

		// a second host claim silently replaces the first; logged so the
		// handoff is at least visible
		if prevHost != "" && prevHost != params.ConnId {
			s.logger.WarnContext(ctx, "host overwritten by a second host claim",
				"room_id", roomId,
				"previous_host", prevHost,
				"new_host", params.ConnId,
			)
		}

		if err := s.roomRepo.SetHost(ctx, roomId, params.ConnId); err != nil {
			return JoinRoomResponse{}, fmt.Errorf("failed to set host: %w", err)
		}
	}

	if err := s.roomRepo.SetMember(ctx, &room.SetMemberParams{
		ConnId:   params.ConnId,
		RoomId:   roomId,
		Username: params.Username,
		IsHost:   params.IsHost,
	}); err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to set member: %w", err)
	}

	members, err := s.getMembers(ctx, roomId)
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to get members: %w", err)
	}

	conns, err := s.getConnsByRoomId(ctx, roomId)
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to get conns by room id: %w", err)
	}

	return JoinRoomResponse{
		RoomId:  roomId,
		Members: members,
		Message: ChatMessage{
			Username:  SystemUsername,
			Message:   fmt.Sprintf("%s joined the room.", params.Username),
			Timestamp: time.Now().UnixMilli(),
		},
		Conns: conns,
	}, nil
}

type LeaveRoomParams struct {
	ConnId string
}

type LeaveRoomResponse struct {
	RoomId   string
	Username string
	WasHost  bool
	Members  []Member
	Message  ChatMessage
	Conns    []*websocket.Conn
}

// LeaveRoom removes the connection from its room. Leaving or disconnecting
// an unregistered connection is a no-op reported as ErrMemberNotFound so
// callers can drop the event quietly. If the leaving connection was the
// host the room is torn down: remaining members get force-leave, every
// scene timer is cancelled and the playback record is dropped, so stray
// playback events for the room fail closed afterwards.
func (s *service) LeaveRoom(ctx context.Context, params *LeaveRoomParams) (LeaveRoomResponse, error) {
	member, err := s.roomRepo.GetMember(ctx, params.ConnId)
	if err != nil {
		if errors.Is(err, room.ErrMemberNotFound) {
			return LeaveRoomResponse{}, ErrMemberNotFound
		}

		return LeaveRoomResponse{}, fmt.Errorf("failed to get member: %w", err)
	}

	roomId := member.RoomId

	wasHost := false
	host, err := s.roomRepo.GetHost(ctx, roomId)
	if err != nil && !errors.Is(err, room.ErrHostNotFound) {
		return LeaveRoomResponse{}, fmt.Errorf("failed to get host: %w", err)
	}
	if host == params.ConnId {
		wasHost = true
	}

	if err := s.roomRepo.RemoveMember(ctx, &room.RemoveMemberParams{
		ConnId: params.ConnId,
		RoomId: roomId,
	}); err != nil {
		if errors.Is(err, room.ErrMemberNotFound) {
			return LeaveRoomResponse{}, ErrMemberNotFound
		}

		return LeaveRoomResponse{}, fmt.Errorf("failed to remove member: %w", err)
	}

	if err := s.connRepo.RemoveByConnId(params.ConnId); err != nil && !errors.Is(err, connection.ErrNotFound) {
		return LeaveRoomResponse{}, fmt.Errorf("failed to remove connection: %w", err)
	}

	if wasHost {
		s.CancelAll(roomId)
		if err := s.roomRepo.RemoveHost(ctx, roomId); err != nil {
			return LeaveRoomResponse{}, fmt.Errorf("failed to remove host: %w", err)
		}
		if err := s.roomRepo.RemovePlayer(ctx, roomId); err != nil && !errors.Is(err, room.ErrPlayerNotFound) {
			return LeaveRoomResponse{}, fmt.Errorf("failed to remove player: %w", err)
		}
	}

	members, err := s.getMembers(ctx, roomId)
	if err != nil {
		return LeaveRoomResponse{}, fmt.Errorf("failed to get members: %w", err)
	}

	conns, err := s.getConnsByRoomId(ctx, roomId)
	if err != nil {
		return LeaveRoomResponse{}, fmt.Errorf("failed to get conns by room id: %w", err)
	}

	return LeaveRoomResponse{
		RoomId:   roomId,
		Username: member.Username,
		WasHost:  wasHost,
		Members:  members,
		Message: ChatMessage{
			Username:  SystemUsername,
			Message:   fmt.Sprintf("%s left the room.", member.Username),
			Timestamp: time.Now().UnixMilli(),
		},
		Conns: conns,
	}, nil
}

type DisconnectMemberParams struct {
	Conn *websocket.Conn
}

// DisconnectMember handles a dropped socket: it resolves the connection id
// and runs the same removal path as an explicit leave.
func (s *service) DisconnectMember(ctx context.Context, params *DisconnectMemberParams) (LeaveRoomResponse, error) {
	connId, err := s.connRepo.GetConnId(params.Conn)
	if err != nil {
		if errors.Is(err, connection.ErrNotFound) {
			return LeaveRoomResponse{}, ErrMemberNotFound
		}

		return LeaveRoomResponse{}, fmt.Errorf("failed to get conn id: %w", err)
	}

	return s.LeaveRoom(ctx, &LeaveRoomParams{ConnId: connId})
}
