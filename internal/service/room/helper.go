package room

import (
	"context"
	"slices"

	"github.com/gorilla/websocket"
)

func (s *service) getMembers(ctx context.Context, roomId string) ([]Member, error) {
	connIds, err := s.roomRepo.GetMemberIds(ctx, roomId)
	if err != nil {
		return nil, err
	}

	members := make([]Member, 0, len(connIds))
	for _, connId := range connIds {
		member, err := s.roomRepo.GetMember(ctx, connId)
		if err != nil {
			return nil, err
		}

		members = append(members, Member{
			ConnId:   connId,
			Username: member.Username,
			IsHost:   member.IsHost,
		})
	}

	return members, nil
}

// getConnsByRoomId returns the live connections of every room member except
// those listed in exclude. Members without a live connection are skipped: a
// member can be removed from the registry a moment before its membership
// record goes away.
func (s *service) getConnsByRoomId(ctx context.Context, roomId string, exclude ...string) ([]*websocket.Conn, error) {
	connIds, err := s.roomRepo.GetMemberIds(ctx, roomId)
	if err != nil {
		return nil, err
	}

	conns := make([]*websocket.Conn, 0, len(connIds))
	for _, connId := range connIds {
		if slices.Contains(exclude, connId) {
			continue
		}

		conn, err := s.connRepo.GetConn(connId)
		if err != nil {
			s.logger.DebugContext(ctx, "member has no live connection", "conn_id", connId)
			continue
		}

		conns = append(conns, conn)
	}

	return conns, nil
}
