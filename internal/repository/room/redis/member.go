package redis

import (
	"context"
	"errors"

	goredis "github.com/redis/go-redis/v9"

	"github.com/cinesync/server/internal/repository/room"
)

func (r repo) getMemberKey(connId string) string {
	return "member:" + connId
}

func (r repo) getMemberListKey(roomId string) string {
	return "room:" + roomId + ":memberlist"
}

func (r repo) getHostKey(roomId string) string {
	return "room:" + roomId + ":host"
}

func (r repo) SetMember(ctx context.Context, params *room.SetMemberParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	pipe := r.rc.TxPipeline()

	member := room.Member{
		Username: params.Username,
		RoomId:   params.RoomId,
		IsHost:   params.IsHost,
	}

	memberKey := r.getMemberKey(params.ConnId)
	pipe.HSet(ctx, memberKey, member)
	pipe.Expire(ctx, memberKey, r.expireDuration)

	memberListKey := r.getMemberListKey(params.RoomId)
	r.addWithIncrement(ctx, pipe, memberListKey, params.ConnId)
	pipe.Expire(ctx, memberListKey, r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) GetMember(ctx context.Context, connId string) (room.Member, error) {
	memberKey := r.getMemberKey(connId)
	res, err := r.rc.Exists(ctx, memberKey).Result()
	if err != nil {
		return room.Member{}, err
	}

	if res == 0 {
		return room.Member{}, room.ErrMemberNotFound
	}

	var member room.Member
	if err := r.rc.HGetAll(ctx, memberKey).Scan(&member); err != nil {
		return room.Member{}, err
	}

	r.rc.Expire(ctx, memberKey, r.expireDuration)

	return member, nil
}

func (r repo) GetMemberIds(ctx context.Context, roomId string) ([]string, error) {
	memberListKey := r.getMemberListKey(roomId)
	memberIds, err := r.rc.ZRange(ctx, memberListKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	r.rc.Expire(ctx, memberListKey, r.expireDuration)

	return memberIds, nil
}

func (r repo) RemoveMember(ctx context.Context, params *room.RemoveMemberParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	pipe := r.rc.TxPipeline()

	pipe.ZRem(ctx, r.getMemberListKey(params.RoomId), params.ConnId)
	delCmd := pipe.Del(ctx, r.getMemberKey(params.ConnId))

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	if delCmd.Val() == 0 {
		return room.ErrMemberNotFound
	}

	return nil
}

func (r repo) SetHost(ctx context.Context, roomId, connId string) error {
	r.logger.DebugContext(ctx, "called", "room_id", roomId, "conn_id", connId)
	hostKey := r.getHostKey(roomId)
	if err := r.rc.Set(ctx, hostKey, connId, r.expireDuration).Err(); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) GetHost(ctx context.Context, roomId string) (string, error) {
	connId, err := r.rc.Get(ctx, r.getHostKey(roomId)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", room.ErrHostNotFound
		}

		return "", err
	}

	return connId, nil
}

func (r repo) RemoveHost(ctx context.Context, roomId string) error {
	r.logger.DebugContext(ctx, "called", "room_id", roomId)
	if err := r.rc.Del(ctx, r.getHostKey(roomId)).Err(); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}
