package redis

import (
	"context"
	"errors"
	"strconv"

	goredis "github.com/redis/go-redis/v9"

	"github.com/cinesync/server/internal/repository/room"
)

func (r repo) getInteractionKey(roomId string, sceneId int) string {
	return "room:" + roomId + ":interaction:" + strconv.Itoa(sceneId)
}

func (r repo) getInteractionKindKey(roomId string, sceneId int) string {
	return r.getInteractionKey(roomId, sceneId) + ":kind"
}

// CreateInteraction opens a tally for one fired prompt. The kind key doubles
// as the existence marker checked before accepting answers.
func (r repo) CreateInteraction(ctx context.Context, params *room.CreateInteractionParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	kindKey := r.getInteractionKindKey(params.RoomId, params.SceneId)
	if err := r.rc.Set(ctx, kindKey, params.Kind, r.expireDuration).Err(); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) GetInteractionKind(ctx context.Context, roomId string, sceneId int) (string, error) {
	kind, err := r.rc.Get(ctx, r.getInteractionKindKey(roomId, sceneId)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", room.ErrInteractionNotFound
		}

		return "", err
	}

	return kind, nil
}

func (r repo) SetInteractionAnswer(ctx context.Context, params *room.SetInteractionAnswerParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	interactionKey := r.getInteractionKey(params.RoomId, params.SceneId)
	pipe := r.rc.TxPipeline()

	pipe.HSet(ctx, interactionKey, params.Username, params.Answer)
	pipe.Expire(ctx, interactionKey, r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) GetInteractionAnswers(ctx context.Context, roomId string, sceneId int) (map[string]string, error) {
	answers, err := r.rc.HGetAll(ctx, r.getInteractionKey(roomId, sceneId)).Result()
	if err != nil {
		return nil, err
	}

	return answers, nil
}
