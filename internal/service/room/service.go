package room

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cinesync/server/internal/repository/room"
	"github.com/cinesync/server/pkg/randstr"
	"github.com/cinesync/server/pkg/scenedata"
)

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrMemberNotFound      = errors.New("member not found")
	ErrInteractionNotFound = errors.New("interaction not found")
)

const roomIdLength = 8

type iRoomRepo interface {
	// member
	SetMember(context.Context, *room.SetMemberParams) error
	GetMember(ctx context.Context, connId string) (room.Member, error)
	GetMemberIds(ctx context.Context, roomId string) ([]string, error)
	RemoveMember(context.Context, *room.RemoveMemberParams) error
	// host
	SetHost(ctx context.Context, roomId, connId string) error
	GetHost(ctx context.Context, roomId string) (string, error)
	RemoveHost(ctx context.Context, roomId string) error
	// player
	SetPlayer(context.Context, *room.SetPlayerParams) error
	IsPlayerExists(ctx context.Context, roomId string) (bool, error)
	GetPlayer(ctx context.Context, roomId string) (room.Player, error)
	UpdatePlayerState(context.Context, *room.UpdatePlayerStateParams) error
	UpdatePlayerCurrentTime(ctx context.Context, roomId string, currentTime float64) error
	UpdatePlayerPlaybackRate(ctx context.Context, roomId string, playbackRate float64) error
	RemovePlayer(ctx context.Context, roomId string) error
	// interaction
	CreateInteraction(context.Context, *room.CreateInteractionParams) error
	GetInteractionKind(ctx context.Context, roomId string, sceneId int) (string, error)
	SetInteractionAnswer(context.Context, *room.SetInteractionAnswerParams) error
	GetInteractionAnswers(ctx context.Context, roomId string, sceneId int) (map[string]string, error)
}

type iConnRepo interface {
	Add(conn *websocket.Conn, connId string) error
	RemoveByConn(conn *websocket.Conn) error
	RemoveByConnId(connId string) error
	GetConn(connId string) (*websocket.Conn, error)
	GetConnId(conn *websocket.Conn) (string, error)
	WriteJSON(conn *websocket.Conn, v any) error
}

type iSceneStore interface {
	Get(titleKey string) ([]scenedata.Scene, error)
}

type iGenerator interface {
	GenerateRandomString(length int) string
}

type service struct {
	roomRepo   iRoomRepo
	connRepo   iConnRepo
	sceneStore iSceneStore
	generator  iGenerator
	logger     *slog.Logger

	// per-room armed scene timers; the only state mutated outside the
	// request path. timerGen advances on every cancellation so a rebuild
	// that raced a newer cancel can tell its snapshot is stale.
	timersMu sync.Mutex
	timers   map[string][]*time.Timer
	timerGen map[string]uint64
}

func NewService(roomRepo iRoomRepo, connRepo iConnRepo, sceneStore iSceneStore, logger *slog.Logger) *service {
	s := service{
		roomRepo:   roomRepo,
		connRepo:   connRepo,
		sceneStore: sceneStore,
		logger:     logger,
		timers:     make(map[string][]*time.Timer),
		timerGen:   make(map[string]uint64),
	}

	letterBytes := []byte("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")
	s.generator = randstr.New(letterBytes)

	return &s
}
