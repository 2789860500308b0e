package controller

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cinesync/server/internal/service/recommend"
	"github.com/cinesync/server/internal/service/room"
	"github.com/cinesync/server/pkg/validator"
	"github.com/cinesync/server/pkg/wsrouter"
)

type iRoomService interface {
	JoinRoom(context.Context, *room.JoinRoomParams) (room.JoinRoomResponse, error)
	LeaveRoom(context.Context, *room.LeaveRoomParams) (room.LeaveRoomResponse, error)
	DisconnectMember(context.Context, *room.DisconnectMemberParams) (room.LeaveRoomResponse, error)
	SelectMovie(context.Context, *room.SelectMovieParams) (room.SelectMovieResponse, error)
	Play(context.Context, *room.PlayParams) (room.PlayResponse, error)
	Pause(context.Context, *room.PauseParams) (room.PauseResponse, error)
	Seek(context.Context, *room.SeekParams) (room.SeekResponse, error)
	RateChange(context.Context, *room.RateChangeParams) (room.RateChangeResponse, error)
	SendChatMessage(context.Context, *room.SendChatMessageParams) (room.SendChatMessageResponse, error)
	SendReaction(context.Context, *room.SendReactionParams) (room.SendReactionResponse, error)
	SubmitAnswer(context.Context, *room.SubmitAnswerParams) (room.SubmitAnswerResponse, error)
}

type iRecommendService interface {
	Recommend(context.Context, *recommend.Params) []recommend.Movie
}

// iConnRepo is the slice of the connection registry the controller needs:
// serialized writes, and eviction of connections that fail them.
type iConnRepo interface {
	WriteJSON(conn *websocket.Conn, v any) error
	RemoveByConn(conn *websocket.Conn) error
}

type controller struct {
	roomService      iRoomService
	recommendService iRecommendService
	connRepo         iConnRepo
	upgrader         websocket.Upgrader
	validate         *validator.Validator
	wsmux            *wsrouter.WSRouter
	logger           *slog.Logger
}

func NewController(roomService iRoomService, recommendService iRecommendService, connRepo iConnRepo, logger *slog.Logger) *controller {
	c := controller{
		roomService:      roomService,
		recommendService: recommendService,
		connRepo:         connRepo,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		validate: validator.NewValidator(),
		logger:   logger,
	}

	c.wsmux = c.getWSRouter()

	return &c
}

func (c controller) generateTimeBasedId() string {
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}
